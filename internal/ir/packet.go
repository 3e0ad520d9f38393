package ir

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind enumerates the packet payload kinds.
type Kind int

const (
	// KindInvalid is the zero Kind. A zero Packet carries it.
	KindInvalid Kind = iota
	// KindBang is a valueless event, e.g. a Timer firing.
	KindBang
	// KindBool carries a boolean.
	KindBool
	// KindInt carries a signed integer.
	KindInt
	// KindString carries text.
	KindString
)

var kindNames = map[Kind]string{
	KindInvalid: "invalid",
	KindBang:    "bang",
	KindBool:    "bool",
	KindInt:     "int",
	KindString:  "string",
}

// String returns the lower-case kind name used in traces and error messages.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Packet is an immutable typed value travelling between ports.
//
// The zero Packet is invalid; use Bang, Bool, Int or String to construct one.
// Packets are passed by value so a delivered packet can never be mutated by
// its sender.
type Packet struct {
	kind Kind
	b    bool
	n    int64
	s    string
}

// Bang returns a valueless event packet.
func Bang() Packet { return Packet{kind: KindBang} }

// Bool returns a boolean packet.
func Bool(v bool) Packet { return Packet{kind: KindBool, b: v} }

// Int returns an integer packet.
func Int(v int64) Packet { return Packet{kind: KindInt, n: v} }

// String returns a text packet.
func String(v string) Packet { return Packet{kind: KindString, s: v} }

// Kind reports the payload kind.
func (p Packet) Kind() Kind { return p.kind }

// IsValid reports whether p was built by one of the constructors.
func (p Packet) IsValid() bool { return p.kind != KindInvalid }

// AsBool returns the boolean payload and whether p is a bool packet.
func (p Packet) AsBool() (bool, bool) { return p.b, p.kind == KindBool }

// AsInt returns the integer payload and whether p is an int packet.
func (p Packet) AsInt() (int64, bool) { return p.n, p.kind == KindInt }

// AsString returns the text payload and whether p is a string packet.
func (p Packet) AsString() (string, bool) { return p.s, p.kind == KindString }

// Truthy interprets any packet as a boolean: bang is true, ints are true
// when non-zero, strings when non-empty.
func (p Packet) Truthy() bool {
	switch p.kind {
	case KindBang:
		return true
	case KindBool:
		return p.b
	case KindInt:
		return p.n != 0
	case KindString:
		return p.s != ""
	default:
		return false
	}
}

// Value returns the payload as a plain Go value (nil for bang and invalid).
func (p Packet) Value() any {
	switch p.kind {
	case KindBool:
		return p.b
	case KindInt:
		return p.n
	case KindString:
		return p.s
	default:
		return nil
	}
}

// Equal reports whether two packets have the same kind and payload.
func (p Packet) Equal(o Packet) bool {
	return p == o
}

// String renders the packet as kind:value, e.g. "bool:true" or "bang".
func (p Packet) String() string {
	switch p.kind {
	case KindBool:
		return "bool:" + strconv.FormatBool(p.b)
	case KindInt:
		return "int:" + strconv.FormatInt(p.n, 10)
	case KindString:
		return "string:" + strconv.Quote(p.s)
	default:
		return p.kind.String()
	}
}

// ValueString renders only the payload, as it would appear in a literal.
func (p Packet) ValueString() string {
	switch p.kind {
	case KindBool:
		return strconv.FormatBool(p.b)
	case KindInt:
		return strconv.FormatInt(p.n, 10)
	case KindString:
		return p.s
	default:
		return ""
	}
}

// packetJSON is the wire shape used by MarshalJSON/UnmarshalJSON.
type packetJSON struct {
	Kind  string `json:"kind"`
	Value any    `json:"value,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (p Packet) MarshalJSON() ([]byte, error) {
	if !p.IsValid() {
		return nil, fmt.Errorf("marshal invalid packet")
	}
	return json.Marshal(packetJSON{Kind: p.kind.String(), Value: p.Value()})
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Packet) UnmarshalJSON(data []byte) error {
	var raw struct {
		Kind  string          `json:"kind"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch raw.Kind {
	case "bang":
		*p = Bang()
	case "bool":
		var v bool
		if err := json.Unmarshal(raw.Value, &v); err != nil {
			return fmt.Errorf("bool packet value: %w", err)
		}
		*p = Bool(v)
	case "int":
		var v int64
		if err := json.Unmarshal(raw.Value, &v); err != nil {
			return fmt.Errorf("int packet value: %w", err)
		}
		*p = Int(v)
	case "string":
		var v string
		if err := json.Unmarshal(raw.Value, &v); err != nil {
			return fmt.Errorf("string packet value: %w", err)
		}
		*p = String(v)
	default:
		return fmt.Errorf("unknown packet kind %q", raw.Kind)
	}
	return nil
}
