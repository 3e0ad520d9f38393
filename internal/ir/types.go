package ir

import "fmt"

// Type is the declared type of a port.
type Type string

const (
	// TypeAny accepts every packet kind.
	TypeAny Type = "any"
	// TypeBang carries valueless events.
	TypeBang Type = "bang"
	// TypeBool carries booleans.
	TypeBool Type = "bool"
	// TypeInt carries integers.
	TypeInt Type = "int"
	// TypeString carries text.
	TypeString Type = "string"
)

// ParseType converts a type name into a Type. The empty string is TypeAny.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case "", TypeAny:
		return TypeAny, nil
	case TypeBang, TypeBool, TypeInt, TypeString:
		return Type(s), nil
	default:
		return "", fmt.Errorf("unknown port type %q", s)
	}
}

// Kind returns the packet kind carried by a concrete type.
// TypeAny has no single kind and returns KindInvalid.
func (t Type) Kind() Kind {
	switch t {
	case TypeBang:
		return KindBang
	case TypeBool:
		return KindBool
	case TypeInt:
		return KindInt
	case TypeString:
		return KindString
	default:
		return KindInvalid
	}
}

// Accepts reports whether a packet of kind k may travel through a port of type t.
func (t Type) Accepts(k Kind) bool {
	if k == KindInvalid {
		return false
	}
	return t == TypeAny || t.Kind() == k
}

// Compatible reports whether an out port of type src may feed an in port of
// type dst. Either side being TypeAny makes the pair compatible; the packet
// is then checked against the in port when it is emitted.
func Compatible(src, dst Type) bool {
	return src == TypeAny || dst == TypeAny || src == dst
}
