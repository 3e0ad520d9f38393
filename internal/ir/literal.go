package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// LiteralError reports an IIP literal that cannot become a packet of the
// requested type.
type LiteralError struct {
	Literal string
	Type    Type
	Reason  string
}

// Error implements the error interface.
func (e *LiteralError) Error() string {
	return fmt.Sprintf("literal %q is not a valid %s: %s", e.Literal, e.Type, e.Reason)
}

// ParseLiteral converts the text of an IIP literal into a packet suitable for
// a port of type t.
//
// Integers are decimal, so "010" is ten; hex needs an explicit 0x prefix.
// For TypeAny the kind is inferred: integers first, then true/false, then
// text. Bang ports accept any literal and receive a bang.
func ParseLiteral(lit string, t Type) (Packet, error) {
	switch t {
	case TypeBang:
		return Bang(), nil
	case TypeString:
		return String(lit), nil
	case TypeInt:
		n, err := parseInt(lit)
		if err != nil {
			return Packet{}, &LiteralError{Literal: lit, Type: t, Reason: "not an integer"}
		}
		return Int(n), nil
	case TypeBool:
		b, ok := parseBool(lit)
		if !ok {
			return Packet{}, &LiteralError{Literal: lit, Type: t, Reason: "expected true or false"}
		}
		return Bool(b), nil
	case TypeAny, "":
		if n, err := parseInt(lit); err == nil {
			return Int(n), nil
		}
		if b, ok := parseBool(lit); ok {
			return Bool(b), nil
		}
		return String(lit), nil
	default:
		return Packet{}, &LiteralError{Literal: lit, Type: t, Reason: "unknown port type"}
	}
}

func parseInt(s string) (int64, error) {
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "-")
	digits := strings.TrimPrefix(s, "-")
	if len(digits) > 2 && (digits[:2] == "0x" || digits[:2] == "0X") {
		n, err := strconv.ParseInt(digits[2:], 16, 64)
		if neg {
			n = -n
		}
		return n, err
	}
	return strconv.ParseInt(s, 10, 64)
}

// parseBool accepts the spellings microcontroller graphs use for pin levels.
func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "high", "on":
		return true, true
	case "false", "low", "off":
		return false, true
	default:
		return false, false
	}
}
