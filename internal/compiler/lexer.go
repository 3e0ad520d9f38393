package compiler

import "fmt"

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokLiteral
	tokArrow
	tokLParen
	tokRParen
	tokComma
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokIdent:
		return "name"
	case tokLiteral:
		return "literal"
	case tokArrow:
		return "'->'"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	case tokComma:
		return "','"
	default:
		return fmt.Sprintf("token(%d)", int(k))
	}
}

type position struct {
	line int
	col  int
}

type token struct {
	kind tokenKind
	text string
	pos  position
}

func (t token) String() string {
	switch t.kind {
	case tokIdent:
		return fmt.Sprintf("name %q", t.text)
	case tokLiteral:
		return fmt.Sprintf("literal '%s'", t.text)
	default:
		return t.kind.String()
	}
}

// lex splits graph text into tokens. Newlines are plain whitespace: statement
// boundaries are found by the parser.
func lex(src string) ([]token, error) {
	var (
		toks []token
		rs   = []rune(src)
		pos  = position{line: 1, col: 1}
	)

	advance := func() rune {
		r := rs[0]
		rs = rs[1:]
		if r == '\n' {
			pos.line++
			pos.col = 1
		} else {
			pos.col++
		}
		return r
	}

	for len(rs) > 0 {
		start := pos
		r := rs[0]
		switch {
		case r == ' ' || r == '\t' || r == '\r' || r == '\n':
			advance()
		case r == '#':
			for len(rs) > 0 && rs[0] != '\n' {
				advance()
			}
		case r == '(':
			advance()
			toks = append(toks, token{kind: tokLParen, text: "(", pos: start})
		case r == ')':
			advance()
			toks = append(toks, token{kind: tokRParen, text: ")", pos: start})
		case r == ',':
			advance()
			toks = append(toks, token{kind: tokComma, text: ",", pos: start})
		case r == '-':
			advance()
			if len(rs) == 0 || rs[0] != '>' {
				return nil, errorAt(start, "unexpected '-', expected '->'")
			}
			advance()
			toks = append(toks, token{kind: tokArrow, text: "->", pos: start})
		case r == '\'':
			advance()
			var lit []rune
			for {
				if len(rs) == 0 {
					return nil, errorAt(start, "unterminated literal")
				}
				c := advance()
				if c == '\'' {
					break
				}
				lit = append(lit, c)
			}
			toks = append(toks, token{kind: tokLiteral, text: string(lit), pos: start})
		case isIdentRune(r):
			var name []rune
			for len(rs) > 0 && isIdentRune(rs[0]) {
				name = append(name, advance())
			}
			toks = append(toks, token{kind: tokIdent, text: string(name), pos: start})
		default:
			return nil, errorAt(start, "unexpected character %q", r)
		}
	}

	return append(toks, token{kind: tokEOF, pos: pos}), nil
}

func isIdentRune(r rune) bool {
	return r == '_' || r == '.' || r == '/' ||
		('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9')
}
