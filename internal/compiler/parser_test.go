package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const blinkProgram = `timer(Timer) OUT -> IN toggle(ToggleBoolean) OUT -> IN led(DigitalWrite)
'300' -> INTERVAL timer()
'13' -> PIN led()`

func TestParseBlink(t *testing.T) {
	g, err := Parse(blinkProgram)
	require.NoError(t, err)

	require.Len(t, g.Instances, 3)
	assert.Equal(t, Instance{Name: "timer", Component: "Timer", Line: 1, Col: 1}, g.Instances[0])
	assert.Equal(t, "toggle", g.Instances[1].Name)
	assert.Equal(t, "ToggleBoolean", g.Instances[1].Component)
	assert.Equal(t, "led", g.Instances[2].Name)

	require.Len(t, g.Edges, 2)
	assert.Equal(t, "timer", g.Edges[0].Src)
	assert.Equal(t, "OUT", g.Edges[0].SrcPort)
	assert.Equal(t, "toggle", g.Edges[0].Dst)
	assert.Equal(t, "IN", g.Edges[0].DstPort)
	assert.Equal(t, "toggle", g.Edges[1].Src)
	assert.Equal(t, "led", g.Edges[1].Dst)

	require.Len(t, g.IIPs, 2)
	assert.Equal(t, IIP{Literal: "300", Dst: "timer", Port: "INTERVAL", Line: 2, Col: 1}, g.IIPs[0])
	assert.Equal(t, "13", g.IIPs[1].Literal)
	assert.Equal(t, "PIN", g.IIPs[1].Port)
}

func TestParseIsNewlineInsensitive(t *testing.T) {
	oneLine := "timer(Timer) OUT -> IN toggle(ToggleBoolean) OUT -> IN led(DigitalWrite) " +
		"'300' -> INTERVAL timer() '13' -> PIN led()"
	spread := `
		timer(Timer)
			OUT -> IN
		toggle(ToggleBoolean) OUT
			->
		IN led(DigitalWrite)

		'300' -> INTERVAL timer()
		'13' -> PIN led()
	`

	a, err := Parse(oneLine)
	require.NoError(t, err)
	b, err := Parse(spread)
	require.NoError(t, err)

	assert.Len(t, a.Instances, 3)
	assert.Len(t, b.Instances, 3)
	assert.Len(t, a.Edges, 2)
	assert.Len(t, b.Edges, 2)
	assert.Len(t, a.IIPs, 2)
	assert.Len(t, b.IIPs, 2)
	for i := range a.Edges {
		assert.Equal(t, a.Edges[i].Src, b.Edges[i].Src)
		assert.Equal(t, a.Edges[i].Dst, b.Edges[i].Dst)
	}
}

func TestParseCommentsAndCommas(t *testing.T) {
	g, err := Parse(`
		# a lone counter
		btn(Forward), count(Counter) # two declarations
		btn OUT -> IN count
		'go' -> IN btn()
	`)
	require.NoError(t, err)
	assert.Len(t, g.Instances, 2)
	assert.Len(t, g.Edges, 1)
	assert.Len(t, g.IIPs, 1)
	assert.Equal(t, "go", g.IIPs[0].Literal)
}

func TestParseForwardReference(t *testing.T) {
	g, err := Parse(`
		'13' -> PIN led()
		toggle OUT -> IN led(DigitalWrite)
		toggle(ToggleBoolean)
	`)
	require.NoError(t, err)

	inst, ok := g.Instance("led")
	require.True(t, ok)
	assert.Equal(t, "DigitalWrite", inst.Component)
	assert.Equal(t, "led", g.Instances[0].Name, "first declaration fixes node order")
	assert.Equal(t, "toggle", g.Instances[1].Name)
}

func TestParseLiteralKeepsSpacesAndSymbols(t *testing.T) {
	g, err := Parse(`'hello, world -> #1' -> IN f(Forward)`)
	require.NoError(t, err)
	require.Len(t, g.IIPs, 1)
	assert.Equal(t, "hello, world -> #1", g.IIPs[0].Literal)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		line    int
		col     int
		message string
	}{
		{
			name:    "unterminated connection",
			input:   "a(Forward) OUT ->",
			line:    1,
			col:     18,
			message: "unterminated connection",
		},
		{
			name:    "missing target node",
			input:   "a(Forward) OUT -> IN",
			line:    1,
			col:     21,
			message: "unterminated connection",
		},
		{
			name:    "dangling reference",
			input:   "a(Forward)\na",
			line:    2,
			col:     1,
			message: "unterminated connection",
		},
		{
			name:    "undeclared instance",
			input:   "a(Forward) OUT -> IN ghost()",
			line:    1,
			col:     22,
			message: `undeclared instance "ghost"`,
		},
		{
			name:    "duplicate declaration",
			input:   "a(Forward)\na(Forward)",
			line:    2,
			col:     1,
			message: `duplicate instance "a"`,
		},
		{
			name:    "redeclared with another type",
			input:   "a(Forward) OUT -> IN a(Counter)",
			line:    1,
			col:     22,
			message: `duplicate instance "a"`,
		},
		{
			name:    "unterminated literal",
			input:   "a(Forward)\n'300 -> IN a()",
			line:    2,
			col:     1,
			message: "unterminated literal",
		},
		{
			name:    "unclosed paren",
			input:   "a(Forward OUT -> IN b(Forward)",
			line:    1,
			col:     11,
			message: "expected ')'",
		},
		{
			name:    "literal without arrow",
			input:   "'1' a(Forward)",
			line:    1,
			col:     5,
			message: "expected '->' after literal",
		},
		{
			name:    "stray character",
			input:   "a(Forward) OUT => IN b(Forward)",
			line:    1,
			col:     16,
			message: "unexpected character '='",
		},
		{
			name:    "single dash",
			input:   "a(Forward) OUT - IN b(Forward)",
			line:    1,
			col:     16,
			message: "expected '->'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			require.Error(t, err)

			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.line, pe.Line, "line")
			assert.Equal(t, tt.col, pe.Col, "col")
			assert.Contains(t, pe.Msg, tt.message)
			assert.True(t, IsParseError(err))
		})
	}
}

func TestParseEmpty(t *testing.T) {
	g, err := Parse("  # nothing here\n")
	require.NoError(t, err)
	assert.Empty(t, g.Instances)
	assert.Empty(t, g.Edges)
	assert.Empty(t, g.IIPs)
}
