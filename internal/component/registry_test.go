package component

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/microflo/internal/ir"
)

func TestRegistry_DefaultHasBuiltins(t *testing.T) {
	r := NewDefaultRegistry()

	assert.Equal(t, []string{
		"AnalogWrite", "Counter", "DigitalRead", "DigitalWrite",
		"Forward", "InvertBoolean", "Timer", "ToggleBoolean",
	}, r.Names())

	def, err := r.Lookup("Timer")
	require.NoError(t, err)
	assert.Equal(t, "Timer", def.Name)
	assert.True(t, def.HasTick())
}

func TestRegistry_LookupUnknown(t *testing.T) {
	r := NewRegistry()

	_, err := r.Lookup("Blink")
	require.Error(t, err)

	var uce *UnknownComponentError
	require.True(t, errors.As(err, &uce))
	assert.Equal(t, "Blink", uce.Name)
}

func TestRegistry_RejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Forward()))

	err := r.Register(Forward())
	assert.ErrorContains(t, err, "duplicate component Forward")
	assert.Panics(t, func() { r.MustRegister(Forward()) })
}

func TestRegistry_RejectsInvalidDefinitions(t *testing.T) {
	r := NewRegistry()

	assert.Error(t, r.Register(nil))
	assert.Error(t, r.Register(Define(Spec[struct{}]{})), "name required")

	noProcess := Define(Spec[struct{}]{
		Name:    "Sink",
		Inports: []PortSpec{{Name: "IN", Type: ir.TypeAny}},
	})
	assert.ErrorContains(t, r.Register(noProcess), "no Process")

	dupPorts := Define(Spec[struct{}]{
		Name:     "Twice",
		Outports: []PortSpec{{Name: "OUT"}, {Name: "OUT"}},
	})
	assert.ErrorContains(t, r.Register(dupPorts), "duplicate out port OUT")

	badType := Define(Spec[struct{}]{
		Name:     "Float",
		Outports: []PortSpec{{Name: "OUT", Type: "float"}},
	})
	assert.ErrorContains(t, r.Register(badType), "unknown port type")
}

func TestDefinition_PortLookupDefaultsToAny(t *testing.T) {
	def := Define(Spec[struct{}]{
		Name:     "Source",
		Outports: []PortSpec{{Name: "OUT"}},
	})

	p, ok := def.Outport("OUT")
	require.True(t, ok)
	assert.Equal(t, ir.TypeAny, p.Type)

	_, ok = def.Inport("OUT")
	assert.False(t, ok)
}

func TestDefinition_ProcessWithoutInports(t *testing.T) {
	def := Define(Spec[struct{}]{Name: "Source"})
	st, _, err := def.Process(Context{}, def.NewState(), "IN", ir.Bang())
	assert.Error(t, err)
	assert.Equal(t, struct{}{}, st)
}

func TestDefinition_StateTypeMismatch(t *testing.T) {
	def := ToggleBoolean()
	_, _, err := def.Process(Context{}, "not a bool", "IN", ir.Bang())
	assert.ErrorContains(t, err, "node state has type string")
}
