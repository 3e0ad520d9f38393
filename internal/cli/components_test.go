package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/microflo/internal/component"
	"github.com/roach88/microflo/internal/ir"
)

func TestComponents_Text(t *testing.T) {
	stdout, _, err := execute(t, "components")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Timer - Emit a bang every INTERVAL milliseconds\n  in:  INTERVAL(int)\n  out: OUT(bang)")
	assert.Contains(t, stdout, "DigitalWrite - Write booleans to a digital output pin\n  in:  IN(bool) PIN(int)\n  out: -")
}

func TestComponents_JSON(t *testing.T) {
	stdout, _, err := execute(t, "components", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Data ComponentList `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))

	names := make([]string, len(resp.Data.Components))
	for i, c := range resp.Data.Components {
		names[i] = c.Name
	}
	assert.Equal(t, component.NewDefaultRegistry().Names(), names)

	for _, c := range resp.Data.Components {
		if c.Name == "DigitalRead" {
			assert.True(t, c.Tick)
			assert.Equal(t, []component.PortSpec{{Name: "OUT", Type: ir.TypeBool}}, c.Outports)
		}
		if c.Name == "Counter" {
			assert.False(t, c.Tick)
		}
	}
}
