package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/microflo/internal/component"
	"github.com/roach88/microflo/internal/ir"
)

func TestNetwork_AddNodeKeepsOrder(t *testing.T) {
	n, _, rec := newTestNetwork(t)
	blink(t, n, 300, 13)

	var ids []string
	for _, node := range n.Nodes() {
		ids = append(ids, node.ID())
	}
	assert.Equal(t, []string{"timer", "toggle", "led"}, ids)
	assert.Equal(t, ids, rec.added)

	led, ok := n.Node("led")
	require.True(t, ok)
	assert.Equal(t, "DigitalWrite", led.Component())
	assert.Equal(t, NodeIdle, led.Status())

	pin, ok := led.Inport("PIN")
	require.True(t, ok)
	assert.Equal(t, Port{Name: "PIN", Direction: DirectionIn, Node: "led", Type: ir.TypeInt}, pin)
}

func TestNetwork_AddNodeErrors(t *testing.T) {
	n, _, _ := newTestNetwork(t)
	mustAdd(t, n, "a", component.Forward())

	_, err := n.AddNode("a", component.Forward())
	assert.ErrorIs(t, err, ErrDuplicateNode)

	_, err = n.AddNode("", component.Forward())
	assert.Error(t, err)

	_, err = n.AddNode("b", nil)
	assert.Error(t, err)
}

func TestNetwork_ConnectErrors(t *testing.T) {
	n, _, _ := newTestNetwork(t)
	mustAdd(t, n, "toggle", component.ToggleBoolean())
	mustAdd(t, n, "timer", component.Timer())
	mustAdd(t, n, "count", component.Counter())

	err := n.Connect("ghost", "OUT", "toggle", "IN")
	assert.ErrorIs(t, err, ErrUnknownNode)

	err = n.Connect("toggle", "NOPE", "timer", "INTERVAL")
	var upe *UnknownPortError
	require.True(t, errors.As(err, &upe))
	assert.Equal(t, DirectionOut, upe.Direction)
	assert.Equal(t, "NOPE", upe.Port)

	// bool cannot feed an int port
	err = n.Connect("toggle", "OUT", "timer", "INTERVAL")
	var pme *PortMismatchError
	require.True(t, errors.As(err, &pme))
	assert.Equal(t, ir.TypeBool, pme.SrcType)
	assert.Equal(t, ir.TypeInt, pme.DstType)
	assert.Contains(t, pme.Error(), "cannot connect toggle.OUT (bool) to timer.INTERVAL (int)")

	// int may feed an int port
	require.NoError(t, n.Connect("count", "OUT", "timer", "INTERVAL"))
	assert.Len(t, n.Connections(), 1)
}

func TestNetwork_AddInitialChecksType(t *testing.T) {
	n, _, _ := newTestNetwork(t)
	mustAdd(t, n, "timer", component.Timer())

	err := n.AddInitial("timer", "INTERVAL", ir.String("soon"))
	var pme *PortMismatchError
	require.True(t, errors.As(err, &pme))
	assert.True(t, pme.Src.IsZero())

	err = n.AddInitial("timer", "OUT", ir.Int(1))
	var upe *UnknownPortError
	require.True(t, errors.As(err, &upe))
	assert.Equal(t, DirectionIn, upe.Direction)

	require.NoError(t, n.AddInitial("timer", "INTERVAL", ir.Int(1)))
	assert.Len(t, n.Initials(), 1)
}

func TestNetwork_FrozenAfterStart(t *testing.T) {
	n, _, _ := newTestNetwork(t)
	mustAdd(t, n, "a", component.Forward())
	require.NoError(t, n.Start(context.Background()))

	_, err := n.AddNode("b", component.Forward())
	assert.ErrorIs(t, err, ErrNetworkStarted)
	assert.ErrorIs(t, n.Connect("a", "OUT", "a", "IN"), ErrNetworkStarted)
	assert.ErrorIs(t, n.AddInitial("a", "IN", ir.Bang()), ErrNetworkStarted)
	assert.ErrorIs(t, n.Start(context.Background()), ErrNetworkStarted)
}
