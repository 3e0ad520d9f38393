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

// picky accumulates ints and rejects negative values.
func picky() *component.Definition {
	return component.Define(component.Spec[int64]{
		Name:     "Picky",
		Inports:  []component.PortSpec{{Name: "IN", Type: ir.TypeInt}},
		Outports: []component.PortSpec{{Name: "OUT", Type: ir.TypeInt}},
		Process: func(_ component.Context, sum int64, _ string, p ir.Packet) (int64, []component.Emission, error) {
			n, _ := p.AsInt()
			if n < 0 {
				return sum + 1000, component.Emit("OUT", ir.Int(-1)), errors.New("negative input")
			}
			sum += n
			return sum, component.Emit("OUT", ir.Int(sum)), nil
		},
	})
}

// liar declares an int OUT port but emits strings.
func liar() *component.Definition {
	return component.Define(component.Spec[struct{}]{
		Name:     "Liar",
		Inports:  []component.PortSpec{{Name: "IN"}},
		Outports: []component.PortSpec{{Name: "OUT", Type: ir.TypeInt}},
		Process: func(_ component.Context, s struct{}, _ string, _ ir.Packet) (struct{}, []component.Emission, error) {
			return s, component.Emit("OUT", ir.String("nope")), nil
		},
	})
}

func TestStart_BlinkDrivesPinLow(t *testing.T) {
	n, sim, rec := newTestNetwork(t)
	blink(t, n, 300, 13)
	require.NoError(t, sim.DigitalWrite(13, true))

	require.NoError(t, n.Start(context.Background()))

	v, ok := sim.State().DigitalOutputs[13]
	require.True(t, ok)
	assert.False(t, v, "DigitalWrite init drives its pin low after PIN arrives")
	assert.Equal(t, 0, n.QueueLen())
	assert.True(t, n.Started())
	assert.Empty(t, rec.failures)
}

func TestStart_IIPsFollowNodeOrder(t *testing.T) {
	n, _, rec := newTestNetwork(t)
	mustAdd(t, n, "first", component.Forward())
	mustAdd(t, n, "second", component.Forward())

	require.NoError(t, n.AddInitial("second", "IN", ir.Int(1)))
	require.NoError(t, n.AddInitial("first", "IN", ir.Int(2)))
	require.NoError(t, n.AddInitial("second", "IN", ir.Int(3)))

	require.NoError(t, n.Start(context.Background()))

	var got []string
	for _, m := range rec.delivered {
		require.True(t, m.Initial)
		assert.True(t, m.Src.IsZero())
		got = append(got, m.Dst.Node+"="+m.Packet.ValueString())
	}
	assert.Equal(t, []string{"first=2", "second=1", "second=3"}, got)
}

func TestStep_TimerFiresAndToggles(t *testing.T) {
	ctx := context.Background()
	n, sim, rec := newTestNetwork(t)
	blink(t, n, 300, 13)
	require.NoError(t, n.Start(ctx))

	require.NoError(t, sim.SetTime(299))
	require.NoError(t, n.Step(ctx))
	assert.Empty(t, rec.deliveredTo("toggle.IN"), "timer has not elapsed")

	require.NoError(t, sim.SetTime(300))
	require.NoError(t, n.Step(ctx))
	assert.True(t, sim.State().DigitalOutputs[13])

	require.NoError(t, sim.SetTime(600))
	require.NoError(t, n.Step(ctx))
	assert.False(t, sim.State().DigitalOutputs[13])

	assert.Equal(t, []ir.Packet{ir.Bool(true), ir.Bool(false)}, rec.deliveredTo("led.IN"))
}

func TestStep_FIFOAcrossFanOut(t *testing.T) {
	n, _, rec := newTestNetwork(t)
	mustAdd(t, n, "src", component.Forward())
	mustAdd(t, n, "a", component.Forward())
	mustAdd(t, n, "b", component.Forward())
	mustAdd(t, n, "sink", component.Forward())
	require.NoError(t, n.Connect("src", "OUT", "a", "IN"))
	require.NoError(t, n.Connect("src", "OUT", "b", "IN"))
	require.NoError(t, n.Connect("a", "OUT", "sink", "IN"))
	require.NoError(t, n.Connect("b", "OUT", "sink", "IN"))
	require.NoError(t, n.AddInitial("src", "IN", ir.String("x")))

	require.NoError(t, n.Start(context.Background()))

	var order []string
	var last int64
	for _, m := range rec.delivered {
		assert.Greater(t, m.Seq, last, "deliveries follow enqueue order")
		last = m.Seq
		order = append(order, m.Src.Node+">"+m.Dst.Node)
	}
	assert.Equal(t, []string{">src", "src>a", "src>b", "a>sink", "b>sink"}, order)
}

func TestStart_FailureKeepsStateAndContinues(t *testing.T) {
	n, _, rec := newTestNetwork(t)
	mustAdd(t, n, "p", picky())
	mustAdd(t, n, "sink", component.Forward())
	require.NoError(t, n.Connect("p", "OUT", "sink", "IN"))
	require.NoError(t, n.AddInitial("p", "IN", ir.Int(2)))
	require.NoError(t, n.AddInitial("p", "IN", ir.Int(-5)))
	require.NoError(t, n.AddInitial("p", "IN", ir.Int(3)))

	err := n.Start(context.Background())
	require.Error(t, err)
	assert.True(t, IsProcessingError(err))

	var perr *ComponentProcessingError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "p", perr.Node)
	assert.Equal(t, "Picky", perr.Component)
	assert.Equal(t, "process", perr.Phase)
	assert.Equal(t, "IN", perr.Port)
	assert.Equal(t, ir.Int(-5), perr.Packet)

	node, _ := n.Node("p")
	assert.Equal(t, int64(5), node.State(), "failed delivery does not commit state")
	assert.Equal(t, NodeIdle, node.Status())
	assert.Equal(t, []ir.Packet{ir.Int(2), ir.Int(5)}, rec.deliveredTo("sink.IN"),
		"failed delivery emits nothing and later packets still flow")
	assert.Len(t, rec.failures, 1)
}

func TestStart_BadEmissionIsRejected(t *testing.T) {
	n, _, rec := newTestNetwork(t)
	mustAdd(t, n, "l", liar())
	mustAdd(t, n, "sink", component.Forward())
	require.NoError(t, n.Connect("l", "OUT", "sink", "IN"))
	require.NoError(t, n.AddInitial("l", "IN", ir.Bang()))

	err := n.Start(context.Background())
	require.Error(t, err)
	assert.True(t, IsProcessingError(err))
	assert.Empty(t, rec.deliveredTo("sink.IN"))
}

func TestStart_StepQuotaStopsLoops(t *testing.T) {
	n, _, rec := newTestNetwork(t, WithMaxSteps(10))
	mustAdd(t, n, "loop", component.Forward())
	require.NoError(t, n.Connect("loop", "OUT", "loop", "IN"))
	require.NoError(t, n.AddInitial("loop", "IN", ir.Bang()))

	err := n.Start(context.Background())
	require.Error(t, err)

	var se *StepsExceededError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "start", se.Phase)
	assert.Equal(t, 10, se.Limit)
	assert.Equal(t, 11, se.Steps)
	assert.Equal(t, 1, se.Discarded)
	assert.Equal(t, 0, n.QueueLen())
	assert.Len(t, rec.delivered, 10)
	assert.Equal(t, 10, n.MaxSteps())
}

func TestStep_LifecycleErrors(t *testing.T) {
	ctx := context.Background()
	n, _, _ := newTestNetwork(t)
	mustAdd(t, n, "a", component.Forward())

	assert.ErrorIs(t, n.Step(ctx), ErrNetworkNotStarted)
	require.NoError(t, n.Start(ctx))
	require.NoError(t, n.Step(ctx))

	n.Stop()
	n.Stop()
	assert.True(t, n.Stopped())
	assert.ErrorIs(t, n.Step(ctx), ErrNetworkStopped)
	assert.ErrorIs(t, n.Start(ctx), ErrNetworkStopped)
}

func TestStart_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n, _, rec := newTestNetwork(t)
	mustAdd(t, n, "a", component.Forward())
	require.NoError(t, n.AddInitial("a", "IN", ir.Bang()))

	err := n.Start(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rec.delivered)
}
