package sched

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlindgren/hwsched/internal/sfg"
	"github.com/mlindgren/hwsched/internal/testutil"
)

func TestASAPAdderWithPresetPeriod(t *testing.T) {
	s, err := Compute(adderGraph(t), ASAP{}, WithScheduleTime(5))
	require.NoError(t, err)

	assert.Equal(t, 5, s.ScheduleTime())
	assert.False(t, s.Cyclic())
	assert.Equal(t, map[string]int{"in0": 0, "in1": 0, "add0": 0, "out0": 3}, startTimes(s))
	for _, sig := range s.Graph().Signals() {
		assert.Zero(t, s.Lap(sig.ID))
	}
}

func TestASAPFitsMinimalPeriod(t *testing.T) {
	s, err := Compute(adderGraph(t), ASAP{})
	require.NoError(t, err)

	// The adder's value becomes available exactly at the period boundary,
	// so the output wraps onto instant zero one lap later.
	assert.Equal(t, 3, s.ScheduleTime())
	assert.Equal(t, 0, startTimes(s)["out0"])
	assert.Equal(t, 1, lapByPair(t, s, "add0.out0>out0.in0"))
}

func TestASAPFirstOrderIIRCyclic(t *testing.T) {
	s, err := Compute(testutil.FirstOrderIIR(), ASAP{}, WithCyclic())
	require.NoError(t, err)

	assert.Equal(t, 9, s.ScheduleTime())
	assert.Equal(t, map[string]int{"in0": 0, "cmul0": 0, "add0": 4, "out0": 0}, startTimes(s))

	// The feedback delay is gone; its value rides a lap-annotated edge.
	assert.Empty(t, s.Graph().OperationsByType(sfg.TypeDelay))
	assert.Equal(t, 1, lapByPair(t, s, "add0.out0>cmul0.in0"))
	assert.Equal(t, 1, lapByPair(t, s, "add0.out0>out0.in0"))
	assert.Equal(t, 0, lapByPair(t, s, "in0.out0>add0.in0"))
	assert.Equal(t, 0, lapByPair(t, s, "cmul0.out0>add0.in1"))
}

func TestASAPRejectsDelayFreeCycle(t *testing.T) {
	g := sfg.New()
	for _, id := range []string{"add0", "add1"} {
		_, err := g.AddOperation(sfg.OpSpec{
			ID: sfg.OpID(id), Type: "Addition",
			Inputs: []string{"in0", "in1"}, Outputs: []string{"out0"},
			LatencyOffsets: map[string]int{"in0": 0, "in1": 0, "out0": 1},
		})
		require.NoError(t, err)
	}
	connect(t, g, "add0", "out0", "add1", "in0")
	connect(t, g, "add1", "out0", "add0", "in0")

	_, err := Compute(g, ASAP{})
	require.Error(t, err)
	assert.True(t, sfg.IsEmptyGraph(err))
}

func TestALAPAdderWithPresetPeriod(t *testing.T) {
	s, err := Compute(adderGraph(t), ALAP{}, WithScheduleTime(5))
	require.NoError(t, err)

	assert.Equal(t, 5, s.ScheduleTime())
	assert.Equal(t, map[string]int{"in0": 2, "in1": 2, "add0": 2, "out0": 5}, startTimes(s))
}

func TestALAPFirstOrderIIRCyclic(t *testing.T) {
	// The feedback loop is the critical path, so only the input has slack:
	// it slides forward until the adder consumes its value immediately.
	s, err := Compute(testutil.FirstOrderIIR(), ALAP{}, WithCyclic())
	require.NoError(t, err)

	assert.Equal(t, 9, s.ScheduleTime())
	assert.Equal(t, map[string]int{"in0": 4, "cmul0": 0, "add0": 4, "out0": 0}, startTimes(s))
	assert.Equal(t, 1, lapByPair(t, s, "add0.out0>cmul0.in0"))
	assert.Equal(t, 1, lapByPair(t, s, "add0.out0>out0.in0"))
}
