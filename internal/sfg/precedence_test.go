package sfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func delaySpec(id string) OpSpec {
	return OpSpec{
		ID:             OpID(id),
		Type:           TypeDelay,
		Inputs:         []string{"in0"},
		Outputs:        []string{"out0"},
		LatencyOffsets: map[string]int{"in0": 0, "out0": 0},
	}
}

func TestPrecedenceLevelsAdder(t *testing.T) {
	g := adderGraph(t)

	levels, err := g.PrecedenceLevels()
	require.NoError(t, err)
	require.Len(t, levels, 2)

	assert.ElementsMatch(t, []PortRef{
		{Op: "in0", Port: "out0"},
		{Op: "in1", Port: "out0"},
	}, levels[0])
	assert.Equal(t, []PortRef{{Op: "add0", Port: "out0"}}, levels[1])
}

func TestPrecedenceLevelsDelayBreaksFeedback(t *testing.T) {
	// First-order recursion: add0 feeds t0, t0 feeds cmul0, cmul0 feeds
	// add0. The delay pins the loop to level 0.
	g := New()
	for _, spec := range []OpSpec{
		inputSpec("in0"),
		delaySpec("t0"),
		{
			ID:             "cmul0",
			Type:           "ConstantMultiplication",
			Inputs:         []string{"in0"},
			Outputs:        []string{"out0"},
			LatencyOffsets: map[string]int{"in0": 0, "out0": 1},
		},
		addSpec("add0", 2),
		outputSpec("out0"),
	} {
		_, err := g.AddOperation(spec)
		require.NoError(t, err)
	}
	mustConnect(t, g, "in0", "out0", "add0", "in0")
	mustConnect(t, g, "t0", "out0", "cmul0", "in0")
	mustConnect(t, g, "cmul0", "out0", "add0", "in1")
	mustConnect(t, g, "add0", "out0", "t0", "in0")
	mustConnect(t, g, "add0", "out0", "out0", "in0")

	opLevels, err := g.OperationLevels()
	require.NoError(t, err)
	assert.Equal(t, map[OpID]int{
		"in0":   0,
		"t0":    0,
		"cmul0": 1,
		"add0":  2,
	}, opLevels)
}

func TestPrecedenceLevelsDelayFreeCycle(t *testing.T) {
	g := New()
	for _, spec := range []OpSpec{inputSpec("in0"), addSpec("add0", 1), addSpec("add1", 1)} {
		_, err := g.AddOperation(spec)
		require.NoError(t, err)
	}
	mustConnect(t, g, "in0", "out0", "add0", "in0")
	mustConnect(t, g, "add0", "out0", "add1", "in0")
	mustConnect(t, g, "add1", "out0", "add0", "in1")

	_, err := g.PrecedenceLevels()
	require.Error(t, err)
	assert.True(t, IsEmptyGraph(err))
	var ge *GraphError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, ErrCodeEmptyGraph, ge.Code)
}

func TestPrecedenceLevelsTooShallow(t *testing.T) {
	g := New()
	_, err := g.AddOperation(inputSpec("in0"))
	require.NoError(t, err)
	_, err = g.AddOperation(outputSpec("out0"))
	require.NoError(t, err)
	mustConnect(t, g, "in0", "out0", "out0", "in0")

	_, err = g.PrecedenceLevels()
	require.Error(t, err)
	assert.True(t, IsEmptyGraph(err))
}
