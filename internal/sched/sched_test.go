package sched

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mlindgren/hwsched/internal/sfg"
)

func intp(v int) *int { return &v }

// adderGraph builds in0,in1 -> add0 -> out0 with a 3-cycle adder latency.
// Every operation carries an execution time so process extraction works.
func adderGraph(t *testing.T) *sfg.Graph {
	t.Helper()
	g := sfg.New()
	specs := []sfg.OpSpec{
		{ID: "in0", Type: sfg.TypeInput, Outputs: []string{"out0"},
			LatencyOffsets: map[string]int{"out0": 0}, ExecutionTime: intp(0)},
		{ID: "in1", Type: sfg.TypeInput, Outputs: []string{"out0"},
			LatencyOffsets: map[string]int{"out0": 0}, ExecutionTime: intp(0)},
		{ID: "add0", Type: "Addition", Inputs: []string{"in0", "in1"}, Outputs: []string{"out0"},
			LatencyOffsets: map[string]int{"in0": 0, "in1": 0, "out0": 3}, ExecutionTime: intp(1)},
		{ID: "out0", Type: sfg.TypeOutput, Inputs: []string{"in0"},
			LatencyOffsets: map[string]int{"in0": 0}, ExecutionTime: intp(0)},
	}
	for _, spec := range specs {
		_, err := g.AddOperation(spec)
		require.NoError(t, err)
	}
	connect(t, g, "in0", "out0", "add0", "in0")
	connect(t, g, "in1", "out0", "add0", "in1")
	connect(t, g, "add0", "out0", "out0", "in0")
	return g
}

// reductionGraph builds two independent adders feeding a third:
// (in0+in1) + (in2+in3), with unit latency and execution time.
func reductionGraph(t *testing.T) *sfg.Graph {
	t.Helper()
	g := sfg.New()
	for i := 0; i < 4; i++ {
		_, err := g.AddOperation(sfg.OpSpec{
			Type: sfg.TypeInput, Outputs: []string{"out0"},
			LatencyOffsets: map[string]int{"out0": 0}, ExecutionTime: intp(0),
		})
		require.NoError(t, err)
	}
	for i := 0; i < 3; i++ {
		_, err := g.AddOperation(sfg.OpSpec{
			Type: "Addition", Inputs: []string{"in0", "in1"}, Outputs: []string{"out0"},
			LatencyOffsets: map[string]int{"in0": 0, "in1": 0, "out0": 1}, ExecutionTime: intp(1),
		})
		require.NoError(t, err)
	}
	_, err := g.AddOperation(sfg.OpSpec{
		Type: sfg.TypeOutput, Inputs: []string{"in0"},
		LatencyOffsets: map[string]int{"in0": 0}, ExecutionTime: intp(0),
	})
	require.NoError(t, err)

	connect(t, g, "in0", "out0", "add0", "in0")
	connect(t, g, "in1", "out0", "add0", "in1")
	connect(t, g, "in2", "out0", "add1", "in0")
	connect(t, g, "in3", "out0", "add1", "in1")
	connect(t, g, "add0", "out0", "add2", "in0")
	connect(t, g, "add1", "out0", "add2", "in1")
	connect(t, g, "add2", "out0", "out0", "in0")
	return g
}

func connect(t *testing.T, g *sfg.Graph, src sfg.OpID, srcPort string, dst sfg.OpID, dstPort string) {
	t.Helper()
	_, err := g.Connect(src, srcPort, dst, dstPort)
	require.NoError(t, err)
}

// lapByPair returns the lap of the signal "src.port>dst.port".
func lapByPair(t *testing.T, s *Schedule, pair string) int {
	t.Helper()
	for _, sig := range s.Graph().Signals() {
		if sig.Source.String()+">"+sig.Destination.String() == pair {
			return s.Lap(sig.ID)
		}
	}
	t.Fatalf("no signal %s", pair)
	return 0
}

func startTimes(s *Schedule) map[string]int {
	out := make(map[string]int)
	for id, st := range s.StartTimes() {
		out[string(id)] = st
	}
	return out
}
