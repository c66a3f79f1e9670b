package sched

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlindgren/hwsched/internal/process"
	"github.com/mlindgren/hwsched/internal/sfg"
	"github.com/mlindgren/hwsched/internal/testutil"
)

func TestMemoryVariablesFirstOrderIIR(t *testing.T) {
	s, err := Compute(testutil.FirstOrderIIR(), ASAP{}, WithCyclic())
	require.NoError(t, err)

	coll, err := s.MemoryVariables()
	require.NoError(t, err)
	assert.Equal(t, 9, coll.ScheduleTime())
	assert.True(t, coll.Cyclic())
	require.Equal(t, 3, coll.Len())

	vars := make(map[string]*process.MemoryVariable)
	for _, p := range coll.Processes() {
		vars[p.Name()] = p.(*process.MemoryVariable)
	}

	// The input's value waits four cycles for the adder.
	in := vars["in0.out0"]
	require.NotNil(t, in)
	assert.Equal(t, 0, in.StartTime())
	assert.Equal(t, 4, in.ExecutionTime())

	// The product is consumed the instant it appears.
	cm := vars["cmul0.out0"]
	require.NotNil(t, cm)
	assert.Equal(t, 4, cm.StartTime())
	assert.Equal(t, 0, cm.ExecutionTime())

	// The sum is written at the period boundary and read one lap later by
	// both consumers, exactly at the write instant of the next period.
	sum := vars["add0.out0"]
	require.NotNil(t, sum)
	assert.Equal(t, 9, sum.StartTime())
	assert.Equal(t, 0, sum.ExecutionTime())
	assert.Len(t, sum.ReadPorts(), 2)
}

func TestMemoryVariablesRequireCompleteSchedule(t *testing.T) {
	s := New(testutil.FirstOrderIIR(), WithCyclic())

	_, err := s.MemoryVariables()
	require.Error(t, err)
	var se *ScheduleError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, ErrCodeUnscheduled, se.Code)
}

func TestOperatorProcessesAdder(t *testing.T) {
	s, err := Compute(adderGraph(t), ASAP{}, WithScheduleTime(5))
	require.NoError(t, err)

	coll, err := s.OperatorProcesses()
	require.NoError(t, err)
	require.Equal(t, 4, coll.Len())

	procs := make(map[string]*process.OperatorProcess)
	for _, p := range coll.Processes() {
		procs[p.Name()] = p.(*process.OperatorProcess)
	}
	add := procs["add0"]
	require.NotNil(t, add)
	assert.Equal(t, "Addition", add.OpType())
	assert.Equal(t, 0, add.StartTime())
	assert.Equal(t, 1, add.ExecutionTime())
	assert.ElementsMatch(t, []sfg.PortRef{
		{Op: "add0", Port: "in0"},
		{Op: "add0", Port: "in1"},
	}, add.InputPorts())
	assert.Equal(t, []sfg.PortRef{{Op: "add0", Port: "out0"}}, add.OutputPorts())
}

func TestOperatorProcessesNeedExecutionTimes(t *testing.T) {
	// The first-order section configures latencies only.
	s, err := Compute(testutil.FirstOrderIIR(), ASAP{}, WithCyclic())
	require.NoError(t, err)

	_, err = s.OperatorProcesses()
	require.Error(t, err)
	var se *ScheduleError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, ErrCodeMissingExecTime, se.Code)
}
