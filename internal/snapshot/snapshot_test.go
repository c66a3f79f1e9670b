package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlindgren/hwsched/internal/arch"
	"github.com/mlindgren/hwsched/internal/process"
	"github.com/mlindgren/hwsched/internal/sched"
	"github.com/mlindgren/hwsched/internal/sfg"
)

func intp(v int) *int { return &v }

func adderSchedule(t *testing.T) *sched.Schedule {
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
	for _, c := range [][4]string{
		{"in0", "out0", "add0", "in0"},
		{"in1", "out0", "add0", "in1"},
		{"add0", "out0", "out0", "in0"},
	} {
		_, err := g.Connect(sfg.OpID(c[0]), c[1], sfg.OpID(c[2]), c[3])
		require.NoError(t, err)
	}
	s, err := sched.Compute(g, sched.ASAP{}, sched.WithScheduleTime(5))
	require.NoError(t, err)
	return s
}

func TestScheduleDocumentCanonicalForm(t *testing.T) {
	s := adderSchedule(t)

	data, err := MarshalCanonical(ScheduleDocument(s))

	require.NoError(t, err)
	assert.Equal(t,
		`{"cyclic":false,`+
			`"laps":{"add0.out0>out0.in0":0,"in0.out0>add0.in0":0,"in1.out0>add0.in1":0},`+
			`"schedule_time":5,`+
			`"start_times":{"add0":0,"in0":0,"in1":0,"out0":3}}`,
		string(data))
}

func TestScheduleHashTracksScheduleEdits(t *testing.T) {
	s := adderSchedule(t)

	before, err := ScheduleHash(s)
	require.NoError(t, err)
	assert.Len(t, before, 64)

	again, err := ScheduleHash(s)
	require.NoError(t, err)
	assert.Equal(t, before, again)

	require.NoError(t, s.MoveOperation("out0", 1))
	after, err := ScheduleHash(s)
	require.NoError(t, err)
	assert.NotEqual(t, before, after)
}

func TestArchitectureDocumentCanonicalForm(t *testing.T) {
	coll := process.NewCollection([]process.Process{
		process.NewOperatorProcess("add0", "Addition", 0, 2, nil, nil),
		process.NewOperatorProcess("add1", "Addition", 3, 2, nil, nil),
	}, 6, false)
	pe, err := arch.NewProcessingElement("pe_add", coll)
	require.NoError(t, err)
	require.NoError(t, pe.Assign(process.LeftEdge))
	a, err := arch.NewArchitecture([]*arch.ProcessingElement{pe}, nil, nil)
	require.NoError(t, err)

	data, err := MarshalCanonical(ArchitectureDocument(a))

	require.NoError(t, err)
	assert.Equal(t,
		`{"memories":{},`+
			`"processing_elements":{"pe_add":{"assignment":[["add0","add1"]],"type":"Addition"}},`+
			`"schedule_time":6}`,
		string(data))

	h, err := ArchitectureHash(a)
	require.NoError(t, err)
	assert.Len(t, h, 64)
}
