package sched

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlindgren/hwsched/internal/testutil"
)

func TestEarliestDeadlineFirstSerializesBiquad(t *testing.T) {
	// One adder and one multiplier force the direct-form-1 biquad to run
	// fully serialized, stretching the period from 11 to 13 cycles.
	s, err := Compute(testutil.DirectForm1IIR(), EarliestDeadlineFirst{
		MaxResources: map[string]int{"Addition": 1, "ConstantMultiplication": 1},
	}, WithCyclic())
	require.NoError(t, err)

	assert.Equal(t, 13, s.ScheduleTime())
	assert.Equal(t, map[string]int{
		"in0":   2,
		"cmul0": 2,
		"cmul1": 0,
		"cmul2": 1,
		"cmul3": 3,
		"cmul4": 4,
		"add0":  6,
		"add1":  8,
		"add2":  9,
		"add3":  11,
		"out0":  0,
	}, startTimes(s))

	// The former delay taps now ride lap-annotated edges.
	assert.Equal(t, 1, lapByPair(t, s, "in0.out0>cmul1.in0"))
	assert.Equal(t, 2, lapByPair(t, s, "in0.out0>cmul2.in0"))
	assert.Equal(t, 1, lapByPair(t, s, "add3.out0>cmul3.in0"))
	assert.Equal(t, 2, lapByPair(t, s, "add3.out0>cmul4.in0"))
	assert.Equal(t, 1, lapByPair(t, s, "add3.out0>out0.in0"))
}

func TestListSchedulersRespectResourceCap(t *testing.T) {
	strategies := map[string]Scheduler{
		"earliest_deadline": EarliestDeadlineFirst{MaxResources: map[string]int{"Addition": 1}},
		"least_slack":       LeastSlackTime{MaxResources: map[string]int{"Addition": 1}},
		"max_fanout":        MaxFanOut{MaxResources: map[string]int{"Addition": 1}},
		"hybrid":            Hybrid{MaxResources: map[string]int{"Addition": 1}},
	}
	for name, strategy := range strategies {
		t.Run(name, func(t *testing.T) {
			s, err := Compute(reductionGraph(t), strategy)
			require.NoError(t, err)

			starts := startTimes(s)
			// The two leaf adders cannot overlap, and the root waits for
			// both.
			assert.NotEqual(t, starts["add0"], starts["add1"])
			later := starts["add0"]
			if starts["add1"] > later {
				later = starts["add1"]
			}
			assert.GreaterOrEqual(t, starts["add2"], later+1)
		})
	}
}

func TestListSchedulerStallsOnImpossibleCap(t *testing.T) {
	_, err := Compute(adderGraph(t), EarliestDeadlineFirst{
		MaxResources: map[string]int{"Addition": 0},
	})
	require.Error(t, err)
	assert.True(t, IsStalled(err))
	var se *ScheduleError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, ErrCodeStalled, se.Code)
}

func TestListSchedulerTightensInputs(t *testing.T) {
	// Unconstrained, the list scheduler degenerates to ASAP except that
	// inputs slide up against their consumers.
	s, err := Compute(adderGraph(t), EarliestDeadlineFirst{}, WithScheduleTime(5))
	require.NoError(t, err)

	starts := startTimes(s)
	assert.Equal(t, 0, starts["add0"])
	assert.Equal(t, 0, starts["in0"], "the adder consumes the input at its own start")
	assert.Equal(t, 3, starts["out0"])
}
