package process

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// intervalSet is a small non-cyclic workload: a and b collide, b and c
// collide, d is free. Two groups suffice.
func intervalSet() *Collection {
	return NewCollection([]Process{
		op("a", 0, 4),
		op("b", 2, 3),
		op("c", 4, 2),
		op("d", 6, 3),
	}, 10, false)
}

func assertConflictFree(t *testing.T, c *Collection, groups []*Collection) {
	t.Helper()
	total := 0
	for _, g := range groups {
		procs := g.Processes()
		total += len(procs)
		for i := range procs {
			for j := i + 1; j < len(procs); j++ {
				assert.False(t, c.overlaps(procs[i], procs[j]),
					"%s and %s overlap in one group", procs[i].Name(), procs[j].Name())
			}
		}
	}
	assert.Equal(t, c.Len(), total)
}

func TestSplitOnExecutionTimeLeftEdge(t *testing.T) {
	c := intervalSet()

	groups, err := c.SplitOnExecutionTime(LeftEdge)

	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, []string{"a", "c", "d"}, names(groups[0]))
	assert.Equal(t, []string{"b"}, names(groups[1]))
}

func TestSplitOnExecutionTimeColoringStrategies(t *testing.T) {
	for _, strategy := range []ExecStrategy{GreedyGraphColor, EquitableGraphColor, ILPGraphColor} {
		t.Run(string(strategy), func(t *testing.T) {
			c := intervalSet()

			groups, err := c.SplitOnExecutionTime(strategy)

			require.NoError(t, err)
			assertConflictFree(t, c, groups)
		})
	}
}

func TestSplitOnExecutionTimeExactIsMinimal(t *testing.T) {
	// a-b-c is a conflict path, so two groups are both necessary and
	// sufficient.
	c := intervalSet()

	groups, err := c.SplitOnExecutionTime(ILPGraphColor)

	require.NoError(t, err)
	assert.Len(t, groups, 2)
}

func TestSplitOnExecutionTimeUnknownStrategy(t *testing.T) {
	c := intervalSet()

	_, err := c.SplitOnExecutionTime(ExecStrategy("simulated_annealing"))

	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ErrCodeUnknownStrategy, perr.Code)
}

func TestSplitOnExecutionTimeRejectsOverlongProcess(t *testing.T) {
	c := NewCollection([]Process{op("huge", 0, 11)}, 10, false)

	_, err := c.SplitOnExecutionTime(LeftEdge)

	require.True(t, IsTooLong(err))
	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "huge", perr.Process)
}

func TestCyclicOverlapWrapsAtPeriod(t *testing.T) {
	// x runs over the period boundary into y's slot; only the cyclic view
	// sees the collision.
	x := op("x", 4, 2)
	y := op("y", 0, 1)

	cyclic := NewCollection([]Process{x, y}, 5, true)
	groups, err := cyclic.SplitOnExecutionTime(LeftEdge)
	require.NoError(t, err)
	assert.Len(t, groups, 2)

	linear := NewCollection([]Process{x, y}, 5, false)
	groups, err = linear.SplitOnExecutionTime(LeftEdge)
	require.NoError(t, err)
	assert.Len(t, groups, 1)
}

func TestZeroLengthProcessesNeverCollide(t *testing.T) {
	c := NewCollection([]Process{
		op("a", 3, 0),
		op("b", 3, 0),
		op("c", 3, 4),
	}, 10, false)

	groups, err := c.SplitOnExecutionTime(LeftEdge)

	require.NoError(t, err)
	assert.Len(t, groups, 1)
}

func TestExclusionGraphFromExecutionTimes(t *testing.T) {
	c := intervalSet()

	g, err := c.ExclusionGraphFromExecutionTimes()

	require.NoError(t, err)
	require.Len(t, g.Procs, 4)
	// Canonical order a, b, c, d with edges a-b and b-c.
	assert.Equal(t, []int{1, 2, 1, 0}, g.Degrees())
	assert.True(t, g.Adj[0][1])
	assert.True(t, g.Adj[1][2])
	assert.False(t, g.Adj[2][3])
}
