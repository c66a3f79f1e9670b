package process

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlindgren/hwsched/internal/sfg"
)

// sameCycleReaders builds three variables that all read at cycle 4.
func sameCycleReaders() *Collection {
	return NewCollection([]Process{
		NewPlainMemoryVariable("u1", 0, 0, map[int]int{0: 4}),
		NewPlainMemoryVariable("u2", 1, 0, map[int]int{0: 3}),
		NewPlainMemoryVariable("u3", 2, 0, map[int]int{0: 2}),
	}, 8, true)
}

func TestSplitOnPortsReadCap(t *testing.T) {
	c := sameCycleReaders()

	banks, err := c.SplitOnPorts(PortSplitOptions{Strategy: PortLeftEdge, ReadPorts: 2})

	require.NoError(t, err)
	require.Len(t, banks, 2)
	assert.Equal(t, []string{"u1", "u2"}, names(banks[0]))
	assert.Equal(t, []string{"u3"}, names(banks[1]))
}

func TestSplitOnPortsSingleReadPort(t *testing.T) {
	c := sameCycleReaders()

	banks, err := c.SplitOnPorts(PortSplitOptions{Strategy: PortLeftEdge, ReadPorts: 1})

	require.NoError(t, err)
	assert.Len(t, banks, 3)
}

func TestSplitOnPortsWriteCap(t *testing.T) {
	c := NewCollection([]Process{
		NewPlainMemoryVariable("w1", 3, 0, map[int]int{0: 1}),
		NewPlainMemoryVariable("w2", 3, 0, map[int]int{0: 2}),
	}, 8, true)

	banks, err := c.SplitOnPorts(PortSplitOptions{Strategy: PortLeftEdge, WritePorts: 1})

	require.NoError(t, err)
	require.Len(t, banks, 2)
	assert.Equal(t, 1, banks[0].Len())
	assert.Equal(t, 1, banks[1].Len())
}

func TestSplitOnPortsTotalCap(t *testing.T) {
	// tv2's write lands on the cycle tv1 is read, so a single-access bank
	// cannot hold both.
	procs := []Process{
		NewPlainMemoryVariable("tv1", 2, 0, map[int]int{0: 2}),
		NewPlainMemoryVariable("tv2", 4, 0, map[int]int{0: 2}),
	}

	c := NewCollection(procs, 8, true)
	banks, err := c.SplitOnPorts(PortSplitOptions{Strategy: PortLeftEdge, TotalPorts: 1})
	require.NoError(t, err)
	assert.Len(t, banks, 2)

	c = NewCollection(procs, 8, true)
	banks, err = c.SplitOnPorts(PortSplitOptions{Strategy: PortLeftEdge, TotalPorts: 2})
	require.NoError(t, err)
	assert.Len(t, banks, 1)
}

func TestColoringPortSplitRepairsCapOverflow(t *testing.T) {
	// Every pair of readers fits two ports, so the pairwise exclusion graph
	// is edgeless; the repair pass still evicts the third reader.
	c := sameCycleReaders()

	banks, err := c.SplitOnPorts(PortSplitOptions{Strategy: PortGreedyGraphColor, ReadPorts: 2})

	require.NoError(t, err)
	require.Len(t, banks, 2)
	total := 0
	for _, b := range banks {
		total += b.Len()
	}
	assert.Equal(t, 3, total)
}

func TestSplitOnPortsRejectsOperatorProcesses(t *testing.T) {
	c := NewCollection([]Process{op("add0", 0, 1)}, 8, false)

	_, err := c.SplitOnPorts(PortSplitOptions{Strategy: PortLeftEdge})

	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ErrCodeWrongKind, perr.Code)
	assert.Equal(t, "add0", perr.Process)
}

func TestMuxStrategiesRequirePEAssignment(t *testing.T) {
	for _, strategy := range []PortStrategy{PortLeftEdgeMinPEToMem, PortLeftEdgeMinMemToPE, PortILPMinInputMux} {
		t.Run(string(strategy), func(t *testing.T) {
			c := sameCycleReaders()

			_, err := c.SplitOnPorts(PortSplitOptions{Strategy: strategy, ReadPorts: 1})

			var perr *Error
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, ErrCodeMissingPEAssignment, perr.Code)
		})
	}
}

func TestSplitOnPortsUnknownStrategy(t *testing.T) {
	c := sameCycleReaders()

	_, err := c.SplitOnPorts(PortSplitOptions{Strategy: PortStrategy("round_robin")})

	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ErrCodeUnknownStrategy, perr.Code)
}

func TestMinPEToMemPrefersProducerBank(t *testing.T) {
	// m1 and m2 read on the same cycle, so a single read port forces two
	// banks. m3 fits either; the input-mux variant follows its producing
	// element into m2's bank, plain left edge takes the first bank.
	makeVars := func() []Process {
		return []Process{
			NewMemoryVariable("m1", 0,
				sfg.PortRef{Op: "a1", Port: "out0"},
				map[sfg.PortRef]int{{Op: "r1", Port: "in0"}: 5}),
			NewMemoryVariable("m2", 1,
				sfg.PortRef{Op: "b1", Port: "out0"},
				map[sfg.PortRef]int{{Op: "r1", Port: "in1"}: 4}),
			NewMemoryVariable("m3", 2,
				sfg.PortRef{Op: "b2", Port: "out0"},
				map[sfg.PortRef]int{{Op: "r1", Port: "in2"}: 4}),
		}
	}
	assignment := map[sfg.OpID]string{"a1": "pe_a", "b1": "pe_b", "b2": "pe_b"}

	c := NewCollection(makeVars(), 8, true)
	banks, err := c.SplitOnPorts(PortSplitOptions{
		Strategy:     PortLeftEdgeMinPEToMem,
		ReadPorts:    1,
		PEAssignment: assignment,
	})
	require.NoError(t, err)
	require.Len(t, banks, 2)
	assert.Equal(t, []string{"m1"}, names(banks[0]))
	assert.Equal(t, []string{"m2", "m3"}, names(banks[1]))

	c = NewCollection(makeVars(), 8, true)
	banks, err = c.SplitOnPorts(PortSplitOptions{Strategy: PortLeftEdge, ReadPorts: 1})
	require.NoError(t, err)
	require.Len(t, banks, 2)
	assert.Equal(t, []string{"m1", "m3"}, names(banks[0]))
	assert.Equal(t, []string{"m2"}, names(banks[1]))
}
