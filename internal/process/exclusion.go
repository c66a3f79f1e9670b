package process

// ExclusionGraph is an explicit conflict graph over a collection's
// processes: vertices are processes, edges mark pairs that cannot share a
// resource. It is reusable across splitting strategies and for access
// degree diagnostics.
type ExclusionGraph struct {
	Procs []Process
	Adj   [][]bool
}

// newExclusionGraph builds the graph from a pairwise conflict predicate
// over the collection's canonically-ordered processes.
func newExclusionGraph(procs []Process, conflict func(a, b Process) bool) *ExclusionGraph {
	n := len(procs)
	adj := make([][]bool, n)
	for i := range adj {
		adj[i] = make([]bool, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if conflict(procs[i], procs[j]) {
				adj[i][j] = true
				adj[j][i] = true
			}
		}
	}
	return &ExclusionGraph{Procs: procs, Adj: adj}
}

// ExclusionGraphFromExecutionTimes builds the conflict graph whose edges
// mark overlapping execution intervals (modulo the period when cyclic).
func (c *Collection) ExclusionGraphFromExecutionTimes() (*ExclusionGraph, error) {
	if err := c.checkLifetimes(); err != nil {
		return nil, err
	}
	return newExclusionGraph(c.Processes(), c.overlaps), nil
}

// ExclusionGraphFromPorts builds the conflict graph whose edges mark
// memory variables that cannot share a memory bank under the given port
// counts: beyond plain interval overlap of their access events, two
// variables conflict when their simultaneous reads, writes or combined
// accesses already exceed the bank's ports.
func (c *Collection) ExclusionGraphFromPorts(readPorts, writePorts, totalPorts int) (*ExclusionGraph, error) {
	if err := c.checkLifetimes(); err != nil {
		return nil, err
	}
	for _, p := range c.procs {
		if !IsMemoryVariable(p) {
			return nil, &Error{Code: ErrCodeWrongKind, Message: "port splitting requires memory variables", Process: p.Name()}
		}
	}
	conflict := func(a, b Process) bool {
		return c.portConflict(a.(accessor), b.(accessor), readPorts, writePorts, totalPorts)
	}
	return newExclusionGraph(c.Processes(), conflict), nil
}

// Degrees returns every vertex's edge count, in Procs order.
func (g *ExclusionGraph) Degrees() []int {
	out := make([]int, len(g.Adj))
	for i, row := range g.Adj {
		for _, e := range row {
			if e {
				out[i]++
			}
		}
	}
	return out
}

// accessCycle maps an absolute instant onto a period cycle.
func (c *Collection) accessCycle(t int) int {
	if c.scheduleTime <= 0 {
		return t
	}
	t %= c.scheduleTime
	if t < 0 {
		t += c.scheduleTime
	}
	return t
}

// writeCycle and readCycles enumerate the cycles an accessor touches.
func (c *Collection) writeCycle(v accessor) int { return c.accessCycle(v.StartTime()) }

func (c *Collection) readCycles(v accessor) []int {
	lifeTimes := v.readLifeTimes()
	out := make([]int, len(lifeTimes))
	for i, lt := range lifeTimes {
		out[i] = c.accessCycle(v.StartTime() + lt)
	}
	return out
}

// portConflict reports whether two memory variables cannot coexist in one
// bank with the given port counts.
func (c *Collection) portConflict(a, b accessor, readPorts, writePorts, totalPorts int) bool {
	type usage struct{ reads, writes int }
	use := make(map[int]usage)
	for _, v := range []accessor{a, b} {
		w := c.writeCycle(v)
		u := use[w]
		u.writes++
		use[w] = u
		for _, r := range c.readCycles(v) {
			u := use[r]
			u.reads++
			use[r] = u
		}
	}
	for _, u := range use {
		if writePorts > 0 && u.writes > writePorts {
			return true
		}
		if readPorts > 0 && u.reads > readPorts {
			return true
		}
		if totalPorts > 0 && u.reads+u.writes > totalPorts {
			return true
		}
	}
	return false
}
