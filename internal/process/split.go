package process

import (
	"fmt"

	"github.com/mlindgren/hwsched/internal/coloring"
)

// ExecStrategy selects how SplitOnExecutionTime partitions a collection.
type ExecStrategy string

const (
	// LeftEdge is the classic greedy interval assignment.
	LeftEdge ExecStrategy = "left_edge"

	// GreedyGraphColor colors the exclusion graph with the greedy
	// heuristic.
	GreedyGraphColor ExecStrategy = "greedy_graph_color"

	// EquitableGraphColor colors the exclusion graph while balancing group
	// sizes.
	EquitableGraphColor ExecStrategy = "equitable_graph_color"

	// ILPGraphColor colors the exclusion graph exactly (minimum number of
	// groups), within an evaluation budget.
	ILPGraphColor ExecStrategy = "ilp_graph_color"
)

// SplitOnExecutionTime partitions the collection into conflict-free
// groups: within each group no two processes' execution intervals overlap
// (modulo the period when cyclic), so each group fits one
// unit-concurrency resource.
func (c *Collection) SplitOnExecutionTime(strategy ExecStrategy) ([]*Collection, error) {
	if err := c.checkLifetimes(); err != nil {
		return nil, err
	}
	switch strategy {
	case LeftEdge:
		return c.leftEdge(c.overlaps, nil), nil
	case GreedyGraphColor:
		return c.colorSplit(coloring.Greedy{}, c.overlaps)
	case EquitableGraphColor:
		return c.colorSplit(coloring.Equitable{}, c.overlaps)
	case ILPGraphColor:
		return c.colorSplit(coloring.Exact{}, c.overlaps)
	default:
		return nil, &Error{Code: ErrCodeUnknownStrategy, Message: fmt.Sprintf("unknown execution-time split strategy %q", strategy)}
	}
}

// leftEdge assigns canonically-ordered processes to the first group they
// do not conflict with, opening a new group when every open group
// conflicts. prefer, when non-nil, reorders the feasible groups before
// the first is taken (used by the mux-aware variants).
func (c *Collection) leftEdge(conflict func(a, b Process) bool, prefer func(p Process, feasible []*Collection) *Collection) []*Collection {
	var groups []*Collection
	for _, p := range c.Processes() {
		var feasible []*Collection
		for _, g := range groups {
			ok := true
			for _, member := range g.procs {
				if conflict(p, member) {
					ok = false
					break
				}
			}
			if ok {
				feasible = append(feasible, g)
			}
		}
		var target *Collection
		switch {
		case len(feasible) == 0:
			target = c.subCollection(nil)
			groups = append(groups, target)
		case prefer != nil:
			target = prefer(p, feasible)
		default:
			target = feasible[0]
		}
		target.Add(p)
	}
	return groups
}

// colorSplit partitions via an exclusion-graph coloring.
func (c *Collection) colorSplit(colorer coloring.Colorer, conflict func(a, b Process) bool) ([]*Collection, error) {
	procs := c.Processes()
	graph := newExclusionGraph(procs, conflict)
	colors, err := colorer.Color(graph.Adj)
	if err != nil {
		return nil, &Error{Code: ErrCodeColoring, Message: err.Error()}
	}
	numColors := 0
	for _, col := range colors {
		if col+1 > numColors {
			numColors = col + 1
		}
	}
	groups := make([]*Collection, numColors)
	for i := range groups {
		groups[i] = c.subCollection(nil)
	}
	for i, p := range procs {
		groups[colors[i]].Add(p)
	}
	return groups, nil
}
