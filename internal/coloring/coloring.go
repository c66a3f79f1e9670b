// Package coloring provides vertex colorings of conflict graphs: a greedy
// heuristic, an equitable variant balancing color-class sizes, and an
// exact branch-and-bound colorer. The exact colorer sits where an
// external MILP solver would plug in; it runs under an explicit
// evaluation budget instead of unbounded.
package coloring

import (
	"errors"
	"fmt"
	"sort"
)

// Colorer assigns a color (small non-negative integer) to every vertex of
// an undirected graph given as an adjacency matrix, such that no edge
// connects equal colors.
type Colorer interface {
	Color(adj [][]bool) ([]int, error)
}

// ErrBudgetExhausted is returned by Exact when the search budget runs out
// before optimality is proven.
var ErrBudgetExhausted = errors.New("coloring: evaluation budget exhausted")

// Greedy colors vertices largest-degree-first with the lowest available
// color. Fast, deterministic, not optimal.
type Greedy struct{}

// Color implements Colorer.
func (Greedy) Color(adj [][]bool) ([]int, error) {
	n := len(adj)
	order := degreeOrder(adj)
	colors := make([]int, n)
	for i := range colors {
		colors[i] = -1
	}
	for _, v := range order {
		colors[v] = lowestFree(adj, colors, v)
	}
	return colors, nil
}

// Equitable colors greedily and then rebalances: vertices are moved from
// over-full color classes into smaller feasible ones until class sizes
// differ by at most one or no move helps.
type Equitable struct{}

// Color implements Colorer.
func (Equitable) Color(adj [][]bool) ([]int, error) {
	colors, err := Greedy{}.Color(adj)
	if err != nil {
		return nil, err
	}
	n := len(adj)
	if n == 0 {
		return colors, nil
	}
	numColors := 0
	for _, c := range colors {
		if c+1 > numColors {
			numColors = c + 1
		}
	}
	for moved := true; moved; {
		moved = false
		sizes := classSizes(colors, numColors)
		for v := 0; v < n; v++ {
			from := colors[v]
			for to := 0; to < numColors; to++ {
				if to == from || sizes[to]+1 >= sizes[from] {
					continue
				}
				if feasible(adj, colors, v, to) {
					colors[v] = to
					sizes[from]--
					sizes[to]++
					moved = true
					break
				}
			}
		}
	}
	return colors, nil
}

// DefaultExactBudget bounds the exact colorer's search nodes.
const DefaultExactBudget = 1_000_000

// Exact finds a minimum coloring by iterative deepening on the color
// count with a depth-first search.
type Exact struct {
	// Budget caps search nodes; zero means DefaultExactBudget.
	Budget int
}

// Color implements Colorer.
func (e Exact) Color(adj [][]bool) ([]int, error) {
	n := len(adj)
	if n == 0 {
		return nil, nil
	}
	greedy, _ := Greedy{}.Color(adj)
	upper := 0
	for _, c := range greedy {
		if c+1 > upper {
			upper = c + 1
		}
	}
	budget := e.Budget
	if budget == 0 {
		budget = DefaultExactBudget
	}
	order := degreeOrder(adj)
	for k := 1; k < upper; k++ {
		colors, err := colorWithK(adj, order, k, &budget)
		if err != nil {
			return nil, err
		}
		if colors != nil {
			return colors, nil
		}
	}
	return greedy, nil
}

// colorWithK searches for a proper coloring using at most k colors.
// Returns nil when none exists.
func colorWithK(adj [][]bool, order []int, k int, budget *int) ([]int, error) {
	n := len(adj)
	colors := make([]int, n)
	for i := range colors {
		colors[i] = -1
	}
	var assign func(i int) (bool, error)
	assign = func(i int) (bool, error) {
		if i == n {
			return true, nil
		}
		v := order[i]
		// Symmetry break: the first i vertices can only have introduced at
		// most i distinct colors.
		maxColor := k - 1
		if i < maxColor {
			maxColor = i
		}
		for c := 0; c <= maxColor; c++ {
			*budget--
			if *budget <= 0 {
				return false, fmt.Errorf("%w (k=%d)", ErrBudgetExhausted, k)
			}
			if !feasible(adj, colors, v, c) {
				continue
			}
			colors[v] = c
			ok, err := assign(i + 1)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
			colors[v] = -1
		}
		return false, nil
	}
	ok, err := assign(0)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return colors, nil
}

func degreeOrder(adj [][]bool) []int {
	n := len(adj)
	deg := make([]int, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if adj[i][j] {
				deg[i]++
			}
		}
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return deg[order[a]] > deg[order[b]] })
	return order
}

func lowestFree(adj [][]bool, colors []int, v int) int {
	for c := 0; ; c++ {
		if feasible(adj, colors, v, c) {
			return c
		}
	}
}

func feasible(adj [][]bool, colors []int, v, c int) bool {
	for u, edge := range adj[v] {
		if edge && colors[u] == c {
			return false
		}
	}
	return true
}

func classSizes(colors []int, numColors int) []int {
	sizes := make([]int, numColors)
	for _, c := range colors {
		if c >= 0 {
			sizes[c]++
		}
	}
	return sizes
}
