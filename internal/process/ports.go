package process

import (
	"fmt"

	"github.com/mlindgren/hwsched/internal/coloring"
	"github.com/mlindgren/hwsched/internal/sfg"
)

// PortStrategy selects how SplitOnPorts partitions memory variables onto
// banks.
type PortStrategy string

const (
	// PortLeftEdge greedily fills banks in canonical order.
	PortLeftEdge PortStrategy = "left_edge"

	// PortGreedyGraphColor / PortEquitableGraphColor / PortILPGraphColor
	// color the port exclusion graph.
	PortGreedyGraphColor    PortStrategy = "greedy_graph_color"
	PortEquitableGraphColor PortStrategy = "equitable_graph_color"
	PortILPGraphColor       PortStrategy = "ilp_graph_color"

	// PortLeftEdgeMinPEToMem prefers banks already written by the
	// variable's producing processing element, shrinking input muxing.
	PortLeftEdgeMinPEToMem PortStrategy = "left_edge_min_pe_to_mem"

	// PortLeftEdgeMinMemToPE prefers banks already read by the variable's
	// consuming processing elements, shrinking output muxing.
	PortLeftEdgeMinMemToPE PortStrategy = "left_edge_min_mem_to_pe"

	// PortILPMinInputMux / PortILPMinOutputMux / PortILPMinTotalMux color
	// exactly and then locally improve the distinct writer / reader /
	// combined processing-element count per bank.
	PortILPMinInputMux  PortStrategy = "ilp_min_input_mux"
	PortILPMinOutputMux PortStrategy = "ilp_min_output_mux"
	PortILPMinTotalMux  PortStrategy = "ilp_min_total_mux"
)

// PortSplitOptions parameterizes SplitOnPorts. Zero port counts mean
// unlimited.
type PortSplitOptions struct {
	Strategy   PortStrategy
	ReadPorts  int
	WritePorts int
	TotalPorts int

	// PEAssignment maps operation ids to the processing element executing
	// them. Required by the mux-aware strategies, which fail explicitly
	// when it is absent.
	PEAssignment map[sfg.OpID]string
}

// SplitOnPorts partitions the memory variables into banks such that no
// bank's simultaneous reads, writes or combined accesses at any cycle
// exceed the configured port counts.
func (c *Collection) SplitOnPorts(opts PortSplitOptions) ([]*Collection, error) {
	if err := c.checkLifetimes(); err != nil {
		return nil, err
	}
	for _, p := range c.procs {
		if !IsMemoryVariable(p) {
			return nil, &Error{Code: ErrCodeWrongKind, Message: "port splitting requires memory variables", Process: p.Name()}
		}
	}
	conflict := func(a, b Process) bool {
		return c.portConflict(a.(accessor), b.(accessor), opts.ReadPorts, opts.WritePorts, opts.TotalPorts)
	}

	switch opts.Strategy {
	case PortLeftEdge:
		return c.repairPortCaps(c.leftEdgeBanks(opts, nil), opts)
	case PortLeftEdgeMinPEToMem:
		prefer, err := c.muxPreference(opts, true, false)
		if err != nil {
			return nil, err
		}
		return c.repairPortCaps(c.leftEdgeBanks(opts, prefer), opts)
	case PortLeftEdgeMinMemToPE:
		prefer, err := c.muxPreference(opts, false, true)
		if err != nil {
			return nil, err
		}
		return c.repairPortCaps(c.leftEdgeBanks(opts, prefer), opts)
	case PortGreedyGraphColor:
		groups, err := c.colorSplit(coloring.Greedy{}, conflict)
		if err != nil {
			return nil, err
		}
		return c.repairPortCaps(groups, opts)
	case PortEquitableGraphColor:
		groups, err := c.colorSplit(coloring.Equitable{}, conflict)
		if err != nil {
			return nil, err
		}
		return c.repairPortCaps(groups, opts)
	case PortILPGraphColor:
		groups, err := c.colorSplit(coloring.Exact{}, conflict)
		if err != nil {
			return nil, err
		}
		return c.repairPortCaps(groups, opts)
	case PortILPMinInputMux, PortILPMinOutputMux, PortILPMinTotalMux:
		if len(opts.PEAssignment) == 0 {
			return nil, &Error{Code: ErrCodeMissingPEAssignment, Message: fmt.Sprintf("strategy %q needs the processing-element assignment", opts.Strategy)}
		}
		groups, err := c.colorSplit(coloring.Exact{}, conflict)
		if err != nil {
			return nil, err
		}
		groups, err = c.repairPortCaps(groups, opts)
		if err != nil {
			return nil, err
		}
		c.improveMux(groups, opts)
		return groups, nil
	default:
		return nil, &Error{Code: ErrCodeUnknownStrategy, Message: fmt.Sprintf("unknown port split strategy %q", opts.Strategy)}
	}
}

// leftEdgeBanks assigns variables to the first (or preferred) bank whose
// per-cycle access counts stay within the port caps after the addition.
func (c *Collection) leftEdgeBanks(opts PortSplitOptions, prefer func(p Process, feasible []*Collection) *Collection) []*Collection {
	var banks []*Collection
	for _, p := range c.Processes() {
		v := p.(accessor)
		var feasible []*Collection
		for _, b := range banks {
			if c.bankFits(b, v, opts) {
				feasible = append(feasible, b)
			}
		}
		var target *Collection
		switch {
		case len(feasible) == 0:
			target = c.subCollection(nil)
			banks = append(banks, target)
		case prefer != nil:
			target = prefer(p, feasible)
		default:
			target = feasible[0]
		}
		target.Add(p)
	}
	return banks
}

// bankFits checks a bank's per-cycle access usage with v added.
func (c *Collection) bankFits(bank *Collection, v accessor, opts PortSplitOptions) bool {
	reads := make(map[int]int)
	writes := make(map[int]int)
	count := func(m accessor) {
		writes[c.writeCycle(m)]++
		for _, r := range c.readCycles(m) {
			reads[r]++
		}
	}
	for _, member := range bank.procs {
		count(member.(accessor))
	}
	count(v)
	for cycle, w := range writes {
		if opts.WritePorts > 0 && w > opts.WritePorts {
			return false
		}
		if opts.TotalPorts > 0 && w+reads[cycle] > opts.TotalPorts {
			return false
		}
	}
	for cycle, r := range reads {
		if opts.ReadPorts > 0 && r > opts.ReadPorts {
			return false
		}
		if opts.TotalPorts > 0 && r+writes[cycle] > opts.TotalPorts {
			return false
		}
	}
	return true
}

// repairPortCaps re-checks every bank against the caps and evicts
// offenders into fresh banks. The pairwise exclusion graph is exact for
// single-port banks but conservative beyond; the repair pass makes every
// strategy's result honor the caps unconditionally.
func (c *Collection) repairPortCaps(banks []*Collection, opts PortSplitOptions) ([]*Collection, error) {
	var evicted []Process
	for _, bank := range banks {
		kept := c.subCollection(nil)
		for _, p := range bank.Processes() {
			if c.bankFits(kept, p.(accessor), opts) {
				kept.Add(p)
			} else {
				evicted = append(evicted, p)
			}
		}
		bank.procs = kept.procs
	}
	for _, p := range evicted {
		placed := false
		for _, bank := range banks {
			if c.bankFits(bank, p.(accessor), opts) {
				bank.Add(p)
				placed = true
				break
			}
		}
		if !placed {
			nb := c.subCollection(nil)
			nb.Add(p)
			banks = append(banks, nb)
		}
	}
	// Drop banks emptied by the repair.
	out := banks[:0]
	for _, bank := range banks {
		if bank.Len() > 0 {
			out = append(out, bank)
		}
	}
	return out, nil
}

// writerPE returns the processing element producing a variable, and
// readerPEs the elements consuming it. Only typed memory variables carry
// the operation identity needed; plain variables map to no element.
func writerPE(p Process, assignment map[sfg.OpID]string) (string, bool) {
	mv, ok := p.(*MemoryVariable)
	if !ok {
		return "", false
	}
	pe, ok := assignment[mv.WritePort().Op]
	return pe, ok
}

func readerPEs(p Process, assignment map[sfg.OpID]string) []string {
	mv, ok := p.(*MemoryVariable)
	if !ok {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, port := range mv.ReadPorts() {
		if pe, ok := assignment[port.Op]; ok && !seen[pe] {
			seen[pe] = true
			out = append(out, pe)
		}
	}
	return out
}

// muxPreference builds the feasible-bank chooser for the left-edge
// mux-aware variants: prefer banks already touched by the same writer
// (input side) or by the same readers (output side).
func (c *Collection) muxPreference(opts PortSplitOptions, inputSide, outputSide bool) (func(p Process, feasible []*Collection) *Collection, error) {
	if len(opts.PEAssignment) == 0 {
		return nil, &Error{Code: ErrCodeMissingPEAssignment, Message: fmt.Sprintf("strategy %q needs the processing-element assignment", opts.Strategy)}
	}
	score := func(p Process, bank *Collection) int {
		s := 0
		if inputSide {
			if pe, ok := writerPE(p, opts.PEAssignment); ok {
				for _, member := range bank.procs {
					if mpe, mok := writerPE(member, opts.PEAssignment); mok && mpe == pe {
						s++
					}
				}
			}
		}
		if outputSide {
			for _, pe := range readerPEs(p, opts.PEAssignment) {
				for _, member := range bank.procs {
					for _, mpe := range readerPEs(member, opts.PEAssignment) {
						if mpe == pe {
							s++
						}
					}
				}
			}
		}
		return s
	}
	return func(p Process, feasible []*Collection) *Collection {
		best := feasible[0]
		bestScore := score(p, best)
		for _, bank := range feasible[1:] {
			if sc := score(p, bank); sc > bestScore {
				best = bank
				bestScore = sc
			}
		}
		return best
	}, nil
}

// muxCost measures the distinct writer / reader elements across banks.
func muxCost(banks []*Collection, opts PortSplitOptions) int {
	cost := 0
	for _, bank := range banks {
		writers := make(map[string]bool)
		readers := make(map[string]bool)
		for _, p := range bank.procs {
			if pe, ok := writerPE(p, opts.PEAssignment); ok {
				writers[pe] = true
			}
			for _, pe := range readerPEs(p, opts.PEAssignment) {
				readers[pe] = true
			}
		}
		switch opts.Strategy {
		case PortILPMinInputMux:
			cost += len(writers)
		case PortILPMinOutputMux:
			cost += len(readers)
		default:
			cost += len(writers) + len(readers)
		}
	}
	return cost
}

// improveMux moves variables between banks while the move keeps every cap
// satisfied and strictly lowers the mux cost.
func (c *Collection) improveMux(banks []*Collection, opts PortSplitOptions) {
	for improved := true; improved; {
		improved = false
		base := muxCost(banks, opts)
		for _, from := range banks {
			for _, p := range from.Processes() {
				for _, to := range banks {
					if to == from || !c.bankFits(to, p.(accessor), opts) {
						continue
					}
					if err := from.Remove(p); err != nil {
						continue
					}
					to.Add(p)
					if muxCost(banks, opts) < base {
						improved = true
						base = muxCost(banks, opts)
					} else {
						if err := to.Remove(p); err == nil {
							from.Add(p)
						}
					}
				}
				if improved {
					break
				}
			}
			if improved {
				break
			}
		}
	}
}
