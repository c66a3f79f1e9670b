package sfg

// PrecedenceLevels partitions the graph's output ports into levels such
// that every data dependency points from an earlier level to a later one.
//
// Level 0 holds ports with no data-dependency inputs: graph inputs and the
// outputs of feedback delays. An operation's remaining output ports land on
// level 1 + max(level of its producers). Output operations carry no output
// ports and therefore never appear in the precedence list.
//
// Fewer than two levels means there is nothing to schedule; that is the
// "empty graph" structural error the schedulers require callers to fix.
func (g *Graph) PrecedenceLevels() ([][]PortRef, error) {
	// opLevel tracks the level of each operation whose output ports have
	// been placed. Delays and Inputs are level 0 by definition.
	opLevel := make(map[OpID]int, len(g.ops))
	var levels [][]PortRef

	place := func(level int, ref PortRef) {
		for len(levels) <= level {
			levels = append(levels, nil)
		}
		levels[level] = append(levels[level], ref)
	}

	for _, op := range g.Operations() {
		if op.Type() == TypeInput || op.Type() == TypeDelay {
			opLevel[op.ID()] = 0
			for _, p := range op.Outputs() {
				place(0, PortRef{Op: op.ID(), Port: p})
			}
		}
	}

	// Iteratively place every operation whose producers are all placed.
	for {
		progressed := false
		for _, op := range g.Operations() {
			id := op.ID()
			if _, done := opLevel[id]; done {
				continue
			}
			if op.Type() == TypeOutput {
				continue // no output ports to place
			}
			level := 0
			ready := true
			for _, p := range op.Inputs() {
				sig, driven := g.IncomingSignal(id, p)
				if !driven {
					continue // undriven inputs impose no ordering
				}
				srcLevel, placed := opLevel[sig.Source.Op]
				if !placed {
					ready = false
					break
				}
				if srcLevel+1 > level {
					level = srcLevel + 1
				}
			}
			if !ready {
				continue
			}
			opLevel[id] = level
			for _, p := range op.Outputs() {
				place(level, PortRef{Op: id, Port: p})
			}
			progressed = true
		}
		if !progressed {
			break
		}
	}

	for _, op := range g.Operations() {
		if op.Type() == TypeOutput {
			continue
		}
		if _, done := opLevel[op.ID()]; !done {
			// A delay-free cycle cannot be levelized.
			return nil, &GraphError{
				Code:    ErrCodeEmptyGraph,
				Message: "operation is part of a delay-free cycle",
				Op:      op.ID(),
			}
		}
	}

	if len(levels) < 2 {
		return nil, &GraphError{
			Code:    ErrCodeEmptyGraph,
			Message: "precedence graph has fewer than two levels; nothing to schedule",
		}
	}
	return levels, nil
}

// OperationLevels returns, for every non-Output operation, the precedence
// level its output ports occupy.
func (g *Graph) OperationLevels() (map[OpID]int, error) {
	levels, err := g.PrecedenceLevels()
	if err != nil {
		return nil, err
	}
	out := make(map[OpID]int, len(g.ops))
	for i, refs := range levels {
		for _, ref := range refs {
			if cur, ok := out[ref.Op]; !ok || i > cur {
				out[ref.Op] = i
			}
		}
	}
	return out, nil
}
