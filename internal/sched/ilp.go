package sched

import (
	"sort"

	"github.com/mlindgren/hwsched/internal/sfg"
)

// DefaultExactBudget bounds the number of search nodes the exact scheduler
// may expand before giving up.
const DefaultExactBudget = 1_000_000

// Exact formulates start-time selection as an integer program over the
// precedence and resource constraints and solves it exactly: the smallest
// makespan not exceeding the schedule period is found by iterative
// deepening over a depth-first search with resource pruning.
//
// The search is the in-process stand-in for an external MILP solver; it
// honors an explicit evaluation budget and fails with a budget error
// instead of running unbounded.
type Exact struct {
	// ScheduleTime is the period the solution must fit in. Zero means use
	// the schedule's preset period, falling back to the ASAP bound.
	ScheduleTime int

	// MaxResources caps concurrent executions per type name.
	MaxResources map[string]int

	// Budget caps search nodes; zero means DefaultExactBudget.
	Budget int
}

// ApplyScheduling implements Scheduler.
func (e Exact) ApplyScheduling(s *Schedule) error {
	if _, err := s.graph.PrecedenceLevels(); err != nil {
		return err
	}
	period := e.ScheduleTime
	if period == 0 {
		period = s.scheduleTime
	}
	asapRef, err := Compute(s.graph, ASAP{})
	if err != nil {
		return err
	}
	lower := asapRef.ScheduleTime()
	if period == 0 {
		period = lower
	}
	if period < lower {
		return &ScheduleError{
			Code:    ErrCodeScheduleTimeTooShort,
			Message: "period below the precedence-only lower bound",
			Value:   period,
			Lo:      lower,
			Hi:      Unbounded,
		}
	}

	ops, err := exactProblem(s.graph)
	if err != nil {
		return err
	}
	budget := e.Budget
	if budget == 0 {
		budget = DefaultExactBudget
	}

	solved := false
	for target := lower; target <= period; target++ {
		starts, err := solveExact(s, ops, e.MaxResources, target, &budget)
		if err != nil {
			return err
		}
		if starts != nil {
			for id, t := range starts {
				s.setStartTime(id, t)
			}
			solved = true
			break
		}
	}
	if !solved {
		return &ScheduleError{
			Code:    ErrCodeInfeasible,
			Message: "no schedule fits the period under the resource constraints",
			Value:   period,
		}
	}

	if err := s.fitScheduleTime(); err != nil {
		return err
	}
	if err := s.placeOutputs(); err != nil {
		return err
	}
	for _, op := range s.graph.OperationsByType(sfg.TypeInput) {
		s.setStartTime(op.ID(), 0)
	}
	if err := s.removeDelays(); err != nil {
		return err
	}
	for _, op := range s.graph.OperationsByType(sfg.TypeInput) {
		if err := s.tightenInput(op); err != nil {
			return err
		}
	}
	return nil
}

// exactOp is one decision variable of the exact formulation.
type exactOp struct {
	op       *sfg.Operation
	latency  int
	execTime int
	level    int
}

// exactProblem extracts the schedulable operations in topological order.
func exactProblem(g *sfg.Graph) ([]*exactOp, error) {
	levels, err := g.OperationLevels()
	if err != nil {
		return nil, err
	}
	var ops []*exactOp
	for _, op := range g.Operations() {
		switch op.Type() {
		case sfg.TypeDelay, sfg.TypeInput, sfg.TypeOutput:
			continue
		}
		lat, err := op.Latency()
		if err != nil {
			return nil, err
		}
		exec := lat
		if et, ok := op.ExecutionTime(); ok {
			exec = et
		}
		ops = append(ops, &exactOp{op: op, latency: lat, execTime: exec, level: levels[op.ID()]})
	}
	sort.SliceStable(ops, func(i, j int) bool { return ops[i].level < ops[j].level })
	return ops, nil
}

// solveExact searches for starts with every end time at most target.
// Returns nil starts when the target is infeasible, an error when the
// budget runs out.
func solveExact(s *Schedule, ops []*exactOp, maxResources map[string]int, target int, budget *int) (map[sfg.OpID]int, error) {
	starts := make(map[sfg.OpID]int, len(ops))
	var assign func(i int) (bool, error)
	assign = func(i int) (bool, error) {
		if i == len(ops) {
			return true, nil
		}
		eo := ops[i]
		est, err := exactEarliest(s, eo.op, starts)
		if err != nil {
			return false, err
		}
		for t := est; t+eo.latency <= target; t++ {
			*budget--
			if *budget <= 0 {
				return false, &ScheduleError{
					Code:    ErrCodeBudgetExhausted,
					Message: "exact scheduler ran out of its evaluation budget",
				}
			}
			if !exactFits(s, ops[:i], starts, eo, t, maxResources) {
				continue
			}
			starts[eo.op.ID()] = t
			ok, err := assign(i + 1)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
			delete(starts, eo.op.ID())
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
	return starts, nil
}

// exactEarliest is the precedence lower bound on one operation's start,
// given the producers assigned so far.
func exactEarliest(s *Schedule, op *sfg.Operation, starts map[sfg.OpID]int) (int, error) {
	est := 0
	for _, p := range op.Inputs() {
		sig, driven := s.graph.IncomingSignal(op.ID(), p)
		if !driven {
			continue
		}
		inOff, err := op.LatencyOffset(p)
		if err != nil {
			return 0, err
		}
		srcOp, ok := s.graph.Op(sig.Source.Op)
		if !ok {
			continue
		}
		srcEnd := 0
		switch srcOp.Type() {
		case sfg.TypeDelay:
		case sfg.TypeInput:
			off, err := srcOp.LatencyOffset(sig.Source.Port)
			if err != nil {
				return 0, err
			}
			srcEnd = off
		default:
			srcStart, assigned := starts[sig.Source.Op]
			if !assigned {
				continue
			}
			off, err := srcOp.LatencyOffset(sig.Source.Port)
			if err != nil {
				return 0, err
			}
			srcEnd = srcStart + off
		}
		if c := srcEnd - inOff; c > est {
			est = c
		}
	}
	return est, nil
}

// exactFits checks the per-type concurrency cap for placing eo at t next
// to the already-assigned operations.
func exactFits(s *Schedule, assigned []*exactOp, starts map[sfg.OpID]int, eo *exactOp, t int, maxResources map[string]int) bool {
	limit, capped := maxResources[eo.op.Type()]
	if !capped || eo.execTime == 0 {
		return true
	}
	for u := t; u < t+eo.execTime; u++ {
		inUse := 0
		for _, other := range assigned {
			if other.op.Type() != eo.op.Type() {
				continue
			}
			os, ok := starts[other.op.ID()]
			if !ok || other.execTime == 0 {
				continue
			}
			if os <= u && u < os+other.execTime {
				inUse++
			}
		}
		if inUse+1 > limit {
			return false
		}
	}
	return true
}
