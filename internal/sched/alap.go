package sched

import "github.com/mlindgren/hwsched/internal/sfg"

// ALAP schedules every operation as late as possible: an ASAP pass first
// establishes the minimum feasible period (a caller-preset larger period
// is honored), then outputs and - walking the precedence levels in
// reverse - every other operation are pushed forward through the same
// slack machinery MoveOperation uses.
type ALAP struct{}

// ApplyScheduling populates s with an as-late-as-possible schedule.
func (ALAP) ApplyScheduling(s *Schedule) error {
	// Capture level structure before ASAP folds the delays away.
	opLevels, err := s.graph.OperationLevels()
	if err != nil {
		return err
	}
	if err := (ASAP{}).ApplyScheduling(s); err != nil {
		return err
	}

	for _, op := range s.graph.OperationsByType(sfg.TypeOutput) {
		if err := s.pushLate(op); err != nil {
			return err
		}
	}

	maxLevel := 0
	for _, l := range opLevels {
		if l > maxLevel {
			maxLevel = l
		}
	}
	for level := maxLevel; level >= 0; level-- {
		for _, op := range s.graph.Operations() {
			if op.Type() == sfg.TypeOutput {
				continue
			}
			if l, ok := opLevels[op.ID()]; !ok || l != level {
				continue
			}
			if err := s.pushLate(op); err != nil {
				return err
			}
		}
	}
	return nil
}

// pushLate moves one operation forward by its full forward slack. An
// unconstrained operation in a non-cyclic schedule is pushed against the
// end of the period instead.
func (s *Schedule) pushLate(op *sfg.Operation) error {
	id := op.ID()
	start, ok := s.startTimes[id]
	if !ok {
		return nil
	}
	fs, err := s.ForwardSlack(id)
	if err != nil {
		return err
	}
	if fs == Unbounded {
		if s.cyclic {
			return nil // nothing downstream constrains it; leave in place
		}
		lat, err := s.opLatency(op)
		if err != nil {
			return err
		}
		fs = s.scheduleTime - lat - start
	}
	if !s.cyclic {
		// Clamp to the period end; slack across lap-free edges can exceed it
		// only when the consumer sits on a lap-annotated feedback path.
		lat, err := s.opLatency(op)
		if err != nil {
			return err
		}
		if room := s.scheduleTime - lat - start; fs > room {
			fs = room
		}
	}
	if fs <= 0 {
		return nil
	}
	return s.MoveOperation(id, fs)
}
