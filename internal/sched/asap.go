package sched

import "github.com/mlindgren/hwsched/internal/sfg"

// ASAP schedules every operation as soon as its precedence constraints
// allow, walking the precedence levels in order.
//
// Feedback delays are never scheduled: they contribute an end time of zero
// to their consumers and are folded into lap-annotated direct edges once
// every other operation is placed.
type ASAP struct{}

// ApplyScheduling populates s with an as-soon-as-possible schedule and
// leaves its graph delay-free.
func (ASAP) ApplyScheduling(s *Schedule) error {
	levels, err := s.graph.PrecedenceLevels()
	if err != nil {
		return err
	}

	nonSchedulable := make(map[sfg.OpID]bool)
	for levelIdx, level := range levels {
		for _, ref := range level {
			op, _ := s.graph.Op(ref.Op)
			id := op.ID()
			if _, done := s.startTimes[id]; done || nonSchedulable[id] {
				continue
			}
			switch {
			case op.Type() == sfg.TypeDelay:
				nonSchedulable[id] = true
			case levelIdx <= 1:
				// Level 0 holds graph inputs; level 1 depends only on
				// level-0 sources. Both start immediately.
				s.setStartTime(id, 0)
			default:
				start, err := s.earliestStart(op, nonSchedulable)
				if err != nil {
					return err
				}
				s.setStartTime(id, start)
			}
		}
	}

	if err := s.fitScheduleTime(); err != nil {
		return err
	}
	if err := s.placeOutputs(); err != nil {
		return err
	}
	return s.removeDelays()
}

// earliestStart computes max over all driven inputs of
// (source end time - input latency offset); delay sources contribute an
// end time of zero.
func (s *Schedule) earliestStart(op *sfg.Operation, nonSchedulable map[sfg.OpID]bool) (int, error) {
	start := 0
	for _, p := range op.Inputs() {
		sig, driven := s.graph.IncomingSignal(op.ID(), p)
		if !driven {
			continue
		}
		inOff, err := op.LatencyOffset(p)
		if err != nil {
			return 0, err
		}
		srcEnd := 0
		if !nonSchedulable[sig.Source.Op] {
			srcOp, srcStart, err := s.scheduledOp(sig.Source.Op)
			if err != nil {
				return 0, err
			}
			srcOff, err := srcOp.LatencyOffset(sig.Source.Port)
			if err != nil {
				return 0, err
			}
			srcEnd = srcStart + srcOff
		}
		if candidate := srcEnd - inOff; candidate > start {
			start = candidate
		}
	}
	return start, nil
}

// fitScheduleTime grows the period to the maximum end time over all placed
// operations. A larger caller-preset period is kept.
func (s *Schedule) fitScheduleTime() error {
	min, err := s.minimumScheduleTime()
	if err != nil {
		return err
	}
	if min > s.scheduleTime {
		s.scheduleTime = min
	}
	return nil
}

// placeOutputs derives every Output operation's start time from its single
// source. A start landing on the period boundary wraps to zero with the
// crossing recorded as a lap on the feeding signal.
func (s *Schedule) placeOutputs() error {
	for _, op := range s.graph.OperationsByType(sfg.TypeOutput) {
		id := op.ID()
		start := 0
		var inSig *sfg.Signal
		for _, p := range op.Inputs() {
			sig, driven := s.graph.IncomingSignal(id, p)
			if !driven {
				continue
			}
			inSig = sig
			if srcOp, ok := s.graph.Op(sig.Source.Op); ok && srcOp.Type() == sfg.TypeDelay {
				continue // delay sources contribute end time zero
			}
			srcOp, srcStart, err := s.scheduledOp(sig.Source.Op)
			if err != nil {
				return err
			}
			srcOff, err := srcOp.LatencyOffset(sig.Source.Port)
			if err != nil {
				return err
			}
			start = srcStart + srcOff
		}
		if s.scheduleTime > 0 && start >= s.scheduleTime {
			wraps := floorDiv(start, s.scheduleTime)
			start = floorMod(start, s.scheduleTime)
			if inSig != nil {
				s.laps[inSig.ID] += wraps
			}
		}
		s.setStartTime(id, start)
	}
	return nil
}

// removeDelays folds every feedback delay into its surrounding signals:
// each consumer of the delay's output is rewired to the delay's source,
// and the new direct edge carries one extra lap plus whatever laps the
// delay's endpoints had accumulated. Chains of delays fold one at a time.
func (s *Schedule) removeDelays() error {
	for {
		delays := s.graph.OperationsByType(sfg.TypeDelay)
		if len(delays) == 0 {
			return nil
		}
		removed := 0
		for _, d := range delays {
			id := d.ID()
			inSig, driven := s.graph.IncomingSignal(id, d.Inputs()[0])
			if !driven {
				if err := s.graph.RemoveOperation(id); err != nil {
					return err
				}
				removed++
				continue
			}
			// Defer delays fed by another delay until the feeder is gone.
			if srcOp, ok := s.graph.Op(inSig.Source.Op); ok && srcOp.Type() == sfg.TypeDelay {
				continue
			}
			inLap := s.laps[inSig.ID]
			type rewire struct {
				dst sfg.PortRef
				lap int
			}
			var rewires []rewire
			for _, p := range d.Outputs() {
				for _, outSig := range s.graph.OutgoingSignals(id, p) {
					rewires = append(rewires, rewire{
						dst: outSig.Destination,
						lap: s.laps[outSig.ID] + 1 + inLap,
					})
					delete(s.laps, outSig.ID)
				}
			}
			src := inSig.Source
			delete(s.laps, inSig.ID)
			if err := s.graph.RemoveOperation(id); err != nil {
				return err
			}
			for _, rw := range rewires {
				sig, err := s.graph.Connect(src.Op, src.Port, rw.dst.Op, rw.dst.Port)
				if err != nil {
					return err
				}
				s.laps[sig.ID] = rw.lap
			}
			removed++
		}
		if removed == 0 {
			return &ScheduleError{Code: ErrCodeInfeasible, Message: "delay cycle with no non-delay source"}
		}
	}
}
