package sched

import "github.com/mlindgren/hwsched/internal/sfg"

// maxStallSteps bounds how many consecutive time steps a resource-bounded
// list scheduler may advance without placing anything before it gives up.
const maxStallSteps = 10

// EarliestDeadlineFirst greedily places the ready operation whose ALAP
// deadline (ALAP start + latency) is smallest, honoring per-type resource
// caps.
type EarliestDeadlineFirst struct {
	// MaxResources caps how many operations of each type name may execute
	// concurrently. Types absent from the map are unlimited.
	MaxResources map[string]int
}

// ApplyScheduling implements Scheduler.
func (e EarliestDeadlineFirst) ApplyScheduling(s *Schedule) error {
	return runList(s, e.MaxResources, func(a, b *listOp) bool {
		if a.deadline != b.deadline {
			return a.deadline < b.deadline
		}
		return a.seq < b.seq
	})
}

// LeastSlackTime places the ready operation with the smallest slack,
// using the ALAP start time as the static slack ordering.
type LeastSlackTime struct {
	MaxResources map[string]int
}

// ApplyScheduling implements Scheduler.
func (l LeastSlackTime) ApplyScheduling(s *Schedule) error {
	return runList(s, l.MaxResources, func(a, b *listOp) bool {
		if a.alapStart != b.alapStart {
			return a.alapStart < b.alapStart
		}
		return a.seq < b.seq
	})
}

// MaxFanOut places the ready operation with the most consumer signals.
type MaxFanOut struct {
	MaxResources map[string]int
}

// ApplyScheduling implements Scheduler.
func (m MaxFanOut) ApplyScheduling(s *Schedule) error {
	return runList(s, m.MaxResources, func(a, b *listOp) bool {
		if a.fanOut != b.fanOut {
			return a.fanOut > b.fanOut
		}
		return a.seq < b.seq
	})
}

// Hybrid orders by least slack and breaks ties by descending fan-out.
type Hybrid struct {
	MaxResources map[string]int
}

// ApplyScheduling implements Scheduler.
func (h Hybrid) ApplyScheduling(s *Schedule) error {
	return runList(s, h.MaxResources, func(a, b *listOp) bool {
		if a.alapStart != b.alapStart {
			return a.alapStart < b.alapStart
		}
		if a.fanOut != b.fanOut {
			return a.fanOut > b.fanOut
		}
		return a.seq < b.seq
	})
}

// listOp carries the static priority inputs of one schedulable operation.
type listOp struct {
	id        sfg.OpID
	typeName  string
	latency   int
	execTime  int // resource occupancy; latency when unset
	deadline  int
	alapStart int
	fanOut    int
	seq       int
}

// runList is the shared greedy loop: place ready operations one time step
// at a time, best-priority first, under the per-type resource caps.
func runList(s *Schedule, maxResources map[string]int, less func(a, b *listOp) bool) error {
	if _, err := s.graph.PrecedenceLevels(); err != nil {
		return err
	}

	// ALAP reference for deadlines and slack orderings.
	refOpts := []Option{WithScheduleTime(s.scheduleTime)}
	if s.cyclic {
		refOpts = append(refOpts, WithCyclic())
	}
	ref, err := Compute(s.graph, ALAP{}, refOpts...)
	if err != nil {
		return err
	}

	var pending []*listOp
	for i, op := range s.graph.Operations() {
		switch op.Type() {
		case sfg.TypeDelay, sfg.TypeInput, sfg.TypeOutput:
			continue
		}
		lat, err := op.Latency()
		if err != nil {
			return err
		}
		exec := lat
		if et, ok := op.ExecutionTime(); ok {
			exec = et
		}
		alapStart, ok := ref.StartTime(op.ID())
		if !ok {
			return &ScheduleError{Code: ErrCodeUnscheduled, Message: "operation missing from reference schedule", Op: string(op.ID())}
		}
		pending = append(pending, &listOp{
			id:        op.ID(),
			typeName:  op.Type(),
			latency:   lat,
			execTime:  exec,
			deadline:  alapStart + lat,
			alapStart: alapStart,
			fanOut:    s.graph.FanOut(op.ID()),
			seq:       i,
		})
	}

	placed := make(map[sfg.OpID]*listOp)
	now := 0
	stall := 0
	for len(pending) > 0 {
		progressed := false
		for {
			idx := s.pickReady(pending, placed, maxResources, now, less)
			if idx < 0 {
				break
			}
			lo := pending[idx]
			s.setStartTime(lo.id, now)
			placed[lo.id] = lo
			pending = append(pending[:idx], pending[idx+1:]...)
			progressed = true
		}
		if progressed {
			stall = 0
		} else {
			stall++
			if stall > maxStallSteps {
				return &ScheduleError{
					Code:    ErrCodeStalled,
					Message: "no operation became ready; relax the resource constraints",
					Value:   now,
				}
			}
		}
		now++
	}

	if err := s.fitScheduleTime(); err != nil {
		return err
	}
	if err := s.placeOutputs(); err != nil {
		return err
	}
	// Inputs swept ASAP first; pushed late together with outputs below.
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

// pickReady returns the index of the best ready operation at time now, or
// -1 when nothing can be placed.
func (s *Schedule) pickReady(pending []*listOp, placed map[sfg.OpID]*listOp, maxResources map[string]int, now int, less func(a, b *listOp) bool) int {
	best := -1
	for i, lo := range pending {
		ready, err := s.readyAt(lo, placed, now)
		if err != nil || !ready {
			continue
		}
		if limit, capped := maxResources[lo.typeName]; capped {
			if s.resourcesInUse(placed, lo.typeName, now) >= limit {
				continue
			}
		}
		if best < 0 || less(lo, pending[best]) {
			best = i
		}
	}
	return best
}

// readyAt reports whether every driven input's value is available by now.
// Delay and Input sources are available from time zero (plus their output
// offset, for inputs).
func (s *Schedule) readyAt(lo *listOp, placed map[sfg.OpID]*listOp, now int) (bool, error) {
	op, _ := s.graph.Op(lo.id)
	for _, p := range op.Inputs() {
		sig, driven := s.graph.IncomingSignal(lo.id, p)
		if !driven {
			continue
		}
		inOff, err := op.LatencyOffset(p)
		if err != nil {
			return false, err
		}
		srcOp, ok := s.graph.Op(sig.Source.Op)
		if !ok {
			continue
		}
		srcEnd := 0
		switch srcOp.Type() {
		case sfg.TypeDelay:
			// lap bookkeeping resolves delays; available immediately
		case sfg.TypeInput:
			srcOff, err := srcOp.LatencyOffset(sig.Source.Port)
			if err != nil {
				return false, err
			}
			srcEnd = srcOff
		default:
			src, isPlaced := placed[sig.Source.Op]
			if !isPlaced {
				return false, nil
			}
			srcOff, err := srcOp.LatencyOffset(sig.Source.Port)
			if err != nil {
				return false, err
			}
			srcStart, _ := s.StartTime(src.id)
			srcEnd = srcStart + srcOff
		}
		if srcEnd-inOff > now {
			return false, nil
		}
	}
	return true, nil
}

// resourcesInUse counts placed operations of typeName still occupying
// their resource at time now.
func (s *Schedule) resourcesInUse(placed map[sfg.OpID]*listOp, typeName string, now int) int {
	n := 0
	for id, lo := range placed {
		if lo.typeName != typeName {
			continue
		}
		start, _ := s.StartTime(id)
		if start <= now && now < start+lo.execTime {
			n++
		}
	}
	return n
}

// tightenInput pushes an Input toward its consumers by its forward slack,
// shrinking the lifetime of the value it produces.
func (s *Schedule) tightenInput(op *sfg.Operation) error {
	return s.pushLate(op)
}
