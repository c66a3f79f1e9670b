package sched

import (
	"math"
	"sort"

	"github.com/mlindgren/hwsched/internal/sfg"
)

// Unbounded is the slack value reported when no dependency constrains a
// move in the queried direction.
const Unbounded = math.MaxInt

// Schedule maps operations of a signal-flow graph to integer start times.
//
// For cyclic schedules start times live in [0, schedule time) and every
// signal carries a lap count: the number of full periods its value
// survives between production and that particular consumption. Laps are
// recomputed whenever either endpoint moves.
type Schedule struct {
	graph        *sfg.Graph
	startTimes   map[sfg.OpID]int
	laps         map[sfg.SignalID]int
	scheduleTime int
	cyclic       bool

	// yPositions are plotting hints for GUI collaborators; the core never
	// reads them.
	yPositions map[sfg.OpID]int
}

// Option configures a Schedule at construction.
type Option func(*Schedule)

// WithCyclic marks the schedule as cyclic (modulo time arithmetic).
func WithCyclic() Option {
	return func(s *Schedule) { s.cyclic = true }
}

// WithScheduleTime presets the period. Strategies treat it as a lower
// bound to honor rather than a value to shrink.
func WithScheduleTime(t int) Option {
	return func(s *Schedule) { s.scheduleTime = t }
}

// New creates an empty schedule over a private copy of g.
func New(g *sfg.Graph, opts ...Option) *Schedule {
	s := &Schedule{
		graph:      g.Copy(),
		startTimes: make(map[sfg.OpID]int),
		laps:       make(map[sfg.SignalID]int),
		yPositions: make(map[sfg.OpID]int),
	}
	for _, sig := range s.graph.Signals() {
		s.laps[sig.ID] = 0
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scheduler is the common contract of every scheduling strategy: populate
// the supplied schedule in place, leaving it delay-free.
type Scheduler interface {
	ApplyScheduling(s *Schedule) error
}

// Compute builds a schedule for g with the given strategy.
func Compute(g *sfg.Graph, scheduler Scheduler, opts ...Option) (*Schedule, error) {
	s := New(g, opts...)
	if err := scheduler.ApplyScheduling(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Graph exposes the schedule's private (delay-free after scheduling) graph
// copy. Callers must treat it as read-only.
func (s *Schedule) Graph() *sfg.Graph { return s.graph }

// Cyclic reports whether time arithmetic wraps at the period.
func (s *Schedule) Cyclic() bool { return s.cyclic }

// ScheduleTime returns the period length.
func (s *Schedule) ScheduleTime() int { return s.scheduleTime }

// StartTime returns an operation's start time, if scheduled.
func (s *Schedule) StartTime(id sfg.OpID) (int, bool) {
	t, ok := s.startTimes[id]
	return t, ok
}

// StartTimes returns a copy of the start-time map.
func (s *Schedule) StartTimes() map[sfg.OpID]int {
	out := make(map[sfg.OpID]int, len(s.startTimes))
	for k, v := range s.startTimes {
		out[k] = v
	}
	return out
}

// Lap returns a signal's lap count.
func (s *Schedule) Lap(id sfg.SignalID) int { return s.laps[id] }

// Laps returns a copy of the lap map.
func (s *Schedule) Laps() map[sfg.SignalID]int {
	out := make(map[sfg.SignalID]int, len(s.laps))
	for k, v := range s.laps {
		out[k] = v
	}
	return out
}

// SetYPosition records a plotting row hint for an operation.
func (s *Schedule) SetYPosition(id sfg.OpID, y int) { s.yPositions[id] = y }

// YPosition returns the plotting row hint for an operation. Operations
// without an explicit hint default to their rank in id order.
func (s *Schedule) YPosition(id sfg.OpID) int {
	if y, ok := s.yPositions[id]; ok {
		return y
	}
	ids := s.scheduledIDs()
	for i, other := range ids {
		if other == id {
			return i
		}
	}
	return 0
}

// Restore overwrites the schedule verbatim with externally supplied start
// times, laps and period, bypassing all validation. Used to rehydrate a
// schedule that was previously produced by a strategy.
func (s *Schedule) Restore(startTimes map[sfg.OpID]int, laps map[sfg.SignalID]int, scheduleTime int) {
	s.startTimes = make(map[sfg.OpID]int, len(startTimes))
	for k, v := range startTimes {
		s.startTimes[k] = v
	}
	s.laps = make(map[sfg.SignalID]int, len(laps))
	for k, v := range laps {
		s.laps[k] = v
	}
	s.scheduleTime = scheduleTime
}

func (s *Schedule) scheduledIDs() []sfg.OpID {
	ids := make([]sfg.OpID, 0, len(s.startTimes))
	for id := range s.startTimes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *Schedule) setStartTime(id sfg.OpID, t int) { s.startTimes[id] = t }

// opLatency returns the operation's total latency, treating operations
// without output ports (Outputs) as zero-latency.
func (s *Schedule) opLatency(op *sfg.Operation) (int, error) {
	if len(op.Outputs()) == 0 {
		return 0, nil
	}
	return op.Latency()
}

// minimumScheduleTime returns the smallest legal period: the maximum end
// time over all scheduled operations.
func (s *Schedule) minimumScheduleTime() (int, error) {
	min := 0
	for _, op := range s.graph.Operations() {
		start, ok := s.startTimes[op.ID()]
		if !ok {
			continue
		}
		lat, err := s.opLatency(op)
		if err != nil {
			return 0, err
		}
		if end := start + lat; end > min {
			min = end
		}
	}
	return min, nil
}

// SetScheduleTime changes the period. Fails when t is below the minimum
// feasible period for the current start times.
func (s *Schedule) SetScheduleTime(t int) error {
	min, err := s.minimumScheduleTime()
	if err != nil {
		return err
	}
	if t < min {
		return &ScheduleError{
			Code:    ErrCodeScheduleTimeTooShort,
			Message: "schedule time below minimum feasible period",
			Value:   t,
			Lo:      min,
			Hi:      Unbounded,
		}
	}
	s.scheduleTime = t
	return nil
}

// ForwardSlack returns how far the operation can move toward later time
// without violating any consumer's timing. Unbounded when nothing consumes
// its outputs.
func (s *Schedule) ForwardSlack(id sfg.OpID) (int, error) {
	op, start, err := s.scheduledOp(id)
	if err != nil {
		return 0, err
	}
	slack := Unbounded
	for _, p := range op.Outputs() {
		avail, err := op.LatencyOffset(p)
		if err != nil {
			return 0, err
		}
		for _, sig := range s.graph.OutgoingSignals(id, p) {
			gap, err := s.signalGap(sig, start+avail)
			if err != nil {
				return 0, err
			}
			if gap < slack {
				slack = gap
			}
		}
	}
	return slack, nil
}

// BackwardSlack returns how far the operation can move toward earlier time
// without needing any input before its producer makes it available.
// Unbounded when it has no driven inputs.
func (s *Schedule) BackwardSlack(id sfg.OpID) (int, error) {
	op, start, err := s.scheduledOp(id)
	if err != nil {
		return 0, err
	}
	slack := Unbounded
	for _, p := range op.Inputs() {
		sig, driven := s.graph.IncomingSignal(id, p)
		if !driven {
			continue
		}
		off, err := op.LatencyOffset(p)
		if err != nil {
			return 0, err
		}
		srcOp, srcStart, err := s.scheduledOp(sig.Source.Op)
		if err != nil {
			return 0, err
		}
		srcOff, err := srcOp.LatencyOffset(sig.Source.Port)
		if err != nil {
			return 0, err
		}
		gap := (start + off + s.scheduleTime*s.laps[sig.ID]) - (srcStart + srcOff)
		if gap < slack {
			slack = gap
		}
	}
	return slack, nil
}

// signalGap computes, for one signal, how much later the value could be
// produced and still meet its consumer, honoring lap wrap-around.
func (s *Schedule) signalGap(sig *sfg.Signal, available int) (int, error) {
	dstOp, dstStart, err := s.scheduledOp(sig.Destination.Op)
	if err != nil {
		return 0, err
	}
	dstOff, err := dstOp.LatencyOffset(sig.Destination.Port)
	if err != nil {
		return 0, err
	}
	usage := dstStart + dstOff + s.scheduleTime*s.laps[sig.ID]
	return usage - available, nil
}

func (s *Schedule) scheduledOp(id sfg.OpID) (*sfg.Operation, int, error) {
	op, ok := s.graph.Op(id)
	if !ok {
		return nil, 0, &ScheduleError{Code: ErrCodeUnscheduled, Message: "unknown operation", Op: string(id)}
	}
	start, ok := s.startTimes[id]
	if !ok {
		return nil, 0, &ScheduleError{Code: ErrCodeUnscheduled, Message: "operation has no start time", Op: string(id)}
	}
	return op, start, nil
}

// MoveOperation shifts one operation by delta time steps, updating lap
// counts for every incident signal. delta must lie within
// [-BackwardSlack, ForwardSlack]; anything else is a bounds error.
func (s *Schedule) MoveOperation(id sfg.OpID, delta int) error {
	op, start, err := s.scheduledOp(id)
	if err != nil {
		return err
	}
	fs, err := s.ForwardSlack(id)
	if err != nil {
		return err
	}
	bs, err := s.BackwardSlack(id)
	if err != nil {
		return err
	}
	lo := -bs
	if bs == Unbounded {
		lo = math.MinInt
	}
	if delta < lo || (fs != Unbounded && delta > fs) {
		return &ScheduleError{
			Code:    ErrCodeMoveOutOfBounds,
			Message: "move violates dependency slack",
			Op:      string(id),
			Value:   delta,
			Lo:      lo,
			Hi:      fs,
		}
	}

	if !s.cyclic {
		newStart := start + delta
		lat, lerr := s.opLatency(op)
		if lerr != nil {
			return lerr
		}
		if newStart < 0 || newStart+lat > s.scheduleTime {
			return &ScheduleError{
				Code:    ErrCodeMoveOutOfBounds,
				Message: "move leaves the schedule period",
				Op:      string(id),
				Value:   newStart,
				Lo:      0,
				Hi:      s.scheduleTime - lat,
			}
		}
		s.setStartTime(id, newStart)
		return nil
	}

	// Cyclic: wrap the start time into [0, schedule time) and absorb every
	// crossed period boundary into the lap counts. A value consumed by the
	// moved operation arrives one lap later per boundary crossed forward; a
	// value produced by it arrives one lap earlier.
	wraps := floorDiv(start+delta, s.scheduleTime)
	newStart := floorMod(start+delta, s.scheduleTime)
	if wraps != 0 {
		for _, p := range op.Inputs() {
			if sig, driven := s.graph.IncomingSignal(id, p); driven {
				s.laps[sig.ID] += wraps
			}
		}
		for _, p := range op.Outputs() {
			for _, sig := range s.graph.OutgoingSignals(id, p) {
				s.laps[sig.ID] -= wraps
			}
		}
	}
	s.setStartTime(id, newStart)
	return nil
}

// RotateForward rigidly shifts every start time steps forward, re-deriving
// laps. Only legal on cyclic schedules.
func (s *Schedule) RotateForward(steps int) error {
	if !s.cyclic {
		return &ScheduleError{Code: ErrCodeNotCyclic, Message: "rotation requires a cyclic schedule"}
	}
	for _, op := range s.graph.Operations() {
		id := op.ID()
		start, ok := s.startTimes[id]
		if !ok {
			continue
		}
		wraps := floorDiv(start+steps, s.scheduleTime)
		s.setStartTime(id, floorMod(start+steps, s.scheduleTime))
		if wraps == 0 {
			continue
		}
		for _, p := range op.Inputs() {
			if sig, driven := s.graph.IncomingSignal(id, p); driven {
				s.laps[sig.ID] += wraps
			}
		}
		for _, p := range op.Outputs() {
			for _, sig := range s.graph.OutgoingSignals(id, p) {
				s.laps[sig.ID] -= wraps
			}
		}
	}
	return nil
}

// RotateBackward rigidly shifts every start time steps backward.
func (s *Schedule) RotateBackward(steps int) error {
	return s.RotateForward(-steps)
}

// IncreaseTimeResolution multiplies every timing value (start times,
// period, latency offsets, execution times) by factor.
func (s *Schedule) IncreaseTimeResolution(factor int) error {
	if factor < 1 {
		return &ScheduleError{Code: ErrCodeBadResolution, Message: "factor must be positive", Value: factor, Lo: 1, Hi: Unbounded}
	}
	for id := range s.startTimes {
		s.startTimes[id] *= factor
	}
	s.scheduleTime *= factor
	s.graph.ScaleTiming(factor)
	return nil
}

// PossibleTimeResolutionDecrements returns every factor that evenly
// divides all timing values currently in use, in ascending order. The
// factor 1 is always legal.
func (s *Schedule) PossibleTimeResolutionDecrements() []int {
	g := s.scheduleTime
	for _, t := range s.startTimes {
		g = gcd(g, t)
	}
	for _, v := range s.graph.TimingValues() {
		g = gcd(g, v)
	}
	if g == 0 {
		return []int{1}
	}
	var out []int
	for d := 1; d <= g; d++ {
		if g%d == 0 {
			out = append(out, d)
		}
	}
	return out
}

// DecreaseTimeResolution divides every timing value by factor. The factor
// must divide every timing value in use.
func (s *Schedule) DecreaseTimeResolution(factor int) error {
	legal := false
	for _, d := range s.PossibleTimeResolutionDecrements() {
		if d == factor {
			legal = true
			break
		}
	}
	if !legal {
		return &ScheduleError{
			Code:    ErrCodeBadResolution,
			Message: "factor does not divide every timing value in use",
			Value:   factor,
			Lo:      1,
			Hi:      s.scheduleTime,
		}
	}
	for id := range s.startTimes {
		s.startTimes[id] /= factor
	}
	s.scheduleTime /= factor
	s.graph.DivideTiming(factor)
	return nil
}
