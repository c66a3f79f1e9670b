package sched

import (
	"fmt"

	"github.com/mlindgren/hwsched/internal/process"
	"github.com/mlindgren/hwsched/internal/sfg"
)

// MemoryVariables derives one memory variable per driven output port of the
// scheduled graph. A variable is written when its producer finishes driving
// the port and read at each consumer, with period-crossing reads extended by
// the schedule time once per lap.
func (s *Schedule) MemoryVariables() (*process.Collection, error) {
	var vars []process.Process
	for _, op := range s.graph.Operations() {
		if op.Type() == sfg.TypeDelay {
			return nil, &ScheduleError{
				Code:    ErrCodeUnscheduled,
				Message: fmt.Sprintf("delay %q present; remove delays before extracting variables", op.ID()),
				Op:      string(op.ID()),
			}
		}
		start, ok := s.startTimes[op.ID()]
		if !ok {
			return nil, &ScheduleError{
				Code:    ErrCodeUnscheduled,
				Message: fmt.Sprintf("operation %q has no start time", op.ID()),
				Op:      string(op.ID()),
			}
		}
		for _, port := range op.Outputs() {
			sigs := s.graph.OutgoingSignals(op.ID(), port)
			if len(sigs) == 0 {
				continue
			}
			outOff, err := op.LatencyOffset(port)
			if err != nil {
				return nil, err
			}
			writeTime := start + outOff
			reads := make(map[sfg.PortRef]int, len(sigs))
			for _, sig := range sigs {
				readTime, err := s.readTime(sig)
				if err != nil {
					return nil, err
				}
				reads[sig.Destination] = readTime - writeTime
			}
			src := sfg.PortRef{Op: op.ID(), Port: port}
			vars = append(vars, process.NewMemoryVariable(src.String(), writeTime, src, reads))
		}
	}
	return process.NewCollection(vars, s.scheduleTime, s.cyclic), nil
}

// readTime is the instant sig's destination consumes the value, unwrapped
// across laps.
func (s *Schedule) readTime(sig *sfg.Signal) (int, error) {
	dst, dstStart, err := s.scheduledOp(sig.Destination.Op)
	if err != nil {
		return 0, err
	}
	inOff, err := dst.LatencyOffset(sig.Destination.Port)
	if err != nil {
		return 0, err
	}
	t := dstStart + inOff
	if s.cyclic {
		t += s.scheduleTime * s.laps[sig.ID]
	}
	return t, nil
}

// OperatorProcesses derives one process per non-delay operation, spanning
// its start time and execution time. Every operation must carry an
// execution time.
func (s *Schedule) OperatorProcesses() (*process.Collection, error) {
	var procs []process.Process
	for _, op := range s.graph.Operations() {
		if op.Type() == sfg.TypeDelay {
			continue
		}
		start, ok := s.startTimes[op.ID()]
		if !ok {
			return nil, &ScheduleError{
				Code:    ErrCodeUnscheduled,
				Message: fmt.Sprintf("operation %q has no start time", op.ID()),
				Op:      string(op.ID()),
			}
		}
		exec, ok := op.ExecutionTime()
		if !ok {
			return nil, &ScheduleError{
				Code:    ErrCodeMissingExecTime,
				Message: fmt.Sprintf("operation %q has no execution time", op.ID()),
				Op:      string(op.ID()),
			}
		}
		inPorts := make([]sfg.PortRef, 0, len(op.Inputs()))
		for _, p := range op.Inputs() {
			inPorts = append(inPorts, sfg.PortRef{Op: op.ID(), Port: p})
		}
		outPorts := make([]sfg.PortRef, 0, len(op.Outputs()))
		for _, p := range op.Outputs() {
			outPorts = append(outPorts, sfg.PortRef{Op: op.ID(), Port: p})
		}
		procs = append(procs, process.NewOperatorProcess(string(op.ID()), op.Type(), start, exec, inPorts, outPorts))
	}
	return process.NewCollection(procs, s.scheduleTime, s.cyclic), nil
}
