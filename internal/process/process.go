package process

import (
	"sort"

	"github.com/mlindgren/hwsched/internal/sfg"
)

// Process is one time interval to be mapped onto a resource: an operator
// execution or a memory-variable lifetime.
type Process interface {
	// Name identifies the process in diagnostics and assignments.
	Name() string

	// StartTime is when the interval opens.
	StartTime() int

	// ExecutionTime is the interval length; for memory variables this is
	// the longest individual lifetime.
	ExecutionTime() int
}

// OperatorProcess wraps one scheduled operator execution.
type OperatorProcess struct {
	name     string
	opType   string
	start    int
	execTime int

	// inPorts/outPorts record the driven input and fanned-out output ports
	// of the wrapped operation; the architecture layer matches them against
	// memory-variable access ports.
	inPorts  []sfg.PortRef
	outPorts []sfg.PortRef
}

// NewOperatorProcess creates an operator process.
func NewOperatorProcess(name, opType string, start, execTime int, inPorts, outPorts []sfg.PortRef) *OperatorProcess {
	return &OperatorProcess{
		name:     name,
		opType:   opType,
		start:    start,
		execTime: execTime,
		inPorts:  append([]sfg.PortRef(nil), inPorts...),
		outPorts: append([]sfg.PortRef(nil), outPorts...),
	}
}

// Name implements Process.
func (p *OperatorProcess) Name() string { return p.name }

// StartTime implements Process.
func (p *OperatorProcess) StartTime() int { return p.start }

// ExecutionTime implements Process.
func (p *OperatorProcess) ExecutionTime() int { return p.execTime }

// OpType returns the wrapped operation's type name.
func (p *OperatorProcess) OpType() string { return p.opType }

// InputPorts returns the wrapped operation's driven input ports.
func (p *OperatorProcess) InputPorts() []sfg.PortRef {
	return append([]sfg.PortRef(nil), p.inPorts...)
}

// OutputPorts returns the wrapped operation's fanned-out output ports.
func (p *OperatorProcess) OutputPorts() []sfg.PortRef {
	return append([]sfg.PortRef(nil), p.outPorts...)
}

// Less is the canonical process ordering: ascending start time, then
// descending execution time so that wider intervals sort first for the
// left-edge algorithm, then name for determinism.
func Less(a, b Process) bool {
	if a.StartTime() != b.StartTime() {
		return a.StartTime() < b.StartTime()
	}
	if a.ExecutionTime() != b.ExecutionTime() {
		return a.ExecutionTime() > b.ExecutionTime()
	}
	return a.Name() < b.Name()
}

// Sort orders procs by Less in place.
func Sort(procs []Process) {
	sort.SliceStable(procs, func(i, j int) bool { return Less(procs[i], procs[j]) })
}
