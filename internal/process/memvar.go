package process

import (
	"sort"

	"github.com/mlindgren/hwsched/internal/sfg"
)

// MemoryVariable is the lifetime of one produced value: from its write
// event to each of its (possibly several) read events. Each read carries
// its own life time; the variable's execution time is the longest of
// them. Reads may be added and removed individually as schedule edits
// change fan-out.
type MemoryVariable struct {
	name      string
	writeTime int
	writePort sfg.PortRef
	reads     map[sfg.PortRef]int // read port -> life time
}

// NewMemoryVariable creates a memory variable written at writeTime from
// writePort, with the given per-read-port life times.
func NewMemoryVariable(name string, writeTime int, writePort sfg.PortRef, reads map[sfg.PortRef]int) *MemoryVariable {
	mv := &MemoryVariable{
		name:      name,
		writeTime: writeTime,
		writePort: writePort,
		reads:     make(map[sfg.PortRef]int, len(reads)),
	}
	for port, lt := range reads {
		mv.reads[port] = lt
	}
	return mv
}

// Name implements Process.
func (v *MemoryVariable) Name() string { return v.name }

// StartTime implements Process; the write event.
func (v *MemoryVariable) StartTime() int { return v.writeTime }

// ExecutionTime implements Process; the longest individual life time.
func (v *MemoryVariable) ExecutionTime() int {
	max := 0
	for _, lt := range v.reads {
		if lt > max {
			max = lt
		}
	}
	return max
}

// WritePort returns the producing port.
func (v *MemoryVariable) WritePort() sfg.PortRef { return v.writePort }

// ReadPorts returns the consuming ports in deterministic order.
func (v *MemoryVariable) ReadPorts() []sfg.PortRef {
	ports := make([]sfg.PortRef, 0, len(v.reads))
	for p := range v.reads {
		ports = append(ports, p)
	}
	sort.Slice(ports, func(i, j int) bool {
		if ports[i].Op != ports[j].Op {
			return ports[i].Op < ports[j].Op
		}
		return ports[i].Port < ports[j].Port
	})
	return ports
}

// LifeTimes returns the per-read life times in ReadPorts order.
func (v *MemoryVariable) LifeTimes() []int {
	ports := v.ReadPorts()
	out := make([]int, len(ports))
	for i, p := range ports {
		out[i] = v.reads[p]
	}
	return out
}

// AddReadPort adds (or replaces) one read and its life time.
func (v *MemoryVariable) AddReadPort(port sfg.PortRef, lifeTime int) {
	v.reads[port] = lifeTime
}

// RemoveReadPort drops one read. Fails if the port is not a reader.
func (v *MemoryVariable) RemoveReadPort(port sfg.PortRef) error {
	if _, ok := v.reads[port]; !ok {
		return &Error{Code: ErrCodeUnknownProcess, Message: "port does not read this variable", Process: v.name}
	}
	delete(v.reads, port)
	return nil
}

// PlainMemoryVariable is the port-agnostic twin of MemoryVariable: reads
// and the write are identified by plain integer port numbers instead of
// graph port references.
type PlainMemoryVariable struct {
	name      string
	writeTime int
	writePort int
	reads     map[int]int // read port number -> life time
}

// NewPlainMemoryVariable creates a plain memory variable. Diagnostics use
// the name verbatim, so give each variable a distinct one.
func NewPlainMemoryVariable(name string, writeTime, writePort int, reads map[int]int) *PlainMemoryVariable {
	pv := &PlainMemoryVariable{
		name:      name,
		writeTime: writeTime,
		writePort: writePort,
		reads:     make(map[int]int, len(reads)),
	}
	for port, lt := range reads {
		pv.reads[port] = lt
	}
	return pv
}

// Name implements Process.
func (v *PlainMemoryVariable) Name() string { return v.name }

// StartTime implements Process; the write event.
func (v *PlainMemoryVariable) StartTime() int { return v.writeTime }

// ExecutionTime implements Process; the longest individual life time.
func (v *PlainMemoryVariable) ExecutionTime() int {
	max := 0
	for _, lt := range v.reads {
		if lt > max {
			max = lt
		}
	}
	return max
}

// WritePort returns the writing port number.
func (v *PlainMemoryVariable) WritePort() int { return v.writePort }

// ReadPorts returns the reading port numbers in ascending order.
func (v *PlainMemoryVariable) ReadPorts() []int {
	ports := make([]int, 0, len(v.reads))
	for p := range v.reads {
		ports = append(ports, p)
	}
	sort.Ints(ports)
	return ports
}

// LifeTimes returns the per-read life times in ReadPorts order.
func (v *PlainMemoryVariable) LifeTimes() []int {
	ports := v.ReadPorts()
	out := make([]int, len(ports))
	for i, p := range ports {
		out[i] = v.reads[p]
	}
	return out
}

// AddReadPort adds (or replaces) one read and its life time.
func (v *PlainMemoryVariable) AddReadPort(port, lifeTime int) {
	v.reads[port] = lifeTime
}

// RemoveReadPort drops one read. Fails if the port is not a reader.
func (v *PlainMemoryVariable) RemoveReadPort(port int) error {
	if _, ok := v.reads[port]; !ok {
		return &Error{Code: ErrCodeUnknownProcess, Message: "port does not read this variable", Process: v.name}
	}
	delete(v.reads, port)
	return nil
}

// accessor is the common surface the port-split machinery needs from
// either memory-variable kind: when the value is written and when each
// read happens, relative to the write.
type accessor interface {
	Process
	readLifeTimes() []int
}

func (v *MemoryVariable) readLifeTimes() []int      { return v.LifeTimes() }
func (v *PlainMemoryVariable) readLifeTimes() []int { return v.LifeTimes() }

// IsMemoryVariable reports whether p is either memory-variable kind.
func IsMemoryVariable(p Process) bool {
	_, ok := p.(accessor)
	return ok
}
