package arch

import (
	"github.com/mlindgren/hwsched/internal/process"
	"github.com/mlindgren/hwsched/internal/sfg"
)

// Memory stores value lifetimes across banks bounded by per-cycle read,
// write and total port counts. Zero counts mean unlimited.
type Memory struct {
	name       string
	coll       *process.Collection
	readPorts  int
	writePorts int
	totalPorts int
	banks      []*process.Collection
}

// NewMemory wraps coll as one memory. Every member must be a memory
// variable, and each configured port count must reach the lower bound the
// collection's access pattern requires.
func NewMemory(name string, coll *process.Collection, readPorts, writePorts, totalPorts int) (*Memory, error) {
	for _, p := range coll.Processes() {
		if !process.IsMemoryVariable(p) {
			return nil, &Error{
				Code:     ErrCodeWrongKind,
				Message:  "memories hold memory variables",
				Resource: name,
				Process:  p.Name(),
			}
		}
	}
	checks := []struct {
		requested int
		bound     int
		what      string
	}{
		{readPorts, coll.ReadPortsBound(), "read ports"},
		{writePorts, coll.WritePortsBound(), "write ports"},
		{totalPorts, coll.TotalPortsBound(), "total ports"},
	}
	for _, ck := range checks {
		if ck.requested > 0 && ck.requested < ck.bound {
			return nil, &Error{
				Code:     ErrCodePortBound,
				Message:  "fewer " + ck.what + " than the collection requires",
				Resource: name,
				Value:    ck.requested,
				Bound:    ck.bound,
			}
		}
	}
	return &Memory{
		name:       name,
		coll:       coll,
		readPorts:  readPorts,
		writePorts: writePorts,
		totalPorts: totalPorts,
	}, nil
}

// Name returns the resource name.
func (m *Memory) Name() string { return m.name }

// Collection returns the wrapped process collection.
func (m *Memory) Collection() *process.Collection { return m.coll }

// ScheduleTime returns the period of the wrapped collection.
func (m *Memory) ScheduleTime() int { return m.coll.ScheduleTime() }

// ReadPorts returns the configured read port count, 0 meaning unlimited.
func (m *Memory) ReadPorts() int { return m.readPorts }

// WritePorts returns the configured write port count, 0 meaning unlimited.
func (m *Memory) WritePorts() int { return m.writePorts }

// TotalPorts returns the configured total port count, 0 meaning unlimited.
func (m *Memory) TotalPorts() int { return m.totalPorts }

// Assign splits the collection into banks that respect the configured port
// counts. The mux-aware strategies need opts.PEAssignment populated.
func (m *Memory) Assign(opts process.PortSplitOptions) error {
	opts.ReadPorts = m.readPorts
	opts.WritePorts = m.writePorts
	opts.TotalPorts = m.totalPorts
	banks, err := m.coll.SplitOnPorts(opts)
	if err != nil {
		return err
	}
	m.banks = banks
	return nil
}

// Assignment returns the bank layout produced by Assign, or nil before any
// assignment ran.
func (m *Memory) Assignment() []*process.Collection { return m.banks }

// WritePortRefs returns the write access port of every stored variable.
func (m *Memory) WritePortRefs() []sfg.PortRef {
	var ports []sfg.PortRef
	for _, p := range m.coll.Processes() {
		if v, ok := p.(*process.MemoryVariable); ok {
			ports = append(ports, v.WritePort())
		}
	}
	return ports
}

// ReadPortRefs returns every read access port of every stored variable.
func (m *Memory) ReadPortRefs() []sfg.PortRef {
	var ports []sfg.PortRef
	for _, p := range m.coll.Processes() {
		if v, ok := p.(*process.MemoryVariable); ok {
			ports = append(ports, v.ReadPorts()...)
		}
	}
	return ports
}
