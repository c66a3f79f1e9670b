package arch

import (
	"fmt"
	"sort"

	"github.com/mlindgren/hwsched/internal/process"
	"github.com/mlindgren/hwsched/internal/sfg"
)

// Interconnect is one directed routing requirement between two resources.
// Width counts the accesses routed over it per period, which sizes the
// multiplexer in front of the destination.
type Interconnect struct {
	From  string
	To    string
	Width int
}

// Architecture aggregates processing elements, memories and an optional
// collection of zero-length direct interconnect variables (values consumed
// the cycle they are produced, needing no storage).
type Architecture struct {
	pes    []*ProcessingElement
	mems   []*Memory
	direct *process.Collection

	// owners rebuilt by refresh after every structural edit.
	opOwner   map[sfg.OpID]*ProcessingElement
	opType    map[sfg.OpID]string
	portOwner map[sfg.PortRef]string
}

// NewArchitecture validates and assembles the full resource set. All
// resources must share one schedule time and the memory access ports must
// exactly cover the processing-element ports.
func NewArchitecture(pes []*ProcessingElement, mems []*Memory, direct *process.Collection) (*Architecture, error) {
	a := &Architecture{pes: pes, mems: mems, direct: direct}
	a.refresh()
	if err := a.checkScheduleTimes(); err != nil {
		return nil, err
	}
	if err := a.checkPortCoverage(); err != nil {
		return nil, err
	}
	return a, nil
}

// ProcessingElements returns the architecture's processing elements.
func (a *Architecture) ProcessingElements() []*ProcessingElement {
	return append([]*ProcessingElement(nil), a.pes...)
}

// Memories returns the architecture's memories.
func (a *Architecture) Memories() []*Memory {
	return append([]*Memory(nil), a.mems...)
}

// DirectInterconnects returns the zero-length variable collection, or nil.
func (a *Architecture) DirectInterconnects() *process.Collection { return a.direct }

// ScheduleTime returns the shared period of every resource.
func (a *Architecture) ScheduleTime() int {
	if len(a.pes) > 0 {
		return a.pes[0].ScheduleTime()
	}
	if len(a.mems) > 0 {
		return a.mems[0].ScheduleTime()
	}
	return 0
}

func (a *Architecture) refresh() {
	a.opOwner = make(map[sfg.OpID]*ProcessingElement)
	a.opType = make(map[sfg.OpID]string)
	a.portOwner = make(map[sfg.PortRef]string)
	for _, pe := range a.pes {
		for _, p := range pe.Collection().Processes() {
			op := p.(*process.OperatorProcess)
			id := sfg.OpID(op.Name())
			a.opOwner[id] = pe
			a.opType[id] = op.OpType()
		}
	}
	for _, m := range a.mems {
		for _, ref := range m.WritePortRefs() {
			a.portOwner[ref] = m.Name()
		}
		for _, ref := range m.ReadPortRefs() {
			a.portOwner[ref] = m.Name()
		}
	}
}

func (a *Architecture) checkScheduleTimes() error {
	ref := a.ScheduleTime()
	for _, pe := range a.pes {
		if pe.ScheduleTime() != ref {
			return &Error{
				Code:     ErrCodeScheduleTimeMismatch,
				Message:  fmt.Sprintf("schedule time %d differs from %d", pe.ScheduleTime(), ref),
				Resource: pe.Name(),
			}
		}
	}
	for _, m := range a.mems {
		if m.ScheduleTime() != ref {
			return &Error{
				Code:     ErrCodeScheduleTimeMismatch,
				Message:  fmt.Sprintf("schedule time %d differs from %d", m.ScheduleTime(), ref),
				Resource: m.Name(),
			}
		}
	}
	if a.direct != nil && a.direct.Len() > 0 && a.direct.ScheduleTime() != ref {
		return &Error{
			Code:    ErrCodeScheduleTimeMismatch,
			Message: fmt.Sprintf("direct interconnect schedule time %d differs from %d", a.direct.ScheduleTime(), ref),
		}
	}
	return nil
}

// checkPortCoverage verifies the symmetric difference between the
// processing-element port set and the memory access port set is empty.
func (a *Architecture) checkPortCoverage() error {
	writes := make(map[sfg.PortRef]bool)
	reads := make(map[sfg.PortRef]bool)
	for _, m := range a.mems {
		for _, ref := range m.WritePortRefs() {
			writes[ref] = true
		}
		for _, ref := range m.ReadPortRefs() {
			reads[ref] = true
		}
	}
	if a.direct != nil {
		for _, p := range a.direct.Processes() {
			v, ok := p.(*process.MemoryVariable)
			if !ok {
				return &Error{
					Code:    ErrCodeWrongKind,
					Message: "direct interconnects hold memory variables",
					Process: p.Name(),
				}
			}
			writes[v.WritePort()] = true
			for _, ref := range v.ReadPorts() {
				reads[ref] = true
			}
		}
	}

	var unmatched []sfg.PortRef
	for _, pe := range a.pes {
		for _, ref := range pe.OutputPorts() {
			if !writes[ref] {
				unmatched = append(unmatched, ref)
			}
			delete(writes, ref)
		}
		for _, ref := range pe.InputPorts() {
			if !reads[ref] {
				unmatched = append(unmatched, ref)
			}
			delete(reads, ref)
		}
	}
	for ref := range writes {
		unmatched = append(unmatched, ref)
	}
	for ref := range reads {
		unmatched = append(unmatched, ref)
	}
	if len(unmatched) == 0 {
		return nil
	}
	sort.Slice(unmatched, func(i, j int) bool { return unmatched[i].String() < unmatched[j].String() })
	ref := unmatched[0]
	if t := a.opType[ref.Op]; t == sfg.TypeDontCare || t == sfg.TypeSink {
		return &Error{
			Code:    ErrCodeNotImplemented,
			Message: fmt.Sprintf("%s ports are not supported in architectures (port %s)", t, ref),
		}
	}
	return &Error{
		Code:    ErrCodePortMismatch,
		Message: fmt.Sprintf("port %s is not covered on both sides (%d unmatched)", ref, len(unmatched)),
	}
}

// MoveProcess relocates the named process from one resource to another and
// rebuilds the port ownership bookkeeping. The destination must be kind
// and type compatible with the process.
func (a *Architecture) MoveProcess(name, from, to string) error {
	srcColl, err := a.resourceCollection(from)
	if err != nil {
		return err
	}
	dstColl, err := a.resourceCollection(to)
	if err != nil {
		return err
	}
	var proc process.Process
	for _, p := range srcColl.Processes() {
		if p.Name() == name {
			proc = p
			break
		}
	}
	if proc == nil {
		return &Error{
			Code:     ErrCodeUnknownProcess,
			Message:  "process is not assigned to the source resource",
			Resource: from,
			Process:  name,
		}
	}
	if err := a.checkCompatible(proc, to); err != nil {
		return err
	}
	if err := srcColl.Remove(proc); err != nil {
		return err
	}
	dstColl.Add(proc)
	a.refresh()
	return nil
}

func (a *Architecture) resourceCollection(name string) (*process.Collection, error) {
	for _, pe := range a.pes {
		if pe.Name() == name {
			return pe.Collection(), nil
		}
	}
	for _, m := range a.mems {
		if m.Name() == name {
			return m.Collection(), nil
		}
	}
	return nil, &Error{
		Code:     ErrCodeUnknownResource,
		Message:  "no such resource",
		Resource: name,
	}
}

func (a *Architecture) checkCompatible(p process.Process, to string) error {
	for _, pe := range a.pes {
		if pe.Name() != to {
			continue
		}
		op, ok := p.(*process.OperatorProcess)
		if !ok {
			return &Error{
				Code:     ErrCodeWrongKind,
				Message:  "processing elements hold operator processes",
				Resource: to,
				Process:  p.Name(),
			}
		}
		if pe.OpType() != "" && op.OpType() != pe.OpType() {
			return &Error{
				Code:     ErrCodeHeterogeneous,
				Message:  fmt.Sprintf("expected type %q, got %q", pe.OpType(), op.OpType()),
				Resource: to,
				Process:  p.Name(),
			}
		}
		return nil
	}
	if !process.IsMemoryVariable(p) {
		return &Error{
			Code:     ErrCodeWrongKind,
			Message:  "memories hold memory variables",
			Resource: to,
			Process:  p.Name(),
		}
	}
	return nil
}

// GetInterconnectsForMemory returns the directed routing requirements of
// the named memory: one inbound interconnect per processing element
// writing into it and one outbound per processing element reading from it.
func (a *Architecture) GetInterconnectsForMemory(name string) ([]Interconnect, error) {
	var mem *Memory
	for _, m := range a.mems {
		if m.Name() == name {
			mem = m
			break
		}
	}
	if mem == nil {
		return nil, &Error{
			Code:     ErrCodeUnknownResource,
			Message:  "no such memory",
			Resource: name,
		}
	}
	in := make(map[string]int)
	out := make(map[string]int)
	for _, p := range mem.Collection().Processes() {
		v := p.(*process.MemoryVariable)
		if pe, ok := a.opOwner[v.WritePort().Op]; ok {
			in[pe.Name()]++
		}
		for _, ref := range v.ReadPorts() {
			if pe, ok := a.opOwner[ref.Op]; ok {
				out[pe.Name()]++
			}
		}
	}
	var ics []Interconnect
	for _, peName := range sortedKeys(in) {
		ics = append(ics, Interconnect{From: peName, To: name, Width: in[peName]})
	}
	for _, peName := range sortedKeys(out) {
		ics = append(ics, Interconnect{From: name, To: peName, Width: out[peName]})
	}
	return ics, nil
}

// GetInterconnectsForPE returns the directed routing requirements of the
// named processing element, including zero-length direct interconnects to
// other processing elements.
func (a *Architecture) GetInterconnectsForPE(name string) ([]Interconnect, error) {
	var pe *ProcessingElement
	for _, cand := range a.pes {
		if cand.Name() == name {
			pe = cand
			break
		}
	}
	if pe == nil {
		return nil, &Error{
			Code:     ErrCodeUnknownResource,
			Message:  "no such processing element",
			Resource: name,
		}
	}
	in := make(map[string]int)
	out := make(map[string]int)
	for _, ref := range pe.InputPorts() {
		if owner, ok := a.portOwner[ref]; ok {
			in[owner]++
		}
	}
	for _, ref := range pe.OutputPorts() {
		if owner, ok := a.portOwner[ref]; ok {
			out[owner]++
		}
	}
	if a.direct != nil {
		for _, p := range a.direct.Processes() {
			v, ok := p.(*process.MemoryVariable)
			if !ok {
				continue
			}
			writer, writerKnown := a.opOwner[v.WritePort().Op]
			for _, ref := range v.ReadPorts() {
				reader, readerKnown := a.opOwner[ref.Op]
				if !writerKnown || !readerKnown {
					continue
				}
				if writer.Name() == name {
					out[reader.Name()]++
				}
				if reader.Name() == name {
					in[writer.Name()]++
				}
			}
		}
	}
	var ics []Interconnect
	for _, owner := range sortedKeys(in) {
		ics = append(ics, Interconnect{From: owner, To: name, Width: in[owner]})
	}
	for _, owner := range sortedKeys(out) {
		ics = append(ics, Interconnect{From: name, To: owner, Width: out[owner]})
	}
	return ics, nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
