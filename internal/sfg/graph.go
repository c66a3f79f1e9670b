package sfg

import "fmt"

// Signal is a directed edge from one output port to one input port.
type Signal struct {
	ID          SignalID
	Source      PortRef
	Destination PortRef
}

// Graph is a signal-flow graph: operations connected by signals.
//
// The zero value is not usable; construct with New. Operation iteration
// order is insertion order, which keeps every derived computation
// deterministic.
type Graph struct {
	ops      map[OpID]*Operation
	order    []OpID
	signals  map[SignalID]*Signal
	sigOrder []SignalID

	// incoming maps (op, input port) to the single driving signal.
	// outgoing maps (op, output port) to the fan-out signal list.
	incoming map[PortRef]SignalID
	outgoing map[PortRef][]SignalID

	typeCounters map[string]int
	signalSeq    int
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		ops:          make(map[OpID]*Operation),
		signals:      make(map[SignalID]*Signal),
		incoming:     make(map[PortRef]SignalID),
		outgoing:     make(map[PortRef][]SignalID),
		typeCounters: make(map[string]int),
	}
}

// AddOperation adds an operation described by spec and returns it. An empty
// spec.ID is assigned from the type's prefix counter ("add0", "cmul1", ...).
func (g *Graph) AddOperation(spec OpSpec) (*Operation, error) {
	if spec.ID == "" {
		prefix := prefixFor(spec.Type)
		spec.ID = OpID(fmt.Sprintf("%s%d", prefix, g.typeCounters[prefix]))
		g.typeCounters[prefix]++
	}
	if _, exists := g.ops[spec.ID]; exists {
		return nil, &GraphError{Code: ErrCodeInvalidConnection, Message: "duplicate operation id", Op: spec.ID}
	}
	op := newOperation(spec)
	g.ops[spec.ID] = op
	g.order = append(g.order, spec.ID)
	return op, nil
}

// Connect wires source's output port to dest's input port and returns the
// created signal. An input port can only be driven once.
func (g *Graph) Connect(source OpID, sourcePort string, dest OpID, destPort string) (*Signal, error) {
	src, ok := g.ops[source]
	if !ok {
		return nil, &GraphError{Code: ErrCodeUnknownOp, Message: "unknown source operation", Op: source}
	}
	dst, ok := g.ops[dest]
	if !ok {
		return nil, &GraphError{Code: ErrCodeUnknownOp, Message: "unknown destination operation", Op: dest}
	}
	if src.IsInputPort(sourcePort) || !src.HasPort(sourcePort) {
		return nil, &GraphError{Code: ErrCodeInvalidConnection, Message: "source port is not an output", Op: source, Port: sourcePort}
	}
	if !dst.IsInputPort(destPort) {
		return nil, &GraphError{Code: ErrCodeInvalidConnection, Message: "destination port is not an input", Op: dest, Port: destPort}
	}
	to := PortRef{Op: dest, Port: destPort}
	if _, driven := g.incoming[to]; driven {
		return nil, &GraphError{Code: ErrCodeInvalidConnection, Message: "input port already driven", Op: dest, Port: destPort}
	}
	return g.addSignal(PortRef{Op: source, Port: sourcePort}, to), nil
}

func (g *Graph) addSignal(from, to PortRef) *Signal {
	id := SignalID(fmt.Sprintf("s%d", g.signalSeq))
	g.signalSeq++
	sig := &Signal{ID: id, Source: from, Destination: to}
	g.signals[id] = sig
	g.sigOrder = append(g.sigOrder, id)
	g.incoming[to] = id
	g.outgoing[from] = append(g.outgoing[from], id)
	return sig
}

// Op looks up an operation by id.
func (g *Graph) Op(id OpID) (*Operation, bool) {
	op, ok := g.ops[id]
	return op, ok
}

// Operations returns all operations in insertion order.
func (g *Graph) Operations() []*Operation {
	out := make([]*Operation, 0, len(g.order))
	for _, id := range g.order {
		if op, ok := g.ops[id]; ok {
			out = append(out, op)
		}
	}
	return out
}

// OperationsByType returns operations of the given type name, in insertion
// order.
func (g *Graph) OperationsByType(typeName string) []*Operation {
	var out []*Operation
	for _, op := range g.Operations() {
		if op.Type() == typeName {
			out = append(out, op)
		}
	}
	return out
}

// Signal looks up a signal by id.
func (g *Graph) Signal(id SignalID) (*Signal, bool) {
	s, ok := g.signals[id]
	return s, ok
}

// Signals returns all signals in creation order.
func (g *Graph) Signals() []*Signal {
	out := make([]*Signal, 0, len(g.sigOrder))
	for _, id := range g.sigOrder {
		if s, ok := g.signals[id]; ok {
			out = append(out, s)
		}
	}
	return out
}

// IncomingSignal returns the signal driving the given input port, if any.
func (g *Graph) IncomingSignal(op OpID, port string) (*Signal, bool) {
	id, ok := g.incoming[PortRef{Op: op, Port: port}]
	if !ok {
		return nil, false
	}
	return g.signals[id], true
}

// OutgoingSignals returns the signals fanning out of the given output port,
// in creation order.
func (g *Graph) OutgoingSignals(op OpID, port string) []*Signal {
	ids := g.outgoing[PortRef{Op: op, Port: port}]
	out := make([]*Signal, 0, len(ids))
	for _, id := range ids {
		if s, ok := g.signals[id]; ok {
			out = append(out, s)
		}
	}
	return out
}

// FanOut returns the total number of signals leaving any output port of op.
func (g *Graph) FanOut(op OpID) int {
	n := 0
	if o, ok := g.ops[op]; ok {
		for _, p := range o.Outputs() {
			n += len(g.outgoing[PortRef{Op: op, Port: p}])
		}
	}
	return n
}

// RemoveOperation excises an operation and every incident signal.
func (g *Graph) RemoveOperation(id OpID) error {
	op, ok := g.ops[id]
	if !ok {
		return &GraphError{Code: ErrCodeUnknownOp, Message: "unknown operation", Op: id}
	}
	for _, p := range op.Inputs() {
		ref := PortRef{Op: id, Port: p}
		if sid, driven := g.incoming[ref]; driven {
			g.removeSignal(sid)
		}
	}
	for _, p := range op.Outputs() {
		ref := PortRef{Op: id, Port: p}
		for _, sid := range append([]SignalID(nil), g.outgoing[ref]...) {
			g.removeSignal(sid)
		}
	}
	delete(g.ops, id)
	for i, oid := range g.order {
		if oid == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	return nil
}

func (g *Graph) removeSignal(id SignalID) {
	sig, ok := g.signals[id]
	if !ok {
		return
	}
	delete(g.signals, id)
	for i, sid := range g.sigOrder {
		if sid == id {
			g.sigOrder = append(g.sigOrder[:i], g.sigOrder[i+1:]...)
			break
		}
	}
	delete(g.incoming, sig.Destination)
	outs := g.outgoing[sig.Source]
	for i, sid := range outs {
		if sid == id {
			g.outgoing[sig.Source] = append(outs[:i], outs[i+1:]...)
			break
		}
	}
	if len(g.outgoing[sig.Source]) == 0 {
		delete(g.outgoing, sig.Source)
	}
}

// Copy returns a deep copy of the graph. A Schedule always works on its own
// copy so that delay excision cannot corrupt a graph the caller still holds.
func (g *Graph) Copy() *Graph {
	c := New()
	c.signalSeq = g.signalSeq
	for k, v := range g.typeCounters {
		c.typeCounters[k] = v
	}
	for _, id := range g.order {
		c.ops[id] = g.ops[id].clone()
		c.order = append(c.order, id)
	}
	for _, id := range g.sigOrder {
		s := g.signals[id]
		cs := &Signal{ID: s.ID, Source: s.Source, Destination: s.Destination}
		c.signals[id] = cs
		c.sigOrder = append(c.sigOrder, id)
		c.incoming[cs.Destination] = id
		c.outgoing[cs.Source] = append(c.outgoing[cs.Source], id)
	}
	return c
}

// ScaleTiming multiplies every latency offset and execution time by k.
func (g *Graph) ScaleTiming(k int) {
	for _, op := range g.Operations() {
		op.scaleTiming(k)
	}
}

// DivideTiming divides every latency offset and execution time by k.
// Divisibility must have been verified by the caller.
func (g *Graph) DivideTiming(k int) {
	for _, op := range g.Operations() {
		op.divideTiming(k)
	}
}

// TimingValues returns every latency offset and execution time in the
// graph, used to compute legal resolution decrements.
func (g *Graph) TimingValues() []int {
	var vals []int
	for _, op := range g.Operations() {
		vals = append(vals, op.timingValues()...)
	}
	return vals
}
