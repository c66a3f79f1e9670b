package sfg

// Operation is one node of the signal-flow graph: a DSP operator with named
// input and output ports, per-port latency offsets and an optional
// execution time.
//
// Latency offsets are relative to the operation's start time: for an input
// port, the instant the value is required; for an output port, the instant
// the value becomes valid. An offset may be left unset; that is an error
// only when a computation actually needs it.
type Operation struct {
	id       OpID
	typeName string
	inputs   []string
	outputs  []string

	offsets  map[string]int
	execTime *int
}

// OpSpec describes an operation to add to a graph. ID may be empty, in
// which case the graph assigns one from the type's prefix counter.
type OpSpec struct {
	ID             OpID
	Type           string
	Inputs         []string
	Outputs        []string
	LatencyOffsets map[string]int
	ExecutionTime  *int
}

func newOperation(spec OpSpec) *Operation {
	op := &Operation{
		id:       spec.ID,
		typeName: spec.Type,
		inputs:   append([]string(nil), spec.Inputs...),
		outputs:  append([]string(nil), spec.Outputs...),
		offsets:  make(map[string]int, len(spec.LatencyOffsets)),
	}
	for port, off := range spec.LatencyOffsets {
		op.offsets[port] = off
	}
	if spec.ExecutionTime != nil {
		et := *spec.ExecutionTime
		op.execTime = &et
	}
	return op
}

// ID returns the operation's graph id.
func (o *Operation) ID() OpID { return o.id }

// Type returns the operation's type name.
func (o *Operation) Type() string { return o.typeName }

// Inputs returns the declared input port names in declaration order.
func (o *Operation) Inputs() []string { return append([]string(nil), o.inputs...) }

// Outputs returns the declared output port names in declaration order.
func (o *Operation) Outputs() []string { return append([]string(nil), o.outputs...) }

// HasPort reports whether name is one of the operation's ports.
func (o *Operation) HasPort(name string) bool {
	for _, p := range o.inputs {
		if p == name {
			return true
		}
	}
	for _, p := range o.outputs {
		if p == name {
			return true
		}
	}
	return false
}

// IsInputPort reports whether name is a declared input port.
func (o *Operation) IsInputPort(name string) bool {
	for _, p := range o.inputs {
		if p == name {
			return true
		}
	}
	return false
}

// LatencyOffset returns the latency offset attached to the named port.
// A missing offset is a structural precondition failure: the caller needed
// a timing value that was never configured.
func (o *Operation) LatencyOffset(port string) (int, error) {
	if !o.HasPort(port) {
		return 0, &GraphError{Code: ErrCodeUnknownPort, Message: "no such port", Op: o.id, Port: port}
	}
	off, ok := o.offsets[port]
	if !ok {
		return 0, &GraphError{Code: ErrCodeMissingOffset, Message: "latency offset not set", Op: o.id, Port: port}
	}
	return off, nil
}

// SetLatencyOffset attaches (or replaces) the latency offset of one port.
func (o *Operation) SetLatencyOffset(port string, offset int) error {
	if !o.HasPort(port) {
		return &GraphError{Code: ErrCodeUnknownPort, Message: "no such port", Op: o.id, Port: port}
	}
	o.offsets[port] = offset
	return nil
}

// LatencyOffsets returns a copy of all currently-set offsets.
func (o *Operation) LatencyOffsets() map[string]int {
	out := make(map[string]int, len(o.offsets))
	for k, v := range o.offsets {
		out[k] = v
	}
	return out
}

// Latency returns the operation's total latency: the maximum output-port
// latency offset. Fails if any output port's offset is unset.
func (o *Operation) Latency() (int, error) {
	max := 0
	for _, p := range o.outputs {
		off, err := o.LatencyOffset(p)
		if err != nil {
			return 0, err
		}
		if off > max {
			max = off
		}
	}
	return max, nil
}

// ExecutionTime returns the configured execution time, if any.
func (o *Operation) ExecutionTime() (int, bool) {
	if o.execTime == nil {
		return 0, false
	}
	return *o.execTime, true
}

// SetExecutionTime configures how long the operation occupies a resource.
func (o *Operation) SetExecutionTime(t int) {
	et := t
	o.execTime = &et
}

// ClearExecutionTime removes the configured execution time.
func (o *Operation) ClearExecutionTime() { o.execTime = nil }

// scaleTiming multiplies every timing value by k (resolution increase).
func (o *Operation) scaleTiming(k int) {
	for port := range o.offsets {
		o.offsets[port] *= k
	}
	if o.execTime != nil {
		*o.execTime *= k
	}
}

// divideTiming divides every timing value by k. Callers must have verified
// divisibility beforehand.
func (o *Operation) divideTiming(k int) {
	for port := range o.offsets {
		o.offsets[port] /= k
	}
	if o.execTime != nil {
		*o.execTime /= k
	}
}

// timingValues returns every timing value currently set on the operation,
// used for the resolution-decrement divisor computation.
func (o *Operation) timingValues() []int {
	vals := make([]int, 0, len(o.offsets)+1)
	for _, off := range o.offsets {
		vals = append(vals, off)
	}
	if o.execTime != nil {
		vals = append(vals, *o.execTime)
	}
	return vals
}

func (o *Operation) clone() *Operation {
	c := &Operation{
		id:       o.id,
		typeName: o.typeName,
		inputs:   append([]string(nil), o.inputs...),
		outputs:  append([]string(nil), o.outputs...),
		offsets:  make(map[string]int, len(o.offsets)),
	}
	for k, v := range o.offsets {
		c.offsets[k] = v
	}
	if o.execTime != nil {
		et := *o.execTime
		c.execTime = &et
	}
	return c
}
