// Package oplib compiles CUE operator libraries into typed latency tables.
// A library declares, per operator type, the port set, per-port latency
// offsets and an optional execution time; graphs are then populated from
// the library with per-instance overrides applied on top.
package oplib

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/token"

	"github.com/mlindgren/hwsched/internal/sfg"
)

// OperatorType is one compiled operator declaration.
type OperatorType struct {
	Name          string
	Inputs        []string
	Outputs       []string
	Offsets       map[string]int
	ExecutionTime *int
}

// Spec instantiates the type as a graph operation spec. Offset overrides
// replace the library defaults per port; execTime, when non-nil, replaces
// the library execution time.
func (t *OperatorType) Spec(id sfg.OpID, offsets map[string]int, execTime *int) sfg.OpSpec {
	merged := make(map[string]int, len(t.Offsets)+len(offsets))
	for port, off := range t.Offsets {
		merged[port] = off
	}
	for port, off := range offsets {
		merged[port] = off
	}
	spec := sfg.OpSpec{
		ID:             id,
		Type:           t.Name,
		Inputs:         append([]string(nil), t.Inputs...),
		Outputs:        append([]string(nil), t.Outputs...),
		LatencyOffsets: merged,
	}
	if execTime != nil {
		et := *execTime
		spec.ExecutionTime = &et
	} else if t.ExecutionTime != nil {
		et := *t.ExecutionTime
		spec.ExecutionTime = &et
	}
	return spec
}

// Library holds compiled operator types in declaration order.
type Library struct {
	types map[string]*OperatorType
	order []string
}

// Type returns the named operator type.
func (l *Library) Type(name string) (*OperatorType, bool) {
	t, ok := l.types[name]
	return t, ok
}

// Types returns every operator type in declaration order.
func (l *Library) Types() []*OperatorType {
	out := make([]*OperatorType, 0, len(l.order))
	for _, name := range l.order {
		out = append(out, l.types[name])
	}
	return out
}

// CompileLibrary parses a CUE value holding an `operator` struct into a
// library. Uses the CUE SDK's Go API directly (not a CLI subprocess).
func CompileLibrary(v cue.Value) (*Library, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	opsVal := v.LookupPath(cue.ParsePath("operator"))
	if !opsVal.Exists() {
		return nil, &CompileError{
			Field:   "operator",
			Message: "operator declarations are required",
			Pos:     v.Pos(),
		}
	}
	iter, err := opsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	lib := &Library{types: make(map[string]*OperatorType)}
	for iter.Next() {
		t, err := compileOperator(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		lib.types[t.Name] = t
		lib.order = append(lib.order, t.Name)
	}
	if len(lib.order) == 0 {
		return nil, &CompileError{
			Field:   "operator",
			Message: "at least one operator is required",
			Pos:     opsVal.Pos(),
		}
	}
	return lib, nil
}

// CompileSource compiles CUE source text into a library.
func CompileSource(src string) (*Library, error) {
	v := cuecontext.New().CompileString(src)
	return CompileLibrary(v)
}

// compileOperator parses one operator declaration. `inputs` and `outputs`
// map port names to latency offsets; a port may also be declared with no
// offset by giving it the value null.
func compileOperator(name string, v cue.Value) (*OperatorType, error) {
	t := &OperatorType{Name: name, Offsets: make(map[string]int)}

	inputs, err := parsePorts(v, "inputs", t.Offsets)
	if err != nil {
		return nil, err
	}
	t.Inputs = inputs

	outputs, err := parsePorts(v, "outputs", t.Offsets)
	if err != nil {
		return nil, err
	}
	t.Outputs = outputs

	if len(t.Inputs) == 0 && len(t.Outputs) == 0 {
		return nil, &CompileError{
			Field:   fmt.Sprintf("operator.%s", name),
			Message: "at least one port is required",
			Pos:     v.Pos(),
		}
	}

	etVal := v.LookupPath(cue.ParsePath("execution_time"))
	if etVal.Exists() {
		et, err := etVal.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		n := int(et)
		t.ExecutionTime = &n
	}
	return t, nil
}

// parsePorts reads one port struct, recording declared offsets in offsets
// and returning the port names in declaration order.
func parsePorts(v cue.Value, field string, offsets map[string]int) ([]string, error) {
	portsVal := v.LookupPath(cue.ParsePath(field))
	if !portsVal.Exists() {
		return nil, nil
	}
	iter, err := portsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var names []string
	for iter.Next() {
		port := iter.Label()
		names = append(names, port)
		pv := iter.Value()
		if pv.Null() == nil {
			continue // port declared without an offset
		}
		off, err := pv.Int64()
		if err != nil {
			return nil, &CompileError{
				Field:   fmt.Sprintf("%s.%s", field, port),
				Message: "latency offset must be an integer or null",
				Pos:     pv.Pos(),
			}
		}
		offsets[port] = int(off)
	}
	return names, nil
}

// CompileError is a compilation failure with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
