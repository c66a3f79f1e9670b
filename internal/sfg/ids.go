package sfg

import "fmt"

// OpID identifies an operation within a graph.
type OpID string

// SignalID identifies a signal (directed edge) within a graph.
type SignalID string

// PortRef names one port of one operation.
type PortRef struct {
	Op   OpID
	Port string
}

// String renders the port as "op.port", the form used in diagnostics and
// architecture bookkeeping.
func (p PortRef) String() string {
	return fmt.Sprintf("%s.%s", p.Op, p.Port)
}

// Well-known operation type names. The graph itself treats types as opaque
// strings; these constants exist because the schedulers special-case
// Input, Output and Delay.
const (
	TypeInput    = "Input"
	TypeOutput   = "Output"
	TypeDelay    = "Delay"
	TypeDontCare = "DontCare"
	TypeSink     = "Sink"
)

// idPrefixes maps operation type names to the prefix used when
// auto-generating ids ("add0", "cmul3", ...). Unknown types fall back to
// "op".
var idPrefixes = map[string]string{
	TypeInput:                "in",
	TypeOutput:               "out",
	TypeDelay:                "t",
	"Addition":               "add",
	"Subtraction":            "sub",
	"Multiplication":         "mul",
	"ConstantMultiplication": "cmul",
	"Butterfly":              "bfly",
	TypeDontCare:             "dc",
	TypeSink:                 "sink",
}

func prefixFor(typeName string) string {
	if p, ok := idPrefixes[typeName]; ok {
		return p
	}
	return "op"
}
