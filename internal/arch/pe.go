// Package arch maps process collections onto a bounded set of hardware
// resources: processing elements executing one operator type each, memories
// holding value lifetimes, and the interconnects between them.
package arch

import (
	"fmt"

	"github.com/mlindgren/hwsched/internal/process"
	"github.com/mlindgren/hwsched/internal/sfg"
)

// ProcessingElement executes every operator process of one concrete type
// with unit concurrency per assigned cell.
type ProcessingElement struct {
	name   string
	opType string
	coll   *process.Collection
	cells  []*process.Collection
}

// NewProcessingElement wraps coll as one processing element. Every member
// must be an operator process of the same type.
func NewProcessingElement(name string, coll *process.Collection) (*ProcessingElement, error) {
	opType := ""
	for _, p := range coll.Processes() {
		op, ok := p.(*process.OperatorProcess)
		if !ok {
			return nil, &Error{
				Code:     ErrCodeWrongKind,
				Message:  "processing elements hold operator processes",
				Resource: name,
				Process:  p.Name(),
			}
		}
		if opType == "" {
			opType = op.OpType()
			continue
		}
		if op.OpType() != opType {
			return nil, &Error{
				Code:     ErrCodeHeterogeneous,
				Message:  fmt.Sprintf("expected type %q, got %q", opType, op.OpType()),
				Resource: name,
				Process:  p.Name(),
			}
		}
	}
	return &ProcessingElement{name: name, opType: opType, coll: coll}, nil
}

// Name returns the resource name.
func (pe *ProcessingElement) Name() string { return pe.name }

// OpType returns the single operator type this element executes.
func (pe *ProcessingElement) OpType() string { return pe.opType }

// Collection returns the wrapped process collection.
func (pe *ProcessingElement) Collection() *process.Collection { return pe.coll }

// ScheduleTime returns the period of the wrapped collection.
func (pe *ProcessingElement) ScheduleTime() int { return pe.coll.ScheduleTime() }

// Assign splits the collection into conflict-free cells, one per required
// concurrent instance of the operator.
func (pe *ProcessingElement) Assign(strategy process.ExecStrategy) error {
	cells, err := pe.coll.SplitOnExecutionTime(strategy)
	if err != nil {
		return err
	}
	pe.cells = cells
	return nil
}

// Assignment returns the cell layout produced by Assign, or nil before any
// assignment ran.
func (pe *ProcessingElement) Assignment() []*process.Collection { return pe.cells }

// InputPorts returns every input port of every assigned operator process.
func (pe *ProcessingElement) InputPorts() []sfg.PortRef {
	var ports []sfg.PortRef
	for _, p := range pe.coll.Processes() {
		ports = append(ports, p.(*process.OperatorProcess).InputPorts()...)
	}
	return ports
}

// OutputPorts returns every output port of every assigned operator process.
func (pe *ProcessingElement) OutputPorts() []sfg.PortRef {
	var ports []sfg.PortRef
	for _, p := range pe.coll.Processes() {
		ports = append(ports, p.(*process.OperatorProcess).OutputPorts()...)
	}
	return ports
}
