// Package harness runs YAML scheduling scenarios: a graph description, a
// strategy and the expected outcome, with golden-file trace comparison.
package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines one scheduling conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario; it also names the golden
	// file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Fixture names a builtin graph fixture. Exactly one of Fixture or
	// Graph must be set.
	Fixture string `yaml:"fixture,omitempty"`

	// Graph describes the graph inline.
	Graph *GraphSpec `yaml:"graph,omitempty"`

	// Strategy selects the scheduler: asap, alap, earliest_deadline,
	// least_slack, max_fanout, hybrid or exact.
	Strategy string `yaml:"strategy"`

	// Cyclic requests a software-pipelined schedule.
	Cyclic bool `yaml:"cyclic,omitempty"`

	// ScheduleTime presets the period; zero lets the scheduler fit it.
	ScheduleTime int `yaml:"schedule_time,omitempty"`

	// MaxResources caps concurrent operations per type name for the
	// resource-constrained strategies.
	MaxResources map[string]int `yaml:"max_resources,omitempty"`

	// Expect holds the asserted outcome.
	Expect ExpectClause `yaml:"expect"`
}

// GraphSpec describes a graph inline: operator instances and the signals
// connecting them.
type GraphSpec struct {
	Operations []OperationSpec `yaml:"operations"`
	Signals    []SignalSpec    `yaml:"signals"`
}

// OperationSpec instantiates one operator from the builtin library.
type OperationSpec struct {
	// ID is optional; empty ids are assigned from the type counter.
	ID string `yaml:"id,omitempty"`

	// Type is the operator type name (Input, Addition, ...).
	Type string `yaml:"type"`

	// Offsets overrides per-port latency offsets.
	Offsets map[string]int `yaml:"offsets,omitempty"`

	// ExecutionTime sets the execution time; nil leaves it unset.
	ExecutionTime *int `yaml:"execution_time,omitempty"`
}

// SignalSpec connects a source port to a destination port, both written
// as "op.port".
type SignalSpec struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// ExpectClause specifies the expected schedule.
type ExpectClause struct {
	// ScheduleTime is the expected period.
	ScheduleTime int `yaml:"schedule_time"`

	// StartTimes is the expected full start-time map.
	StartTimes map[string]int `yaml:"start_times,omitempty"`

	// Laps maps "src.port>dst.port" pairs to expected lap counts. Pairs
	// not listed are expected to carry lap zero.
	Laps map[string]int `yaml:"laps,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if (s.Fixture == "") == (s.Graph == nil) {
		return fmt.Errorf("exactly one of fixture or graph is required")
	}
	if s.Strategy == "" {
		return fmt.Errorf("strategy is required")
	}
	if s.Graph != nil {
		if len(s.Graph.Operations) == 0 {
			return fmt.Errorf("graph.operations must be non-empty")
		}
		for i, op := range s.Graph.Operations {
			if op.Type == "" {
				return fmt.Errorf("graph.operations[%d]: type is required", i)
			}
		}
		for i, sig := range s.Graph.Signals {
			if sig.From == "" || sig.To == "" {
				return fmt.Errorf("graph.signals[%d]: from and to are required", i)
			}
		}
	}
	if s.Expect.ScheduleTime <= 0 {
		return fmt.Errorf("expect.schedule_time is required")
	}
	return nil
}
