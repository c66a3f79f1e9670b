package harness

import (
	"fmt"
	"strings"

	"github.com/mlindgren/hwsched/internal/oplib"
	"github.com/mlindgren/hwsched/internal/sched"
	"github.com/mlindgren/hwsched/internal/sfg"
	"github.com/mlindgren/hwsched/internal/testutil"
)

// Strategy names accepted in scenario files.
const (
	StrategyASAP             = "asap"
	StrategyALAP             = "alap"
	StrategyEarliestDeadline = "earliest_deadline"
	StrategyLeastSlack       = "least_slack"
	StrategyMaxFanOut        = "max_fanout"
	StrategyHybrid           = "hybrid"
	StrategyExact            = "exact"
)

// Result is the outcome of running one scenario.
type Result struct {
	Scenario *Scenario
	Schedule *sched.Schedule
}

// Run builds the scenario's graph, applies its strategy and returns the
// computed schedule.
func Run(scenario *Scenario) (*Result, error) {
	g, err := BuildGraph(scenario)
	if err != nil {
		return nil, err
	}
	scheduler, err := schedulerFor(scenario)
	if err != nil {
		return nil, err
	}
	var opts []sched.Option
	if scenario.Cyclic {
		opts = append(opts, sched.WithCyclic())
	}
	if scenario.ScheduleTime > 0 {
		opts = append(opts, sched.WithScheduleTime(scenario.ScheduleTime))
	}
	s, err := sched.Compute(g, scheduler, opts...)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	return &Result{Scenario: scenario, Schedule: s}, nil
}

// Verify checks the result against the scenario's expect clause.
func Verify(result *Result) error {
	scenario := result.Scenario
	s := result.Schedule
	if got := s.ScheduleTime(); got != scenario.Expect.ScheduleTime {
		return fmt.Errorf("scenario %s: schedule time %d, expected %d", scenario.Name, got, scenario.Expect.ScheduleTime)
	}
	if want := scenario.Expect.StartTimes; want != nil {
		got := s.StartTimes()
		if len(got) != len(want) {
			return fmt.Errorf("scenario %s: %d start times, expected %d", scenario.Name, len(got), len(want))
		}
		for id, t := range want {
			if got[sfg.OpID(id)] != t {
				return fmt.Errorf("scenario %s: %s starts at %d, expected %d", scenario.Name, id, got[sfg.OpID(id)], t)
			}
		}
	}
	for _, sig := range s.Graph().Signals() {
		pair := sig.Source.String() + ">" + sig.Destination.String()
		if got, want := s.Lap(sig.ID), scenario.Expect.Laps[pair]; got != want {
			return fmt.Errorf("scenario %s: signal %s carries lap %d, expected %d", scenario.Name, pair, got, want)
		}
	}
	return nil
}

// fixtures maps fixture names to graph constructors.
var fixtures = map[string]func() *sfg.Graph{
	"first_order_iir":   testutil.FirstOrderIIR,
	"direct_form_1_iir": testutil.DirectForm1IIR,
	"fft8":              testutil.FFT8,
}

// BuildGraph materializes the scenario's graph, either from a named
// fixture or from the inline description resolved against the builtin
// operator library.
func BuildGraph(scenario *Scenario) (*sfg.Graph, error) {
	if scenario.Fixture != "" {
		build, ok := fixtures[scenario.Fixture]
		if !ok {
			return nil, fmt.Errorf("scenario %s: unknown fixture %q", scenario.Name, scenario.Fixture)
		}
		return build(), nil
	}

	lib, err := oplib.Builtin()
	if err != nil {
		return nil, err
	}
	g := sfg.New()
	for i, spec := range scenario.Graph.Operations {
		t, ok := lib.Type(spec.Type)
		if !ok {
			return nil, fmt.Errorf("scenario %s: operations[%d]: unknown operator type %q", scenario.Name, i, spec.Type)
		}
		if _, err := g.AddOperation(t.Spec(sfg.OpID(spec.ID), spec.Offsets, spec.ExecutionTime)); err != nil {
			return nil, fmt.Errorf("scenario %s: operations[%d]: %w", scenario.Name, i, err)
		}
	}
	for i, spec := range scenario.Graph.Signals {
		src, err := parsePort(spec.From)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: signals[%d]: %w", scenario.Name, i, err)
		}
		dst, err := parsePort(spec.To)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: signals[%d]: %w", scenario.Name, i, err)
		}
		if _, err := g.Connect(src.Op, src.Port, dst.Op, dst.Port); err != nil {
			return nil, fmt.Errorf("scenario %s: signals[%d]: %w", scenario.Name, i, err)
		}
	}
	return g, nil
}

func parsePort(s string) (sfg.PortRef, error) {
	op, port, ok := strings.Cut(s, ".")
	if !ok || op == "" || port == "" {
		return sfg.PortRef{}, fmt.Errorf("port %q is not of the form op.port", s)
	}
	return sfg.PortRef{Op: sfg.OpID(op), Port: port}, nil
}

func schedulerFor(scenario *Scenario) (sched.Scheduler, error) {
	switch scenario.Strategy {
	case StrategyASAP:
		return sched.ASAP{}, nil
	case StrategyALAP:
		return sched.ALAP{}, nil
	case StrategyEarliestDeadline:
		return sched.EarliestDeadlineFirst{MaxResources: scenario.MaxResources}, nil
	case StrategyLeastSlack:
		return sched.LeastSlackTime{MaxResources: scenario.MaxResources}, nil
	case StrategyMaxFanOut:
		return sched.MaxFanOut{MaxResources: scenario.MaxResources}, nil
	case StrategyHybrid:
		return sched.Hybrid{MaxResources: scenario.MaxResources}, nil
	case StrategyExact:
		return sched.Exact{ScheduleTime: scenario.ScheduleTime, MaxResources: scenario.MaxResources}, nil
	default:
		return nil, fmt.Errorf("scenario %s: unknown strategy %q", scenario.Name, scenario.Strategy)
	}
}
