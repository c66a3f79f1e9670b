package cli

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mlindgren/hwsched/internal/arch"
	"github.com/mlindgren/hwsched/internal/harness"
	"github.com/mlindgren/hwsched/internal/process"
	"github.com/mlindgren/hwsched/internal/sfg"
	"github.com/mlindgren/hwsched/internal/snapshot"
	"github.com/mlindgren/hwsched/internal/store"
)

// AllocateOptions holds flags for the allocate command.
type AllocateOptions struct {
	*RootOptions
	Database     string
	ExecStrategy string
	PortStrategy string
	ReadPorts    int
	WritePorts   int
	TotalPorts   int
}

// NewAllocateCommand creates the allocate command.
func NewAllocateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AllocateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "allocate <scenario.yaml>",
		Short: "Allocate a scheduled scenario onto hardware resources",
		Long: `Schedule a scenario, then map its operations onto processing elements
(one per operator type) and its value lifetimes onto memory banks.
Values consumed the cycle they are produced become direct interconnects
and need no storage.

Example:
  hwsched allocate --read-ports 2 --write-ports 2 scenarios/fft8-asap.yaml
  hwsched allocate --read-ports 2 --write-ports 2 --port-strategy greedy_graph_color scenarios/fft8-asap.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAllocate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database for archiving runs")
	cmd.Flags().StringVar(&opts.ExecStrategy, "exec-strategy", string(process.LeftEdge),
		"cell assignment strategy (left_edge|greedy_graph_color|equitable_graph_color|ilp_graph_color)")
	cmd.Flags().StringVar(&opts.PortStrategy, "port-strategy", string(process.PortLeftEdge),
		"memory bank assignment strategy")
	cmd.Flags().IntVar(&opts.ReadPorts, "read-ports", 1, "simultaneous reads per memory bank (0 = unlimited)")
	cmd.Flags().IntVar(&opts.WritePorts, "write-ports", 1, "simultaneous writes per memory bank (0 = unlimited)")
	cmd.Flags().IntVar(&opts.TotalPorts, "total-ports", 0, "simultaneous accesses per memory bank (0 = unlimited)")

	return cmd
}

func runAllocate(opts *AllocateOptions, path string, cmd *cobra.Command) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}
	result, err := harness.Run(scenario)
	if err != nil {
		return WrapExitError(ExitFailure, "scheduling failed", err)
	}
	if err := harness.Verify(result); err != nil {
		return WrapExitError(ExitFailure, "schedule does not match expectation", err)
	}

	architecture, err := buildArchitecture(result, opts)
	if err != nil {
		return WrapExitError(ExitFailure, "allocation failed", err)
	}

	doc := snapshot.ArchitectureDocument(architecture)
	data, err := snapshot.MarshalCanonical(doc)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to serialize architecture", err)
	}
	hash, err := snapshot.ArchitectureHash(architecture)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to hash architecture", err)
	}
	slog.Info("architecture built",
		"scenario", scenario.Name,
		"processing_elements", len(architecture.ProcessingElements()),
		"memories", len(architecture.Memories()),
		"hash", hash)

	if opts.Database != "" {
		run, err := archiveRun(cmd, opts.Database, store.Run{
			Kind:         store.KindAllocate,
			Graph:        graphLabel(scenario),
			Strategy:     scenario.Strategy,
			ScheduleTime: result.Schedule.ScheduleTime(),
			Hash:         hash,
			Snapshot:     string(data),
		})
		if err != nil {
			return err
		}
		out.Textf("archived as %s\n", run.Token)
	}

	printArchitecture(out, architecture, hash)
	if opts.Format == "json" {
		return out.JSON(data)
	}
	return nil
}

// buildArchitecture maps the schedule's operator processes onto one
// processing element per operator type and its memory variables onto one
// port-limited memory, with zero-length values routed directly.
func buildArchitecture(result *harness.Result, opts *AllocateOptions) (*arch.Architecture, error) {
	ops, err := result.Schedule.OperatorProcesses()
	if err != nil {
		return nil, err
	}
	pes, assignment, err := elementsPerType(ops)
	if err != nil {
		return nil, err
	}
	for _, pe := range pes {
		if err := pe.Assign(process.ExecStrategy(opts.ExecStrategy)); err != nil {
			return nil, fmt.Errorf("processing element %s: %w", pe.Name(), err)
		}
	}

	vars, err := result.Schedule.MemoryVariables()
	if err != nil {
		return nil, err
	}
	direct, stored := vars.SplitOnLength(0)

	var mems []*arch.Memory
	if stored.Len() > 0 {
		mem, err := arch.NewMemory("mem0", stored, opts.ReadPorts, opts.WritePorts, opts.TotalPorts)
		if err != nil {
			return nil, err
		}
		if err := mem.Assign(process.PortSplitOptions{
			Strategy:     process.PortStrategy(opts.PortStrategy),
			PEAssignment: assignment,
		}); err != nil {
			return nil, fmt.Errorf("memory %s: %w", mem.Name(), err)
		}
		mems = append(mems, mem)
	}

	if direct.Len() == 0 {
		direct = nil
	}
	return arch.NewArchitecture(pes, mems, direct)
}

// elementsPerType groups operator processes by type into processing
// elements named after the type, and records which element executes
// which operation.
func elementsPerType(ops *process.Collection) ([]*arch.ProcessingElement, map[sfg.OpID]string, error) {
	byType := make(map[string][]process.Process)
	for _, p := range ops.Processes() {
		op := p.(*process.OperatorProcess)
		byType[op.OpType()] = append(byType[op.OpType()], p)
	}
	types := make([]string, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Strings(types)

	assignment := make(map[sfg.OpID]string)
	pes := make([]*arch.ProcessingElement, 0, len(types))
	for _, t := range types {
		name := "pe_" + strings.ToLower(t)
		coll := process.NewCollection(byType[t], ops.ScheduleTime(), ops.Cyclic())
		pe, err := arch.NewProcessingElement(name, coll)
		if err != nil {
			return nil, nil, err
		}
		pes = append(pes, pe)
		for _, p := range coll.Processes() {
			assignment[sfg.OpID(p.Name())] = name
		}
	}
	return pes, assignment, nil
}

func printArchitecture(out *OutputFormatter, a *arch.Architecture, hash string) {
	out.Textf("schedule time: %d\n", a.ScheduleTime())
	out.Textf("hash:          %s\n\n", hash)
	for _, pe := range a.ProcessingElements() {
		out.Textf("%s (%s): %d operations, %d cells\n",
			pe.Name(), pe.OpType(), pe.Collection().Len(), len(pe.Assignment()))
		ics, err := a.GetInterconnectsForPE(pe.Name())
		printInterconnects(out, ics, err)
	}
	for _, m := range a.Memories() {
		out.Textf("%s (%dR/%dW/%dT): %d variables, %d banks\n",
			m.Name(), m.ReadPorts(), m.WritePorts(), m.TotalPorts(),
			m.Collection().Len(), len(m.Assignment()))
		ics, err := a.GetInterconnectsForMemory(m.Name())
		printInterconnects(out, ics, err)
	}
	if direct := a.DirectInterconnects(); direct != nil {
		out.Textf("direct: %d variables\n", direct.Len())
	}
}

func printInterconnects(out *OutputFormatter, ics []arch.Interconnect, err error) {
	if err != nil {
		return
	}
	for _, ic := range ics {
		out.Textf("  %s -> %s (width %d)\n", ic.From, ic.To, ic.Width)
	}
}
