package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mlindgren/hwsched/internal/harness"
	"github.com/mlindgren/hwsched/internal/snapshot"
	"github.com/mlindgren/hwsched/internal/store"
)

// ScheduleOptions holds flags for the schedule command.
type ScheduleOptions struct {
	*RootOptions
	Database string
}

// NewScheduleCommand creates the schedule command.
func NewScheduleCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScheduleOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "schedule <scenario.yaml>",
		Short: "Run a scheduling scenario",
		Long: `Run one scheduling scenario: build its graph, apply its strategy and
check the result against the scenario's expect clause.

Text output shows the schedule as a time chart. With --db the run is
archived in a SQLite database under a fresh token.

Example:
  hwsched schedule scenarios/fft8-asap.yaml
  hwsched schedule --db runs.db scenarios/fft8-asap.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchedule(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database for archiving runs")

	return cmd
}

func runSchedule(opts *ScheduleOptions, path string, cmd *cobra.Command) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}
	slog.Debug("scenario loaded", "name", scenario.Name, "strategy", scenario.Strategy)

	result, err := harness.Run(scenario)
	if err != nil {
		return WrapExitError(ExitFailure, "scheduling failed", err)
	}
	if err := harness.Verify(result); err != nil {
		return WrapExitError(ExitFailure, "schedule does not match expectation", err)
	}

	doc := snapshot.ScheduleDocument(result.Schedule)
	data, err := snapshot.MarshalCanonical(doc)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to serialize schedule", err)
	}
	hash, err := snapshot.ScheduleHash(result.Schedule)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to hash schedule", err)
	}
	slog.Info("schedule computed",
		"scenario", scenario.Name,
		"schedule_time", result.Schedule.ScheduleTime(),
		"hash", hash)

	if opts.Database != "" {
		run, err := archiveRun(cmd, opts.Database, store.Run{
			Kind:         store.KindSchedule,
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

	out.Textf("scenario:      %s\n", scenario.Name)
	out.Textf("strategy:      %s\n", scenario.Strategy)
	out.Textf("schedule time: %d\n", result.Schedule.ScheduleTime())
	out.Textf("hash:          %s\n\n", hash)
	out.Textf("%s", result.Schedule.Render())
	if opts.Format == "json" {
		return out.JSON(data)
	}
	return nil
}

// graphLabel names the scheduled graph for the run archive.
func graphLabel(scenario *harness.Scenario) string {
	if scenario.Fixture != "" {
		return scenario.Fixture
	}
	return "inline:" + scenario.Name
}

// archiveRun opens the database, saves the run and closes the database
// again. CLI invocations are one-shot, so holding the handle open buys
// nothing.
func archiveRun(cmd *cobra.Command, path string, run store.Run) (store.Run, error) {
	st, err := store.Open(path)
	if err != nil {
		return store.Run{}, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer closeStore(st)
	saved, err := st.SaveRun(cmd.Context(), run)
	if err != nil {
		return store.Run{}, WrapExitError(ExitCommandError, "failed to archive run", err)
	}
	slog.Info("run archived", "token", saved.Token, "kind", saved.Kind)
	return saved, nil
}
