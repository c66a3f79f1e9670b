package cli

import (
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/mlindgren/hwsched/internal/store"
)

// RunsOptions holds flags for the runs command group.
type RunsOptions struct {
	*RootOptions
	Database string
	Limit    int
}

// NewRunsCommand creates the runs command with its list and show
// subcommands.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect archived scheduling and allocation runs",
	}
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkPersistentFlagRequired("db")

	list := &cobra.Command{
		Use:           "list",
		Short:         "List archived runs, newest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRunsList(opts, cmd)
		},
	}
	list.Flags().IntVar(&opts.Limit, "limit", 20, "maximum number of runs to show (0 = all)")

	show := &cobra.Command{
		Use:           "show <token>",
		Short:         "Show one archived run with its snapshot",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRunsShow(opts, args[0], cmd)
		},
	}

	cmd.AddCommand(list)
	cmd.AddCommand(show)
	return cmd
}

func runRunsList(opts *RunsOptions, cmd *cobra.Command) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer closeStore(st)

	runs, err := st.ListRuns(cmd.Context(), opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	if opts.Format == "json" {
		data, err := json.Marshal(runSummaries(runs))
		if err != nil {
			return err
		}
		return out.JSON(data)
	}
	if len(runs) == 0 {
		out.Textf("no runs archived\n")
		return nil
	}
	for _, run := range runs {
		out.Textf("%s  %s  %-8s  %-20s  %-18s  T=%d\n",
			run.Token, run.CreatedAt.Format(time.RFC3339), run.Kind,
			run.Graph, run.Strategy, run.ScheduleTime)
	}
	return nil
}

func runRunsShow(opts *RunsOptions, token string, cmd *cobra.Command) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer closeStore(st)

	run, err := st.GetRun(cmd.Context(), token)
	if errors.Is(err, store.ErrRunNotFound) {
		return WrapExitError(ExitCommandError, "run not found", err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load run", err)
	}

	if opts.Format == "json" {
		data, err := json.Marshal(runDetail(run))
		if err != nil {
			return err
		}
		return out.JSON(data)
	}
	out.Textf("token:         %s\n", run.Token)
	out.Textf("created:       %s\n", run.CreatedAt.Format(time.RFC3339))
	out.Textf("kind:          %s\n", run.Kind)
	out.Textf("graph:         %s\n", run.Graph)
	out.Textf("strategy:      %s\n", run.Strategy)
	out.Textf("schedule time: %d\n", run.ScheduleTime)
	out.Textf("hash:          %s\n", run.Hash)
	out.Textf("snapshot:      %s\n", run.Snapshot)
	return nil
}

type runSummary struct {
	Token        string `json:"token"`
	CreatedAt    string `json:"created_at"`
	Kind         string `json:"kind"`
	Graph        string `json:"graph"`
	Strategy     string `json:"strategy"`
	ScheduleTime int    `json:"schedule_time"`
	Hash         string `json:"hash"`
}

func runSummaries(runs []store.Run) []runSummary {
	out := make([]runSummary, 0, len(runs))
	for _, run := range runs {
		out = append(out, summarize(run))
	}
	return out
}

func summarize(run store.Run) runSummary {
	return runSummary{
		Token:        run.Token,
		CreatedAt:    run.CreatedAt.Format(time.RFC3339),
		Kind:         run.Kind,
		Graph:        run.Graph,
		Strategy:     run.Strategy,
		ScheduleTime: run.ScheduleTime,
		Hash:         run.Hash,
	}
}

type runDetailDoc struct {
	runSummary
	Snapshot json.RawMessage `json:"snapshot"`
}

func runDetail(run store.Run) runDetailDoc {
	return runDetailDoc{
		runSummary: summarize(run),
		Snapshot:   json.RawMessage(run.Snapshot),
	}
}

func closeStore(st *store.Store) {
	if err := st.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}
