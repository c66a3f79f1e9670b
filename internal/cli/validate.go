package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/mlindgren/hwsched/internal/harness"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <path>...",
		Short: "Validate scenario files without scheduling",
		Long: `Check that each scenario file parses, references a known fixture or
describes a well-formed graph, and carries a usable expect clause.
Directories are searched for *.yaml files.

All files are checked; the command fails if any of them is invalid.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	files, err := collectScenarioFiles(paths)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to collect scenario files", err)
	}
	if len(files) == 0 {
		return NewExitError(ExitCommandError, "no scenario files found")
	}

	failures := 0
	for _, file := range files {
		if err := checkScenario(file); err != nil {
			failures++
			out.Textf("FAIL %s: %v\n", file, err)
			continue
		}
		out.Textf("ok   %s\n", file)
	}
	if failures > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d scenario files invalid", failures, len(files)))
	}
	out.Textf("%d scenario files valid\n", len(files))
	return nil
}

func checkScenario(path string) error {
	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return err
	}
	_, err = harness.BuildGraph(scenario)
	return err
}

// collectScenarioFiles expands directories into their *.yaml members and
// returns a sorted, de-duplicated file list.
func collectScenarioFiles(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(path)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(path, "*.yaml"))
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			add(m)
		}
	}
	sort.Strings(files)
	return files, nil
}
