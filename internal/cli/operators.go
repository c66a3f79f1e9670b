package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mlindgren/hwsched/internal/oplib"
)

// NewOperatorsCommand creates the operators command.
func NewOperatorsCommand(rootOpts *RootOptions) *cobra.Command {
	var libDir string

	cmd := &cobra.Command{
		Use:   "operators",
		Short: "List the operator library",
		Long: `Show every operator type with its ports, latency offsets and
execution time. By default the builtin library is shown; --lib compiles
a CUE operator library from a directory instead.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOperators(rootOpts, libDir, cmd)
		},
	}
	cmd.Flags().StringVar(&libDir, "lib", "", "directory holding a CUE operator library")
	return cmd
}

func runOperators(opts *RootOptions, libDir string, cmd *cobra.Command) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	var (
		lib *oplib.Library
		err error
	)
	if libDir != "" {
		lib, err = oplib.LoadDir(libDir)
	} else {
		lib, err = oplib.Builtin()
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load operator library", err)
	}

	if opts.Format == "json" {
		data, err := json.Marshal(operatorDocs(lib))
		if err != nil {
			return err
		}
		return out.JSON(data)
	}
	for _, t := range lib.Types() {
		out.Textf("%s\n", t.Name)
		if len(t.Inputs) > 0 {
			out.Textf("  inputs:  %s\n", formatPorts(t.Inputs, t.Offsets))
		}
		if len(t.Outputs) > 0 {
			out.Textf("  outputs: %s\n", formatPorts(t.Outputs, t.Offsets))
		}
		if t.ExecutionTime != nil {
			out.Textf("  execution time: %d\n", *t.ExecutionTime)
		}
	}
	return nil
}

// formatPorts renders "in0:0, in1:2, out0:?" with ? marking ports whose
// offset must be supplied per instance.
func formatPorts(names []string, offsets map[string]int) string {
	parts := make([]string, 0, len(names))
	for _, name := range names {
		if off, ok := offsets[name]; ok {
			parts = append(parts, fmt.Sprintf("%s:%d", name, off))
		} else {
			parts = append(parts, name+":?")
		}
	}
	return strings.Join(parts, ", ")
}

type operatorDoc struct {
	Name          string         `json:"name"`
	Inputs        []string       `json:"inputs,omitempty"`
	Outputs       []string       `json:"outputs,omitempty"`
	Offsets       map[string]int `json:"offsets,omitempty"`
	ExecutionTime *int           `json:"execution_time,omitempty"`
}

func operatorDocs(lib *oplib.Library) []operatorDoc {
	types := lib.Types()
	out := make([]operatorDoc, 0, len(types))
	for _, t := range types {
		out = append(out, operatorDoc{
			Name:          t.Name,
			Inputs:        t.Inputs,
			Outputs:       t.Outputs,
			Offsets:       t.Offsets,
			ExecutionTime: t.ExecutionTime,
		})
	}
	return out
}
