package oplib

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
)

//go:embed builtin.cue
var builtinSource string

// Builtin compiles the embedded standard operator library: the DSP
// operator set with its default port layouts and latencies.
func Builtin() (*Library, error) {
	return CompileSource(builtinSource)
}

// LoadDir loads every CUE file of a directory as one instance and
// compiles its operator declarations.
func LoadDir(dir string) (*Library, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("accessing operator library %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("operator library %s is not a directory", dir)
	}
	// Package "*" accepts both packaged and package-less CUE files.
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir, Package: "*"})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances in %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, fmt.Errorf("loading CUE files: %w", inst.Err)
	}
	v := cuecontext.New().BuildInstance(inst)
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return CompileLibrary(v)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	firstErr := errs[0]
	if positions := errors.Positions(firstErr); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
