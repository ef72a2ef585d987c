package convert

import (
	"errors"
	"fmt"
)

// Stage identifies where a fatal failure happened.
type Stage string

const (
	StageInput      Stage = "input"
	StageRasterize  Stage = "rasterize"
	StagePreprocess Stage = "preprocess"
	StageOutput     Stage = "output"

	// StageInterrupted means the run's context was cancelled, typically by
	// SIGINT or SIGTERM. No output is written.
	StageInterrupted Stage = "interrupted"
)

// Process exit codes.
const (
	ExitOK            = 0
	ExitFailure       = 1
	ExitInputNotFound = 2
	ExitRasterize     = 3
	ExitOutputWrite   = 4
	ExitInterrupted   = 130
)

// RunError is a fatal failure that ends the run.
type RunError struct {
	Stage Stage

	// Path is the file involved, if any.
	Path string

	// Page is the 1-based page number for page-level failures, else 0.
	Page int

	Err error
}

func (e *RunError) Error() string {
	switch e.Stage {
	case StageInput:
		return fmt.Sprintf("PDF not found at: %s", e.Path)
	case StageRasterize:
		return fmt.Sprintf("failed to convert PDF to images: %v", e.Err)
	case StagePreprocess:
		return fmt.Sprintf("failed to preprocess page %d: %v", e.Page, e.Err)
	case StageOutput:
		return fmt.Sprintf("failed to write output file: %v", e.Err)
	case StageInterrupted:
		if e.Page > 0 {
			return fmt.Sprintf("interrupted at page %d: %v", e.Page, e.Err)
		}
		return fmt.Sprintf("interrupted: %v", e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// ExitCode maps the stage to the process exit status.
func (e *RunError) ExitCode() int {
	switch e.Stage {
	case StageInput:
		return ExitInputNotFound
	case StageRasterize:
		return ExitRasterize
	case StageOutput:
		return ExitOutputWrite
	case StageInterrupted:
		return ExitInterrupted
	}
	return ExitFailure
}

// ExitCode returns the exit status for err: 0 for nil, the stage code for a
// RunError anywhere in the chain, 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var runErr *RunError
	if errors.As(err, &runErr) {
		return runErr.ExitCode()
	}
	return ExitFailure
}
