package stager

import (
	"errors"
	"io/fs"
	"os/exec"

	"github.com/smolBlackCat/progress-tracker/pkg/shell"
)

// Kind classifies a failed step
type Kind string

const (
	KindToolNotFound     Kind = "tool-not-found"
	KindSourceMissing    Kind = "source-missing"
	KindPermissionDenied Kind = "permission-denied"
	KindToolFailed       Kind = "tool-failed"
	KindOther            Kind = "other"
)

// StepError describes a step that failed without aborting the run
type StepError struct {
	Kind Kind
	Step string
	// Target is the path or command the step operated on
	Target string
	Err    error
}

func (e *StepError) Error() string {
	return e.Step + " " + e.Target + ": " + string(e.Kind) + ": " + e.Err.Error()
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func newStepError(step, target string, fallback Kind, err error) *StepError {
	return &StepError{
		Kind:   classify(err, fallback),
		Step:   step,
		Target: target,
		Err:    err,
	}
}

func classify(err error, fallback Kind) Kind {
	var notFound *shell.ToolNotFoundError

	switch {
	case errors.As(err, &notFound), errors.Is(err, exec.ErrNotFound):
		return KindToolNotFound
	case errors.Is(err, fs.ErrNotExist):
		return KindSourceMissing
	case errors.Is(err, fs.ErrPermission):
		return KindPermissionDenied
	default:
		return fallback
	}
}
