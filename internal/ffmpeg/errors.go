package ffmpeg

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ProcessFailure is a non-zero exit from the external transcoder, carrying
// the exit code and the trailing stderr lines for context. Retry policy
// belongs to the scheduler, not this layer.
type ProcessFailure struct {
	ExitCode int
	Stderr   []string
}

// Error implements the error interface.
func (e *ProcessFailure) Error() string {
	if len(e.Stderr) == 0 {
		return fmt.Sprintf("ffmpeg exited with code %d", e.ExitCode)
	}
	return fmt.Sprintf("ffmpeg exited with code %d: %s", e.ExitCode, e.Stderr[len(e.Stderr)-1])
}

// StderrTail returns the captured stderr lines joined for logging.
func (e *ProcessFailure) StderrTail() string {
	return strings.Join(e.Stderr, "\n")
}

// wrapExitError converts an exec failure into a ProcessFailure with the
// captured stderr tail. Non-exit errors pass through unchanged.
func wrapExitError(err error, stderr []string) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ProcessFailure{
			ExitCode: exitErr.ExitCode(),
			Stderr:   stderr,
		}
	}
	return err
}
