package engine

import (
	"context"

	"github.com/jmylchreest/hlsforge/internal/ffmpeg"
)

// ProcessRunner executes a synthesized command. The engine stays out of
// process ownership; the runner decides how the process is supervised.
type ProcessRunner interface {
	Run(ctx context.Context, cmd *ffmpeg.Command, onProgress ffmpeg.ProgressFunc) error
}

// ExecRunner runs the command in-process.
type ExecRunner struct{}

// NewExecRunner creates the default in-process runner.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run starts the process, streams progress, and waits for exit.
func (r *ExecRunner) Run(ctx context.Context, cmd *ffmpeg.Command, onProgress ffmpeg.ProgressFunc) error {
	if onProgress != nil {
		cmd.OnProgress(onProgress)
	}
	return cmd.Run(ctx)
}
