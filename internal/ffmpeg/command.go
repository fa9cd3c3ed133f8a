package ffmpeg

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"
)

// CommandBuilder builds FFmpeg commands with a fluent API. Argument groups
// are kept separate so Build can emit them in the order ffmpeg expects:
// global options, input options, input, filter graph, output options.
type CommandBuilder struct {
	binary        string
	globalArgs    []string
	inputArgs     []string
	input         string
	filterComplex string
	videoFilters  []string
	outputArgs    []string
	logLevel      string
	overwrite     bool
}

// NewCommandBuilder creates a new FFmpeg command builder.
func NewCommandBuilder(ffmpegPath string) *CommandBuilder {
	return &CommandBuilder{
		binary:   ffmpegPath,
		logLevel: "error",
	}
}

// LogLevel sets the FFmpeg log level.
func (b *CommandBuilder) LogLevel(level string) *CommandBuilder {
	b.logLevel = level
	return b
}

// HideBanner hides the FFmpeg banner.
func (b *CommandBuilder) HideBanner() *CommandBuilder {
	b.globalArgs = append(b.globalArgs, "-hide_banner")
	return b
}

// Overwrite enables output file overwriting.
func (b *CommandBuilder) Overwrite() *CommandBuilder {
	b.overwrite = true
	return b
}

// Progress enables machine-readable progress on stdout and disables the
// human stats line.
func (b *CommandBuilder) Progress() *CommandBuilder {
	b.globalArgs = append(b.globalArgs, "-progress", "pipe:1", "-nostats")
	return b
}

// Threads sets the encoder thread count.
func (b *CommandBuilder) Threads(n int) *CommandBuilder {
	if n > 0 {
		b.globalArgs = append(b.globalArgs, "-threads", strconv.Itoa(n))
	}
	return b
}

// GlobalArgs adds arbitrary global arguments.
func (b *CommandBuilder) GlobalArgs(args ...string) *CommandBuilder {
	b.globalArgs = append(b.globalArgs, args...)
	return b
}

// AnalyzeBuffers sets large probe/analyze buffers so stream parameters are
// detected reliably on complex inputs.
func (b *CommandBuilder) AnalyzeBuffers() *CommandBuilder {
	b.inputArgs = append(b.inputArgs,
		"-analyzeduration", "20000000",
		"-probesize", "20000000")
	return b
}

// Seek seeks to the given offset (seconds) before the input.
func (b *CommandBuilder) Seek(seconds float64) *CommandBuilder {
	if seconds > 0 {
		b.inputArgs = append(b.inputArgs, "-ss", formatSeconds(seconds))
	}
	return b
}

// Trim limits the encode to the given duration (seconds).
func (b *CommandBuilder) Trim(seconds float64) *CommandBuilder {
	if seconds > 0 {
		b.inputArgs = append(b.inputArgs, "-t", formatSeconds(seconds))
	}
	return b
}

// InputArgs adds arbitrary arguments before the input.
func (b *CommandBuilder) InputArgs(args ...string) *CommandBuilder {
	b.inputArgs = append(b.inputArgs, args...)
	return b
}

// Reconnect enables automatic reconnection for network inputs.
func (b *CommandBuilder) Reconnect() *CommandBuilder {
	b.inputArgs = append(b.inputArgs,
		"-reconnect", "1",
		"-reconnect_streamed", "1",
		"-reconnect_delay_max", "5")
	return b
}

// Input sets the input source.
func (b *CommandBuilder) Input(input string) *CommandBuilder {
	b.input = input
	return b
}

// FilterComplex sets the filter graph expression for multi-output fan-out.
func (b *CommandBuilder) FilterComplex(expr string) *CommandBuilder {
	b.filterComplex = expr
	return b
}

// VideoFilter adds a simple per-output video filter. Ignored when a filter
// complex is set; the graph owns all filtering then.
func (b *CommandBuilder) VideoFilter(filter string) *CommandBuilder {
	if filter != "" {
		b.videoFilters = append(b.videoFilters, filter)
	}
	return b
}

// OutputArgs adds arbitrary output arguments, including output paths.
func (b *CommandBuilder) OutputArgs(args ...string) *CommandBuilder {
	b.outputArgs = append(b.outputArgs, args...)
	return b
}

// Build assembles the final Command.
func (b *CommandBuilder) Build() *Command {
	var args []string

	args = append(args, "-loglevel", b.logLevel)
	args = append(args, b.globalArgs...)

	if b.overwrite {
		args = append(args, "-y")
	}

	args = append(args, b.inputArgs...)
	args = append(args, "-i", b.input)

	if b.filterComplex != "" {
		args = append(args, "-filter_complex", b.filterComplex)
	} else if len(b.videoFilters) > 0 {
		args = append(args, "-vf", strings.Join(b.videoFilters, ","))
	}

	args = append(args, b.outputArgs...)

	return &Command{
		Binary:      b.binary,
		Args:        args,
		Input:       b.input,
		stderrLines: make([]string, 0, stderrTailLines),
	}
}

// formatSeconds renders a seconds value without a trailing zero fraction.
func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', -1, 64)
}

// stderrTailLines is how many trailing stderr lines are kept for failure
// context.
const stderrTailLines = 100

// Command is a handle on one FFmpeg invocation: the argument list before
// start, the running process after.
type Command struct {
	Binary string
	Args   []string
	Input  string

	mu      sync.RWMutex
	cmd     *exec.Cmd
	started time.Time
	monitor *ProcessMonitor

	progressFn ProgressFunc

	stderrMu    sync.RWMutex
	stderrLines []string
}

// String returns the command line for logging.
func (c *Command) String() string {
	return c.Binary + " " + strings.Join(c.Args, " ")
}

// OnProgress registers a callback invoked for every progress block ffmpeg
// writes. The callback runs on the reader goroutine; it must not block for
// long or progress parsing falls behind the process.
func (c *Command) OnProgress(fn ProgressFunc) {
	c.mu.Lock()
	c.progressFn = fn
	c.mu.Unlock()
}

// Run starts the process, streams progress and stderr, and waits for exit.
// A non-zero exit is returned as a *ProcessFailure carrying the stderr tail.
func (c *Command) Run(ctx context.Context) error {
	if err := c.Start(ctx); err != nil {
		return err
	}
	return c.Wait()
}

// Start starts the process and the progress/stderr readers without waiting.
func (c *Command) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cmd != nil {
		return fmt.Errorf("command already started")
	}

	cmd := exec.CommandContext(ctx, c.Binary, c.Args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("getting stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("getting stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting ffmpeg: %w", err)
	}

	c.cmd = cmd
	c.started = time.Now()
	c.monitor = NewProcessMonitor(cmd.Process.Pid)
	c.monitor.Start()

	go c.readProgress(stdout)
	go c.captureStderr(stderr)

	return nil
}

// Wait waits for the process to exit and returns a typed failure on a
// non-zero exit code.
func (c *Command) Wait() error {
	c.mu.RLock()
	cmd := c.cmd
	monitor := c.monitor
	c.mu.RUnlock()

	if cmd == nil {
		return fmt.Errorf("command not started")
	}

	err := cmd.Wait()
	if monitor != nil {
		monitor.Stop()
	}
	return wrapExitError(err, c.StderrTail())
}

// Kill terminates the process.
func (c *Command) Kill() error {
	c.mu.RLock()
	cmd := c.cmd
	c.mu.RUnlock()

	if cmd == nil || cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}

// Signal sends a signal to the process.
func (c *Command) Signal(sig os.Signal) error {
	c.mu.RLock()
	cmd := c.cmd
	c.mu.RUnlock()

	if cmd == nil || cmd.Process == nil {
		return nil
	}
	return cmd.Process.Signal(sig)
}

// IsRunning reports whether the process has started and not yet exited.
func (c *Command) IsRunning() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cmd != nil && c.cmd.Process != nil && c.cmd.ProcessState == nil
}

// Duration returns how long the process has been running.
func (c *Command) Duration() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.started.IsZero() {
		return 0
	}
	return time.Since(c.started)
}

// ProcessStats returns the latest resource usage sample, or nil before start.
func (c *Command) ProcessStats() *ProcessStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.monitor == nil {
		return nil
	}
	stats := c.monitor.Stats()
	return &stats
}

// StderrTail returns the captured trailing stderr lines.
func (c *Command) StderrTail() []string {
	c.stderrMu.RLock()
	defer c.stderrMu.RUnlock()

	lines := make([]string, len(c.stderrLines))
	copy(lines, c.stderrLines)
	return lines
}

// readProgress parses -progress key=value blocks from stdout.
func (c *Command) readProgress(r io.Reader) {
	c.mu.RLock()
	fn := c.progressFn
	c.mu.RUnlock()

	parser := newProgressParser()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if progress, done := parser.Line(scanner.Text()); done && fn != nil {
			progress.Stats = c.ProcessStats()
			fn(progress)
		}
	}
}

// captureStderr keeps the trailing stderr lines in a bounded buffer.
func (c *Command) captureStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()

		c.stderrMu.Lock()
		if len(c.stderrLines) >= stderrTailLines {
			c.stderrLines = c.stderrLines[1:]
		}
		c.stderrLines = append(c.stderrLines, line)
		c.stderrMu.Unlock()
	}
}
