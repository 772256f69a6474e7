package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/fatih/color"

	apperrors "github.com/FurkiKARA/CENG543-Furkan-KARA/internal/pkg/errors"
	"github.com/FurkiKARA/CENG543-Furkan-KARA/internal/pkg/logger"
	"github.com/FurkiKARA/CENG543-Furkan-KARA/internal/trec"
)

// Exit codes.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitInterrupted = 130
)

// Executor runs one stage.
type Executor interface {
	Execute(ctx context.Context, args []string) error
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, args []string) error

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, args []string) error {
	return f(ctx, args)
}

// ProcessExecutor runs stages as child processes of Binary, forwarding the
// config file and log flags.
type ProcessExecutor struct {
	Binary     string
	ConfigPath string
	ExtraArgs  []string
	Stdout     io.Writer
	Stderr     io.Writer
	// WaitDelay bounds how long a child may take to exit after it was
	// interrupted.
	WaitDelay time.Duration
}

// NewProcessExecutor re-executes the running binary.
func NewProcessExecutor(configPath string, extraArgs ...string) (*ProcessExecutor, error) {
	bin, err := os.Executable()
	if err != nil {
		return nil, apperrors.InternalError("locate executable", err)
	}
	return &ProcessExecutor{
		Binary:     bin,
		ConfigPath: configPath,
		ExtraArgs:  extraArgs,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		WaitDelay:  10 * time.Second,
	}, nil
}

// Command builds the child command line for a stage.
func (e *ProcessExecutor) Command(args []string) []string {
	var argv []string
	if e.ConfigPath != "" {
		argv = append(argv, "--config", e.ConfigPath)
	}
	argv = append(argv, e.ExtraArgs...)
	return append(argv, args...)
}

// Execute runs the child and waits for it. Cancelling ctx interrupts the
// child rather than killing it, so it can flush its output.
func (e *ProcessExecutor) Execute(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, e.Binary, e.Command(args)...)
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = e.WaitDelay
	return cmd.Run()
}

// StageError reports the first failing stage.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Runner executes stages in order and halts at the first failure.
type Runner struct {
	exec Executor
	out  io.Writer
	log  *logger.Logger

	title   *color.Color
	success *color.Color
	failure *color.Color
}

// NewRunner creates a runner printing banners to out.
func NewRunner(exec Executor, out io.Writer, log *logger.Logger) *Runner {
	if log == nil {
		log = logger.Discard()
	}
	return &Runner{
		exec:    exec,
		out:     out,
		log:     log,
		title:   color.New(color.FgCyan, color.Bold),
		success: color.New(color.FgGreen, color.Bold),
		failure: color.New(color.FgRed, color.Bold),
	}
}

// Run executes stages. The error is nil on success, a *StageError when a
// stage fails and wraps context.Canceled when the run was interrupted.
func (r *Runner) Run(ctx context.Context, stages []Stage) error {
	start := time.Now()
	fmt.Fprintf(r.out, "Starting retrieval pipeline: %d stages\n", len(stages))

	for i, s := range stages {
		if err := r.runStage(ctx, i+1, len(stages), s); err != nil {
			r.finish(start, err)
			return err
		}
	}

	r.finish(start, nil)
	return nil
}

func (r *Runner) runStage(ctx context.Context, n, total int, s Stage) error {
	rule := strings.Repeat("=", 60)
	r.title.Fprintf(r.out, "\n%s\nSTEP %d/%d: %s\nRunning: irbench %s\n%s\n",
		rule, n, total, s.Description, strings.Join(s.Args, " "), rule)

	if err := ctx.Err(); err != nil {
		return &StageError{Stage: s.Name, Err: err}
	}

	for _, path := range s.Requires {
		if !trec.Exists(path) {
			err := apperrors.ConfigurationError(fmt.Sprintf("required file %s not found", path))
			r.failure.Fprintf(r.out, "\nFAILED: %s (%v)\n", s.Name, err)
			return &StageError{Stage: s.Name, Err: err}
		}
	}

	log := r.log.WithStage(s.Name)
	log.Debug("Executing stage", "args", s.Args)

	started := time.Now()
	if err := r.exec.Execute(ctx, s.Args); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w: %v", ctxErr, err)
		}
		r.failure.Fprintf(r.out, "\nFAILED: %s (%v)\n", s.Name, err)
		return &StageError{Stage: s.Name, Err: err}
	}

	for _, path := range s.Produces {
		if !trec.Exists(path) {
			err := apperrors.ConfigurationError(fmt.Sprintf("expected output %s was not produced", path))
			r.failure.Fprintf(r.out, "\nFAILED: %s (%v)\n", s.Name, err)
			return &StageError{Stage: s.Name, Err: err}
		}
	}

	r.success.Fprintf(r.out, "\nSUCCESS: %s finished in %s\n", s.Name, elapsed(started))
	return nil
}

func (r *Runner) finish(start time.Time, err error) {
	rule := strings.Repeat("=", 60)
	switch {
	case err == nil:
		r.success.Fprintf(r.out, "\n%s\nPIPELINE COMPLETED SUCCESSFULLY in %s\n%s\n", rule, elapsed(start), rule)
	case errors.Is(err, context.Canceled):
		r.failure.Fprintf(r.out, "\n%s\nPIPELINE INTERRUPTED after %s\n%s\n", rule, elapsed(start), rule)
	default:
		r.failure.Fprintf(r.out, "\n%s\nPIPELINE STOPPED: %v\n%s\n", rule, err, rule)
	}
}

// ExitCode maps a Run error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	default:
		return ExitFailure
	}
}

func elapsed(since time.Time) time.Duration {
	return time.Since(since).Round(10 * time.Millisecond)
}
