package filter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	aerrors "git.home.luguber.info/inful/assetbuilder/internal/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/logfields"
	"git.home.luguber.info/inful/assetbuilder/internal/metrics"
	"git.home.luguber.info/inful/assetbuilder/internal/observability"
	"git.home.luguber.info/inful/assetbuilder/internal/workspace"
)

// DefaultTimeout bounds a single filter step.
const DefaultTimeout = 60 * time.Second

const maxStderr = 4096

// Runner executes filter chains as a sequence of child processes.
type Runner struct {
	shell      string
	timeout    time.Duration
	dir        string
	scratchDir string
	recorder   metrics.Recorder
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithTimeout overrides the per-step timeout. Non-positive values keep the default.
func WithTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithWorkingDir sets the directory filter processes run in.
func WithWorkingDir(dir string) RunnerOption {
	return func(r *Runner) { r.dir = dir }
}

// WithScratchDir sets where $IN/$OUT files are created (defaults to the OS temp dir).
func WithScratchDir(dir string) RunnerOption {
	return func(r *Runner) { r.scratchDir = dir }
}

// WithShell overrides the shell used to interpret step commands.
func WithShell(shell string) RunnerOption {
	return func(r *Runner) {
		if shell != "" {
			r.shell = shell
		}
	}
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(rec metrics.Recorder) RunnerOption {
	return func(r *Runner) {
		if rec != nil {
			r.recorder = rec
		}
	}
}

// NewRunner creates a Runner with a 60s per-step timeout running steps via sh -c.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{shell: "sh", timeout: DefaultTimeout, recorder: metrics.NoopRecorder{}}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Timeout returns the per-step timeout.
func (r *Runner) Timeout() time.Duration { return r.timeout }

// Apply pushes data through every step of chains in order and returns the
// final output. With no steps the input is returned unchanged.
func (r *Runner) Apply(ctx context.Context, data []byte, chains []Chain) ([]byte, error) {
	steps := Steps(chains)
	if len(steps) == 0 {
		return data, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	ws := workspace.NewManager(r.scratchDir, "assetbuilder-filter")
	if err := ws.Create(); err != nil {
		return nil, aerrors.InternalError("failed to create filter scratch directory", err)
	}
	defer func() {
		if err := ws.Cleanup(); err != nil {
			slog.Warn("Failed to remove filter scratch directory", logfields.Path(ws.GetPath()), logfields.Error(err))
		}
	}()

	current := data
	for i, step := range steps {
		start := time.Now()
		out, err := r.runStep(ctx, ws, i, step, current)
		r.recorder.ObserveFilterStepDuration(string(step.Mode), time.Since(start), err == nil)
		if err != nil {
			return nil, err
		}
		observability.DebugContext(ctx, "Filter step complete",
			logfields.FilterStep(i),
			logfields.Command(step.Command),
			logfields.Bytes(len(out)),
			logfields.DurationMS(float64(time.Since(start).Microseconds())/1000))
		current = out
	}
	return current, nil
}

func (r *Runner) runStep(ctx context.Context, ws *workspace.Manager, idx int, step Step, input []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, aerrors.FilterExecution(idx, step.Command, err)
	}

	stepCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.Command(r.shell, "-c", step.Command)
	cmd.Dir = r.dir
	cmd.Env = os.Environ()
	isolate(cmd)

	var inPath, outPath string
	var err error
	if step.Mode.ReadsFile() {
		if inPath, err = ws.File(fmt.Sprintf("in-%d", idx)); err != nil {
			return nil, aerrors.FilterExecution(idx, step.Command, err)
		}
		if err = os.WriteFile(inPath, input, 0o600); err != nil {
			return nil, aerrors.FilterExecution(idx, step.Command, err)
		}
		cmd.Env = append(cmd.Env, "IN="+inPath)
	} else {
		cmd.Stdin = bytes.NewReader(input)
	}
	if step.Mode.WritesFile() {
		if outPath, err = ws.File(fmt.Sprintf("out-%d", idx)); err != nil {
			return nil, aerrors.FilterExecution(idx, step.Command, err)
		}
		cmd.Env = append(cmd.Env, "OUT="+outPath)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err = cmd.Start(); err != nil {
		return nil, aerrors.FilterExecution(idx, step.Command, fmt.Errorf("failed to start command: %w", err))
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case <-stepCtx.Done():
		killTree(cmd)
		<-done
		cause := stepCtx.Err()
		if errors.Is(cause, context.DeadlineExceeded) && ctx.Err() == nil {
			cause = fmt.Errorf("timed out after %s", r.timeout)
		}
		return nil, aerrors.FilterExecution(idx, step.Command, cause)
	case err = <-done:
	}

	if err != nil {
		return nil, aerrors.FilterExecution(idx, step.Command, withStderr(err, stderr.Bytes()))
	}

	if !step.Mode.WritesFile() {
		return stdout.Bytes(), nil
	}
	out, err := os.ReadFile(outPath)
	if err != nil {
		return nil, aerrors.FilterExecution(idx, step.Command, fmt.Errorf("reading $OUT: %w", err))
	}
	return out, nil
}

func withStderr(err error, stderr []byte) error {
	msg := strings.TrimSpace(string(stderr))
	if msg == "" {
		return err
	}
	if len(msg) > maxStderr {
		msg = msg[:maxStderr] + "..."
	}
	return fmt.Errorf("%w: %s", err, msg)
}
