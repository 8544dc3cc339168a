package tools

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrToolNotFound means the executable could not be located on the
	// configured search path.
	ErrToolNotFound = errors.New("tool not found")

	// ErrTimeout means a one-shot command hit its deadline.
	ErrTimeout = errors.New("command timed out")
)

// waitDelay bounds how long Wait keeps draining output after the process
// was killed, in case a grandchild still holds the pipes open.
const waitDelay = 2 * time.Second

// ExitError reports a command that ran and exited non-zero.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	return "exit status " + strconv.Itoa(e.Code)
}

// Result holds the captured output of a finished command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Process is a started long-lived command. Cancelling the context passed
// to Start terminates it.
type Process interface {
	Stdout() io.Reader
	Wait() error
}

// Executor runs external tools. ExecRunner is the real implementation;
// tests substitute a fake.
type Executor interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
	Start(ctx context.Context, name string, args ...string) (Process, error)
}

// ExecRunner executes commands through os/exec using the binaries
// resolved by Env.
type ExecRunner struct {
	Env *Env
}

// NewExecRunner returns a runner bound to env. A nil env resolves
// everything through PATH.
func NewExecRunner(env *Env) *ExecRunner {
	if env == nil {
		env = &Env{}
	}
	return &ExecRunner{Env: env}
}

func (r *ExecRunner) command(ctx context.Context, name string, args ...string) (*exec.Cmd, error) {
	path, err := r.Env.Resolve(name)
	if err != nil {
		return nil, err
	}
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.WaitDelay = waitDelay
	r.Env.apply(cmd)
	return cmd, nil
}

// Run executes name with args and waits for it. A non-zero exit is
// returned as *ExitError alongside the captured Result.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	start := time.Now()
	cmd, err := r.command(ctx, name, args...)
	if err != nil {
		return Result{ExitCode: -1}, err
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	if err == nil {
		return res, nil
	}

	if ctx.Err() == context.DeadlineExceeded {
		res.ExitCode = -1
		return res, ErrTimeout
	}
	if errors.Is(err, exec.ErrNotFound) {
		res.ExitCode = -1
		return res, errors.Wrap(ErrToolNotFound, name)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, &ExitError{Code: res.ExitCode, Stderr: res.Stderr}
	}
	res.ExitCode = -1
	return res, errors.Wrapf(err, "run %s", name)
}

type execProcess struct {
	cmd    *exec.Cmd
	stdout io.Reader
}

func (p *execProcess) Stdout() io.Reader { return p.stdout }

func (p *execProcess) Wait() error { return p.cmd.Wait() }

// Start launches name with args and returns a handle whose stdout can be
// read line by line. stderr is merged into stdout.
func (r *ExecRunner) Start(ctx context.Context, name string, args ...string) (Process, error) {
	cmd, err := r.command(ctx, name, args...)
	if err != nil {
		return nil, err
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Wrap(err, "stdout pipe")
	}
	cmd.Stderr = cmd.Stdout // merge stderr into stdout

	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, errors.Wrap(ErrToolNotFound, name)
		}
		return nil, errors.Wrapf(err, "start %s", name)
	}
	return &execProcess{cmd: cmd, stdout: stdout}, nil
}
