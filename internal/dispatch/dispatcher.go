package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/buckleypaul/adbdeck/internal/device"
	"github.com/buckleypaul/adbdeck/internal/tools"
)

const (
	DefaultTimeout     = 5 * time.Minute
	DefaultRebootDelay = 2 * time.Second
)

// OutcomeKind classifies how a dispatched command ended.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeFailure
	OutcomeTimedOut
	OutcomeToolNotFound
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	case OutcomeTimedOut:
		return "timed out"
	case OutcomeToolNotFound:
		return "tool not found"
	default:
		return "unknown"
	}
}

// Outcome is delivered exactly once per dispatched request.
type Outcome struct {
	ID       string
	Request  Request
	Command  Command
	Kind     OutcomeKind
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
	Err      error
}

// OK reports whether the command succeeded.
func (o Outcome) OK() bool { return o.Kind == OutcomeSuccess }

// Refresher re-lists devices. *device.Registry implements it.
type Refresher interface {
	Refresh(ctx context.Context) device.Snapshot
}

// Options tunes a Dispatcher. Zero values fall back to the defaults.
type Options struct {
	Timeout     time.Duration
	RebootDelay time.Duration
}

// Dispatcher validates requests against the selected device and runs
// them in the background.
type Dispatcher struct {
	exec        tools.Executor
	refresher   Refresher
	timeout     time.Duration
	rebootDelay time.Duration

	// OnRefresh receives the snapshot produced by the follow-up refresh
	// after a reboot. It runs on the timer goroutine.
	OnRefresh func(device.Snapshot)

	afterFunc func(time.Duration, func())
	wg        sync.WaitGroup
}

// New creates a Dispatcher. refresher may be nil, in which case reboots
// do not trigger a follow-up refresh.
func New(exec tools.Executor, refresher Refresher, opts Options) *Dispatcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.RebootDelay <= 0 {
		opts.RebootDelay = DefaultRebootDelay
	}
	return &Dispatcher{
		exec:        exec,
		refresher:   refresher,
		timeout:     opts.Timeout,
		rebootDelay: opts.RebootDelay,
		afterFunc: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
	}
}

// Validate checks req against the selected device. Checks run in order:
// selection exists, tool matches the device mode, ADB device authorized.
// Server lifecycle commands always pass.
func (d *Dispatcher) Validate(req Request, sel *device.Record) error {
	if req.ServerLifecycle() {
		return nil
	}
	if sel == nil {
		return ErrNoDeviceSelected
	}
	want := req.RequiredMode()
	if sel.Mode != want {
		return &ModeMismatchError{Tool: req.Tool, Want: want, Got: sel.Mode}
	}
	if want == device.ModeADB && sel.Status != device.StatusDevice {
		return &UnauthorizedError{Serial: sel.Serial, Status: sel.Status}
	}
	return nil
}

// Dispatch validates req and, if it passes, runs it on a new goroutine.
// Validation errors are returned synchronously and nothing is spawned.
// Otherwise done is called exactly once with the outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request, sel *device.Record, done func(Outcome)) error {
	if err := d.Validate(req, sel); err != nil {
		return err
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		done(d.run(ctx, req, sel))
	}()
	return nil
}

// DispatchSequence validates every step up front, then runs them in order
// on one goroutine, stopping at the first step that does not succeed. done
// receives the outcome of the last step attempted.
func (d *Dispatcher) DispatchSequence(ctx context.Context, steps []Request, sel *device.Record, done func(Outcome)) error {
	if len(steps) == 0 {
		return errors.New("empty command sequence")
	}
	for _, s := range steps {
		if err := d.Validate(s, sel); err != nil {
			return err
		}
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		var out Outcome
		for i, s := range steps {
			out = d.run(ctx, s, sel)
			if !out.OK() {
				log.Warn().Int("step", i+1).Int("steps", len(steps)).Str("command", out.Command.String()).Msg("sequence stopped")
				break
			}
		}
		done(out)
	}()
	return nil
}

// Execute validates and runs req synchronously.
func (d *Dispatcher) Execute(ctx context.Context, req Request, sel *device.Record) (Outcome, error) {
	if err := d.Validate(req, sel); err != nil {
		return Outcome{}, err
	}
	return d.run(ctx, req, sel), nil
}

// Wait blocks until every dispatched command has delivered its outcome.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) run(ctx context.Context, req Request, sel *device.Record) Outcome {
	cmd := req.Build(sel)
	out := Outcome{
		ID:      uuid.NewString(),
		Request: req,
		Command: cmd,
	}

	if !req.NoTimeout {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	log.Info().Str("id", out.ID).Str("command", cmd.String()).Msg("running command")
	res, err := d.exec.Run(ctx, cmd.Tool, cmd.Argv()...)
	out.Stdout = res.Stdout
	out.Stderr = res.Stderr
	out.ExitCode = res.ExitCode
	out.Duration = res.Duration
	classify(&out, err)

	ev := log.Info()
	if !out.OK() {
		ev = log.Warn().Err(out.Err)
	}
	ev.Str("id", out.ID).Str("outcome", out.Kind.String()).Int("exit_code", out.ExitCode).Dur("duration", out.Duration).Msg("command finished")

	if out.OK() && req.Reboots() {
		d.scheduleRefresh()
	}
	return out
}

func classify(out *Outcome, err error) {
	var exitErr *tools.ExitError
	switch {
	case err == nil:
		out.Kind = OutcomeSuccess
	case errors.Is(err, tools.ErrTimeout):
		out.Kind = OutcomeTimedOut
		out.Err = err
	case errors.Is(err, tools.ErrToolNotFound):
		out.Kind = OutcomeToolNotFound
		out.Err = err
	case errors.As(err, &exitErr):
		out.Kind = OutcomeFailure
		out.ExitCode = exitErr.Code
		out.Stderr = exitErr.Stderr
		out.Err = &ProcessError{ExitCode: exitErr.Code, Stderr: exitErr.Stderr}
	default:
		out.Kind = OutcomeFailure
		if out.ExitCode == 0 {
			out.ExitCode = -1
		}
		if out.Stderr == "" {
			out.Stderr = err.Error()
		}
		out.Err = &ProcessError{ExitCode: out.ExitCode, Stderr: out.Stderr}
	}
}

// scheduleRefresh arms a one-shot timer that re-lists devices once the
// rebooted device has had time to re-enumerate.
func (d *Dispatcher) scheduleRefresh() {
	if d.refresher == nil {
		return
	}
	log.Debug().Dur("delay", d.rebootDelay).Msg("scheduling device refresh after reboot")
	d.afterFunc(d.rebootDelay, func() {
		snap := d.refresher.Refresh(context.Background())
		if d.OnRefresh != nil {
			d.OnRefresh(snap)
		}
	})
}
