// Package coordinator ties the device registry, the command dispatcher,
// the confirmation gate and the logcat streamer together. It is the only
// surface the TUI and CLI talk to.
package coordinator

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/buckleypaul/adbdeck/internal/device"
	"github.com/buckleypaul/adbdeck/internal/dispatch"
	"github.com/buckleypaul/adbdeck/internal/logcat"
	"github.com/buckleypaul/adbdeck/internal/serial"
	"github.com/buckleypaul/adbdeck/internal/store"
	"github.com/buckleypaul/adbdeck/internal/tools"
)

const versionTimeout = 10 * time.Second

// Options configures a Coordinator. Zero values fall back to defaults.
type Options struct {
	Timeout       time.Duration
	RebootDelay   time.Duration
	ProbeTimeout  time.Duration
	ConfirmPhrase string
	ScreenshotDir string
}

// ToolStatus is the result of a startup version check.
type ToolStatus struct {
	Tool    string
	Version string
	Err     error
}

// Coordinator owns all shared session state: the device snapshot and
// selection, the adb server flag and the logcat stream.
type Coordinator struct {
	exec       tools.Executor
	registry   *device.Registry
	dispatcher *dispatch.Dispatcher
	gate       dispatch.Gate
	streamer   *logcat.Streamer
	store      *store.Store

	screenshotDir string
	probeTimeout  time.Duration
	now           func() time.Time
	downloadPorts func() ([]serial.DownloadPort, error)

	mu            sync.Mutex
	serverRunning bool
	capture       *capture
}

// New builds a Coordinator. st may be nil, in which case nothing is
// recorded.
func New(exec tools.Executor, st *store.Store, opts Options) *Coordinator {
	reg := device.NewRegistry(exec)
	return &Coordinator{
		exec:     exec,
		registry: reg,
		dispatcher: dispatch.New(exec, reg, dispatch.Options{
			Timeout:     opts.Timeout,
			RebootDelay: opts.RebootDelay,
		}),
		gate:          dispatch.NewGate(opts.ConfirmPhrase),
		streamer:      logcat.NewStreamer(exec),
		store:         st,
		screenshotDir: opts.ScreenshotDir,
		probeTimeout:  opts.ProbeTimeout,
		now:           time.Now,
		downloadPorts: serial.DownloadPorts,
		serverRunning: true,
	}
}

// OnRefresh registers a hook for snapshots published by the timer that
// follows a reboot. It runs on the timer goroutine.
func (c *Coordinator) OnRefresh(fn func(device.Snapshot)) {
	c.dispatcher.OnRefresh = fn
}

// Refresh re-lists devices.
func (c *Coordinator) Refresh(ctx context.Context) device.Snapshot {
	return c.registry.Refresh(ctx)
}

// Snapshot returns the latest device snapshot.
func (c *Coordinator) Snapshot() device.Snapshot {
	return c.registry.Snapshot()
}

// Selected returns the selected device, if any.
func (c *Coordinator) Selected() (device.Record, bool) {
	return c.registry.Selected()
}

// SelectByLabel changes the selection.
func (c *Coordinator) SelectByLabel(label string) (device.Record, error) {
	return c.registry.SelectByLabel(label)
}

// Restore seeds the selection with a label remembered from a previous run.
func (c *Coordinator) Restore(label string) {
	c.registry.Restore(label)
}

// ConfirmPhrase returns the phrase destructive actions require.
func (c *Coordinator) ConfirmPhrase() string {
	return c.gate.Phrase
}

// ServerRunning reports whether the adb server is believed to be up.
func (c *Coordinator) ServerRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.serverRunning
}

func (c *Coordinator) selection() *device.Record {
	rec, ok := c.registry.Selected()
	if !ok {
		return nil
	}
	return &rec
}

// Dispatch validates req against the current selection and runs it in
// the background. Requests that need confirmation are refused; use
// DispatchConfirmed for those.
func (c *Coordinator) Dispatch(ctx context.Context, req dispatch.Request, done func(dispatch.Outcome)) error {
	if req.Confirm {
		return dispatch.ErrConfirmationRequired
	}
	return c.dispatch(ctx, req, done)
}

// DispatchConfirmed runs a destructive request once input matches the
// confirmation phrase. Empty input cancels silently: it returns
// (false, nil) and nothing runs.
func (c *Coordinator) DispatchConfirmed(ctx context.Context, req dispatch.Request, input string, done func(dispatch.Outcome)) (bool, error) {
	// Validate first so a wrong-mode device is reported before the user
	// is blamed for a typo.
	if err := c.dispatcher.Validate(req, c.selection()); err != nil {
		return false, err
	}
	ok, err := c.gate.Check(input)
	if !ok {
		if err != nil {
			log.Warn().Str("command", req.Text()).Msg("confirmation rejected")
		}
		return false, err
	}
	return true, c.dispatch(ctx, req, done)
}

func (c *Coordinator) dispatch(ctx context.Context, req dispatch.Request, done func(dispatch.Outcome)) error {
	sel := c.selection()
	return c.dispatcher.Dispatch(ctx, req, sel, func(out dispatch.Outcome) {
		c.record(out)
		if done != nil {
			done(out)
		}
	})
}

// ToggleServer stops the adb server if it is running, otherwise starts
// it. Stopping clears the device list; starting refreshes it.
func (c *Coordinator) ToggleServer(ctx context.Context, done func(dispatch.Outcome)) error {
	stopping := c.ServerRunning()
	req := dispatch.StartServer()
	if stopping {
		req = dispatch.KillServer()
	}

	return c.dispatcher.Dispatch(ctx, req, nil, func(out dispatch.Outcome) {
		if out.OK() {
			c.mu.Lock()
			c.serverRunning = !stopping
			c.mu.Unlock()
			if stopping {
				c.registry.Clear()
			} else {
				c.registry.Refresh(ctx)
			}
		}
		c.record(out)
		if done != nil {
			done(out)
		}
	})
}

// Screenshot captures the screen of the selected device, pulls it to the
// screenshot directory and removes the temporary file. done receives the
// last step's outcome and the local path.
func (c *Coordinator) Screenshot(ctx context.Context, done func(dispatch.Outcome, string)) error {
	dir := c.screenshotDir
	if dir == "" {
		dir = dispatch.DefaultScreenshotDir()
	}
	steps, local := dispatch.Screenshot(dir, c.now())
	sel := c.selection()

	return c.dispatcher.DispatchSequence(ctx, steps, sel, func(out dispatch.Outcome) {
		c.record(out)
		if out.OK() && c.store != nil {
			err := c.store.AddScreenshot(store.ScreenshotRecord{
				ID:        out.ID,
				Serial:    sel.Serial,
				Path:      local,
				Timestamp: c.now(),
			})
			if err != nil {
				log.Warn().Err(err).Msg("record screenshot failed")
			}
		}
		if done != nil {
			done(out, local)
		}
	})
}

// Probe runs a probe set against the selected device in the background.
// Validation errors are returned synchronously.
func (c *Coordinator) Probe(ctx context.Context, set dispatch.ProbeSet, done func([]dispatch.ProbeResult)) error {
	sel := c.selection()
	if err := c.dispatcher.Validate(dispatch.Shell(""), sel); err != nil {
		return err
	}
	if c.probeTimeout > 0 {
		set.Timeout = c.probeTimeout
	}
	go func() {
		results, err := c.dispatcher.RunProbes(ctx, set, sel)
		if err != nil {
			log.Warn().Err(err).Str("probes", set.Name).Msg("probe run failed")
		}
		if done != nil {
			done(results)
		}
	}()
	return nil
}

// StartLogcat streams logcat from the selected ADB device. Lines are
// also captured to a file under the store's logs directory.
func (c *Coordinator) StartLogcat(onLine func(string), onExit func(logcat.Exit)) error {
	sel := c.selection()
	if err := c.dispatcher.Validate(dispatch.Shell(""), sel); err != nil {
		return err
	}
	if c.streamer.Active() {
		return logcat.ErrAlreadyStreaming
	}

	cf := c.openCapture(sel.Serial)
	err := c.streamer.Start(sel.Serial, func(line string) {
		cf.write(line)
		if onLine != nil {
			onLine(line)
		}
	}, func(e logcat.Exit) {
		cf.close()
		if onExit != nil {
			onExit(e)
		}
	})
	if err != nil {
		cf.close()
		return err
	}

	c.mu.Lock()
	c.capture = cf
	c.mu.Unlock()
	return nil
}

// StopLogcat stops the active logcat stream. It never blocks and stopping
// twice is harmless.
func (c *Coordinator) StopLogcat() {
	c.streamer.Stop()

	c.mu.Lock()
	cf := c.capture
	c.capture = nil
	c.mu.Unlock()
	cf.close()
}

// LogcatActive reports whether a logcat stream is running.
func (c *Coordinator) LogcatActive() bool {
	return c.streamer.Active()
}

// LogcatSerial returns the device being streamed, or "".
func (c *Coordinator) LogcatSerial() string {
	return c.streamer.Serial()
}

// CheckTools runs `--version` on adb and fastboot. Failures are returned
// for display; they never stop the program.
func (c *Coordinator) CheckTools(ctx context.Context) []ToolStatus {
	var statuses []ToolStatus
	for _, tool := range []string{tools.ADB, tools.Fastboot} {
		vctx, cancel := context.WithTimeout(ctx, versionTimeout)
		res, err := c.exec.Run(vctx, tool, "--version")
		cancel()

		st := ToolStatus{Tool: tool, Err: err}
		if err == nil {
			st.Version = firstLine(res.Stdout)
		} else {
			log.Warn().Err(err).Str("tool", tool).Msg("version check failed")
		}
		statuses = append(statuses, st)
	}
	return statuses
}

// DownloadPorts lists phones visible only as download-mode serial ports.
func (c *Coordinator) DownloadPorts() ([]serial.DownloadPort, error) {
	return c.downloadPorts()
}

// History returns recorded dispatches, newest first.
func (c *Coordinator) History() ([]store.DispatchRecord, error) {
	if c.store == nil {
		return nil, nil
	}
	records, err := c.store.Dispatches()
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

// ClearHistory forgets recorded dispatches, screenshots and logcat
// sessions. Captured log files stay on disk.
func (c *Coordinator) ClearHistory() error {
	if c.store == nil {
		return nil
	}
	return c.store.Clear()
}

// Close stops logcat and waits for its reader to reap the process.
func (c *Coordinator) Close() {
	c.StopLogcat()
	c.streamer.Wait()
}

func (c *Coordinator) record(out dispatch.Outcome) {
	if c.store == nil {
		return
	}
	rec := store.DispatchRecord{
		ID:          out.ID,
		Serial:      out.Command.Serial,
		Command:     out.Command.String(),
		Description: out.Request.Description,
		Outcome:     out.Kind.String(),
		ExitCode:    out.ExitCode,
		Timestamp:   c.now(),
		Duration:    out.Duration.Round(time.Millisecond).String(),
	}
	if out.Err != nil {
		rec.Error = out.Err.Error()
	}
	if err := c.store.AddDispatch(rec); err != nil {
		log.Warn().Err(err).Str("id", out.ID).Msg("record dispatch failed")
	}
}

func (c *Coordinator) openCapture(serialNo string) *capture {
	if c.store == nil {
		return nil
	}
	dir, err := c.store.LogsDir()
	if err != nil {
		log.Warn().Err(err).Msg("logcat capture disabled")
		return nil
	}
	now := c.now()
	cf, err := newCapture(dir, serialNo, now)
	if err != nil {
		log.Warn().Err(err).Msg("logcat capture disabled")
		return nil
	}
	err = c.store.AddLogcatSession(store.LogcatSession{
		ID:        uuid.NewString(),
		Serial:    serialNo,
		Timestamp: now,
		LogFile:   cf.path,
	})
	if err != nil {
		log.Warn().Err(err).Msg("record logcat session failed")
	}
	return cf
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
