package coordinator

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/buckleypaul/adbdeck/internal/device"
	"github.com/buckleypaul/adbdeck/internal/dispatch"
	"github.com/buckleypaul/adbdeck/internal/logcat"
	"github.com/buckleypaul/adbdeck/internal/serial"
	"github.com/buckleypaul/adbdeck/internal/store"
	"github.com/buckleypaul/adbdeck/internal/tools"
	"github.com/buckleypaul/adbdeck/internal/tools/toolstest"
)

const phrase = "我了解風險並確認"

func withDevices(adbOut, fastbootOut string) *toolstest.Fake {
	return toolstest.New().
		On("adb devices", toolstest.Response{Result: tools.Result{Stdout: adbOut}}).
		On("fastboot devices", toolstest.Response{Result: tools.Result{Stdout: fastbootOut}})
}

func newCoordinator(t *testing.T, fake *toolstest.Fake) (*Coordinator, *store.Store) {
	t.Helper()
	st := store.New(t.TempDir())
	c := New(fake, st, Options{ScreenshotDir: t.TempDir()})
	c.now = func() time.Time { return time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC) }
	t.Cleanup(c.Close)
	return c, st
}

func await[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
		var zero T
		return zero
	}
}

// commandLines drops the device listing calls so tests can focus on
// dispatched commands.
func commandLines(fake *toolstest.Fake) []string {
	var out []string
	for _, l := range fake.Lines() {
		if l == "adb devices" || l == "fastboot devices" {
			continue
		}
		out = append(out, l)
	}
	return out
}

func TestDispatchRecordsHistory(t *testing.T) {
	fake := withDevices("List of devices attached\nABC123\tdevice\n", "")
	c, st := newCoordinator(t, fake)
	c.Refresh(context.Background())

	ch := make(chan dispatch.Outcome, 1)
	if err := c.Dispatch(context.Background(), dispatch.Install("app.apk"), func(o dispatch.Outcome) { ch <- o }); err != nil {
		t.Fatal(err)
	}
	out := await(t, ch)
	if !out.OK() {
		t.Fatalf("expected success, got %+v", out)
	}

	if got := commandLines(fake); len(got) != 1 || got[0] != "adb -s ABC123 install -r app.apk" {
		t.Fatalf("unexpected commands %v", got)
	}

	records, err := st.Dispatches()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].ID != out.ID || records[0].Serial != "ABC123" || records[0].Outcome != "success" {
		t.Fatalf("unexpected history %+v", records)
	}
}

func TestDispatchRefusesUnconfirmedRequests(t *testing.T) {
	fake := withDevices("", "FB1\tfastboot\n")
	c, _ := newCoordinator(t, fake)
	c.Refresh(context.Background())

	err := c.Dispatch(context.Background(), dispatch.FlashingUnlock(), nil)
	if !errors.Is(err, dispatch.ErrConfirmationRequired) {
		t.Fatalf("expected ErrConfirmationRequired, got %v", err)
	}
	if len(commandLines(fake)) != 0 {
		t.Fatal("nothing should run")
	}
}

func TestDispatchConfirmed(t *testing.T) {
	fake := withDevices("", "FB1\tfastboot\n")
	c, _ := newCoordinator(t, fake)
	c.Refresh(context.Background())

	ok, err := c.DispatchConfirmed(context.Background(), dispatch.FlashingUnlock(), "我了解风险并确认", nil)
	if ok || !errors.Is(err, dispatch.ErrConfirmationRejected) {
		t.Fatalf("simplified phrase must be rejected, got ok=%v err=%v", ok, err)
	}

	ok, err = c.DispatchConfirmed(context.Background(), dispatch.FlashingUnlock(), "", nil)
	if ok || err != nil {
		t.Fatalf("empty input must cancel silently, got ok=%v err=%v", ok, err)
	}
	if len(commandLines(fake)) != 0 {
		t.Fatalf("nothing should run before confirmation, got %v", commandLines(fake))
	}

	ch := make(chan dispatch.Outcome, 1)
	ok, err = c.DispatchConfirmed(context.Background(), dispatch.FlashingUnlock(), phrase, func(o dispatch.Outcome) { ch <- o })
	if !ok || err != nil {
		t.Fatalf("exact phrase must dispatch, got ok=%v err=%v", ok, err)
	}
	await(t, ch)
	if got := commandLines(fake); len(got) != 1 || got[0] != "fastboot -s FB1 flashing unlock" {
		t.Fatalf("unexpected commands %v", got)
	}
}

func TestDispatchConfirmedValidatesBeforeGate(t *testing.T) {
	fake := withDevices("List of devices attached\nA1\tdevice\n", "")
	c, _ := newCoordinator(t, fake)
	c.Refresh(context.Background())

	_, err := c.DispatchConfirmed(context.Background(), dispatch.FlashingLock(), "wrong", nil)
	var mm *dispatch.ModeMismatchError
	if !errors.As(err, &mm) {
		t.Fatalf("expected ModeMismatchError, got %v", err)
	}
}

func TestToggleServer(t *testing.T) {
	fake := withDevices("List of devices attached\nA1\tdevice\n", "")
	c, _ := newCoordinator(t, fake)
	c.Refresh(context.Background())

	if !c.ServerRunning() {
		t.Fatal("server should start out running")
	}

	ch := make(chan dispatch.Outcome, 1)
	if err := c.ToggleServer(context.Background(), func(o dispatch.Outcome) { ch <- o }); err != nil {
		t.Fatal(err)
	}
	await(t, ch)
	if c.ServerRunning() || c.Snapshot().Len() != 0 {
		t.Fatalf("kill-server should clear devices, running=%v len=%d", c.ServerRunning(), c.Snapshot().Len())
	}
	if _, ok := c.Selected(); ok {
		t.Fatal("selection should be cleared")
	}

	if err := c.ToggleServer(context.Background(), func(o dispatch.Outcome) { ch <- o }); err != nil {
		t.Fatal(err)
	}
	await(t, ch)
	if !c.ServerRunning() {
		t.Fatal("start-server should mark the server running")
	}
	if sel, ok := c.Selected(); !ok || sel.Serial != "A1" {
		t.Fatalf("start-server should refresh and reselect, got %+v %v", sel, ok)
	}

	want := []string{"adb kill-server", "adb start-server"}
	if got := commandLines(fake); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestFailedKillKeepsDevices(t *testing.T) {
	fake := withDevices("List of devices attached\nA1\tdevice\n", "").
		On("adb kill-server", toolstest.Response{Err: &tools.ExitError{Code: 1, Stderr: "busy"}})
	c, _ := newCoordinator(t, fake)
	c.Refresh(context.Background())

	ch := make(chan dispatch.Outcome, 1)
	c.ToggleServer(context.Background(), func(o dispatch.Outcome) { ch <- o })
	if out := await(t, ch); out.OK() {
		t.Fatal("expected failure")
	}
	if !c.ServerRunning() || c.Snapshot().Len() != 1 {
		t.Fatal("failed kill-server must leave state untouched")
	}
}

func TestScreenshotRecordsCapture(t *testing.T) {
	fake := withDevices("List of devices attached\nA1\tdevice\n", "")
	c, st := newCoordinator(t, fake)
	c.Refresh(context.Background())

	type result struct {
		out  dispatch.Outcome
		path string
	}
	ch := make(chan result, 1)
	if err := c.Screenshot(context.Background(), func(o dispatch.Outcome, p string) { ch <- result{o, p} }); err != nil {
		t.Fatal(err)
	}
	r := await(t, ch)
	if !r.out.OK() || filepath.Base(r.path) != "Screenshot_20250304_050607.png" {
		t.Fatalf("unexpected result %+v", r)
	}
	if got := commandLines(fake); len(got) != 3 {
		t.Fatalf("expected three steps, got %v", got)
	}

	shots, _ := st.Screenshots()
	if len(shots) != 1 || shots[0].Path != r.path || shots[0].Serial != "A1" {
		t.Fatalf("unexpected screenshot history %+v", shots)
	}
}

func TestProbeRequiresAuthorizedDevice(t *testing.T) {
	fake := withDevices("List of devices attached\nA1\tunauthorized\n", "")
	c, _ := newCoordinator(t, fake)

	if err := c.Probe(context.Background(), dispatch.SystemProbes, nil); !errors.Is(err, dispatch.ErrNoDeviceSelected) {
		t.Fatalf("expected ErrNoDeviceSelected, got %v", err)
	}

	c.Refresh(context.Background())
	var ua *dispatch.UnauthorizedError
	if err := c.Probe(context.Background(), dispatch.SystemProbes, nil); !errors.As(err, &ua) {
		t.Fatalf("expected UnauthorizedError, got %v", err)
	}
}

func TestProbeDeliversResults(t *testing.T) {
	fake := withDevices("List of devices attached\nA1\tdevice\n", "")
	c, _ := newCoordinator(t, fake)
	c.Refresh(context.Background())

	ch := make(chan []dispatch.ProbeResult, 1)
	if err := c.Probe(context.Background(), dispatch.HardwareProbes, func(r []dispatch.ProbeResult) { ch <- r }); err != nil {
		t.Fatal(err)
	}
	results := await(t, ch)
	if len(results) != len(dispatch.HardwareProbes.Probes) {
		t.Fatalf("expected %d results, got %d", len(dispatch.HardwareProbes.Probes), len(results))
	}
}

func TestLogcatLifecycle(t *testing.T) {
	fake := withDevices("List of devices attached\nA1\tdevice\n", "")
	c, st := newCoordinator(t, fake)

	if err := c.StartLogcat(nil, nil); !errors.Is(err, dispatch.ErrNoDeviceSelected) {
		t.Fatalf("expected ErrNoDeviceSelected, got %v", err)
	}

	c.Refresh(context.Background())
	lines := make(chan string, 1)
	if err := c.StartLogcat(func(l string) { lines <- l }, nil); err != nil {
		t.Fatal(err)
	}
	if err := c.StartLogcat(nil, nil); !errors.Is(err, logcat.ErrAlreadyStreaming) {
		t.Fatalf("expected ErrAlreadyStreaming, got %v", err)
	}
	if !c.LogcatActive() || c.LogcatSerial() != "A1" {
		t.Fatal("first stream should be unaffected")
	}

	streams := fake.Streams()
	if len(streams) != 1 {
		t.Fatalf("expected one logcat process, got %d", len(streams))
	}
	go streams[0].Emit("D/adbd: hello")
	if got := await(t, lines); got != "D/adbd: hello" {
		t.Fatalf("unexpected line %q", got)
	}

	c.StopLogcat()
	c.StopLogcat()
	if c.LogcatActive() {
		t.Fatal("logcat should be stopped")
	}

	sessions, _ := st.LogcatSessions()
	if len(sessions) != 1 {
		t.Fatalf("expected one session, got %d", len(sessions))
	}
	data, err := os.ReadFile(sessions[0].LogFile)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "D/adbd: hello\n" {
		t.Fatalf("unexpected capture %q", data)
	}
}

func TestLogcatRejectsFastboot(t *testing.T) {
	fake := withDevices("", "FB1\tfastboot\n")
	c, _ := newCoordinator(t, fake)
	c.Refresh(context.Background())

	var mm *dispatch.ModeMismatchError
	if err := c.StartLogcat(nil, nil); !errors.As(err, &mm) {
		t.Fatalf("expected ModeMismatchError, got %v", err)
	}
	if len(fake.Streams()) != 0 {
		t.Fatal("no process should start")
	}
}

func TestCheckTools(t *testing.T) {
	fake := toolstest.New().
		On("adb --version", toolstest.Response{Result: tools.Result{Stdout: "Android Debug Bridge version 1.0.41\nVersion 35.0.2\n"}}).
		On("fastboot --version", toolstest.Response{Err: errors.Wrap(tools.ErrToolNotFound, "fastboot")})
	c, _ := newCoordinator(t, fake)

	statuses := c.CheckTools(context.Background())
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}
	if statuses[0].Version != "Android Debug Bridge version 1.0.41" || statuses[0].Err != nil {
		t.Errorf("unexpected adb status %+v", statuses[0])
	}
	if !errors.Is(statuses[1].Err, tools.ErrToolNotFound) {
		t.Errorf("unexpected fastboot status %+v", statuses[1])
	}
}

func TestHistoryNewestFirst(t *testing.T) {
	fake := withDevices("List of devices attached\nA1\tdevice\n", "")
	c, _ := newCoordinator(t, fake)
	c.Refresh(context.Background())

	for _, req := range []dispatch.Request{dispatch.Shell("id"), dispatch.Shell("uptime")} {
		ch := make(chan dispatch.Outcome, 1)
		c.Dispatch(context.Background(), req, func(o dispatch.Outcome) { ch <- o })
		await(t, ch)
	}

	records, err := c.History()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 || records[0].Command != "adb -s A1 shell uptime" {
		t.Fatalf("expected newest first, got %+v", records)
	}
}

func TestRefreshHookAfterReboot(t *testing.T) {
	fake := withDevices("List of devices attached\nA1\tdevice\n", "")
	c := New(fake, nil, Options{RebootDelay: 10 * time.Millisecond})
	defer c.Close()
	c.Refresh(context.Background())

	snaps := make(chan device.Snapshot, 1)
	c.OnRefresh(func(s device.Snapshot) { snaps <- s })

	if err := c.Dispatch(context.Background(), dispatch.Reboot("bootloader"), nil); err != nil {
		t.Fatal(err)
	}
	if s := await(t, snaps); s.Len() != 1 {
		t.Fatalf("unexpected refreshed snapshot %+v", s)
	}
}

func TestDownloadPorts(t *testing.T) {
	c, _ := newCoordinator(t, toolstest.New())
	c.downloadPorts = func() ([]serial.DownloadPort, error) {
		return []serial.DownloadPort{{Port: "/dev/ttyUSB0", Mode: serial.KnownModes[0]}}, nil
	}
	ports, err := c.DownloadPorts()
	if err != nil || len(ports) != 1 {
		t.Fatalf("unexpected ports %v %v", ports, err)
	}
}

func TestClearHistory(t *testing.T) {
	fake := withDevices("List of devices attached\nABC123\tdevice\n", "")
	c, st := newCoordinator(t, fake)
	c.Refresh(context.Background())

	done := make(chan dispatch.Outcome, 1)
	if err := c.Dispatch(context.Background(), dispatch.Install("app.apk"), func(o dispatch.Outcome) { done <- o }); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	await(t, done)

	if err := c.ClearHistory(); err != nil {
		t.Fatalf("ClearHistory: %v", err)
	}
	records, err := st.Dispatches()
	if err != nil {
		t.Fatalf("Dispatches: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("got %d records after clear, want 0", len(records))
	}
}
