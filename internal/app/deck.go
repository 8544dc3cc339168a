package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/buckleypaul/adbdeck/internal/coordinator"
	"github.com/buckleypaul/adbdeck/internal/device"
	"github.com/buckleypaul/adbdeck/internal/dispatch"
	"github.com/buckleypaul/adbdeck/internal/logcat"
	"github.com/buckleypaul/adbdeck/internal/serial"
	"github.com/buckleypaul/adbdeck/internal/store"
)

// Deck is what the TUI needs from the coordinator.
type Deck interface {
	Snapshot() device.Snapshot
	Selected() (device.Record, bool)
	SelectByLabel(label string) (device.Record, error)
	Refresh(ctx context.Context) device.Snapshot
	OnRefresh(fn func(device.Snapshot))
	ServerRunning() bool
	ConfirmPhrase() string

	Dispatch(ctx context.Context, req dispatch.Request, done func(dispatch.Outcome)) error
	DispatchConfirmed(ctx context.Context, req dispatch.Request, input string, done func(dispatch.Outcome)) (bool, error)
	ToggleServer(ctx context.Context, done func(dispatch.Outcome)) error
	Screenshot(ctx context.Context, done func(dispatch.Outcome, string)) error
	Probe(ctx context.Context, set dispatch.ProbeSet, done func([]dispatch.ProbeResult)) error

	StartLogcat(onLine func(string), onExit func(logcat.Exit)) error
	StopLogcat()
	LogcatActive() bool
	LogcatSerial() string

	CheckTools(ctx context.Context) []coordinator.ToolStatus
	DownloadPorts() ([]serial.DownloadPort, error)
	History() ([]store.DispatchRecord, error)
	ClearHistory() error
}

var _ Deck = (*coordinator.Coordinator)(nil)

// OutcomeMsg carries the result of a dispatched command back to the page
// that tagged it.
type OutcomeMsg struct {
	Tag     string
	Outcome dispatch.Outcome
}

// ScreenshotMsg reports the end of a screenshot sequence.
type ScreenshotMsg struct {
	Tag     string
	Outcome dispatch.Outcome
	Path    string
}

// ProbeMsg carries the results of a probe set.
type ProbeMsg struct {
	Tag     string
	Set     string
	Results []dispatch.ProbeResult
}

// ToolsCheckedMsg reports the startup version check.
type ToolsCheckedMsg struct {
	Statuses []coordinator.ToolStatus
}

// PortsMsg reports phones found in a download mode.
type PortsMsg struct {
	Ports []serial.DownloadPort
	Err   error
}

// DispatchCmd validates and starts req. Validation errors come back
// immediately; the outcome arrives later as an OutcomeMsg.
func DispatchCmd(deck Deck, tag string, req dispatch.Request) (tea.Cmd, error) {
	ch := make(chan dispatch.Outcome, 1)
	if err := deck.Dispatch(context.Background(), req, func(o dispatch.Outcome) { ch <- o }); err != nil {
		return nil, err
	}
	return awaitOutcome(tag, ch), nil
}

// ConfirmedCmd runs a destructive request if input matches the
// confirmation phrase. A nil command with a nil error means the user
// cancelled.
func ConfirmedCmd(deck Deck, tag string, req dispatch.Request, input string) (tea.Cmd, error) {
	ch := make(chan dispatch.Outcome, 1)
	ok, err := deck.DispatchConfirmed(context.Background(), req, input, func(o dispatch.Outcome) { ch <- o })
	if !ok || err != nil {
		return nil, err
	}
	return awaitOutcome(tag, ch), nil
}

// ToggleServerCmd starts or stops the adb server. The refreshed snapshot
// is broadcast once the outcome arrives.
func ToggleServerCmd(deck Deck, tag string) (tea.Cmd, error) {
	ch := make(chan dispatch.Outcome, 1)
	if err := deck.ToggleServer(context.Background(), func(o dispatch.Outcome) { ch <- o }); err != nil {
		return nil, err
	}
	return tea.Sequence(awaitOutcome(tag, ch), snapshotCmd(deck)), nil
}

// ScreenshotCmd starts the capture, pull and cleanup sequence.
func ScreenshotCmd(deck Deck, tag string) (tea.Cmd, error) {
	ch := make(chan ScreenshotMsg, 1)
	err := deck.Screenshot(context.Background(), func(o dispatch.Outcome, path string) {
		ch <- ScreenshotMsg{Tag: tag, Outcome: o, Path: path}
	})
	if err != nil {
		return nil, err
	}
	return func() tea.Msg { return <-ch }, nil
}

// ProbeCmd runs a probe set against the selected device.
func ProbeCmd(deck Deck, tag string, set dispatch.ProbeSet) (tea.Cmd, error) {
	ch := make(chan []dispatch.ProbeResult, 1)
	if err := deck.Probe(context.Background(), set, func(r []dispatch.ProbeResult) { ch <- r }); err != nil {
		return nil, err
	}
	return func() tea.Msg {
		return ProbeMsg{Tag: tag, Set: set.Name, Results: <-ch}
	}, nil
}

// RefreshCmd re-lists devices in the background.
func RefreshCmd(deck Deck) tea.Cmd {
	return func() tea.Msg {
		return SnapshotMsg{Snapshot: deck.Refresh(context.Background())}
	}
}

// CheckToolsCmd runs the startup version check.
func CheckToolsCmd(deck Deck) tea.Cmd {
	return func() tea.Msg {
		return ToolsCheckedMsg{Statuses: deck.CheckTools(context.Background())}
	}
}

// PortsCmd scans for download-mode serial ports.
func PortsCmd(deck Deck) tea.Cmd {
	return func() tea.Msg {
		ports, err := deck.DownloadPorts()
		return PortsMsg{Ports: ports, Err: err}
	}
}

func snapshotCmd(deck Deck) tea.Cmd {
	return func() tea.Msg {
		return SnapshotMsg{Snapshot: deck.Snapshot()}
	}
}

func awaitOutcome(tag string, ch <-chan dispatch.Outcome) tea.Cmd {
	return func() tea.Msg {
		return OutcomeMsg{Tag: tag, Outcome: <-ch}
	}
}
