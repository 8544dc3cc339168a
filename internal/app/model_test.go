package app

import (
	"context"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/buckleypaul/adbdeck/internal/config"
	"github.com/buckleypaul/adbdeck/internal/coordinator"
	"github.com/buckleypaul/adbdeck/internal/device"
	"github.com/buckleypaul/adbdeck/internal/tools"
	"github.com/buckleypaul/adbdeck/internal/tools/toolstest"
)

// stubPage records every message it receives.
type stubPage struct {
	name     string
	msgs     []tea.Msg
	captured bool
}

func (p *stubPage) Init() tea.Cmd { return nil }
func (p *stubPage) Update(msg tea.Msg) (Page, tea.Cmd) {
	p.msgs = append(p.msgs, msg)
	return p, nil
}
func (p *stubPage) View() string              { return p.name }
func (p *stubPage) Name() string              { return p.name }
func (p *stubPage) ShortHelp() []key.Binding  { return nil }
func (p *stubPage) SetSize(width, height int) {}
func (p *stubPage) InputCaptured() bool       { return p.captured }

func (p *stubPage) selections() []DeviceSelectedMsg {
	var out []DeviceSelectedMsg
	for _, m := range p.msgs {
		if s, ok := m.(DeviceSelectedMsg); ok {
			out = append(out, s)
		}
	}
	return out
}

func newTestModel(t *testing.T) (Model, *coordinator.Coordinator, map[PageID]*stubPage, *config.Config, string) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	fake := toolstest.New().
		On("adb devices", toolstest.Response{Result: tools.Result{Stdout: "ABC123\tdevice\nDEF456\tdevice\n"}}).
		On("fastboot devices", toolstest.Response{Result: tools.Result{Stdout: "FB1\tfastboot\n"}})
	deck := coordinator.New(fake, nil, coordinator.Options{RebootDelay: time.Hour})
	t.Cleanup(deck.Close)

	stubs := map[PageID]*stubPage{}
	pages := map[PageID]Page{}
	for _, id := range PageOrder {
		s := &stubPage{name: "page"}
		stubs[id] = s
		pages[id] = s
	}
	cfg := config.Defaults()
	dir := t.TempDir()
	return New(pages, deck, &cfg, dir), deck, stubs, &cfg, dir
}

func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func TestSnapshotBroadcastSelectsFirstDevice(t *testing.T) {
	m, deck, stubs, cfg, dir := newTestModel(t)

	snap := deck.Refresh(context.Background())
	m, _ = update(m, SnapshotMsg{Snapshot: snap})

	for id, s := range stubs {
		if len(s.msgs) == 0 {
			t.Fatalf("page %d got no messages", id)
		}
		sel := s.selections()
		if len(sel) != 1 || sel[0].Record.Serial != "ABC123" {
			t.Fatalf("page %d: unexpected selections %+v", id, sel)
		}
	}
	if cfg.LastDevice != "ADB: ABC123 (connected)" {
		t.Fatalf("selection not remembered, got %q", cfg.LastDevice)
	}
	if loaded := config.Load(dir); loaded.LastDevice != cfg.LastDevice {
		t.Fatalf("selection not saved, got %q", loaded.LastDevice)
	}

	// The same snapshot again changes nothing.
	m, _ = update(m, SnapshotMsg{Snapshot: snap})
	if sel := stubs[DevicesPage].selections(); len(sel) != 1 {
		t.Fatalf("expected no new selection message, got %d", len(sel))
	}
}

func TestPickerSelectionChangesDevice(t *testing.T) {
	m, deck, stubs, cfg, _ := newTestModel(t)
	m, _ = update(m, SnapshotMsg{Snapshot: deck.Refresh(context.Background())})

	m, _ = update(m, PickerSelectedMsg{Value: "Fastboot: FB1 (connected)"})
	if m.picker != nil {
		t.Fatal("picker should close after selection")
	}
	sel, ok := deck.Selected()
	if !ok || sel.Serial != "FB1" || sel.Mode != device.ModeFastboot {
		t.Fatalf("unexpected selection %+v", sel)
	}
	got := stubs[LogcatPage].selections()
	if len(got) != 2 || got[1].Record.Serial != "FB1" {
		t.Fatalf("pages not told about the change: %+v", got)
	}
	if cfg.LastDevice != "Fastboot: FB1 (connected)" {
		t.Errorf("LastDevice = %q", cfg.LastDevice)
	}
}

func TestPickerSelectionOfVanishedDeviceRefreshes(t *testing.T) {
	m, deck, _, _, _ := newTestModel(t)
	m, _ = update(m, SnapshotMsg{Snapshot: deck.Refresh(context.Background())})

	_, cmd := update(m, PickerSelectedMsg{Value: "ADB: GONE (connected)"})
	if cmd == nil {
		t.Fatal("expected a refresh command")
	}
	if _, ok := cmd().(SnapshotMsg); !ok {
		t.Fatal("expected a snapshot from the refresh")
	}
	if sel, _ := deck.Selected(); sel.Serial != "ABC123" {
		t.Fatalf("selection should be unchanged, got %+v", sel)
	}
}

func TestRebootRefreshIsRearmed(t *testing.T) {
	m, _, stubs, _, _ := newTestModel(t)

	snap := device.Snapshot{Records: []device.Record{device.NewRecord("XYZ", device.ModeADB, device.StatusDevice)}}
	m.refreshes <- snap
	msg := m.waitForRebootRefresh()()
	if _, ok := msg.(rebootRefreshMsg); !ok {
		t.Fatalf("expected rebootRefreshMsg, got %T", msg)
	}

	m, cmd := update(m, msg)
	if cmd == nil {
		t.Fatal("expected the subscription to be re-armed")
	}
	var got bool
	for _, in := range stubs[DevicesPage].msgs {
		if s, ok := in.(SnapshotMsg); ok && s.Snapshot.Len() == 1 {
			got = true
		}
	}
	if !got {
		t.Fatal("snapshot from the timer was not broadcast")
	}
	if m.snapshot.Len() != 1 {
		t.Fatalf("model snapshot not updated")
	}
}

func TestFocusAndNavigation(t *testing.T) {
	m, _, _, _, _ := newTestModel(t)

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyDown})
	if m.activePage != ADBPage {
		t.Fatalf("expected ADB page, got %d", m.activePage)
	}
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyUp})
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyUp})
	if m.activePage != SettingsPage {
		t.Fatalf("expected wrap to Settings page, got %d", m.activePage)
	}

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyTab})
	if m.focus != FocusContent {
		t.Fatal("tab should focus content")
	}
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyTab})
	if m.focus != FocusSidebar {
		t.Fatal("tab should return to the sidebar")
	}
}

func TestCapturedInputGetsAllKeys(t *testing.T) {
	m, _, stubs, _, _ := newTestModel(t)
	stubs[DevicesPage].captured = true
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyTab})

	q := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}
	_, cmd := update(m, q)
	if cmd != nil {
		if _, quit := cmd().(tea.QuitMsg); quit {
			t.Fatal("q must reach the page while it captures input")
		}
	}
	msgs := stubs[DevicesPage].msgs
	if len(msgs) == 0 {
		t.Fatal("page received nothing")
	}
	if k, ok := msgs[len(msgs)-1].(tea.KeyMsg); !ok || k.String() != "q" {
		t.Fatalf("page did not receive the key: %v", msgs[len(msgs)-1])
	}
}

func TestDevicePickerOpensFromSidebar(t *testing.T) {
	m, deck, _, _, _ := newTestModel(t)
	m, _ = update(m, SnapshotMsg{Snapshot: deck.Refresh(context.Background())})

	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	if m.picker == nil {
		t.Fatal("d should open the device picker")
	}
	if len(m.picker.items) != 3 {
		t.Fatalf("expected 3 picker items, got %d", len(m.picker.items))
	}
	if cmd == nil {
		t.Fatal("opening the picker should refresh devices")
	}
}
