package pages

import (
	"strings"
	"testing"

	"github.com/buckleypaul/adbdeck/internal/app"
	"github.com/buckleypaul/adbdeck/internal/serial"
)

func TestDevicesListAndSelect(t *testing.T) {
	fake := withDevices("ABC123\tdevice\nDEF456\tunauthorized\n", "FB1\tfastboot\n")
	deck := newDeck(t, fake)
	p := NewDevicesPage(deck)
	p.SetSize(120, 40)

	p.Update(app.SnapshotMsg{Snapshot: deck.Snapshot()})
	view := p.View()
	for _, want := range []string{"ABC123", "DEF456", "FB1", "3 device(s) connected (ADB: 2, Fastboot: 1)"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	p.Update(keyMsg("down"))
	p.Update(keyMsg("down"))
	p.Update(keyMsg("down"))
	if p.cursor != 2 {
		t.Fatalf("cursor should clamp at 2, got %d", p.cursor)
	}
	_, cmd := p.Update(keyMsg("enter"))
	msg, ok := run(t, cmd).(app.PickerSelectedMsg)
	if !ok || msg.Value != "Fastboot: FB1 (connected)" {
		t.Fatalf("unexpected selection message %+v", msg)
	}
}

func TestDevicesToggleServer(t *testing.T) {
	fake := withDevices("ABC123\tdevice\n", "")
	deck := newDeck(t, fake)
	p := NewDevicesPage(deck)

	_, cmd := p.Update(keyMsg("s"))
	if cmd == nil {
		t.Fatal("expected a command")
	}
	if !p.server.busy() {
		t.Fatal("toggle should be in flight")
	}
	if !strings.Contains(p.message, "Stopping") {
		t.Errorf("unexpected message %q", p.message)
	}
}

func TestDevicesServerOutcome(t *testing.T) {
	p := NewDevicesPage(newDeck(t, withDevices("", "")))
	tag := p.server.next()

	var msg app.OutcomeMsg
	msg.Tag = tag
	msg.Outcome.Request.Description = "Stop ADB server"
	p.Update(msg)

	if p.server.busy() || p.message != "Stop ADB server: done" {
		t.Fatalf("unexpected state busy=%v message=%q", p.server.busy(), p.message)
	}
}

func TestDevicesShowsDownloadPorts(t *testing.T) {
	p := NewDevicesPage(newDeck(t, withDevices("", "")))
	p.SetSize(120, 40)
	p.Update(app.PortsMsg{Ports: []serial.DownloadPort{{
		Port:         "/dev/ttyUSB0",
		Mode:         serial.KnownModes[0],
		SerialNumber: "1234",
	}}})

	view := p.View()
	for _, want := range []string{"Download mode", "/dev/ttyUSB0", serial.KnownModes[0].Name} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}
