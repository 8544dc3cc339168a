package pages

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/buckleypaul/adbdeck/internal/coordinator"
	"github.com/buckleypaul/adbdeck/internal/store"
	"github.com/buckleypaul/adbdeck/internal/tools"
	"github.com/buckleypaul/adbdeck/internal/tools/toolstest"
)

const testPhrase = "我了解風險並確認"

func withDevices(adbOut, fastbootOut string) *toolstest.Fake {
	return toolstest.New().
		On("adb devices", toolstest.Response{Result: tools.Result{Stdout: adbOut}}).
		On("fastboot devices", toolstest.Response{Result: tools.Result{Stdout: fastbootOut}})
}

// newDeck returns a coordinator backed by fake, already refreshed so the
// first listed device is selected.
func newDeck(t *testing.T, fake *toolstest.Fake) *coordinator.Coordinator {
	t.Helper()
	c := coordinator.New(fake, store.New(t.TempDir()), coordinator.Options{
		ScreenshotDir: t.TempDir(),
		RebootDelay:   time.Hour,
	})
	c.Refresh(context.Background())
	t.Cleanup(c.Close)
	return c
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// run executes cmd off the test goroutine and returns its message.
func run(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command, got nil")
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("command did not finish")
		return nil
	}
}

// commandLines drops the device listing calls.
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
