package pages

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/pkg/errors"

	"github.com/buckleypaul/adbdeck/internal/device"
	"github.com/buckleypaul/adbdeck/internal/dispatch"
	"github.com/buckleypaul/adbdeck/internal/ui"
)

// tagger hands out request tags so a page only reacts to its own
// results, and remembers the one in flight.
type tagger struct {
	prefix string
	seq    int
	active string
}

func (t *tagger) next() string {
	t.seq++
	t.active = fmt.Sprintf("%s-%d", t.prefix, t.seq)
	return t.active
}

// take reports whether tag is the request in flight and clears it.
func (t *tagger) take(tag string) bool {
	if tag == "" || tag != t.active {
		return false
	}
	t.active = ""
	return true
}

func (t *tagger) busy() bool { return t.active != "" }

// outputLog is an append-only text area backed by a viewport.
type outputLog struct {
	b  strings.Builder
	vp viewport.Model
}

func newOutputLog() outputLog {
	return outputLog{vp: viewport.New(0, 0)}
}

func (o *outputLog) write(s string) {
	o.b.WriteString(s)
	o.vp.SetContent(o.b.String())
	o.vp.GotoBottom()
}

func (o *outputLog) reset() {
	o.b.Reset()
	o.vp.SetContent("")
}

func (o *outputLog) empty() bool { return o.b.Len() == 0 }

func (o *outputLog) setSize(w, h int) {
	if h < 3 {
		h = 3
	}
	o.vp.Width = w
	o.vp.Height = h
}

// formatOutcome renders a finished command the way it is shown in the
// output areas: stdout on success, the error and stderr otherwise.
func formatOutcome(o dispatch.Outcome) string {
	var b strings.Builder
	switch o.Kind {
	case dispatch.OutcomeSuccess:
		out := strings.TrimRight(o.Stdout, "\n")
		if out == "" {
			out = ui.DimStyle.Render("(no output)")
		}
		b.WriteString(out + "\n")
		b.WriteString(ui.SuccessStyle.Render(fmt.Sprintf("✓ %s (%s)", o.Request.Description, round(o.Duration))) + "\n")
	case dispatch.OutcomeTimedOut:
		b.WriteString(ui.ErrorStyle.Render("✗ timed out: "+o.Command.String()) + "\n")
	case dispatch.OutcomeToolNotFound:
		b.WriteString(ui.ErrorStyle.Render(fmt.Sprintf("✗ %s not found; check the tool path in Settings", o.Command.Tool)) + "\n")
	default:
		if out := strings.TrimRight(o.Stdout, "\n"); out != "" {
			b.WriteString(out + "\n")
		}
		b.WriteString(ui.ErrorStyle.Render(fmt.Sprintf("✗ %s failed (exit code %d)", o.Request.Description, o.ExitCode)) + "\n")
		if stderr := strings.TrimSpace(o.Stderr); stderr != "" {
			b.WriteString(stderr + "\n")
		}
	}
	return b.String()
}

// formatError renders a synchronous error, adding a hint for the ones a
// user can fix.
func formatError(err error) string {
	var mm *dispatch.ModeMismatchError
	var ua *dispatch.UnauthorizedError
	switch {
	case errors.Is(err, dispatch.ErrNoDeviceSelected):
		return ui.ErrorStyle.Render("No device selected.") + ui.DimStyle.Render(" Press tab then d to pick one.")
	case errors.As(err, &mm):
		hint := " Reboot to bootloader from the ADB page."
		if mm.Want == device.ModeADB {
			hint = " Reboot the device from the Fastboot page."
		}
		return ui.ErrorStyle.Render(err.Error()) + ui.DimStyle.Render(hint)
	case errors.As(err, &ua):
		return ui.ErrorStyle.Render(err.Error())
	default:
		return ui.ErrorStyle.Render("Error: " + err.Error())
	}
}

func commandHeader(cmd string) string {
	return ui.AccentStyle.Render("$ "+cmd) + "\n"
}

func round(d time.Duration) time.Duration {
	return d.Round(10 * time.Millisecond)
}
