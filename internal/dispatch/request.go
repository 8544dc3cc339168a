package dispatch

import (
	"strings"

	"github.com/buckleypaul/adbdeck/internal/device"
	"github.com/buckleypaul/adbdeck/internal/tools"
)

// Sink names the output area a request's result is rendered in.
type Sink int

const (
	SinkLog Sink = iota
	SinkShell
	SinkInfo
)

// Request is one logical user action. It is built per action and
// discarded after dispatch.
type Request struct {
	Tool         string
	Args         []string
	Description  string
	InjectDevice bool
	Sink         Sink

	// Confirm marks destructive actions that must pass the confirmation
	// gate before they are dispatched.
	Confirm bool

	// NoTimeout runs the command without the one-shot ceiling. Used for
	// scrcpy, which lives as long as its mirror window.
	NoTimeout bool
}

// Text returns the unbuilt command line, e.g. "adb reboot recovery".
func (r Request) Text() string {
	return strings.Join(append([]string{r.Tool}, r.Args...), " ")
}

// ServerLifecycle reports whether r starts or stops the adb server. Those
// commands never take a device flag and skip device checks.
func (r Request) ServerLifecycle() bool {
	if r.Tool != tools.ADB || len(r.Args) != 1 {
		return false
	}
	return r.Args[0] == "start-server" || r.Args[0] == "kill-server"
}

// Reboots reports whether the command will make the device re-enumerate.
func (r Request) Reboots() bool {
	return strings.Contains(r.Text(), "reboot")
}

// RequiredMode returns the device mode the tool talks to.
func (r Request) RequiredMode() device.Mode {
	if r.Tool == tools.Fastboot {
		return device.ModeFastboot
	}
	return device.ModeADB
}

// Build turns r into a Command for the selected device.
func (r Request) Build(sel *device.Record) Command {
	cmd := Command{Tool: r.Tool, Args: append([]string(nil), r.Args...)}
	if r.InjectDevice && !r.ServerLifecycle() && sel != nil {
		cmd.Serial = sel.Serial
	}
	return cmd
}
