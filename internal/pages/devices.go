package pages

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/buckleypaul/adbdeck/internal/app"
	"github.com/buckleypaul/adbdeck/internal/coordinator"
	"github.com/buckleypaul/adbdeck/internal/device"
	"github.com/buckleypaul/adbdeck/internal/serial"
	"github.com/buckleypaul/adbdeck/internal/ui"
)

// DevicesPage lists ADB and Fastboot devices, download-mode ports and the
// state of the adb server.
type DevicesPage struct {
	deck          app.Deck
	snapshot      device.Snapshot
	selected      string
	cursor        int
	ports         []serial.DownloadPort
	portsErr      error
	tools         []coordinator.ToolStatus
	server        tagger
	message       string
	width, height int
}

func NewDevicesPage(deck app.Deck) *DevicesPage {
	return &DevicesPage{
		deck:   deck,
		server: tagger{prefix: "server"},
	}
}

func (p *DevicesPage) Init() tea.Cmd {
	return tea.Batch(app.CheckToolsCmd(p.deck), app.PortsCmd(p.deck))
}

func (p *DevicesPage) Update(msg tea.Msg) (app.Page, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "down":
			if p.cursor < p.snapshot.Len()-1 {
				p.cursor++
			}
		case "up":
			if p.cursor > 0 {
				p.cursor--
			}
		case "enter":
			if p.cursor < p.snapshot.Len() {
				label := p.snapshot.Records[p.cursor].Label
				return p, func() tea.Msg { return app.PickerSelectedMsg{Value: label} }
			}
		case "r":
			p.message = "Refreshing..."
			return p, tea.Batch(app.RefreshCmd(p.deck), app.PortsCmd(p.deck))
		case "s":
			if p.server.busy() {
				return p, nil
			}
			tag := p.server.next()
			cmd, err := app.ToggleServerCmd(p.deck, tag)
			if err != nil {
				p.server.active = ""
				p.message = formatError(err)
				return p, nil
			}
			if p.deck.ServerRunning() {
				p.message = "Stopping adb server..."
			} else {
				p.message = "Starting adb server..."
			}
			return p, cmd
		case "p":
			return p, app.PortsCmd(p.deck)
		}

	case app.SnapshotMsg:
		p.snapshot = msg.Snapshot
		if p.cursor >= p.snapshot.Len() {
			p.cursor = max(p.snapshot.Len()-1, 0)
		}
		if strings.HasPrefix(p.message, "Refreshing") {
			p.message = ""
		}

	case app.DeviceSelectedMsg:
		p.selected = ""
		if msg.OK {
			p.selected = msg.Record.Label
		}

	case app.ToolsCheckedMsg:
		p.tools = msg.Statuses

	case app.PortsMsg:
		p.ports, p.portsErr = msg.Ports, msg.Err

	case app.OutcomeMsg:
		if !p.server.take(msg.Tag) {
			return p, nil
		}
		if msg.Outcome.OK() {
			p.message = msg.Outcome.Request.Description + ": done"
		} else {
			p.message = strings.TrimSpace(formatOutcome(msg.Outcome))
		}
	}
	return p, nil
}

func (p *DevicesPage) View() string {
	var list strings.Builder
	if p.snapshot.Len() == 0 {
		list.WriteString(ui.DimStyle.Render("No devices. Connect a device with USB debugging enabled, then press r."))
		list.WriteString("\n")
	}
	for i, r := range p.snapshot.Records {
		cursor := "  "
		if i == p.cursor {
			cursor = ui.BoldStyle.Render("> ")
		}
		mark := " "
		if r.Label == p.selected {
			mark = ui.SuccessStyle.Render("●")
		}
		list.WriteString(fmt.Sprintf("%s%s %-9s %-24s %s\n", cursor, mark, r.Mode, r.Serial, ui.StatusBadge(r.Status)))
	}
	list.WriteString("\n" + ui.DimStyle.Render(p.snapshot.Summary()))

	var b strings.Builder
	b.WriteString(ui.Panel("Devices", list.String(), p.width, 0, false))
	b.WriteString("\n")

	var status strings.Builder
	if p.deck.ServerRunning() {
		status.WriteString("adb server  " + ui.SuccessBadge("running") + "\n")
	} else {
		status.WriteString("adb server  " + ui.ErrorBadge("stopped") + "\n")
	}
	for _, t := range p.tools {
		if t.Err != nil {
			status.WriteString(fmt.Sprintf("%-10s  %s\n", t.Tool, ui.ErrorStyle.Render(t.Err.Error())))
		} else {
			status.WriteString(fmt.Sprintf("%-10s  %s\n", t.Tool, ui.DimStyle.Render(t.Version)))
		}
	}
	b.WriteString(ui.Panel("Tools", strings.TrimRight(status.String(), "\n"), p.width, 0, false))

	if len(p.ports) > 0 || p.portsErr != nil {
		var ports strings.Builder
		if p.portsErr != nil {
			ports.WriteString(ui.ErrorStyle.Render(p.portsErr.Error()))
		}
		for _, port := range p.ports {
			ports.WriteString(ui.WarningBadge(port.Mode.Name) + " " + port.Port)
			if port.SerialNumber != "" {
				ports.WriteString(ui.DimStyle.Render("  " + port.SerialNumber))
			}
			ports.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(ui.Panel("Download mode", strings.TrimRight(ports.String(), "\n"), p.width, 0, false))
	}

	if p.message != "" {
		b.WriteString("\n  " + p.message)
	}
	return b.String()
}

func (p *DevicesPage) Name() string { return "Devices" }

func (p *DevicesPage) ShortHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start/stop server")),
		key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "scan ports")),
	}
}

func (p *DevicesPage) SetSize(w, h int) {
	p.width = w
	p.height = h
}
