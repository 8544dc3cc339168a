package pages

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/buckleypaul/adbdeck/internal/app"
	"github.com/buckleypaul/adbdeck/internal/dispatch"
	"github.com/buckleypaul/adbdeck/internal/ui"
)

// InfoPage runs the read-only probe sets and shows their titled blocks.
type InfoPage struct {
	deck          app.Deck
	requests      tagger
	running       string
	output        outputLog
	width, height int
}

func NewInfoPage(deck app.Deck) *InfoPage {
	return &InfoPage{
		deck:     deck,
		requests: tagger{prefix: "info"},
		output:   newOutputLog(),
	}
}

func (p *InfoPage) Init() tea.Cmd { return nil }

func (p *InfoPage) Update(msg tea.Msg) (app.Page, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "h":
			return p, p.probe(dispatch.HardwareProbes)
		case "s":
			return p, p.probe(dispatch.SystemProbes)
		case "c":
			if !p.requests.busy() {
				p.output.reset()
			}
			return p, nil
		}

	case app.ProbeMsg:
		if !p.requests.take(msg.Tag) {
			return p, nil
		}
		p.running = ""
		p.output.write(dispatch.RenderProbes(msg.Results) + "\n")
		return p, nil
	}

	var cmd tea.Cmd
	p.output.vp, cmd = p.output.vp.Update(msg)
	return p, cmd
}

func (p *InfoPage) probe(set dispatch.ProbeSet) tea.Cmd {
	if p.requests.busy() {
		return nil
	}
	tag := p.requests.next()
	cmd, err := app.ProbeCmd(p.deck, tag, set)
	if err != nil {
		p.requests.active = ""
		p.output.write(formatError(err) + "\n\n")
		return nil
	}
	p.running = set.Name
	p.output.write(ui.TitleStyle.Render("== "+set.Name+" ==") + "\n")
	return cmd
}

func (p *InfoPage) View() string {
	var b strings.Builder
	status := ui.DimStyle.Render("h  hardware and services    s  system properties")
	if p.running != "" {
		status = ui.AccentStyle.Render("Querying " + strings.ToLower(p.running) + "...")
	}
	b.WriteString(ui.Panel("Device info", status, p.width, 0, false))
	if !p.output.empty() {
		b.WriteString("\n")
		b.WriteString(ui.Panel("Results", p.output.vp.View(), p.width, 0, false))
	}
	return b.String()
}

func (p *InfoPage) Name() string { return "Info" }

func (p *InfoPage) ShortHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "hardware")),
		key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "system")),
		key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear")),
	}
}

func (p *InfoPage) SetSize(w, h int) {
	p.width = w
	p.height = h
	p.output.setSize(w-4, h-7)
}
