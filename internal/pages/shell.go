package pages

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/buckleypaul/adbdeck/internal/app"
	"github.com/buckleypaul/adbdeck/internal/dispatch"
	"github.com/buckleypaul/adbdeck/internal/ui"
)

const maxShellHistory = 50

// ShellPage sends one command line at a time to the device shell.
type ShellPage struct {
	deck          app.Deck
	input         textinput.Model
	requests      tagger
	output        outputLog
	history       []string
	histPos       int
	width, height int
}

func NewShellPage(deck app.Deck) *ShellPage {
	ti := textinput.New()
	ti.Placeholder = "getprop ro.product.model"
	ti.Prompt = "$ "
	ti.CharLimit = 1024
	ti.Focus()
	return &ShellPage{
		deck:     deck,
		input:    ti,
		requests: tagger{prefix: "shell"},
		output:   newOutputLog(),
	}
}

func (p *ShellPage) Init() tea.Cmd { return nil }

func (p *ShellPage) Update(msg tea.Msg) (app.Page, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if !p.input.Focused() {
			if msg.String() == "enter" || msg.String() == "i" {
				return p, p.input.Focus()
			}
			var cmd tea.Cmd
			p.output.vp, cmd = p.output.vp.Update(msg)
			return p, cmd
		}
		switch msg.String() {
		case "esc":
			p.input.Blur()
			return p, nil
		case "enter":
			line := strings.TrimSpace(p.input.Value())
			if line == "" || p.requests.busy() {
				return p, nil
			}
			p.remember(line)
			p.input.SetValue("")
			return p, p.run(line)
		case "up":
			if p.histPos > 0 {
				p.histPos--
				p.input.SetValue(p.history[p.histPos])
				p.input.CursorEnd()
			}
			return p, nil
		case "down":
			if p.histPos < len(p.history)-1 {
				p.histPos++
				p.input.SetValue(p.history[p.histPos])
				p.input.CursorEnd()
			} else {
				p.histPos = len(p.history)
				p.input.SetValue("")
			}
			return p, nil
		case "ctrl+l":
			p.output.reset()
			return p, nil
		case "pgup", "pgdown":
			var cmd tea.Cmd
			p.output.vp, cmd = p.output.vp.Update(msg)
			return p, cmd
		}
		var cmd tea.Cmd
		p.input, cmd = p.input.Update(msg)
		return p, cmd

	case app.OutcomeMsg:
		if !p.requests.take(msg.Tag) {
			return p, nil
		}
		p.output.write(formatOutcome(msg.Outcome) + "\n")
		return p, nil
	}
	return p, nil
}

func (p *ShellPage) remember(line string) {
	if n := len(p.history); n == 0 || p.history[n-1] != line {
		p.history = append(p.history, line)
		if len(p.history) > maxShellHistory {
			p.history = p.history[1:]
		}
	}
	p.histPos = len(p.history)
}

func (p *ShellPage) run(line string) tea.Cmd {
	req := dispatch.Shell(line)
	tag := p.requests.next()
	cmd, err := app.DispatchCmd(p.deck, tag, req)
	if err != nil {
		p.requests.active = ""
		p.output.write(commandHeader(line) + formatError(err) + "\n\n")
		return nil
	}
	p.output.write(commandHeader(line))
	return cmd
}

func (p *ShellPage) View() string {
	var b strings.Builder
	body := p.input.View()
	if p.requests.busy() {
		body += "\n" + ui.AccentStyle.Render("Running...")
	}
	b.WriteString(ui.Panel("Shell", body, p.width, 0, p.input.Focused()))
	b.WriteString("\n")
	out := p.output.vp.View()
	if p.output.empty() {
		out = ui.DimStyle.Render("Output appears here. Commands run through adb shell on the selected device.")
	}
	b.WriteString(ui.Panel("Output", out, p.width, 0, false))
	return b.String()
}

func (p *ShellPage) Name() string { return "Shell" }

func (p *ShellPage) ShortHelp() []key.Binding {
	if !p.input.Focused() {
		return []key.Binding{
			key.NewBinding(key.WithKeys("enter", "i"), key.WithHelp("enter", "type command")),
		}
	}
	return []key.Binding{
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "run")),
		key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑/↓", "history")),
		key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "clear")),
		key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "leave prompt")),
	}
}

func (p *ShellPage) InputCaptured() bool { return p.input.Focused() }

func (p *ShellPage) SetSize(w, h int) {
	p.width = w
	p.height = h
	p.input.Width = w - 8
	p.output.setSize(w-4, h-8)
}
