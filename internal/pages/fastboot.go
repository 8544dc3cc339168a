package pages

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/buckleypaul/adbdeck/internal/app"
	"github.com/buckleypaul/adbdeck/internal/dispatch"
	"github.com/buckleypaul/adbdeck/internal/ui"
)

type fastbootAction struct {
	name string
	req  dispatch.Request
}

var fastbootActions = []fastbootAction{
	{"reboot", dispatch.FastbootReboot("")},
	{"bootloader", dispatch.FastbootReboot("bootloader")},
	{"unlock", dispatch.FlashingUnlock()},
	{"lock", dispatch.FlashingLock()},
}

// FastbootPage runs bootloader commands. Lock and unlock ask for the
// confirmation phrase first.
type FastbootPage struct {
	deck          app.Deck
	cursor        int
	requests      tagger
	confirming    bool
	input         textinput.Model
	output        outputLog
	width, height int
}

func NewFastbootPage(deck app.Deck) *FastbootPage {
	ti := textinput.New()
	ti.CharLimit = 128
	return &FastbootPage{
		deck:     deck,
		requests: tagger{prefix: "fastboot"},
		input:    ti,
		output:   newOutputLog(),
	}
}

func (p *FastbootPage) Init() tea.Cmd { return nil }

func (p *FastbootPage) Update(msg tea.Msg) (app.Page, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if p.confirming {
			return p.updateConfirm(msg)
		}
		if p.requests.busy() {
			var cmd tea.Cmd
			p.output.vp, cmd = p.output.vp.Update(msg)
			return p, cmd
		}

		switch msg.String() {
		case "down":
			if p.cursor < len(fastbootActions)-1 {
				p.cursor++
			}
		case "up":
			if p.cursor > 0 {
				p.cursor--
			}
		case "enter":
			req := fastbootActions[p.cursor].req
			if req.Confirm {
				p.confirming = true
				p.input.SetValue("")
				p.input.Placeholder = p.deck.ConfirmPhrase()
				return p, p.input.Focus()
			}
			return p, p.dispatch(req)
		case "c":
			p.output.reset()
		}

	case app.OutcomeMsg:
		if !p.requests.take(msg.Tag) {
			return p, nil
		}
		p.output.write(formatOutcome(msg.Outcome) + "\n")
		return p, nil
	}

	var cmd tea.Cmd
	p.output.vp, cmd = p.output.vp.Update(msg)
	return p, cmd
}

func (p *FastbootPage) updateConfirm(msg tea.KeyMsg) (app.Page, tea.Cmd) {
	switch msg.String() {
	case "esc":
		p.confirming = false
		p.input.Blur()
		p.output.write(ui.DimStyle.Render("Cancelled.") + "\n\n")
		return p, nil
	case "enter":
		p.confirming = false
		p.input.Blur()
		req := fastbootActions[p.cursor].req
		tag := p.requests.next()
		cmd, err := app.ConfirmedCmd(p.deck, tag, req, p.input.Value())
		if err != nil {
			p.requests.active = ""
			p.output.write(formatError(err) + "\n\n")
			return p, nil
		}
		if cmd == nil {
			p.requests.active = ""
			p.output.write(ui.DimStyle.Render("Cancelled.") + "\n\n")
			return p, nil
		}
		p.output.write(commandHeader(req.Text()))
		return p, cmd
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

func (p *FastbootPage) dispatch(req dispatch.Request) tea.Cmd {
	tag := p.requests.next()
	cmd, err := app.DispatchCmd(p.deck, tag, req)
	if err != nil {
		p.requests.active = ""
		p.output.write(formatError(err) + "\n\n")
		return nil
	}
	p.output.write(commandHeader(req.Text()))
	return cmd
}

func (p *FastbootPage) View() string {
	var list strings.Builder
	for i, a := range fastbootActions {
		cursor := "  "
		if i == p.cursor {
			cursor = ui.BoldStyle.Render("> ")
		}
		desc := ui.DimStyle.Render(a.req.Description)
		if a.req.Confirm {
			desc = ui.WarningStyle.Render(a.req.Description)
		}
		list.WriteString(fmt.Sprintf("%s%-11s %s\n", cursor, a.name, desc))
	}
	if p.confirming {
		list.WriteString("\n" + ui.WarningStyle.Render("This is destructive. Type the phrase below exactly to continue:") + "\n")
		list.WriteString(ui.BoldStyle.Render(p.deck.ConfirmPhrase()) + "\n")
		list.WriteString(p.input.View())
	}
	if p.requests.busy() {
		list.WriteString("\n" + ui.AccentStyle.Render("Running..."))
	}

	var b strings.Builder
	b.WriteString(ui.Panel("Fastboot", strings.TrimRight(list.String(), "\n"), p.width, 0, p.confirming))
	if !p.output.empty() {
		b.WriteString("\n")
		b.WriteString(ui.Panel("Output", p.output.vp.View(), p.width, 0, false))
	}
	return b.String()
}

func (p *FastbootPage) Name() string { return "Fastboot" }

func (p *FastbootPage) ShortHelp() []key.Binding {
	if p.confirming {
		return []key.Binding{
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "confirm")),
			key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		}
	}
	return []key.Binding{
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "run")),
		key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear")),
	}
}

func (p *FastbootPage) InputCaptured() bool {
	return p.confirming
}

func (p *FastbootPage) SetSize(w, h int) {
	p.width = w
	p.height = h
	p.output.setSize(w-4, h-len(fastbootActions)-12)
}
