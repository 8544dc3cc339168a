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

// adbAction is one entry in the action list. Actions with prompts collect
// one answer per prompt before build is called.
type adbAction struct {
	name    string
	desc    string
	prompts []string
	build   func(answers []string) dispatch.Request

	// screenshot runs the three-step capture sequence instead of build.
	screenshot bool
}

var adbActions = []adbAction{
	{name: "reboot", desc: "Reboot device", build: func([]string) dispatch.Request { return dispatch.Reboot("") }},
	{name: "recovery", desc: "Reboot to recovery", build: func([]string) dispatch.Request { return dispatch.Reboot("recovery") }},
	{name: "bootloader", desc: "Reboot to bootloader", build: func([]string) dispatch.Request { return dispatch.Reboot("bootloader") }},
	{name: "edl", desc: "Reboot to EDL (may be unsupported)", build: func([]string) dispatch.Request { return dispatch.Reboot("edl") }},
	{
		name: "install", desc: "Install APK (replace existing)",
		prompts: []string{"APK path"},
		build:   func(a []string) dispatch.Request { return dispatch.Install(a[0]) },
	},
	{
		name: "push", desc: "Push file to device",
		prompts: []string{"Local file", "Device path (e.g. /sdcard/)"},
		build:   func(a []string) dispatch.Request { return dispatch.Push(a[0], a[1]) },
	},
	{
		name: "pull", desc: "Pull file from device",
		prompts: []string{"Device path", "Local directory"},
		build:   func(a []string) dispatch.Request { return dispatch.Pull(a[0], a[1]) },
	},
	{name: "screenshot", desc: "Capture screen to the screenshot folder", screenshot: true},
	{name: "scrcpy", desc: "Start scrcpy screen mirror", build: func([]string) dispatch.Request { return dispatch.Scrcpy() }},
}

type ADBPage struct {
	deck          app.Deck
	cursor        int
	requests      tagger
	prompting     bool
	answers       []string
	input         textinput.Model
	output        outputLog
	width, height int
}

func NewADBPage(deck app.Deck) *ADBPage {
	ti := textinput.New()
	ti.CharLimit = 512
	return &ADBPage{
		deck:     deck,
		requests: tagger{prefix: "adb"},
		input:    ti,
		output:   newOutputLog(),
	}
}

func (p *ADBPage) Init() tea.Cmd { return nil }

func (p *ADBPage) Update(msg tea.Msg) (app.Page, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if p.prompting {
			return p.updatePrompt(msg)
		}
		if p.requests.busy() {
			var cmd tea.Cmd
			p.output.vp, cmd = p.output.vp.Update(msg)
			return p, cmd
		}

		switch msg.String() {
		case "down":
			if p.cursor < len(adbActions)-1 {
				p.cursor++
			}
		case "up":
			if p.cursor > 0 {
				p.cursor--
			}
		case "enter":
			action := adbActions[p.cursor]
			if len(action.prompts) > 0 {
				p.answers = nil
				return p, p.startPrompt()
			}
			return p, p.run(action, nil)
		case "c":
			p.output.reset()
		}

	case app.OutcomeMsg:
		if !p.requests.take(msg.Tag) {
			return p, nil
		}
		p.output.write(formatOutcome(msg.Outcome) + "\n")
		return p, nil

	case app.ScreenshotMsg:
		if !p.requests.take(msg.Tag) {
			return p, nil
		}
		p.output.write(formatOutcome(msg.Outcome))
		if msg.Outcome.OK() {
			p.output.write(ui.SuccessStyle.Render("Saved "+msg.Path) + "\n")
		}
		p.output.write("\n")
		return p, nil
	}

	var cmd tea.Cmd
	p.output.vp, cmd = p.output.vp.Update(msg)
	return p, cmd
}

func (p *ADBPage) updatePrompt(msg tea.KeyMsg) (app.Page, tea.Cmd) {
	switch msg.String() {
	case "esc":
		p.prompting = false
		p.input.Blur()
		return p, nil
	case "enter":
		val := strings.TrimSpace(p.input.Value())
		if val == "" {
			return p, nil
		}
		p.answers = append(p.answers, val)
		action := adbActions[p.cursor]
		if len(p.answers) < len(action.prompts) {
			return p, p.startPrompt()
		}
		p.prompting = false
		p.input.Blur()
		return p, p.run(action, p.answers)
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

func (p *ADBPage) startPrompt() tea.Cmd {
	action := adbActions[p.cursor]
	p.prompting = true
	p.input.SetValue("")
	p.input.Placeholder = action.prompts[len(p.answers)]
	return p.input.Focus()
}

func (p *ADBPage) run(action adbAction, answers []string) tea.Cmd {
	tag := p.requests.next()

	var cmd tea.Cmd
	var err error
	if action.screenshot {
		cmd, err = app.ScreenshotCmd(p.deck, tag)
		if err == nil {
			p.output.write(commandHeader("screencap → pull → rm"))
		}
	} else {
		req := action.build(answers)
		cmd, err = app.DispatchCmd(p.deck, tag, req)
		if err == nil {
			p.output.write(commandHeader(req.Text()))
		}
	}
	if err != nil {
		p.requests.active = ""
		p.output.write(formatError(err) + "\n\n")
		return nil
	}
	return cmd
}

func (p *ADBPage) View() string {
	var b strings.Builder

	var list strings.Builder
	for i, a := range adbActions {
		cursor := "  "
		if i == p.cursor {
			cursor = ui.BoldStyle.Render("> ")
		}
		list.WriteString(fmt.Sprintf("%s%-11s %s\n", cursor, a.name, ui.DimStyle.Render(a.desc)))
	}
	if p.prompting {
		action := adbActions[p.cursor]
		list.WriteString(fmt.Sprintf("\n%s (%d/%d):\n", action.prompts[len(p.answers)], len(p.answers)+1, len(action.prompts)))
		list.WriteString(p.input.View())
	}
	if p.requests.busy() {
		list.WriteString("\n" + ui.AccentStyle.Render("Running..."))
	}
	b.WriteString(ui.Panel("ADB", strings.TrimRight(list.String(), "\n"), p.width, 0, p.prompting))

	if !p.output.empty() {
		b.WriteString("\n")
		b.WriteString(ui.Panel("Output", p.output.vp.View(), p.width, 0, false))
	}
	return b.String()
}

func (p *ADBPage) Name() string { return "ADB" }

func (p *ADBPage) ShortHelp() []key.Binding {
	if p.prompting {
		return []key.Binding{
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "next")),
			key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		}
	}
	return []key.Binding{
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "run")),
		key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear")),
	}
}

func (p *ADBPage) InputCaptured() bool {
	return p.prompting
}

func (p *ADBPage) SetSize(w, h int) {
	p.width = w
	p.height = h
	p.output.setSize(w-4, h-len(adbActions)-8)
}
