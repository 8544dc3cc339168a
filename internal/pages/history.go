package pages

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/buckleypaul/adbdeck/internal/app"
	"github.com/buckleypaul/adbdeck/internal/store"
	"github.com/buckleypaul/adbdeck/internal/ui"
)

type historyLoadedMsg struct {
	records []store.DispatchRecord
	err     error
}

// HistoryPage lists every dispatched command, newest first.
type HistoryPage struct {
	deck          app.Deck
	records       []store.DispatchRecord
	err           error
	vp            viewport.Model
	width, height int
}

func NewHistoryPage(deck app.Deck) *HistoryPage {
	return &HistoryPage{deck: deck, vp: viewport.New(0, 0)}
}

func (p *HistoryPage) Init() tea.Cmd { return p.load() }

func (p *HistoryPage) load() tea.Cmd {
	deck := p.deck
	return func() tea.Msg {
		records, err := deck.History()
		return historyLoadedMsg{records: records, err: err}
	}
}

func (p *HistoryPage) Update(msg tea.Msg) (app.Page, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		p.records, p.err = msg.records, msg.err
		p.render()
		return p, nil

	// Any finished command may have added a record.
	case app.OutcomeMsg, app.ScreenshotMsg:
		return p, p.load()

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			return p, p.load()
		case "x":
			if err := p.deck.ClearHistory(); err != nil {
				p.err = err
				p.render()
				return p, nil
			}
			return p, p.load()
		}
	}

	var cmd tea.Cmd
	p.vp, cmd = p.vp.Update(msg)
	return p, cmd
}

func (p *HistoryPage) render() {
	var b strings.Builder
	for _, r := range p.records {
		mark := ui.SuccessStyle.Render("✓")
		if r.Outcome != "success" {
			mark = ui.ErrorStyle.Render("✗")
		}
		b.WriteString(fmt.Sprintf("%s %s  %s\n",
			mark,
			ui.DimStyle.Render(r.Timestamp.Local().Format("Jan 02 15:04:05")),
			r.Description,
		))
		detail := fmt.Sprintf("    %s  (%s, %s)", r.Command, r.Outcome, r.Duration)
		if r.Error != "" {
			detail += "  " + r.Error
		}
		b.WriteString(ui.DimStyle.Render(detail) + "\n")
	}
	p.vp.SetContent(strings.TrimRight(b.String(), "\n"))
}

func (p *HistoryPage) View() string {
	body := p.vp.View()
	switch {
	case p.err != nil:
		body = ui.ErrorStyle.Render("Could not read history: " + p.err.Error())
	case len(p.records) == 0:
		body = ui.DimStyle.Render("No commands yet.")
	}
	title := fmt.Sprintf("History (%d)", len(p.records))
	return ui.Panel(title, body, p.width, 0, false)
}

func (p *HistoryPage) Name() string { return "History" }

func (p *HistoryPage) ShortHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "clear")),
	}
}

func (p *HistoryPage) SetSize(w, h int) {
	p.width = w
	p.height = h
	p.vp.Width = w - 4
	p.vp.Height = max(h-4, 3)
}
