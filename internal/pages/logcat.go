package pages

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/buckleypaul/adbdeck/internal/app"
	"github.com/buckleypaul/adbdeck/internal/logcat"
	"github.com/buckleypaul/adbdeck/internal/ui"
)

const (
	maxLogcatLines  = 5000
	logcatBatchSize = 256
	logcatQueueSize = 1024
)

// LogcatLinesMsg delivers a batch of lines from one streaming session.
// Exit is set when the stream ended on its own.
type LogcatLinesMsg struct {
	Session int
	Lines   []string
	Exit    *logcat.Exit
}

// logcatFeed connects the streamer callbacks to the page. Lines are
// dropped rather than blocking the reader when the UI falls behind.
type logcatFeed struct {
	id      int
	lines   chan string
	exit    chan logcat.Exit
	done    chan struct{}
	dropped atomic.Int64
}

func newLogcatFeed(id int) *logcatFeed {
	return &logcatFeed{
		id:    id,
		lines: make(chan string, logcatQueueSize),
		exit:  make(chan logcat.Exit, 1),
		done:  make(chan struct{}),
	}
}

func (f *logcatFeed) onLine(line string) {
	select {
	case f.lines <- line:
	default:
		f.dropped.Add(1)
	}
}

func (f *logcatFeed) onExit(e logcat.Exit) {
	select {
	case f.exit <- e:
	default:
	}
}

// wait blocks for the next line or the exit, then drains whatever else is
// queued into the same batch.
func (f *logcatFeed) wait() tea.Cmd {
	return func() tea.Msg {
		var batch []string
		select {
		case <-f.done:
			return nil
		case l := <-f.lines:
			batch = append(batch, l)
		case e := <-f.exit:
			batch = f.drain(batch)
			return LogcatLinesMsg{Session: f.id, Lines: batch, Exit: &e}
		}
		return LogcatLinesMsg{Session: f.id, Lines: f.drain(batch)}
	}
}

func (f *logcatFeed) drain(batch []string) []string {
	for len(batch) < logcatBatchSize {
		select {
		case l := <-f.lines:
			batch = append(batch, l)
		default:
			return batch
		}
	}
	return batch
}

func (f *logcatFeed) stop() {
	close(f.done)
}

// LogcatPage streams the selected device's log with priority colouring
// and an optional substring filter.
type LogcatPage struct {
	deck      app.Deck
	feed      *logcatFeed
	sessions  int
	lines     []string
	filter    string
	filtering bool
	input     textinput.Model
	vp        viewport.Model
	message   string

	width, height int
}

func NewLogcatPage(deck app.Deck) *LogcatPage {
	ti := textinput.New()
	ti.Placeholder = "filter text"
	ti.Prompt = "/ "
	return &LogcatPage{
		deck:  deck,
		input: ti,
		vp:    viewport.New(0, 0),
	}
}

func (p *LogcatPage) Init() tea.Cmd { return nil }

func (p *LogcatPage) Update(msg tea.Msg) (app.Page, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if p.filtering {
			return p.updateFilter(msg)
		}
		switch msg.String() {
		case "s":
			if p.feed != nil {
				p.stop()
				p.message = "Stopped."
				return p, nil
			}
			return p, p.start()
		case "c":
			p.lines = nil
			p.render()
			return p, nil
		case "/":
			p.filtering = true
			p.input.SetValue(p.filter)
			return p, p.input.Focus()
		case "esc":
			if p.filter != "" {
				p.filter = ""
				p.render()
			}
			return p, nil
		}

	case LogcatLinesMsg:
		if p.feed == nil || msg.Session != p.feed.id {
			return p, nil
		}
		p.append(msg.Lines)
		if msg.Exit != nil {
			p.feed = nil
			p.message = describeExit(*msg.Exit)
			return p, nil
		}
		return p, p.feed.wait()

	case app.DeviceSelectedMsg:
		// The stream belongs to one device; switching devices ends it.
		if p.feed != nil && (!msg.OK || msg.Record.Serial != p.deck.LogcatSerial()) {
			p.stop()
			p.message = "Stopped: selected device changed."
		}
		return p, nil
	}

	var cmd tea.Cmd
	p.vp, cmd = p.vp.Update(msg)
	return p, cmd
}

func (p *LogcatPage) updateFilter(msg tea.KeyMsg) (app.Page, tea.Cmd) {
	switch msg.String() {
	case "enter":
		p.filter = p.input.Value()
		p.filtering = false
		p.input.Blur()
		p.render()
		return p, nil
	case "esc":
		p.filtering = false
		p.input.Blur()
		return p, nil
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

func (p *LogcatPage) start() tea.Cmd {
	p.sessions++
	feed := newLogcatFeed(p.sessions)
	if err := p.deck.StartLogcat(feed.onLine, feed.onExit); err != nil {
		p.message = formatError(err)
		return nil
	}
	p.feed = feed
	p.message = ""
	return feed.wait()
}

func (p *LogcatPage) stop() {
	p.deck.StopLogcat()
	if p.feed != nil {
		p.feed.stop()
		p.feed = nil
	}
}

func (p *LogcatPage) append(lines []string) {
	p.lines = append(p.lines, lines...)
	if over := len(p.lines) - maxLogcatLines; over > 0 {
		p.lines = append(p.lines[:0:0], p.lines[over:]...)
	}
	p.render()
}

func (p *LogcatPage) visible() []string {
	if p.filter == "" {
		return p.lines
	}
	needle := strings.ToLower(p.filter)
	var out []string
	for _, l := range p.lines {
		if strings.Contains(strings.ToLower(l), needle) {
			out = append(out, l)
		}
	}
	return out
}

func (p *LogcatPage) render() {
	follow := p.vp.AtBottom()
	lines := p.visible()
	styled := make([]string, len(lines))
	for i, l := range lines {
		styled[i] = ui.LogLine(l)
	}
	p.vp.SetContent(strings.Join(styled, "\n"))
	if follow {
		p.vp.GotoBottom()
	}
}

func describeExit(e logcat.Exit) string {
	msg := fmt.Sprintf("logcat for %s ended after %d lines", e.Serial, e.Lines)
	if e.Err != nil {
		return ui.ErrorStyle.Render(msg + ": " + e.Err.Error())
	}
	return ui.WarningStyle.Render(msg + ".")
}

func (p *LogcatPage) View() string {
	var status strings.Builder
	if p.feed != nil {
		status.WriteString(ui.SuccessBadge("streaming"))
		if n := p.feed.dropped.Load(); n > 0 {
			status.WriteString(ui.WarningStyle.Render(fmt.Sprintf("  %d lines dropped", n)))
		}
	} else {
		status.WriteString(ui.DimStyle.Render("stopped"))
	}
	status.WriteString(ui.DimStyle.Render(fmt.Sprintf("  %d lines", len(p.lines))))
	if p.filter != "" {
		status.WriteString("  " + ui.AccentStyle.Render("filter: "+p.filter))
	}
	if p.filtering {
		status.WriteString("\n" + p.input.View())
	}
	if p.message != "" {
		status.WriteString("\n" + p.message)
	}

	body := p.vp.View()
	if len(p.lines) == 0 {
		body = ui.DimStyle.Render("Press s to start streaming logcat from the selected device.")
	}

	var b strings.Builder
	b.WriteString(ui.Panel("Logcat", status.String(), p.width, 0, p.filtering))
	b.WriteString("\n")
	b.WriteString(ui.Panel("Log", body, p.width, 0, false))
	return b.String()
}

func (p *LogcatPage) Name() string { return "Logcat" }

func (p *LogcatPage) ShortHelp() []key.Binding {
	if p.filtering {
		return []key.Binding{
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "apply")),
			key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		}
	}
	toggle := "start"
	if p.feed != nil {
		toggle = "stop"
	}
	return []key.Binding{
		key.NewBinding(key.WithKeys("s"), key.WithHelp("s", toggle)),
		key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear")),
	}
}

func (p *LogcatPage) InputCaptured() bool {
	return p.filtering
}

func (p *LogcatPage) SetSize(w, h int) {
	p.width = w
	p.height = h
	p.vp.Width = w - 4
	p.vp.Height = max(h-9, 3)
	p.render()
}
