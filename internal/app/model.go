package app

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"github.com/buckleypaul/adbdeck/internal/config"
	"github.com/buckleypaul/adbdeck/internal/device"
	"github.com/buckleypaul/adbdeck/internal/ui"
)

type FocusArea int

const (
	FocusSidebar FocusArea = iota
	FocusContent
)

// rebootRefreshMsg wraps a snapshot published by the post-reboot timer.
type rebootRefreshMsg struct {
	snap device.Snapshot
}

type Model struct {
	pages      map[PageID]Page
	activePage PageID
	focus      FocusArea
	width      int
	height     int
	showHelp   bool
	picker     *Picker

	deck      Deck
	cfg       *config.Config
	cfgDir    string
	refreshes chan device.Snapshot

	snapshot     device.Snapshot
	selected     device.Record
	hasSelection bool
}

func New(pages map[PageID]Page, deck Deck, cfg *config.Config, cfgDir string) Model {
	refreshes := make(chan device.Snapshot, 4)
	deck.OnRefresh(func(s device.Snapshot) {
		select {
		case refreshes <- s:
		default:
		}
	})
	return Model{
		pages:     pages,
		deck:      deck,
		cfg:       cfg,
		cfgDir:    cfgDir,
		refreshes: refreshes,
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{RefreshCmd(m.deck), m.waitForRebootRefresh()}
	for _, p := range m.pages {
		if cmd := p.Init(); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return tea.Batch(cmds...)
}

func (m Model) waitForRebootRefresh() tea.Cmd {
	ch := m.refreshes
	return func() tea.Msg {
		return rebootRefreshMsg{snap: <-ch}
	}
}

func (m Model) contentSize() (int, int) {
	return m.width - sidebarWidth, m.height - 2 - 1 // status bar + device bar
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		w, h := m.contentSize()
		for _, p := range m.pages {
			p.SetSize(w, h)
		}
		return m, nil

	case rebootRefreshMsg:
		next, cmd := m.Update(SnapshotMsg{Snapshot: msg.snap})
		return next, tea.Batch(cmd, m.waitForRebootRefresh())

	case SnapshotMsg:
		m.snapshot = msg.Snapshot
		cmds := []tea.Cmd{m.broadcast(msg)}
		if m.picker != nil {
			m.picker.SetItems(DeviceItems(m.snapshot, m.selected.Label))
		}
		if cmd := m.syncSelection(); cmd != nil {
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case PickerSelectedMsg:
		m.picker = nil
		if _, err := m.deck.SelectByLabel(msg.Value); err != nil {
			log.Warn().Err(err).Msg("select device")
			return m, RefreshCmd(m.deck)
		}
		return m, m.syncSelection()

	case PickerClosedMsg:
		m.picker = nil
		return m, nil

	case tea.KeyMsg:
		if m.picker != nil {
			var cmd tea.Cmd
			m.picker, cmd = m.picker.Update(msg)
			return m, cmd
		}

		// When a page has an active text input, forward all keys
		// directly to the page; only ctrl+c still quits.
		if m.focus == FocusContent {
			if ic, ok := m.pages[m.activePage].(InputCapturer); ok && ic.InputCaptured() {
				if msg.String() == "ctrl+c" {
					return m, tea.Quit
				}
				return m, m.updateActive(msg)
			}
		}

		switch {
		case key.Matches(msg, GlobalKeys.Quit):
			return m, tea.Quit
		case key.Matches(msg, GlobalKeys.Help):
			m.showHelp = !m.showHelp
			return m, nil
		case key.Matches(msg, GlobalKeys.ToggleFocus):
			if m.focus == FocusSidebar {
				m.focus = FocusContent
				return m, nil
			}
			m.focus = FocusSidebar
			return m, nil
		}

		if m.focus == FocusSidebar {
			switch {
			case key.Matches(msg, GlobalKeys.DevicePicker):
				m.picker = NewPicker("Select Device", "devices")
				m.picker.SetSize(m.contentSize())
				m.picker.SetItems(DeviceItems(m.snapshot, m.selected.Label))
				return m, RefreshCmd(m.deck)
			case key.Matches(msg, GlobalKeys.Refresh):
				return m, RefreshCmd(m.deck)
			}

			switch msg.String() {
			case "up":
				m.prevPage()
			case "down":
				m.nextPage()
			case "enter", "right":
				m.focus = FocusContent
			}
			return m, nil
		}

		if msg.String() == "left" {
			m.focus = FocusSidebar
			return m, nil
		}
		return m, m.updateActive(msg)
	}

	// Non-key messages (command results, etc.) go to every page so
	// responses reach the page that initiated the command.
	return m, m.broadcast(msg)
}

func (m Model) updateActive(msg tea.Msg) tea.Cmd {
	page := m.pages[m.activePage]
	newPage, cmd := page.Update(msg)
	m.pages[m.activePage] = newPage
	return cmd
}

func (m Model) broadcast(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	for id, page := range m.pages {
		newPage, cmd := page.Update(msg)
		m.pages[id] = newPage
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return tea.Batch(cmds...)
}

// syncSelection reads the selection back from the deck, remembers it in
// the config and tells the pages when it changed.
func (m *Model) syncSelection() tea.Cmd {
	sel, ok := m.deck.Selected()
	if ok == m.hasSelection && sel == m.selected {
		return nil
	}
	m.selected, m.hasSelection = sel, ok

	if ok && m.cfg != nil && m.cfg.LastDevice != sel.Label {
		m.cfg.LastDevice = sel.Label
		if err := config.Save(*m.cfg, m.cfgDir, false); err != nil {
			log.Warn().Err(err).Msg("remember selected device")
		}
	}
	return m.broadcast(DeviceSelectedMsg{Record: sel, OK: ok})
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	contentWidth, contentHeight := m.contentSize()
	page := m.pages[m.activePage]

	body := page.View()
	if m.showHelp {
		body = renderHelp(PageOrder, m.pages)
	}
	deviceBar := renderDeviceBar(m.selected, m.hasSelection, m.snapshot, m.deck.ServerRunning(), m.width, m.focus == FocusSidebar)
	sidebar := renderSidebar(PageOrder, m.activePage, m.pages, contentHeight, m.focus == FocusSidebar)
	content := ui.ContentStyle.
		Width(contentWidth).
		Height(contentHeight).
		Render(body)

	if m.picker != nil {
		m.picker.SetSize(contentWidth, contentHeight)
		content = lipgloss.Place(
			contentWidth, contentHeight,
			lipgloss.Center, lipgloss.Center,
			m.picker.View(),
		)
	}

	statusBar := renderStatusBar(page.ShortHelp(), m.width, m.focus)

	return renderLayout(deviceBar, sidebar, content, statusBar)
}

func (m *Model) nextPage() {
	for i, id := range PageOrder {
		if id == m.activePage {
			m.activePage = PageOrder[(i+1)%len(PageOrder)]
			return
		}
	}
}

func (m *Model) prevPage() {
	for i, id := range PageOrder {
		if id == m.activePage {
			m.activePage = PageOrder[(i-1+len(PageOrder))%len(PageOrder)]
			return
		}
	}
}
