package app

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/buckleypaul/adbdeck/internal/device"
	"github.com/buckleypaul/adbdeck/internal/ui"
)

const sidebarWidth = 22 // 20 content + 2 border/padding

func renderDeviceBar(selected device.Record, hasSelection bool, snap device.Snapshot, serverRunning bool, width int, sidebarFocused bool) string {
	deviceDisplay := "(none)"
	if hasSelection {
		deviceDisplay = selected.Label
	}
	server := ui.SuccessBadge("adb server")
	if !serverRunning {
		server = ui.ErrorBadge("adb server stopped")
	}
	content := "Device: " + deviceDisplay + "  " + ui.DimStyle.Render(snap.Summary()) + "  " + server
	hint := ""
	if sidebarFocused {
		hint = ui.DimStyle.Render("  [d] change  [r] refresh")
	}
	return ui.StatusBarStyle.Width(width).Render(content + hint)
}

func renderSidebar(pages []PageID, active PageID, pageMap map[PageID]Page, height int, focused bool) string {
	var b strings.Builder
	var title string
	if focused {
		title = ui.BoldStyle.Render("adbdeck [FOCUSED]")
	} else {
		title = ui.TitleStyle.Render("adbdeck")
	}
	b.WriteString(title)
	b.WriteString("\n\n")

	for _, id := range pages {
		p := pageMap[id]
		if id == active {
			b.WriteString(ui.SidebarActiveStyle.Render("▸ " + p.Name()))
		} else {
			b.WriteString(ui.SidebarItemStyle.Render("  " + p.Name()))
		}
		b.WriteString("\n")
	}

	style := ui.SidebarStyle.Height(height)
	if focused {
		style = style.BorderForeground(ui.Primary)
	}
	return style.Render(b.String())
}

func renderStatusBar(pageHelp []key.Binding, width int, focus FocusArea) string {
	var parts []string

	if focus == FocusSidebar {
		parts = append(parts,
			ui.StatusKey("↑/↓", "navigate"),
			ui.StatusKey("enter", "select"),
			ui.StatusKey("d", "device"),
			ui.StatusKey("r", "refresh"),
		)
	} else {
		for _, kb := range pageHelp {
			if kb.Enabled() {
				parts = append(parts, ui.StatusKey(kb.Help().Key, kb.Help().Desc))
			}
		}
	}

	parts = append(parts,
		ui.StatusKey("tab", "focus"),
		ui.StatusKey("?", "help"),
		ui.StatusKey("q", "quit"),
	)

	line := strings.Join(parts, "  ")
	return ui.StatusBarStyle.Width(width).Render(line)
}

func renderHelp(pages []PageID, pageMap map[PageID]Page) string {
	var b strings.Builder
	b.WriteString(ui.Title("Keys"))
	b.WriteString("\n")
	global := []key.Binding{GlobalKeys.ToggleFocus, GlobalKeys.DevicePicker, GlobalKeys.Refresh, GlobalKeys.Help, GlobalKeys.Quit}
	for _, kb := range global {
		b.WriteString("  " + ui.BoldStyle.Render(padRight(kb.Help().Key, 8)) + kb.Help().Desc + "\n")
	}
	for _, id := range pages {
		p := pageMap[id]
		help := p.ShortHelp()
		if len(help) == 0 {
			continue
		}
		b.WriteString("\n" + ui.AccentStyle.Render(p.Name()) + "\n")
		for _, kb := range help {
			b.WriteString("  " + ui.BoldStyle.Render(padRight(kb.Help().Key, 8)) + kb.Help().Desc + "\n")
		}
	}
	return b.String()
}

func padRight(s string, n int) string {
	if len(s) >= n {
		return s + " "
	}
	return s + strings.Repeat(" ", n-len(s))
}

func renderLayout(deviceBar, sidebar, content, statusBar string) string {
	main := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, content)
	return lipgloss.JoinVertical(lipgloss.Left, deviceBar, main, statusBar)
}
