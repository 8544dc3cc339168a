package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Panel renders a rounded-border box with title embedded in the top border.
// width is the total outer width. height=0 means auto-height.
// Border color is Primary when focused, Subtle when not.
func Panel(title, content string, width, height int, focused bool) string {
	borderColor := Subtle
	if focused {
		borderColor = Primary
	}

	colorStyle := lipgloss.NewStyle().Foreground(borderColor)

	// ╭─ TITLE ─...─╮ spans width cells; titles may hold wide runes.
	dashCount := width - lipgloss.Width(title) - 5
	if dashCount < 0 {
		dashCount = 0
	}

	topBorder := colorStyle.Render("╭─ ") + title + colorStyle.Render(" "+strings.Repeat("─", dashCount)+"╮")

	innerWidth := width - 4
	if innerWidth < 0 {
		innerWidth = 0
	}

	bodyStyle := lipgloss.NewStyle().
		Width(innerWidth).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderLeft(true).
		BorderRight(true).
		BorderBottom(true).
		BorderTop(false).
		BorderForeground(borderColor).
		PaddingLeft(1).
		PaddingRight(1)

	if height > 0 {
		bodyStyle = bodyStyle.Height(height - 2)
	}

	return topBorder + "\n" + bodyStyle.Render(content)
}

// Title renders a styled page title.
func Title(text string) string {
	return TitleStyle.Render(text)
}

// StatusKey renders a key hint for the status bar.
func StatusKey(k, desc string) string {
	return StatusBarKeyStyle.Render(k) + StatusBarStyle.Render(":"+desc)
}

// Badge renders a small colored badge.
func Badge(text string, color lipgloss.Color) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("230")).
		Background(color).
		Padding(0, 1).
		Render(text)
}

// SuccessBadge renders a green badge.
func SuccessBadge(text string) string {
	return Badge(text, Success)
}

// ErrorBadge renders a red badge.
func ErrorBadge(text string) string {
	return Badge(text, Error)
}

// WarningBadge renders an amber badge.
func WarningBadge(text string) string {
	return Badge(text, Warning)
}

// StatusBadge colors a device status the way adb reports it: "device" and
// "fastboot" are usable, "unauthorized" needs the user, anything else is
// shown as a warning.
func StatusBadge(status string) string {
	switch status {
	case "device", "fastboot":
		return SuccessBadge(status)
	case "unauthorized":
		return ErrorBadge(status)
	default:
		return WarningBadge(status)
	}
}

// LogLine colors a logcat line by its priority letter. Both the brief
// ("E/Tag: msg") and threadtime ("01-02 03:04:05.678 1 2 E Tag: msg")
// formats are recognised.
func LogLine(line string) string {
	if p, ok := logPriority(line); ok {
		if st, ok := LogPriorityStyles[p]; ok {
			return st.Render(line)
		}
	}
	return line
}

func logPriority(line string) (byte, bool) {
	if len(line) > 1 && line[1] == '/' {
		return line[0], true
	}
	fields := strings.Fields(line)
	if len(fields) >= 5 && len(fields[4]) == 1 {
		return fields[4][0], true
	}
	return 0, false
}
