package ui

import "github.com/charmbracelet/lipgloss"

var (
	Primary   = lipgloss.Color("71")  // Android green
	Secondary = lipgloss.Color("86")  // Cyan
	Accent    = lipgloss.Color("214") // Amber
	Success   = lipgloss.Color("78")
	Warning   = lipgloss.Color("214")
	Error     = lipgloss.Color("196")
	Subtle    = lipgloss.Color("241")
	Surface   = lipgloss.Color("236")
	Text      = lipgloss.Color("252")
	TextDim   = lipgloss.Color("245")

	SidebarStyle = lipgloss.NewStyle().
			Width(20).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderRight(true).
			BorderTop(false).
			BorderBottom(false).
			BorderLeft(false).
			BorderForeground(Surface).
			Padding(1, 1)

	SidebarItemStyle = lipgloss.NewStyle().
				Foreground(TextDim).
				PaddingLeft(1)

	SidebarActiveStyle = lipgloss.NewStyle().
				Foreground(Primary).
				Bold(true).
				PaddingLeft(1)

	ContentStyle = lipgloss.NewStyle().
			Padding(1, 2)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(TextDim).
			Background(Surface).
			Padding(0, 1)

	StatusBarKeyStyle = lipgloss.NewStyle().
				Foreground(Text).
				Background(Surface).
				Bold(true)

	TitleStyle = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true).
			MarginBottom(1)

	BoldStyle    = lipgloss.NewStyle().Bold(true)
	DimStyle     = lipgloss.NewStyle().Foreground(TextDim)
	AccentStyle  = lipgloss.NewStyle().Foreground(Accent)
	SuccessStyle = lipgloss.NewStyle().Foreground(Success)
	WarningStyle = lipgloss.NewStyle().Foreground(Warning)
	ErrorStyle   = lipgloss.NewStyle().Foreground(Error).Bold(true)

	// Logcat priorities, keyed by the letter logcat prints.
	LogPriorityStyles = map[byte]lipgloss.Style{
		'V': lipgloss.NewStyle().Foreground(Subtle),
		'D': lipgloss.NewStyle().Foreground(Secondary),
		'I': lipgloss.NewStyle().Foreground(Text),
		'W': lipgloss.NewStyle().Foreground(Warning),
		'E': lipgloss.NewStyle().Foreground(Error),
		'F': lipgloss.NewStyle().Foreground(Error).Bold(true),
	}
)
