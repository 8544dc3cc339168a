package app

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/buckleypaul/adbdeck/internal/device"
)

// PageID identifies each page in the application.
type PageID int

const (
	DevicesPage PageID = iota
	ADBPage
	FastbootPage
	ShellPage
	InfoPage
	LogcatPage
	HistoryPage
	SettingsPage
)

var PageOrder = []PageID{
	DevicesPage,
	ADBPage,
	FastbootPage,
	ShellPage,
	InfoPage,
	LogcatPage,
	HistoryPage,
	SettingsPage,
}

// Page is the interface every page in the application implements.
type Page interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (Page, tea.Cmd)
	View() string
	Name() string
	ShortHelp() []key.Binding
	SetSize(width, height int)
}

// InputCapturer is an optional interface for pages with text inputs.
// When InputCaptured returns true, the app forwards all keys directly
// to the page instead of processing shortcuts like q, ?, left, etc.
type InputCapturer interface {
	InputCaptured() bool
}

// SnapshotMsg is broadcast to all pages whenever a new device snapshot is
// published, whether by a manual refresh, a server toggle or the timer
// that follows a reboot.
type SnapshotMsg struct {
	Snapshot device.Snapshot
}

// DeviceSelectedMsg is broadcast to all pages when the selection changes.
// OK is false when nothing is selected.
type DeviceSelectedMsg struct {
	Record device.Record
	OK     bool
}
