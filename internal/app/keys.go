package app

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	ToggleFocus  key.Binding
	Help         key.Binding
	Quit         key.Binding
	DevicePicker key.Binding
	Refresh      key.Binding
}

var GlobalKeys = KeyMap{
	ToggleFocus: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "toggle focus"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	DevicePicker: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "device"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r", "f5"),
		key.WithHelp("r", "refresh"),
	),
}
