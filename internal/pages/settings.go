package pages

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/buckleypaul/adbdeck/internal/app"
	"github.com/buckleypaul/adbdeck/internal/config"
	"github.com/buckleypaul/adbdeck/internal/logging"
	"github.com/buckleypaul/adbdeck/internal/ui"
)

type settingField struct {
	label string
	key   string
}

var settingFields = []settingField{
	{"adb path", "adb_path"},
	{"fastboot path", "fastboot_path"},
	{"scrcpy path", "scrcpy_path"},
	{"Command timeout", "command_timeout"},
	{"Probe timeout", "probe_timeout"},
	{"Reboot refresh delay", "reboot_refresh_delay"},
	{"Confirmation phrase", "confirm_phrase"},
	{"Screenshot folder", "screenshot_dir"},
	{"Log level", "log_level"},
}

// SettingsPage edits the config in memory and saves it on demand. Changes
// apply on the next launch.
type SettingsPage struct {
	cfg           *config.Config
	dir           string
	cursor        int
	editing       bool
	input         textinput.Model
	width, height int
	message       string
}

func NewSettingsPage(cfg *config.Config, dir string) *SettingsPage {
	ti := textinput.New()
	ti.CharLimit = 256
	return &SettingsPage{
		cfg:   cfg,
		dir:   dir,
		input: ti,
	}
}

func (p *SettingsPage) Init() tea.Cmd { return nil }

func (p *SettingsPage) Update(msg tea.Msg) (app.Page, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if p.editing {
			switch msg.String() {
			case "enter":
				p.applyValue(p.input.Value())
				p.editing = false
				p.input.Blur()
				return p, nil
			case "esc":
				p.editing = false
				p.input.Blur()
				return p, nil
			}
			var cmd tea.Cmd
			p.input, cmd = p.input.Update(msg)
			return p, cmd
		}

		switch msg.String() {
		case "down":
			if p.cursor < len(settingFields)-1 {
				p.cursor++
			}
		case "up":
			if p.cursor > 0 {
				p.cursor--
			}
		case "enter", "e":
			p.editing = true
			p.input.SetValue(p.getValue(p.cursor))
			return p, p.input.Focus()
		case "s":
			p.save(false)
		case "g":
			p.save(true)
		}
	}
	return p, nil
}

func (p *SettingsPage) save(global bool) {
	if err := config.Save(*p.cfg, p.dir, global); err != nil {
		p.message = ui.ErrorStyle.Render(fmt.Sprintf("Error saving: %v", err))
		return
	}
	if global {
		p.message = "Saved to ~/.config/adbdeck. Restart to apply."
	} else {
		p.message = "Saved to .adbdeck/config.json. Restart to apply."
	}
}

func (p *SettingsPage) View() string {
	var inner strings.Builder

	for i, f := range settingFields {
		cursor := "  "
		if i == p.cursor {
			cursor = ui.BoldStyle.Render("> ")
		}

		val := p.getValue(i)
		if val == "" {
			val = ui.DimStyle.Render("(default)")
		}

		inner.WriteString(fmt.Sprintf("%s%-22s %s\n", cursor, f.label, val))
	}

	if p.editing {
		inner.WriteString("\n")
		inner.WriteString(fmt.Sprintf("  Edit %s:\n", settingFields[p.cursor].label))
		inner.WriteString("  " + p.input.View())
		inner.WriteString("\n")
	}

	if p.message != "" {
		inner.WriteString("\n  " + p.message)
	}

	return ui.Panel("Settings", inner.String(), p.width, 0, false)
}

func (p *SettingsPage) Name() string { return "Settings" }

func (p *SettingsPage) ShortHelp() []key.Binding {
	if p.editing {
		return []key.Binding{
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "apply")),
			key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		}
	}
	return []key.Binding{
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "edit")),
		key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save here")),
		key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "save global")),
	}
}

func (p *SettingsPage) InputCaptured() bool {
	return p.editing
}

func (p *SettingsPage) SetSize(w, h int) {
	p.width = w
	p.height = h
}

func (p *SettingsPage) durationField(k string) *config.Duration {
	switch k {
	case "command_timeout":
		return &p.cfg.CommandTimeout
	case "probe_timeout":
		return &p.cfg.ProbeTimeout
	case "reboot_refresh_delay":
		return &p.cfg.RebootRefreshDelay
	}
	return nil
}

func (p *SettingsPage) stringField(k string) *string {
	switch k {
	case "adb_path":
		return &p.cfg.ADBPath
	case "fastboot_path":
		return &p.cfg.FastbootPath
	case "scrcpy_path":
		return &p.cfg.ScrcpyPath
	case "confirm_phrase":
		return &p.cfg.ConfirmPhrase
	case "screenshot_dir":
		return &p.cfg.ScreenshotDir
	case "log_level":
		return &p.cfg.LogLevel
	}
	return nil
}

func (p *SettingsPage) getValue(idx int) string {
	k := settingFields[idx].key
	if d := p.durationField(k); d != nil {
		if *d == 0 {
			return ""
		}
		return d.Std().String()
	}
	if s := p.stringField(k); s != nil {
		return *s
	}
	return ""
}

func (p *SettingsPage) applyValue(val string) {
	f := settingFields[p.cursor]
	val = strings.TrimSpace(val)

	if d := p.durationField(f.key); d != nil {
		if val == "" {
			*d = 0
		} else {
			var next config.Duration
			if err := next.UnmarshalText([]byte(val)); err != nil || next < 0 {
				p.message = ui.ErrorStyle.Render(fmt.Sprintf("%s: %q is not a duration like 30s or 5m", f.label, val))
				return
			}
			*d = next
		}
		p.message = fmt.Sprintf("%s updated", f.label)
		return
	}

	if f.key == "log_level" && val != "" && !logging.ValidLevel(val) {
		p.message = ui.ErrorStyle.Render(fmt.Sprintf("%s: unknown level %q", f.label, val))
		return
	}
	if s := p.stringField(f.key); s != nil {
		*s = val
	}
	p.message = fmt.Sprintf("%s updated", f.label)
}
