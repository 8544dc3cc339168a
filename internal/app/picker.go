package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/buckleypaul/adbdeck/internal/device"
	"github.com/buckleypaul/adbdeck/internal/ui"
)

// PickerItem represents a selectable item in the picker.
type PickerItem struct {
	Label   string
	Value   string
	Desc    string
	Current bool
}

// PickerSelectedMsg is sent when the user selects an item.
type PickerSelectedMsg struct {
	Value string
}

// PickerClosedMsg is sent when the user closes the picker without selecting.
type PickerClosedMsg struct{}

// Picker is a filtered-list overlay component.
type Picker struct {
	title    string
	noun     string
	items    []PickerItem
	filtered []PickerItem
	input    textinput.Model
	cursor   int
	width    int
	height   int
}

const maxPickerItems = 12

// NewPicker creates a new picker overlay. noun names the items in the
// footer count, e.g. "devices".
func NewPicker(title, noun string) *Picker {
	ti := textinput.New()
	ti.Placeholder = "type to filter..."
	ti.Prompt = "> "
	ti.Focus()
	ti.CharLimit = 128

	return &Picker{
		title: title,
		noun:  noun,
		input: ti,
	}
}

// DeviceItems turns a snapshot into picker items, marking the current
// selection.
func DeviceItems(snap device.Snapshot, selected string) []PickerItem {
	items := make([]PickerItem, 0, snap.Len())
	for _, r := range snap.Records {
		items = append(items, PickerItem{
			Label:   r.Label,
			Value:   r.Label,
			Desc:    r.Mode.String() + " · " + r.Status,
			Current: r.Label == selected,
		})
	}
	return items
}

// SetItems populates the picker and puts the cursor on the current item.
func (p *Picker) SetItems(items []PickerItem) {
	p.items = items
	p.filter()
	for i, it := range p.filtered {
		if it.Current {
			p.cursor = i
			break
		}
	}
}

// SetSize sets the available dimensions.
func (p *Picker) SetSize(w, h int) {
	p.width = w
	p.height = h
}

// Update handles input for the picker.
func (p *Picker) Update(msg tea.Msg) (*Picker, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "esc":
			return p, func() tea.Msg { return PickerClosedMsg{} }
		case "enter":
			if p.cursor < len(p.filtered) {
				value := p.filtered[p.cursor].Value
				return p, func() tea.Msg { return PickerSelectedMsg{Value: value} }
			}
			return p, nil
		case "up":
			if p.cursor > 0 {
				p.cursor--
			}
			return p, nil
		case "down":
			if p.cursor < len(p.filtered)-1 {
				p.cursor++
			}
			return p, nil
		}
	}

	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	p.filter()
	return p, cmd
}

// View renders the picker overlay.
func (p *Picker) View() string {
	boxWidth := p.width - 4
	if boxWidth > 64 {
		boxWidth = 64
	}
	if boxWidth < 30 {
		boxWidth = 30
	}
	innerWidth := boxWidth - 4

	var b strings.Builder
	p.input.Width = innerWidth - 3
	b.WriteString(p.input.View())
	b.WriteString("\n\n")

	visible := maxPickerItems
	if visible > len(p.filtered) {
		visible = len(p.filtered)
	}
	start := 0
	if p.cursor >= visible {
		start = p.cursor - visible + 1
	}
	end := start + visible
	if end > len(p.filtered) {
		end = len(p.filtered)
	}

	selectedStyle := lipgloss.NewStyle().Foreground(ui.Primary).Bold(true)
	for i := start; i < end; i++ {
		item := p.filtered[i]
		label := truncate(item.Label, innerWidth-6)
		if item.Current {
			label += " *"
		}
		if i == p.cursor {
			b.WriteString(selectedStyle.Render("> " + label))
		} else {
			b.WriteString("  " + label)
		}
		if item.Desc != "" {
			b.WriteString("\n    " + ui.DimStyle.Render(item.Desc))
		}
		b.WriteString("\n")
	}

	if len(p.filtered) == 0 {
		b.WriteString(ui.DimStyle.Render("  No matches"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	footer := fmt.Sprintf("(%d/%d %s)  esc:close", len(p.filtered), len(p.items), p.noun)
	b.WriteString(ui.DimStyle.Render(footer))

	return ui.Panel(p.title, b.String(), boxWidth, 0, true)
}

func (p *Picker) filter() {
	query := strings.ToLower(p.input.Value())
	if query == "" {
		p.filtered = p.items
	} else {
		p.filtered = nil
		for _, item := range p.items {
			if fuzzyMatch(strings.ToLower(item.Label), query) {
				p.filtered = append(p.filtered, item)
			}
		}
	}
	if p.cursor >= len(p.filtered) {
		p.cursor = len(p.filtered) - 1
	}
	if p.cursor < 0 {
		p.cursor = 0
	}
}

// fuzzyMatch checks if all characters in query appear in s in order.
func fuzzyMatch(s, query string) bool {
	qi := 0
	for i := 0; i < len(s) && qi < len(query); i++ {
		if s[i] == query[qi] {
			qi++
		}
	}
	return qi == len(query)
}

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
