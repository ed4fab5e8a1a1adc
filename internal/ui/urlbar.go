package ui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vidyasagar/iiifnav/internal/theme"
)

// AddressBar shows the current viewer address and edits it.
type AddressBar struct {
	input   textinput.Model
	active  bool
	width   int
	address string
}

// NewAddressBar creates a new address bar.
func NewAddressBar() AddressBar {
	ti := textinput.New()
	ti.Placeholder = "collection/manifest/canvas/image"
	ti.CharLimit = 2048
	ti.Width = 60

	return AddressBar{
		input: ti,
	}
}

// SetWidth updates the bar width.
func (u *AddressBar) SetWidth(w int) {
	u.width = w
	u.input.Width = w - 8 // prompt and padding
}

// SetAddress sets the address shown while the bar is not focused.
func (u *AddressBar) SetAddress(address string) {
	u.address = address
}

// Address returns the address shown while the bar is not focused.
func (u *AddressBar) Address() string {
	return u.address
}

// Focus activates the bar for editing, starting from the current address.
func (u *AddressBar) Focus() tea.Cmd {
	u.active = true
	u.input.SetValue(u.address)
	u.input.CursorEnd()
	return u.input.Focus()
}

// Blur deactivates the bar.
func (u *AddressBar) Blur() {
	u.active = false
	u.input.Blur()
}

// IsActive reports whether the bar is focused.
func (u *AddressBar) IsActive() bool {
	return u.active
}

// Value returns the edited text.
func (u *AddressBar) Value() string {
	return u.input.Value()
}

// Update handles messages for the bar.
func (u *AddressBar) Update(msg tea.Msg) (*AddressBar, tea.Cmd) {
	if !u.active {
		return u, nil
	}
	var cmd tea.Cmd
	u.input, cmd = u.input.Update(msg)
	return u, cmd
}

// View renders the bar.
func (u *AddressBar) View() string {
	t := theme.Current

	border := t.Border
	fg := t.TextDim
	if u.active {
		border = t.BorderFocus
		fg = t.Text
	}
	barStyle := lipgloss.NewStyle().
		Foreground(fg).
		Background(t.Surface).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Width(u.width - 2)

	promptStyle := lipgloss.NewStyle().
		Foreground(t.Primary).
		Bold(true)

	content := u.address
	if u.active {
		content = u.input.View()
	}
	return barStyle.Render(promptStyle.Render("#") + " " + content)
}
