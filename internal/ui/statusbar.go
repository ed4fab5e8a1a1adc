package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/vidyasagar/iiifnav/internal/theme"
)

// StatusBar shows the mode, the current entry and alerts.
type StatusBar struct {
	title      string
	mode       string
	position   int
	entries    int
	canBack    bool
	canForward bool
	loading    bool
	alert      string
	message    string
	scroll     string
	width      int
}

// NewStatusBar creates a new status bar.
func NewStatusBar() StatusBar {
	return StatusBar{
		mode: "NORMAL",
	}
}

// SetWidth sets the status bar width.
func (s *StatusBar) SetWidth(w int) {
	s.width = w
}

// SetTitle updates the entry title.
func (s *StatusBar) SetTitle(title string) {
	s.title = title
}

// SetMode sets the current mode indicator (NORMAL, ADDRESS, SEARCH, ...).
func (s *StatusBar) SetMode(mode string) {
	s.mode = mode
}

// SetHistory sets the 0-based cursor, entry count and the availability of
// back and forward.
func (s *StatusBar) SetHistory(cursor, entries int, back, forward bool) {
	s.position = cursor
	s.entries = entries
	s.canBack = back
	s.canForward = forward
}

// SetLoading sets the loading indicator state.
func (s *StatusBar) SetLoading(loading bool) {
	s.loading = loading
}

// SetAlert shows a blocking alert until it is dismissed.
func (s *StatusBar) SetAlert(msg string) {
	s.alert = msg
}

// Alert returns the alert being shown, if any.
func (s *StatusBar) Alert() string {
	return s.alert
}

// DismissAlert clears the alert.
func (s *StatusBar) DismissAlert() {
	s.alert = ""
}

// SetScroll sets the scroll position shown on the right.
func (s *StatusBar) SetScroll(pos string) {
	s.scroll = pos
}

// SetMessage sets a temporary status message.
func (s *StatusBar) SetMessage(msg string) {
	s.message = msg
}

// View renders the status bar.
func (s *StatusBar) View() string {
	t := theme.Current

	modeColor := t.Primary
	switch s.mode {
	case "ADDRESS":
		modeColor = t.Success
	case "COMMAND":
		modeColor = t.Accent
	case "SEARCH":
		modeColor = t.Warning
	case "HISTORY":
		modeColor = t.Cursor
	}
	modeStyle := lipgloss.NewStyle().
		Bold(true).
		Padding(0, 1).
		Foreground(t.Surface).
		Background(modeColor)
	mode := modeStyle.Render(s.mode)

	leftStyle := lipgloss.NewStyle().
		Background(t.Surface).
		Padding(0, 1)

	var left string
	switch {
	case s.alert != "":
		left = leftStyle.Foreground(t.Error).Bold(true).Render("⚠ " + s.alert + "  (esc)")
	case s.loading:
		left = leftStyle.Foreground(t.Warning).Bold(true).Render("Loading...")
	case s.message != "":
		left = leftStyle.Foreground(t.Info).Render(s.message)
	default:
		left = leftStyle.Foreground(t.Text).Render(s.title)
	}

	arrow := func(ok bool, glyph string) string {
		c := t.Future
		if ok {
			c = t.Accent
		}
		return lipgloss.NewStyle().Foreground(c).Background(t.Surface).Render(glyph)
	}
	var right string
	if s.scroll != "" {
		right = lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Padding(0, 1).Render(s.scroll)
	}
	if s.entries > 0 {
		right += arrow(s.canBack, "◀") +
			lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Padding(0, 1).
				Render(fmt.Sprintf("%d/%d", s.position+1, s.entries)) +
			arrow(s.canForward, "▶") + " "
	}

	spacerWidth := s.width - lipgloss.Width(mode) - lipgloss.Width(left) - lipgloss.Width(right)
	if spacerWidth < 0 {
		spacerWidth = 0
	}
	spacer := lipgloss.NewStyle().Background(t.Surface).Render(fmt.Sprintf("%*s", spacerWidth, ""))

	return mode + left + spacer + right
}
