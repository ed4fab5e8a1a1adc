package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vidyasagar/iiifnav/internal/theme"
)

// HistoryItem is one navigation history entry as shown in the panel.
type HistoryItem struct {
	Title   string
	Address string
	Kind    string
}

// HistoryPanel lists the navigation history, oldest first, with the
// current entry marked and a separate selection cursor.
type HistoryPanel struct {
	items    []HistoryItem
	current  int
	cursor   int
	offset   int
	width    int
	height   int
	visible  bool
	lastGKey bool
}

// NewHistoryPanel creates a new history panel.
func NewHistoryPanel() HistoryPanel {
	return HistoryPanel{}
}

// SetItems replaces the entries and marks current. The selection follows
// the current entry.
func (hp *HistoryPanel) SetItems(items []HistoryItem, current int) {
	hp.items = items
	hp.current = current
	hp.cursor = current
	hp.clamp()
	hp.ensureVisible()
}

// SetSize updates the panel dimensions.
func (hp *HistoryPanel) SetSize(w, h int) {
	hp.width = w
	hp.height = h
	hp.ensureVisible()
}

// Show makes the panel visible.
func (hp *HistoryPanel) Show() {
	hp.visible = true
	hp.cursor = hp.current
	hp.lastGKey = false
	hp.clamp()
	hp.ensureVisible()
}

// Hide closes the panel.
func (hp *HistoryPanel) Hide() {
	hp.visible = false
	hp.lastGKey = false
}

// IsVisible reports whether the panel is shown.
func (hp *HistoryPanel) IsVisible() bool {
	return hp.visible
}

// Toggle switches visibility.
func (hp *HistoryPanel) Toggle() {
	if hp.visible {
		hp.Hide()
	} else {
		hp.Show()
	}
}

// CursorUp moves the selection to the previous entry.
func (hp *HistoryPanel) CursorUp() {
	hp.lastGKey = false
	if hp.cursor > 0 {
		hp.cursor--
		hp.ensureVisible()
	}
}

// CursorDown moves the selection to the next entry.
func (hp *HistoryPanel) CursorDown() {
	hp.lastGKey = false
	if hp.cursor < len(hp.items)-1 {
		hp.cursor++
		hp.ensureVisible()
	}
}

// GotoTop selects the oldest entry.
func (hp *HistoryPanel) GotoTop() {
	hp.lastGKey = false
	hp.cursor = 0
	hp.offset = 0
}

// GotoBottom selects the newest entry.
func (hp *HistoryPanel) GotoBottom() {
	hp.lastGKey = false
	if len(hp.items) > 0 {
		hp.cursor = len(hp.items) - 1
		hp.ensureVisible()
	}
}

// HandleGKey handles the "g" key for gg detection.
// Returns true if "gg" was completed.
func (hp *HistoryPanel) HandleGKey() bool {
	if hp.lastGKey {
		hp.GotoTop()
		return true
	}
	hp.lastGKey = true
	return false
}

// Selected returns the selected index.
func (hp *HistoryPanel) Selected() int {
	return hp.cursor
}

// Delta returns how many entries the selection is away from the current
// entry: negative is back, positive is forward.
func (hp *HistoryPanel) Delta() int {
	return hp.cursor - hp.current
}

func (hp *HistoryPanel) clamp() {
	if hp.cursor >= len(hp.items) {
		hp.cursor = len(hp.items) - 1
	}
	if hp.cursor < 0 {
		hp.cursor = 0
	}
}

// visibleCount returns how many entries fit: two lines each below a
// two-line header.
func (hp *HistoryPanel) visibleCount() int {
	count := (hp.height - 3) / 2
	if count < 1 {
		count = 1
	}
	return count
}

func (hp *HistoryPanel) ensureVisible() {
	visible := hp.visibleCount()
	if hp.cursor < hp.offset {
		hp.offset = hp.cursor
	}
	if hp.cursor >= hp.offset+visible {
		hp.offset = hp.cursor - visible + 1
	}
	if hp.offset < 0 {
		hp.offset = 0
	}
}

// View renders the history panel.
func (hp *HistoryPanel) View() string {
	if !hp.visible {
		return ""
	}

	t := theme.Current

	panelStyle := lipgloss.NewStyle().
		Width(hp.width).
		Height(hp.height)

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(t.Primary).
		Background(t.Surface).
		Width(hp.width).
		Padding(0, 1)

	line := lipgloss.NewStyle().Width(hp.width).Padding(0, 1)

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(fmt.Sprintf("History (%d)", len(hp.items))))
	sb.WriteString("\n")
	sb.WriteString(lipgloss.NewStyle().Foreground(t.Border).Render(strings.Repeat("─", max(hp.width-2, 1))))
	sb.WriteString("\n")

	if len(hp.items) == 0 {
		sb.WriteString(line.Foreground(t.TextDim).Render("No history yet."))
		return panelStyle.Render(sb.String())
	}

	end := min(hp.offset+hp.visibleCount(), len(hp.items))
	maxLen := max(hp.width-6, 10)

	for i := hp.offset; i < end; i++ {
		item := hp.items[i]
		title := truncate(item.Title, maxLen)
		address := truncate(item.Address, maxLen)

		sel, cur := " ", " "
		titleColor, addrColor := t.Text, t.TextDim
		switch {
		case i == hp.current:
			cur = "●"
			titleColor = t.Cursor
		case i > hp.current:
			titleColor, addrColor = t.Future, t.Future
		}
		if i == hp.cursor {
			sel = "▸"
		}
		marker := sel + cur + " "

		titleStyle := line.Foreground(titleColor)
		addrStyle := line.Foreground(addrColor)
		if i == hp.cursor {
			titleStyle = titleStyle.Bold(true).Background(t.Surface)
			addrStyle = addrStyle.Background(t.Surface)
		}
		sb.WriteString(titleStyle.Render(marker + title))
		sb.WriteString("\n")
		sb.WriteString(addrStyle.Render("  " + address))
		sb.WriteString("\n")
	}

	linesUsed := 2 + (end-hp.offset)*2
	if remaining := hp.height - linesUsed; remaining > 1 {
		sb.WriteString(strings.Repeat("\n", remaining-1))
		hint := lipgloss.NewStyle().Foreground(t.TextDim).Italic(true).Padding(0, 1)
		sb.WriteString(hint.Render("j/k:move  Enter:go  Esc:close"))
	}

	return panelStyle.Render(sb.String())
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
