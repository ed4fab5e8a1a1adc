package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vidyasagar/iiifnav/internal/theme"
)

// Shortcut is one line of the key help shown before anything is loaded.
type Shortcut struct {
	Keys string
	Desc string
}

// PageViewport shows the rendered view for the current address. The scroll
// offset is remembered per address, so going back returns to the same spot.
type PageViewport struct {
	vp      viewport.Model
	ready   bool
	address string
	content string
	shown   bool
	offsets map[string]int
	help    []Shortcut
}

// NewPageViewport returns a viewport that is sized on the first layout.
func NewPageViewport() PageViewport {
	return PageViewport{offsets: make(map[string]int)}
}

// SetHelp sets the shortcuts listed on the start screen.
func (pv *PageViewport) SetHelp(help []Shortcut) {
	pv.help = help
}

// SetSize resizes the viewport.
func (pv *PageViewport) SetSize(width, height int) {
	if pv.ready {
		pv.vp.Width = width
		pv.vp.Height = height
		return
	}
	pv.vp = viewport.New(width, height)
	pv.vp.MouseWheelEnabled = true
	pv.vp.MouseWheelDelta = 3
	pv.ready = true
	if pv.shown {
		pv.vp.SetContent(pv.content)
	}
}

// Show displays content for address. Returning to an address restores its
// scroll offset; the same content at the same address leaves it untouched.
func (pv *PageViewport) Show(address, content string) {
	if pv.shown && address == pv.address && content == pv.content {
		return
	}
	if pv.shown && pv.ready {
		pv.offsets[pv.address] = pv.vp.YOffset
	}
	sameAddress := pv.shown && address == pv.address
	pv.address, pv.content, pv.shown = address, content, true
	if !pv.ready {
		return
	}
	pv.vp.SetContent(content)
	if sameAddress {
		return
	}
	pv.vp.SetYOffset(pv.offsets[address])
}

// Offset returns the first visible line.
func (pv *PageViewport) Offset() int {
	if !pv.ready {
		return 0
	}
	return pv.vp.YOffset
}

// Update forwards mouse and resize messages.
func (pv *PageViewport) Update(msg tea.Msg) (*PageViewport, tea.Cmd) {
	if !pv.ready {
		return pv, nil
	}
	var cmd tea.Cmd
	pv.vp, cmd = pv.vp.Update(msg)
	return pv, cmd
}

// View renders the visible lines, or the start screen.
func (pv *PageViewport) View() string {
	switch {
	case !pv.ready:
		return ""
	case !pv.shown:
		return pv.startScreen()
	default:
		return pv.vp.View()
	}
}

// Position describes the scroll position, e.g. "12-40/96".
func (pv *PageViewport) Position() string {
	if !pv.ready || !pv.shown {
		return ""
	}
	total := pv.vp.TotalLineCount()
	if total <= pv.vp.Height {
		return "all"
	}
	last := min(pv.vp.YOffset+pv.vp.Height, total)
	return fmt.Sprintf("%d-%d/%d", pv.vp.YOffset+1, last, total)
}

func (pv *PageViewport) HalfPageDown() {
	if pv.ready {
		pv.vp.HalfPageDown()
	}
}

func (pv *PageViewport) HalfPageUp() {
	if pv.ready {
		pv.vp.HalfPageUp()
	}
}

func (pv *PageViewport) LineDown(n int) {
	if pv.ready {
		pv.vp.ScrollDown(n)
	}
}

func (pv *PageViewport) LineUp(n int) {
	if pv.ready {
		pv.vp.ScrollUp(n)
	}
}

// Width returns the content width, 0 before the first layout.
func (pv *PageViewport) Width() int {
	if !pv.ready {
		return 0
	}
	return pv.vp.Width
}

func (pv *PageViewport) startScreen() string {
	t := theme.Current
	title := lipgloss.NewStyle().Bold(true).Foreground(t.Primary)
	dim := lipgloss.NewStyle().Foreground(t.TextDim)
	keys := lipgloss.NewStyle().Foreground(t.Accent).Width(12)

	var sb strings.Builder
	sb.WriteString("\n  " + title.Render("iiifnav") + "\n")
	sb.WriteString("  " + dim.Render("Waiting for the configured collections...") + "\n\n")
	for _, s := range pv.help {
		sb.WriteString("  " + keys.Render(s.Keys) + s.Desc + "\n")
	}
	return sb.String()
}
