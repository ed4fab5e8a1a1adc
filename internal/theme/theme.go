// Package theme holds the terminal color palettes.
package theme

import (
	"sort"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color palette for the TUI.
type Theme struct {
	Name string

	Primary lipgloss.Color
	Accent  lipgloss.Color

	Text    lipgloss.Color
	TextDim lipgloss.Color

	Surface     lipgloss.Color
	Border      lipgloss.Color
	BorderFocus lipgloss.Color

	// History panel
	Cursor lipgloss.Color
	Future lipgloss.Color

	Heading lipgloss.Color
	Error   lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Info    lipgloss.Color

	// Glamour style name used for markdown panes.
	Markdown string
}

var themes = map[string]Theme{
	"default": Default,
	"vellum":  Vellum,
	"nord":    Nord,
}

var Default = Theme{
	Name:        "default",
	Primary:     lipgloss.Color("#7C3AED"),
	Accent:      lipgloss.Color("#F59E0B"),
	Text:        lipgloss.Color("#E2E8F0"),
	TextDim:     lipgloss.Color("#64748B"),
	Surface:     lipgloss.Color("#1E293B"),
	Border:      lipgloss.Color("#334155"),
	BorderFocus: lipgloss.Color("#7C3AED"),
	Cursor:      lipgloss.Color("#38BDF8"),
	Future:      lipgloss.Color("#475569"),
	Heading:     lipgloss.Color("#A78BFA"),
	Error:       lipgloss.Color("#EF4444"),
	Success:     lipgloss.Color("#22C55E"),
	Warning:     lipgloss.Color("#F59E0B"),
	Info:        lipgloss.Color("#3B82F6"),
	Markdown:    "dark",
}

// Vellum is a warm palette for light terminals.
var Vellum = Theme{
	Name:        "vellum",
	Primary:     lipgloss.Color("#8B4513"),
	Accent:      lipgloss.Color("#B8860B"),
	Text:        lipgloss.Color("#3B2F2F"),
	TextDim:     lipgloss.Color("#8C7B6B"),
	Surface:     lipgloss.Color("#F5EBDC"),
	Border:      lipgloss.Color("#C8B8A0"),
	BorderFocus: lipgloss.Color("#8B4513"),
	Cursor:      lipgloss.Color("#A0522D"),
	Future:      lipgloss.Color("#BFAF9F"),
	Heading:     lipgloss.Color("#6B2E0E"),
	Error:       lipgloss.Color("#B22222"),
	Success:     lipgloss.Color("#556B2F"),
	Warning:     lipgloss.Color("#CD853F"),
	Info:        lipgloss.Color("#4682B4"),
	Markdown:    "light",
}

var Nord = Theme{
	Name:        "nord",
	Primary:     lipgloss.Color("#88C0D0"),
	Accent:      lipgloss.Color("#EBCB8B"),
	Text:        lipgloss.Color("#D8DEE9"),
	TextDim:     lipgloss.Color("#4C566A"),
	Surface:     lipgloss.Color("#3B4252"),
	Border:      lipgloss.Color("#434C5E"),
	BorderFocus: lipgloss.Color("#88C0D0"),
	Cursor:      lipgloss.Color("#8FBCBB"),
	Future:      lipgloss.Color("#4C566A"),
	Heading:     lipgloss.Color("#81A1C1"),
	Error:       lipgloss.Color("#BF616A"),
	Success:     lipgloss.Color("#A3BE8C"),
	Warning:     lipgloss.Color("#EBCB8B"),
	Info:        lipgloss.Color("#5E81AC"),
	Markdown:    "dark",
}

// Current is the active theme.
var Current = Default

// Set changes the active theme by name.
func Set(name string) bool {
	if t, ok := themes[name]; ok {
		Current = t
		return true
	}
	return false
}

// List returns all available theme names, sorted.
func List() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
