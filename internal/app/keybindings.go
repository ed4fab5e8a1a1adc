package app

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/vidyasagar/iiifnav/internal/ui"
)

// KeyMap defines all keybindings for iiifnav.
type KeyMap struct {
	// Scrolling
	ScrollDown   key.Binding
	ScrollUp     key.Binding
	HalfPageDown key.Binding
	HalfPageUp   key.Binding

	// History
	Back          key.Binding
	Forward       key.Binding
	EditAddress   key.Binding
	HistoryToggle key.Binding

	// Viewer
	NextCanvas     key.Binding
	PrevCanvas     key.Binding
	CycleView      key.Binding
	OpenItem       key.Binding
	ShowCollection key.Binding
	NextCollection key.Binding
	Search         key.Binding

	// Bookmarks
	Bookmark     key.Binding
	BookmarkList key.Binding

	// Modes
	CommandMode key.Binding
	Dismiss     key.Binding
	Quit        key.Binding
}

// DefaultKeyMap returns the default vim-style keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		ScrollDown: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "scroll down"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "scroll up"),
		),
		HalfPageDown: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("Ctrl+d", "half page down"),
		),
		HalfPageUp: key.NewBinding(
			key.WithKeys("ctrl+u"),
			key.WithHelp("Ctrl+u", "half page up"),
		),
		Back: key.NewBinding(
			key.WithKeys("H"),
			key.WithHelp("H", "go back"),
		),
		Forward: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "go forward"),
		),
		EditAddress: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "edit address"),
		),
		HistoryToggle: key.NewBinding(
			key.WithKeys("ctrl+h"),
			key.WithHelp("Ctrl+h", "toggle history"),
		),
		NextCanvas: key.NewBinding(
			key.WithKeys("n", "right"),
			key.WithHelp("n", "next page"),
		),
		PrevCanvas: key.NewBinding(
			key.WithKeys("p", "left"),
			key.WithHelp("p", "previous page"),
		),
		CycleView: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "change view"),
		),
		OpenItem: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("1-9", "open item"),
		),
		ShowCollection: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "show collection"),
		),
		NextCollection: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "next collection"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Bookmark: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "bookmark address"),
		),
		BookmarkList: key.NewBinding(
			key.WithKeys("B"),
			key.WithHelp("B", "list bookmarks"),
		),
		CommandMode: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "command mode"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "dismiss"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// startHelp lists the bindings shown before the first collection loads.
func (k KeyMap) startHelp() []ui.Shortcut {
	var out []ui.Shortcut
	for _, b := range []key.Binding{k.EditAddress, k.Back, k.Forward, k.HistoryToggle, k.CommandMode, k.Quit} {
		h := b.Help()
		out = append(out, ui.Shortcut{Keys: h.Key, Desc: h.Desc})
	}
	return out
}
