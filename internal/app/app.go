// Package app hosts the navigation engine in a bubbletea terminal UI.
package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vidyasagar/iiifnav/internal/storage"
	"github.com/vidyasagar/iiifnav/internal/theme"
	"github.com/vidyasagar/iiifnav/internal/ui"
	"github.com/vidyasagar/iiifnav/internal/viewer"
)

// Mode represents the current input mode.
type Mode int

const (
	ModeNormal  Mode = iota
	ModeAddress      // address bar focused
	ModeCommand      // : command bar
	ModeSearch       // / search bar
	ModeHistory      // history panel focused
)

var modeNames = map[Mode]string{
	ModeNormal:  "NORMAL",
	ModeAddress: "ADDRESS",
	ModeCommand: "COMMAND",
	ModeSearch:  "SEARCH",
	ModeHistory: "HISTORY",
}

// startMsg kicks off collection loading from inside Update.
type startMsg struct{}

// wakeMsg is sent when signals were posted to the bus from another goroutine.
type wakeMsg struct{}

// readyMsg is sent once navigation is active.
type readyMsg struct{}

// Model is the top-level bubbletea model for iiifnav.
type Model struct {
	engine *Engine
	wake   chan struct{}

	addressBar   ui.AddressBar
	statusBar    ui.StatusBar
	commandBar   ui.CommandBar
	historyPanel ui.HistoryPanel
	viewport     ui.PageViewport

	keys   KeyMap
	mode   Mode
	width  int
	height int
	ready  bool

	showBookmarks bool
	bookmarks     []storage.Bookmark
}

// New creates a Model driving engine. Posted signals wake the bubbletea
// loop, so every dispatch happens inside Update.
func New(engine *Engine) Model {
	wake := make(chan struct{}, 1)
	engine.Bus.OnWake(func() {
		select {
		case wake <- struct{}{}:
		default:
		}
	})

	m := Model{
		engine:       engine,
		wake:         wake,
		addressBar:   ui.NewAddressBar(),
		statusBar:    ui.NewStatusBar(),
		commandBar:   ui.NewCommandBar(),
		historyPanel: ui.NewHistoryPanel(),
		viewport:     ui.NewPageViewport(),
		keys:         DefaultKeyMap(),
		mode:         ModeNormal,
	}
	m.viewport.SetHelp(m.keys.startHelp())
	m.statusBar.SetLoading(true)
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return startMsg{} },
		waitForWake(m.wake),
		waitForReady(m.engine.Nav.Ready()),
	)
}

func waitForWake(wake <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-wake
		return wakeMsg{}
	}
}

func waitForReady(ready <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ready
		return readyMsg{}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.layout()
		m.sync()
		return m, nil

	case startMsg:
		m.engine.Start()
		m.engine.Drain()
		m.sync()
		return m, nil

	case wakeMsg:
		m.engine.Drain()
		m.sync()
		return m, waitForWake(m.wake)

	case readyMsg:
		m.statusBar.SetLoading(false)
		m.statusBar.SetMessage("")
		m.sync()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	var cmd tea.Cmd
	_, cmd = m.viewport.Update(msg)
	m.statusBar.SetScroll(m.viewport.Position())
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "\n  Loading iiifnav..."
	}

	sections := []string{m.addressBar.View()}

	if m.historyPanel.IsVisible() {
		divider := lipgloss.NewStyle().
			Foreground(theme.Current.Border).
			Render(strings.TrimSuffix(strings.Repeat("│\n", m.bodyHeight()), "\n"))
		sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top,
			m.historyPanel.View(),
			divider,
			m.viewport.View(),
		))
	} else {
		sections = append(sections, m.viewport.View())
	}

	sections = append(sections, m.statusBar.View())
	if m.commandBar.IsActive() {
		sections = append(sections, m.commandBar.View())
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) bodyHeight() int {
	addressBarHeight := 3 // border adds height
	statusBarHeight := 1
	commandBarHeight := 0
	if m.commandBar.IsActive() {
		commandBarHeight = 1
	}
	return max(m.height-addressBarHeight-statusBarHeight-commandBarHeight, 1)
}

// layout recalculates dimensions for all components.
func (m *Model) layout() {
	m.addressBar.SetWidth(m.width)
	m.statusBar.SetWidth(m.width)
	m.commandBar.SetWidth(m.width)

	height := m.bodyHeight()
	width := m.width
	if m.historyPanel.IsVisible() {
		panelWidth := max(m.width*35/100, 24)
		m.historyPanel.SetSize(panelWidth, height)
		width = m.width - panelWidth - 1
	}
	m.viewport.SetSize(width, height)
}

// sync copies engine state into the components.
func (m *Model) sync() {
	e := m.engine

	for _, alert := range e.TakeAlerts() {
		m.statusBar.SetAlert(alert)
	}

	m.addressBar.SetAddress(e.Session.Location())

	entries, cursor := e.Nav.Entries()
	items := make([]ui.HistoryItem, len(entries))
	for i, st := range entries {
		address, _ := e.Slicer.Encode(st)
		items[i] = ui.HistoryItem{Title: e.Slicer.Title(st), Address: address, Kind: st.Type.String()}
	}
	if m.mode != ModeHistory {
		m.historyPanel.SetItems(items, cursor)
	}

	title := e.Session.Title()
	if cur, ok := e.Nav.Current(); ok && title == "" {
		title = e.Slicer.Title(cur)
	}
	m.statusBar.SetTitle(title)
	m.statusBar.SetHistory(cursor, len(entries), e.Session.CanGoBack(), e.Session.CanGoForward())
	m.statusBar.SetMode(modeNames[m.mode])

	if !m.ready {
		return
	}
	switch {
	case m.showBookmarks:
		m.viewport.Show("bookmarks", viewer.RenderMarkdown(bookmarksMarkdown(m.bookmarks), m.viewport.Width()))
	case e.Workspace.Collection() != nil:
		m.viewport.Show(e.Session.Location(), e.Workspace.Render(m.viewport.Width()))
	}
	m.statusBar.SetScroll(m.viewport.Position())
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.mode {
	case ModeAddress:
		return m.handleAddressMode(msg)
	case ModeCommand, ModeSearch:
		return m.handleCommandMode(msg)
	case ModeHistory:
		return m.handleHistoryMode(msg)
	default:
		return m.handleNormalMode(msg)
	}
}

func (m Model) handleNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	e := m.engine
	var err error

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Dismiss):
		switch {
		case m.statusBar.Alert() != "":
			m.statusBar.DismissAlert()
		case m.showBookmarks:
			m.showBookmarks = false
		default:
			e.Workspace.CloseSearch()
		}

	case key.Matches(msg, m.keys.ScrollDown):
		m.viewport.LineDown(1)
	case key.Matches(msg, m.keys.ScrollUp):
		m.viewport.LineUp(1)
	case key.Matches(msg, m.keys.HalfPageDown):
		m.viewport.HalfPageDown()
	case key.Matches(msg, m.keys.HalfPageUp):
		m.viewport.HalfPageUp()

	case key.Matches(msg, m.keys.Back):
		m.showBookmarks = false
		if !e.Back() {
			m.statusBar.SetMessage("Already at the oldest entry")
		}
	case key.Matches(msg, m.keys.Forward):
		m.showBookmarks = false
		if !e.Forward() {
			m.statusBar.SetMessage("Already at the newest entry")
		}

	case key.Matches(msg, m.keys.EditAddress):
		m.mode = ModeAddress
		m.sync()
		cmd := m.addressBar.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.HistoryToggle):
		m.historyPanel.Toggle()
		if m.historyPanel.IsVisible() {
			m.mode = ModeHistory
		}
		m.layout()

	case key.Matches(msg, m.keys.NextCanvas):
		err = e.Workspace.NextCanvas()
	case key.Matches(msg, m.keys.PrevCanvas):
		err = e.Workspace.PreviousCanvas()
	case key.Matches(msg, m.keys.CycleView):
		err = e.Workspace.CycleView()

	case key.Matches(msg, m.keys.OpenItem):
		n := int(msg.String()[0] - '1')
		if m.showBookmarks {
			if n < len(m.bookmarks) {
				m.showBookmarks = false
				e.Navigate(m.bookmarks[n].Address)
			}
			break
		}
		err = e.Workspace.OpenManifest(n)

	case key.Matches(msg, m.keys.ShowCollection):
		m.showBookmarks = false
		e.Workspace.ShowCollection()
	case key.Matches(msg, m.keys.NextCollection):
		m.showBookmarks = false
		err = e.Workspace.NextCollection()

	case key.Matches(msg, m.keys.Search):
		m.mode = ModeSearch
		m.commandBar.SetScope(searchScope(e.Workspace))
		cmd := m.commandBar.Open(ui.CommandSearch)
		m.layout()
		m.sync()
		return m, cmd

	case key.Matches(msg, m.keys.CommandMode):
		m.mode = ModeCommand
		cmd := m.commandBar.Open(ui.CommandEx)
		m.layout()
		m.sync()
		return m, cmd

	case key.Matches(msg, m.keys.Bookmark):
		saved, berr := e.ToggleBookmark()
		switch {
		case berr != nil:
			err = berr
		case saved:
			m.statusBar.SetMessage("Bookmarked " + e.Session.Location())
		default:
			m.statusBar.SetMessage("Bookmark removed")
		}

	case key.Matches(msg, m.keys.BookmarkList):
		m.showBookmarks = !m.showBookmarks
		if m.showBookmarks {
			err = m.loadBookmarks("")
		}
	}

	e.Drain()
	if err != nil {
		m.statusBar.SetMessage(err.Error())
	}
	m.sync()
	return m, nil
}

func (m Model) handleAddressMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.addressBar.Blur()
		m.mode = ModeNormal
		m.sync()
		return m, nil
	case tea.KeyEnter:
		value := strings.TrimSpace(m.addressBar.Value())
		m.addressBar.Blur()
		m.mode = ModeNormal
		if value != "" {
			m.showBookmarks = false
			m.engine.Navigate(value)
		}
		m.sync()
		return m, nil
	}
	_, cmd := m.addressBar.Update(msg)
	return m, cmd
}

func (m Model) handleCommandMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyEnter {
		result := m.commandBar.Submit()
		m.mode = ModeNormal
		m.layout()
		var err error
		switch result.Type {
		case ui.CommandSearch:
			if result.Value != "" {
				m.showBookmarks = false
				err = m.engine.Workspace.RunSearch(result.Value)
			}
		case ui.CommandEx:
			var cmd tea.Cmd
			cmd, err = m.executeCommand(result.Value)
			if cmd != nil {
				return m, cmd
			}
		}
		m.engine.Drain()
		if err != nil {
			m.statusBar.SetMessage(err.Error())
		}
		m.sync()
		return m, nil
	}

	_, cmd := m.commandBar.Update(msg)
	if !m.commandBar.IsActive() {
		m.mode = ModeNormal
		m.layout()
		m.sync()
	}
	return m, cmd
}

func (m Model) handleHistoryMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ScrollDown):
		m.historyPanel.CursorDown()
	case key.Matches(msg, m.keys.ScrollUp):
		m.historyPanel.CursorUp()
	case msg.String() == "g":
		m.historyPanel.HandleGKey()
	case msg.String() == "G":
		m.historyPanel.GotoBottom()
	case msg.Type == tea.KeyEnter:
		delta := m.historyPanel.Delta()
		m.mode = ModeNormal
		if delta != 0 {
			m.engine.Go(delta)
		}
		m.sync()
		m.mode = ModeHistory
	case key.Matches(msg, m.keys.Dismiss), key.Matches(msg, m.keys.HistoryToggle), msg.String() == "q":
		m.historyPanel.Hide()
		m.mode = ModeNormal
		m.layout()
		m.sync()
	}
	return m, nil
}

// executeCommand runs a ':' command.
func (m *Model) executeCommand(input string) (tea.Cmd, error) {
	name, arg, _ := strings.Cut(strings.TrimSpace(input), " ")
	arg = strings.TrimSpace(arg)
	e := m.engine

	switch name {
	case "q", "quit":
		return tea.Quit, nil
	case "o", "open":
		if arg == "" {
			return nil, fmt.Errorf("usage: open <address>")
		}
		m.showBookmarks = false
		e.Navigate(arg)
	case "back":
		e.Back()
	case "forward":
		e.Forward()
	case "theme":
		if !theme.Set(arg) {
			return nil, fmt.Errorf("unknown theme %q (have %s)", arg, strings.Join(theme.List(), ", "))
		}
		m.statusBar.SetMessage("Theme: " + arg)
	case "collection":
		m.showBookmarks = false
		if arg == "" {
			return nil, e.Workspace.NextCollection()
		}
		for _, c := range e.Workspace.Collections() {
			if c.ID == arg || strings.EqualFold(c.Label, arg) || strings.Contains(c.ID, "/"+arg+"/") {
				return nil, e.Workspace.SelectCollection(c.ID)
			}
		}
		return nil, fmt.Errorf("unknown collection %q", arg)
	case "bookmarks":
		m.showBookmarks = true
		return nil, m.loadBookmarks(arg)
	case "":
	default:
		return nil, fmt.Errorf("unknown command %q", name)
	}
	return nil, nil
}

func (m *Model) loadBookmarks(query string) error {
	store := m.engine.Bookmarks
	if store == nil {
		m.showBookmarks = false
		return fmt.Errorf("bookmarks are unavailable")
	}
	var err error
	if query == "" {
		m.bookmarks, err = store.List()
	} else {
		m.bookmarks, err = store.Search(query)
	}
	return err
}

func bookmarksMarkdown(bookmarks []storage.Bookmark) string {
	var md strings.Builder
	md.WriteString("# Bookmarks\n\n")
	if len(bookmarks) == 0 {
		md.WriteString("No bookmarks yet. Press `b` to bookmark the current address.\n")
		return md.String()
	}
	for i, b := range bookmarks {
		title := b.Title
		if title == "" {
			title = b.Address
		}
		fmt.Fprintf(&md, "%d. **%s**  \n   `%s`", i+1, title, b.Address)
		if len(b.Tags) > 0 {
			fmt.Fprintf(&md, " · %s", strings.Join(b.Tags, ", "))
		}
		md.WriteString("\n")
	}
	return md.String()
}

// searchScope names what '/' searches: the open item, else the collection.
func searchScope(w *viewer.Workspace) string {
	if win := w.Window(); win != nil {
		if win.Manifest != nil && win.Manifest.Label != "" {
			return win.Manifest.Label
		}
		return win.ManifestID
	}
	if c := w.Collection(); c != nil {
		if c.Label != "" {
			return c.Label
		}
		return c.ID
	}
	return ""
}
