package ui

import (
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vidyasagar/iiifnav/internal/theme"
)

// CommandType says what the bottom line is collecting.
type CommandType int

const (
	CommandNone   CommandType = iota
	CommandEx                 // ':' viewer command
	CommandSearch             // '/' full-text query
)

// Commands lists the ':' command names offered for completion.
var Commands = []string{"back", "bookmarks", "collection", "forward", "open", "quit", "theme"}

// CommandResult is what the user entered.
type CommandResult struct {
	Type  CommandType
	Value string
}

// recall keeps earlier entries of one kind, newest last. pos counts back
// from the newest entry; -1 is the fresh line.
type recall struct {
	entries []string
	pos     int
}

func (r *recall) push(v string) {
	if n := len(r.entries); n > 0 && r.entries[n-1] == v {
		return
	}
	r.entries = append(r.entries, v)
}

func (r *recall) older() (string, bool) {
	if r.pos+1 >= len(r.entries) {
		return "", false
	}
	r.pos++
	return r.entries[len(r.entries)-1-r.pos], true
}

func (r *recall) newer() (string, bool) {
	if r.pos < 0 {
		return "", false
	}
	r.pos--
	if r.pos < 0 {
		return "", true
	}
	return r.entries[len(r.entries)-1-r.pos], true
}

// CommandBar is the bottom input line for ':' commands and '/' searches.
// Commands and queries are recalled separately.
type CommandBar struct {
	input   textinput.Model
	kind    CommandType
	width   int
	scope   string
	recalls map[CommandType]*recall
}

// NewCommandBar returns a closed command bar.
func NewCommandBar() CommandBar {
	in := textinput.New()
	in.CharLimit = 512
	return CommandBar{
		input: in,
		recalls: map[CommandType]*recall{
			CommandEx:     {pos: -1},
			CommandSearch: {pos: -1},
		},
	}
}

// SetWidth sets the line width.
func (c *CommandBar) SetWidth(w int) {
	c.width = w
	c.input.Width = max(w-len(c.scope)-6, 10)
}

// SetScope names what a search will run against, e.g. the open item.
func (c *CommandBar) SetScope(scope string) {
	c.scope = scope
	c.SetWidth(c.width)
}

// Open starts collecting input of the given kind.
func (c *CommandBar) Open(kind CommandType) tea.Cmd {
	c.kind = kind
	c.input.Reset()
	if r := c.recalls[kind]; r != nil {
		r.pos = -1
	}
	if kind == CommandSearch {
		c.input.Prompt = "/"
		c.input.Placeholder = "words to find"
	} else {
		c.input.Prompt = ":"
		c.input.Placeholder = "open <address> | theme <name> | collection <name> | bookmarks"
	}
	return c.input.Focus()
}

// Close abandons the current input.
func (c *CommandBar) Close() {
	c.kind = CommandNone
	c.input.Blur()
	c.input.Reset()
}

// IsActive reports whether input is being collected.
func (c *CommandBar) IsActive() bool {
	return c.kind != CommandNone
}

// SetValue replaces the text and moves the cursor to its end.
func (c *CommandBar) SetValue(val string) {
	c.input.SetValue(val)
	c.input.CursorEnd()
}

// Type returns the kind of input being collected.
func (c *CommandBar) Type() CommandType {
	return c.kind
}

// Submit closes the bar and returns the trimmed input. Non-empty input is
// remembered for recall.
func (c *CommandBar) Submit() CommandResult {
	res := CommandResult{Type: c.kind, Value: strings.TrimSpace(c.input.Value())}
	if r := c.recalls[c.kind]; r != nil && res.Value != "" {
		r.push(res.Value)
	}
	c.Close()
	return res
}

// complete extends a partial command name when exactly one command, or a
// longer common prefix, matches.
func (c *CommandBar) complete() {
	word := c.input.Value()
	if c.kind != CommandEx || word == "" || strings.Contains(word, " ") {
		return
	}
	var matches []string
	for _, name := range Commands {
		if strings.HasPrefix(name, word) {
			matches = append(matches, name)
		}
	}
	switch len(matches) {
	case 0:
		return
	case 1:
		c.SetValue(matches[0] + " ")
	default:
		sort.Strings(matches)
		c.SetValue(commonPrefix(matches[0], matches[len(matches)-1]))
	}
}

func commonPrefix(a, b string) string {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return a[:n]
}

// Update handles editing keys. Enter is left to the caller, which calls
// Submit.
func (c *CommandBar) Update(msg tea.Msg) (*CommandBar, tea.Cmd) {
	if !c.IsActive() {
		return c, nil
	}
	if key, ok := msg.(tea.KeyMsg); ok {
		r := c.recalls[c.kind]
		switch key.Type {
		case tea.KeyEsc:
			c.Close()
			return c, nil
		case tea.KeyEnter:
			return c, nil
		case tea.KeyTab:
			c.complete()
			return c, nil
		case tea.KeyUp:
			if v, ok := r.older(); ok {
				c.SetValue(v)
			}
			return c, nil
		case tea.KeyDown:
			if v, ok := r.newer(); ok {
				c.SetValue(v)
			}
			return c, nil
		}
	}
	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	return c, cmd
}

// View renders the input line, with the search scope on the right.
func (c *CommandBar) View() string {
	if !c.IsActive() {
		return ""
	}
	t := theme.Current
	line := c.input.View()
	if c.kind == CommandSearch && c.scope != "" {
		hint := lipgloss.NewStyle().Foreground(t.TextDim).Render("in " + c.scope)
		gap := max(c.width-lipgloss.Width(line)-lipgloss.Width(hint), 1)
		line += strings.Repeat(" ", gap) + hint
	}
	return lipgloss.NewStyle().
		Foreground(t.Text).
		Background(t.Surface).
		Width(c.width).
		Render(line)
}
