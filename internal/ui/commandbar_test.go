package ui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func TestCommandBar_SubmitAndRecall(t *testing.T) {
	c := NewCommandBar()
	c.SetWidth(40)

	c.Open(CommandSearch)
	assert.True(t, c.IsActive())
	c.SetValue("  rose  ")
	res := c.Submit()
	assert.Equal(t, CommandResult{Type: CommandSearch, Value: "rose"}, res)
	assert.False(t, c.IsActive())

	c.Open(CommandSearch)
	c.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, "rose", c.Submit().Value)
}

func TestCommandBar_RecallIsPerKind(t *testing.T) {
	c := NewCommandBar()
	c.Open(CommandSearch)
	c.SetValue("amor")
	c.Submit()
	c.Open(CommandEx)
	c.SetValue("theme nord")
	c.Submit()
	c.Open(CommandEx)
	c.SetValue("back")
	c.Submit()

	c.Open(CommandEx)
	c.Update(tea.KeyMsg{Type: tea.KeyUp})
	c.Update(tea.KeyMsg{Type: tea.KeyUp})
	c.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, "theme nord", c.Submit().Value, "recall stops at the oldest command")

	c.Open(CommandEx)
	c.Update(tea.KeyMsg{Type: tea.KeyUp})
	c.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, "", c.Submit().Value, "down past the newest entry clears the line")

	c.Open(CommandSearch)
	c.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, "amor", c.Submit().Value)
}

func TestCommandBar_CompletesCommandNames(t *testing.T) {
	c := NewCommandBar()
	c.Open(CommandEx)
	c.SetValue("th")
	c.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "theme", c.Submit().Value)

	c.Open(CommandEx)
	c.SetValue("b")
	c.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "b", c.Submit().Value, "back and bookmarks share only the first letter")

	c.Open(CommandSearch)
	c.SetValue("th")
	c.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "th", c.Submit().Value, "queries are not completed")
}

func TestCommandBar_Escape(t *testing.T) {
	c := NewCommandBar()
	c.Open(CommandEx)
	c.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, c.IsActive())
	assert.Equal(t, CommandNone, c.Type())
}

func TestCommandBar_ViewShowsScope(t *testing.T) {
	c := NewCommandBar()
	c.SetWidth(60)
	c.SetScope("Livy")
	assert.Empty(t, c.View())

	c.Open(CommandSearch)
	assert.Contains(t, c.View(), "in Livy")
	c.Open(CommandEx)
	assert.NotContains(t, c.View(), "in Livy")
}
