package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func items(n int) []HistoryItem {
	out := make([]HistoryItem, n)
	for i := range out {
		out[i] = HistoryItem{Title: string(rune('a' + i)), Address: "iiif://viewer/#" + string(rune('a'+i))}
	}
	return out
}

func TestHistoryPanel_Delta(t *testing.T) {
	hp := NewHistoryPanel()
	hp.SetSize(30, 20)
	hp.SetItems(items(5), 3)
	hp.Show()

	assert.Equal(t, 3, hp.Selected())
	assert.Equal(t, 0, hp.Delta())

	hp.CursorUp()
	hp.CursorUp()
	assert.Equal(t, -2, hp.Delta())

	hp.GotoBottom()
	assert.Equal(t, 1, hp.Delta())

	hp.CursorDown()
	assert.Equal(t, 4, hp.Selected(), "stays on the last entry")

	assert.False(t, hp.HandleGKey())
	assert.True(t, hp.HandleGKey())
	assert.Equal(t, 0, hp.Selected())
}

func TestHistoryPanel_View(t *testing.T) {
	hp := NewHistoryPanel()
	hp.SetSize(40, 12)
	assert.Empty(t, hp.View())

	hp.Show()
	assert.Contains(t, hp.View(), "No history yet.")

	hp.SetItems(items(3), 1)
	view := hp.View()
	assert.Contains(t, view, "History (3)")
	assert.Contains(t, view, "iiif://viewer/#b")
	assert.Contains(t, view, "●")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
