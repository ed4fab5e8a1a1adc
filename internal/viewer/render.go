package viewer

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"

	"github.com/vidyasagar/iiifnav/internal/signal"
	"github.com/vidyasagar/iiifnav/internal/state"
	"github.com/vidyasagar/iiifnav/internal/theme"
)

// Cached glamour renderer, rebuilt when the width or style changes.
var (
	cachedRenderer      *glamour.TermRenderer
	cachedRendererWidth int
	cachedRendererStyle string
	rendererMu          sync.Mutex
)

var viewLabels = map[string]string{
	state.ViewImage:      "Page",
	state.ViewBook:       "Opening",
	state.ViewScroll:     "Scroll",
	state.ViewThumbnails: "Thumbnails",
}

// Markdown describes the workspace contents as markdown.
func (w *Workspace) Markdown() string {
	var md strings.Builder
	switch {
	case w.searchOpen:
		w.searchMarkdown(&md)
	case w.window != nil:
		w.windowMarkdown(&md)
	case w.Collection() != nil:
		w.collectionMarkdown(&md)
	default:
		md.WriteString("*Loading collections...*\n")
	}
	return md.String()
}

func (w *Workspace) collectionMarkdown(md *strings.Builder) {
	c := w.Collection()
	label := c.Label
	if label == "" {
		label = c.ID
	}
	fmt.Fprintf(md, "# %s\n\n", label)
	if len(c.Manifests) == 0 {
		md.WriteString("This collection lists no items.\n")
		return
	}
	for i, m := range c.Manifests {
		name := m.Label
		if name == "" {
			name = w.shortID(m.ID)
		}
		fmt.Fprintf(md, "%d. %s\n", i+1, name)
	}
	if len(w.order) > 1 {
		fmt.Fprintf(md, "\n---\n\n*%d collections loaded*\n", len(w.order))
	}
}

func (w *Workspace) windowMarkdown(md *strings.Builder) {
	win := w.window
	m := win.Manifest
	if m == nil {
		fmt.Fprintf(md, "# %s\n\n*Loading...*\n", win.ManifestID)
		return
	}
	label := m.Label
	if label == "" {
		label = win.ManifestID
	}
	fmt.Fprintf(md, "# %s\n\n", label)

	view := viewLabels[win.ViewType]
	if view == "" {
		view = win.ViewType
	}
	switch win.ViewType {
	case state.ViewThumbnails:
		fmt.Fprintf(md, "**%s** · %d canvases\n\n", view, len(m.Canvases))
		for i, c := range m.Canvases {
			marker := ""
			if c.ID == win.CanvasID {
				marker = " ◀"
			}
			fmt.Fprintf(md, "- `%d` %s%s\n", i+1, canvasLabel(c.Label, c.ID), marker)
		}
	default:
		i := win.CanvasIndex()
		canvas := win.CanvasID
		if i >= 0 {
			canvas = canvasLabel(m.Canvases[i].Label, m.Canvases[i].ID)
		}
		fmt.Fprintf(md, "**%s** · %s (%d of %d)\n\n", view, canvas, i+1, len(m.Canvases))
		if win.ViewType == state.ViewBook && i >= 0 && i+1 < len(m.Canvases) {
			next := m.Canvases[i+1]
			fmt.Fprintf(md, "Facing: %s\n\n", canvasLabel(next.Label, next.ID))
		}
	}

	if m.Summary != "" {
		fmt.Fprintf(md, "\n%s\n", m.Summary)
	}
	if len(m.Metadata) > 0 {
		md.WriteString("\n| Field | Value |\n|---|---|\n")
		for _, e := range m.Metadata {
			fmt.Fprintf(md, "| %s | %s |\n", cell(e.Label), cell(e.Value))
		}
	}
}

func (w *Workspace) searchMarkdown(md *strings.Builder) {
	ctx := w.search
	fmt.Fprintf(md, "# Search: %s\n\n", ctx.Query)
	target := ctx.TargetID
	if ctx.TargetKind == signal.KindCollection {
		if c, ok := w.collections[ctx.TargetID]; ok && c.Label != "" {
			target = c.Label
		}
	}
	fmt.Fprintf(md, "In %s **%s**", ctx.TargetKind, target)
	if ctx.ServiceID != "" {
		fmt.Fprintf(md, " via `%s`", ctx.ServiceID)
	}
	md.WriteString("\n\n")
	if ctx.Offset > 0 || ctx.MaxPerPage > 0 {
		fmt.Fprintf(md, "Results from %d, %d per page\n\n", ctx.Offset, ctx.MaxPerPage)
	}
	for _, r := range ctx.Rows {
		fmt.Fprintf(md, "- %s %s `%s`\n", r.Operator, r.Category, r.Term)
	}
}

func canvasLabel(label, id string) string {
	if label != "" {
		return label
	}
	return id
}

func cell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", `\|`), "\n", " ")
}

// Render returns the workspace as styled terminal text.
func (w *Workspace) Render(width int) string {
	return RenderMarkdown(w.Markdown(), width)
}

// RenderMarkdown renders markdown with glamour using the current theme's
// style, falling back to the raw markdown.
func RenderMarkdown(markdown string, width int) string {
	if width <= 0 {
		width = 80
	}
	contentWidth := width - 4
	if contentWidth > 100 {
		contentWidth = 100
	}

	rendererMu.Lock()
	defer rendererMu.Unlock()

	style := theme.Current.Markdown
	if cachedRenderer == nil || cachedRendererWidth != contentWidth || cachedRendererStyle != style {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(contentWidth),
		)
		if err != nil {
			return markdown
		}
		cachedRenderer = renderer
		cachedRendererWidth = contentWidth
		cachedRendererStyle = style
	}

	out, err := cachedRenderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return out
}
