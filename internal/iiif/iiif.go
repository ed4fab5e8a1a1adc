// Package iiif parses the subset of IIIF Presentation 2 and 3 documents the
// viewer needs: collections, manifests, canvases and search services.
package iiif

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrNoID is returned for documents without an identifier.
var ErrNoID = errors.New("iiif: document has no id")

// Collection is a named grouping of manifests.
type Collection struct {
	ID            string
	Label         string
	SearchService string
	Manifests     []ManifestRef
	Collections   []string
}

// ManifestRef is a manifest listed inside a collection.
type ManifestRef struct {
	ID    string
	Label string
}

// Manifest describes a single item and its pages.
type Manifest struct {
	ID            string
	Label         string
	Summary       string
	SearchService string
	Canvases      []Canvas
	Metadata      []MetadataEntry
}

// Canvas is one page or surface of a manifest.
type Canvas struct {
	ID    string
	Label string
}

// MetadataEntry is a label/value pair shown with a manifest.
type MetadataEntry struct {
	Label string
	Value string
}

// CanvasIndex returns the position of the canvas with the given id, or -1.
func (m *Manifest) CanvasIndex(id string) int {
	for i, c := range m.Canvases {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// raw is the union of the v2 and v3 fields we read.
type raw struct {
	ID2         string          `json:"@id"`
	ID3         string          `json:"id"`
	Label       json.RawMessage `json:"label"`
	Description json.RawMessage `json:"description"`
	Summary     json.RawMessage `json:"summary"`
	Service     json.RawMessage `json:"service"`
	Manifests   []raw           `json:"manifests"`
	Collections []raw           `json:"collections"`
	Items       []raw           `json:"items"`
	Sequences   []rawSequence   `json:"sequences"`
	Metadata    []rawMetadata   `json:"metadata"`
	Type2       string          `json:"@type"`
	Type3       string          `json:"type"`
}

type rawSequence struct {
	Canvases []raw `json:"canvases"`
}

type rawMetadata struct {
	Label json.RawMessage `json:"label"`
	Value json.RawMessage `json:"value"`
}

type rawService struct {
	ID2     string          `json:"@id"`
	ID3     string          `json:"id"`
	Type    string          `json:"type"`
	Profile json.RawMessage `json:"profile"`
}

func (r raw) id() string {
	if r.ID3 != "" {
		return r.ID3
	}
	return r.ID2
}

func (r raw) kind() string {
	t := r.Type3
	if t == "" {
		t = r.Type2
	}
	return strings.TrimPrefix(t, "sc:")
}

// ParseCollection decodes a collection document.
func ParseCollection(data []byte) (*Collection, error) {
	var r raw
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("iiif: decoding collection: %w", err)
	}
	if r.id() == "" {
		return nil, ErrNoID
	}

	c := &Collection{
		ID:            r.id(),
		Label:         text(r.Label),
		SearchService: searchService(r.Service),
	}
	for _, m := range r.Manifests {
		c.Manifests = append(c.Manifests, ManifestRef{ID: m.id(), Label: text(m.Label)})
	}
	for _, sub := range r.Collections {
		c.Collections = append(c.Collections, sub.id())
	}
	for _, it := range r.Items {
		switch it.kind() {
		case "Manifest":
			c.Manifests = append(c.Manifests, ManifestRef{ID: it.id(), Label: text(it.Label)})
		case "Collection":
			c.Collections = append(c.Collections, it.id())
		}
	}
	return c, nil
}

// ParseManifest decodes a manifest document.
func ParseManifest(data []byte) (*Manifest, error) {
	var r raw
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("iiif: decoding manifest: %w", err)
	}
	if r.id() == "" {
		return nil, ErrNoID
	}

	m := &Manifest{
		ID:            r.id(),
		Label:         text(r.Label),
		Summary:       text(r.Summary),
		SearchService: searchService(r.Service),
	}
	if m.Summary == "" {
		m.Summary = text(r.Description)
	}
	for _, seq := range r.Sequences {
		for _, c := range seq.Canvases {
			m.Canvases = append(m.Canvases, Canvas{ID: c.id(), Label: text(c.Label)})
		}
	}
	for _, it := range r.Items {
		if it.kind() == "Canvas" {
			m.Canvases = append(m.Canvases, Canvas{ID: it.id(), Label: text(it.Label)})
		}
	}
	for _, md := range r.Metadata {
		m.Metadata = append(m.Metadata, MetadataEntry{Label: text(md.Label), Value: text(md.Value)})
	}
	return m, nil
}

// searchService finds the first service that looks like a IIIF search endpoint.
func searchService(msg json.RawMessage) string {
	if len(msg) == 0 {
		return ""
	}
	var services []rawService
	if err := json.Unmarshal(msg, &services); err != nil {
		var one rawService
		if err := json.Unmarshal(msg, &one); err != nil {
			return ""
		}
		services = []rawService{one}
	}
	for _, s := range services {
		id := s.ID3
		if id == "" {
			id = s.ID2
		}
		if strings.HasPrefix(s.Type, "SearchService") || strings.Contains(string(s.Profile), "search") {
			return id
		}
	}
	return ""
}

// text flattens a IIIF language value (string, array, {"@value"} objects or a
// v3 language map) into plain text, stripping any HTML markup.
func text(msg json.RawMessage) string {
	var parts []string
	collectText(msg, &parts)
	return stripHTML(strings.Join(parts, "; "))
}

func collectText(msg json.RawMessage, out *[]string) {
	if len(msg) == 0 {
		return
	}
	var s string
	if err := json.Unmarshal(msg, &s); err == nil {
		if s != "" {
			*out = append(*out, s)
		}
		return
	}
	var list []json.RawMessage
	if err := json.Unmarshal(msg, &list); err == nil {
		for _, it := range list {
			collectText(it, out)
		}
		return
	}
	var v2 struct {
		Value string `json:"@value"`
	}
	if err := json.Unmarshal(msg, &v2); err == nil && v2.Value != "" {
		*out = append(*out, v2.Value)
		return
	}
	var langMap map[string][]string
	if err := json.Unmarshal(msg, &langMap); err == nil {
		for _, lang := range []string{"en", "none"} {
			if vals, ok := langMap[lang]; ok {
				*out = append(*out, vals...)
				return
			}
		}
		for _, vals := range langMap {
			*out = append(*out, vals...)
			return
		}
	}
}

func stripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
