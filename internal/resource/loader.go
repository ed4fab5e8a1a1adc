// Package resource answers collection and manifest requests from the signal
// bus, fetching IIIF documents over HTTP and caching the parsed results.
package resource

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/vidyasagar/iiifnav/internal/browser"
	"github.com/vidyasagar/iiifnav/internal/iiif"
	"github.com/vidyasagar/iiifnav/internal/logging"
	"github.com/vidyasagar/iiifnav/internal/signal"
)

var (
	// ErrUnknownKind is returned for requests that are neither collections nor manifests.
	ErrUnknownKind = errors.New("unknown resource kind")
	// ErrNotFound is returned when an identifier cannot be resolved to a URL.
	ErrNotFound = errors.New("resource not found")
)

// Fetcher retrieves raw IIIF documents.
type Fetcher interface {
	FetchJSON(ctx context.Context, rawURL string) (*browser.FetchResult, error)
}

// Resolver turns short manifest ids into URLs through a template containing
// "{id}", and back.
type Resolver struct {
	template string
}

// NewResolver creates a resolver for the given manifest URL template.
func NewResolver(template string) Resolver {
	return Resolver{template: template}
}

// ManifestURL returns the document URL for a manifest id. Absolute URLs are
// returned unchanged.
func (r Resolver) ManifestURL(id string) (string, error) {
	if isAbsolute(id) {
		return id, nil
	}
	if r.template == "" || id == "" {
		return "", fmt.Errorf("%w: manifest %q", ErrNotFound, id)
	}
	return strings.ReplaceAll(r.template, "{id}", url.PathEscape(id)), nil
}

// ManifestID returns the short id of a manifest URL when it matches the
// template, or the URL itself.
func (r Resolver) ManifestID(manifestURL string) string {
	i := strings.Index(r.template, "{id}")
	if i < 0 {
		return manifestURL
	}
	prefix, suffix := r.template[:i], r.template[i+len("{id}"):]
	if !strings.HasPrefix(manifestURL, prefix) || !strings.HasSuffix(manifestURL, suffix) ||
		len(manifestURL) <= len(prefix)+len(suffix) {
		return manifestURL
	}
	id := manifestURL[len(prefix) : len(manifestURL)-len(suffix)]
	if strings.Contains(id, "/") {
		return manifestURL
	}
	if un, err := url.PathUnescape(id); err == nil {
		return un
	}
	return id
}

func isAbsolute(id string) bool {
	u, err := url.Parse(id)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// Loader serves signal.ResourceRequest from its caches or the network.
type Loader struct {
	ctx         context.Context
	bus         *signal.Bus
	fetcher     Fetcher
	resolver    Resolver
	collections *lru.Cache[string, *iiif.Collection]
	manifests   *lru.Cache[string, *iiif.Manifest]
	log         *logging.Logger
}

// NewLoader creates a loader. ctx bounds every fetch it starts.
func NewLoader(ctx context.Context, bus *signal.Bus, fetcher Fetcher, resolver Resolver, cacheSize int, log *logging.Logger) (*Loader, error) {
	collections, err := lru.New[string, *iiif.Collection](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating collection cache: %w", err)
	}
	manifests, err := lru.New[string, *iiif.Manifest](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating manifest cache: %w", err)
	}
	return &Loader{
		ctx:         ctx,
		bus:         bus,
		fetcher:     fetcher,
		resolver:    resolver,
		collections: collections,
		manifests:   manifests,
		log:         log.WithComponent("resource"),
	}, nil
}

// Start subscribes the loader to resource requests. The returned function
// unsubscribes it.
func (l *Loader) Start() func() {
	return signal.Subscribe(l.bus, l.handleRequest)
}

// Resolver returns the loader's manifest id resolver.
func (l *Loader) Resolver() Resolver {
	return l.resolver
}

// LoadConfigured requests every collection in ids. Each one arrives as a
// signal.CollectionReceived once fetched.
func (l *Loader) LoadConfigured(ids []string) {
	for _, id := range ids {
		l.bus.Publish(signal.ResourceRequest{
			CorrelationID: signal.NewCorrelationID(),
			Kind:          signal.KindCollection,
			ID:            id,
		})
	}
}

// CachedManifest returns a manifest already loaded, by id or URL.
func (l *Loader) CachedManifest(id string) (*iiif.Manifest, bool) {
	u, err := l.resolver.ManifestURL(id)
	if err != nil {
		return nil, false
	}
	return l.manifests.Get(u)
}

// CachedCollection returns a collection already loaded.
func (l *Loader) CachedCollection(id string) (*iiif.Collection, bool) {
	return l.collections.Get(id)
}

func (l *Loader) handleRequest(req signal.ResourceRequest) {
	found := signal.ResourceFound{CorrelationID: req.CorrelationID, Kind: req.Kind, ID: req.ID}

	switch req.Kind {
	case signal.KindCollection:
		if c, ok := l.collections.Get(req.ID); ok {
			found.Collection = c
			l.bus.Publish(found)
			return
		}
		go l.fetchCollection(req.ID, found)

	case signal.KindManifest:
		u, err := l.resolver.ManifestURL(req.ID)
		if err != nil {
			found.Err = err
			l.bus.Publish(found)
			return
		}
		if m, ok := l.manifests.Get(u); ok {
			found.Manifest = m
			l.bus.Publish(found)
			return
		}
		go l.fetchManifest(u, found)

	default:
		found.Err = fmt.Errorf("%w: %v", ErrUnknownKind, req.Kind)
		l.bus.Publish(found)
	}
}

func (l *Loader) fetchCollection(id string, found signal.ResourceFound) {
	c, err := l.loadCollection(id)
	if err != nil {
		l.log.Error().Err(err).Str("collection", id).Msg("collection fetch failed")
		found.Err = err
		l.bus.Post(found)
		return
	}
	l.collections.Add(id, c)
	if c.ID != id {
		l.collections.Add(c.ID, c)
	}
	l.log.Debug().Str("collection", id).Int("manifests", len(c.Manifests)).Msg("collection loaded")

	found.Collection = c
	l.bus.Post(found)
	l.bus.Post(signal.CollectionReceived{Collection: c, RequestedID: id})
}

func (l *Loader) loadCollection(id string) (*iiif.Collection, error) {
	if !isAbsolute(id) {
		return nil, fmt.Errorf("%w: collection %q", ErrNotFound, id)
	}
	res, err := l.fetcher.FetchJSON(l.ctx, id)
	if err != nil {
		return nil, err
	}
	return iiif.ParseCollection(res.Body)
}

func (l *Loader) fetchManifest(u string, found signal.ResourceFound) {
	res, err := l.fetcher.FetchJSON(l.ctx, u)
	var m *iiif.Manifest
	if err == nil {
		m, err = iiif.ParseManifest(res.Body)
	}
	if err != nil {
		l.log.Error().Err(err).Str("manifest", u).Msg("manifest fetch failed")
		found.Err = err
		l.bus.Post(found)
		return
	}
	l.manifests.Add(u, m)
	l.log.Debug().Str("manifest", u).Int("canvases", len(m.Canvases)).Msg("manifest loaded")

	found.Manifest = m
	l.bus.Post(found)
}
