package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/vidyasagar/iiifnav/internal/browser"
	"github.com/vidyasagar/iiifnav/internal/config"
	"github.com/vidyasagar/iiifnav/internal/logging"
	"github.com/vidyasagar/iiifnav/internal/navigation"
	"github.com/vidyasagar/iiifnav/internal/resource"
	"github.com/vidyasagar/iiifnav/internal/signal"
	"github.com/vidyasagar/iiifnav/internal/storage"
	"github.com/vidyasagar/iiifnav/internal/urlslicer"
	"github.com/vidyasagar/iiifnav/internal/viewer"
)

// Options configures an Engine.
type Options struct {
	Config *config.Config
	Logger *logging.Logger
	// Fetcher defaults to an HTTP fetcher built from Config.Fetch.
	Fetcher resource.Fetcher
	// Bookmarks is optional.
	Bookmarks *storage.BookmarkStore
	// StartAddress is the session's first address, e.g. from the command line.
	StartAddress string
}

// Engine wires the navigation controller, the viewer workspace, the
// resource loader and the browser session to one signal bus. Apart from
// Close, its methods belong to the bus loop goroutine.
type Engine struct {
	Bus       *signal.Bus
	Slicer    *urlslicer.Slicer
	Session   *browser.Session
	Loader    *resource.Loader
	Nav       *navigation.Controller
	Workspace *viewer.Workspace
	Bookmarks *storage.BookmarkStore

	cfg    *config.Config
	log    *logging.Logger
	cancel context.CancelFunc
	alerts []string
	unsub  []func()
}

// NewEngine builds an engine. Nothing is fetched until Start.
func NewEngine(opts Options) (*Engine, error) {
	cfg := opts.Config
	if cfg == nil {
		d := config.Defaults()
		cfg = &d
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = browser.NewFetcher(browser.FetcherOptions{
			Timeout:         cfg.Fetch.Timeout,
			MaxRetries:      cfg.Fetch.MaxRetries,
			InitialInterval: cfg.Fetch.InitialInterval,
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	bus := signal.NewBus()
	slicer := urlslicer.New(cfg.BaseAddress)

	loader, err := resource.NewLoader(ctx, bus, fetcher, resource.NewResolver(cfg.ManifestTemplate), cfg.CacheSize, log)
	if err != nil {
		cancel()
		return nil, err
	}
	shortID := loader.Resolver().ManifestID

	start := cfg.BaseAddress
	if opts.StartAddress != "" {
		start = addressFor(slicer, opts.StartAddress)
	}
	session := browser.NewSession(start, bus)

	e := &Engine{
		Bus:     bus,
		Slicer:  slicer,
		Session: session,
		Loader:  loader,
		Nav: navigation.New(bus, session, slicer, navigation.Options{
			Collections:       cfg.Collections,
			DefaultCollection: cfg.DefaultCollection,
			ManifestKey:       shortID,
		}, log),
		Workspace: viewer.New(bus, loader, shortID, log),
		Bookmarks: opts.Bookmarks,
		cfg:       cfg,
		log:       log.WithComponent("app"),
		cancel:    cancel,
	}

	e.unsub = append(e.unsub,
		loader.Start(),
		signal.Subscribe(bus, func(a signal.Alert) { e.alerts = append(e.alerts, a.Message) }),
	)
	e.Nav.Start()
	e.Workspace.Start()
	return e, nil
}

// Start requests the configured collections.
func (e *Engine) Start() {
	e.log.Info().Strs("collections", e.cfg.Collections).Msg("loading collections")
	e.Loader.LoadConfigured(e.cfg.Collections)
}

// Drain dispatches pending signals.
func (e *Engine) Drain() int {
	return e.Bus.Drain()
}

// TakeAlerts returns and clears the alerts raised since the last call.
func (e *Engine) TakeAlerts() []string {
	a := e.alerts
	e.alerts = nil
	return a
}

// Navigate treats input like an edit of the address bar.
func (e *Engine) Navigate(input string) {
	e.Session.Navigate(addressFor(e.Slicer, input))
	e.Drain()
}

// Back moves the session one entry back.
func (e *Engine) Back() bool {
	ok := e.Session.Back()
	e.Drain()
	return ok
}

// Forward moves the session one entry forward.
func (e *Engine) Forward() bool {
	ok := e.Session.Forward()
	e.Drain()
	return ok
}

// Go moves the session delta entries.
func (e *Engine) Go(delta int) bool {
	ok := e.Session.Go(delta)
	e.Drain()
	return ok
}

// ToggleBookmark saves or forgets the current address. It reports whether
// the address is saved afterwards.
func (e *Engine) ToggleBookmark() (bool, error) {
	if e.Bookmarks == nil {
		return false, fmt.Errorf("bookmarks are unavailable")
	}
	return e.Bookmarks.Toggle(e.Session.Location(), e.Session.Title())
}

// Close stops in-flight fetches and unsubscribes everything.
func (e *Engine) Close() {
	e.cancel()
	e.Nav.Stop()
	e.Workspace.Stop()
	for _, unsub := range e.unsub {
		unsub()
	}
	e.unsub = nil
}

// addressFor accepts a full address, a '#'-prefixed fragment or a bare
// fragment and returns a full address.
func addressFor(slicer *urlslicer.Slicer, input string) string {
	input = strings.TrimSpace(input)
	if strings.HasPrefix(input, slicer.Base()) || strings.Contains(input, "://") {
		return input
	}
	return slicer.Base() + strings.TrimLeft(input, "#/")
}
