// Package pubcontent checks the front-matter of a blog content collection.
// It loads Markdown files, validates every post against the blog schema,
// keeps the valid posts in a SQLite index and serves them over an Echo API.
//
// The schema itself lives in the schema package; front-matter extraction
// lives in the frontmatter package.
package pubcontent

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/eringen/pubcontent/logging"
)

// App wires together the loader, store, cache, handlers and middleware.
type App struct {
	Config  Config
	Echo    *echo.Echo
	Store   *Store
	Cache   *PostCache
	Loader  *Loader
	Metrics *Metrics

	limiter      *RateLimiter
	customRoutes []func(*App)
	log          zerolog.Logger

	mu   sync.RWMutex
	last *Collection
}

// New creates a new App with the given configuration.
func New(cfg Config, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
		log:    logging.WithComponent("server"),
	}
	a.Echo.HideBanner = true
	a.Echo.HidePort = true

	for _, opt := range opts {
		opt(a)
	}
	if a.Metrics == nil {
		a.Metrics = DefaultMetrics
	}

	return a
}

// Init opens the index, builds the loader and registers middleware and
// routes. Start calls it; tests call it directly and drive a.Echo.
func (a *App) Init() error {
	if dir := filepath.Dir(a.Config.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("pubcontent: create data dir: %w", err)
		}
	}
	store, err := NewStore(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("pubcontent: init store: %w", err)
	}
	a.Store = store
	a.Cache = NewPostCache(a.Store, a.Config.CacheTTL)

	loader, err := NewLoader(a.Config, a.Metrics)
	if err != nil {
		return err
	}
	a.Loader = loader
	a.limiter = NewRateLimiter(a.Config.RateLimit, time.Minute)

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

// Start initializes the app, indexes the collection once and serves until
// the server is shut down.
func (a *App) Start() error {
	if err := a.Init(); err != nil {
		return err
	}

	ctx := context.Background()
	c, stats, err := a.Reindex(ctx)
	if err != nil {
		return err
	}
	a.log.Info().
		Int("saved", stats.Saved).
		Int("removed", stats.Removed).
		Int("invalid", len(c.Errors)).
		Str("addr", a.Config.Addr).
		Msg("serving content index")

	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Reindex reloads the content directory and syncs the valid entries into
// the store. Posts whose files were deleted or became invalid are dropped
// from the index; invalid files are reported through the returned collection.
func (a *App) Reindex(ctx context.Context) (*Collection, SyncStats, error) {
	c, err := a.Loader.Load(ctx)
	if err != nil {
		return nil, SyncStats{}, err
	}
	stats, err := a.Store.Sync(ctx, c.Entries)
	if err != nil {
		return nil, SyncStats{}, fmt.Errorf("pubcontent: sync index: %w", err)
	}
	a.Cache.Invalidate()

	a.mu.Lock()
	a.last = c
	a.mu.Unlock()
	return c, stats, nil
}

// LastCollection returns the most recently loaded collection, or nil.
func (a *App) LastCollection() *Collection {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.last
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.limiter != nil {
		a.limiter.Stop()
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
