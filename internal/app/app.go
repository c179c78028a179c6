// Package app assembles the web application: routes, middleware, the CSRF
// guard and the testing flag.
package app

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/okian/csvpage/internal/adapters/csrf"
	"github.com/okian/csvpage/internal/adapters/http/docs"
	"github.com/okian/csvpage/internal/adapters/http/web"
	"github.com/okian/csvpage/internal/config"
	"github.com/okian/csvpage/internal/domain/sheet"
	"github.com/okian/csvpage/pkg/logger"
)

// App is the configured server object of a process. It owns the route
// bindings, the testing flag and the CSRF guard.
type App struct {
	cfg *config.Config
	mux *http.ServeMux

	mu         sync.RWMutex
	middleware []func(http.Handler) http.Handler

	testing atomic.Bool
	guard   *csrf.Guard

	logger    logger.Logger
	templates fs.FS
	data      web.DataSource
	gatherer  prometheus.Gatherer
}

// New builds an App from cfg. A nil cfg means defaults.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		cfg = config.New()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &App{
		cfg:    cfg,
		mux:    http.NewServeMux(),
		logger: logger.Nop(),
		data:   sheet.OpenPath(cfg.DataFile),
	}
	if cfg.TemplateDir != "" {
		a.templates = os.DirFS(cfg.TemplateDir)
	}
	for _, opt := range opts {
		opt(a)
	}
	a.testing.Store(cfg.Testing)

	renderer, err := web.NewRenderer(a.templates)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	ctx := context.Background()
	web.NewServer(a.data, renderer, a.gatherer, a.logger).Register(ctx, a.mux)
	docs.Register(ctx, a.mux)

	// Request ids first, so guard rejections are logged with one.
	a.Use(web.RequestLogger(a.logger))

	a.guard = csrf.New(
		csrf.WithSecureCookie(cfg.CSRFCookieSecure),
		csrf.WithMaxAge(cfg.CSRFMaxAge),
		csrf.WithLogger(a.logger),
	)
	if err := a.guard.Init(a); err != nil {
		return nil, fmt.Errorf("app: csrf: %w", err)
	}

	return a, nil
}

// Config returns the configuration the App was built with.
func (a *App) Config() *config.Config { return a.cfg }

// Use attaches mw. The first middleware attached is the outermost.
// Handlers returned by Handler before the call are not affected.
func (a *App) Use(mw func(http.Handler) http.Handler) {
	if mw == nil {
		return
	}
	a.mu.Lock()
	a.middleware = append(a.middleware, mw)
	a.mu.Unlock()
}

// Handler returns the route mux wrapped in the attached middleware.
func (a *App) Handler() http.Handler {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var h http.Handler = a.mux
	for i := len(a.middleware) - 1; i >= 0; i-- {
		h = a.middleware[i](h)
	}
	return h
}

// SetTesting switches testing mode. It takes effect on the next request.
func (a *App) SetTesting(on bool) { a.testing.Store(on) }

// Testing reports whether testing mode is on.
func (a *App) Testing() bool { return a.testing.Load() }
