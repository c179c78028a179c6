// Package csrf attaches cross-site request forgery protection to an
// application. It is a thin layer over github.com/justinas/nosurf: the guard
// is constructed without arguments, then bound once to its host with Init.
package csrf

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/justinas/nosurf"

	"github.com/okian/csvpage/pkg/logger"
	"github.com/okian/csvpage/pkg/metrics"
)

// Names clients use to send the token back, and the cookie holding its secret.
const (
	HeaderName    = nosurf.HeaderName
	FormFieldName = nosurf.FormFieldName
	CookieName    = nosurf.CookieName
)

// Host is the application a guard protects.
type Host interface {
	// Use appends a middleware to the host's handler chain.
	Use(mw func(http.Handler) http.Handler)
	// Testing reports whether enforcement should be bypassed.
	Testing() bool
}

// Guard enforces anti-forgery tokens on state-changing requests.
type Guard struct {
	mu       sync.Mutex
	host     Host
	cookie   http.Cookie
	logger   logger.Logger
	onReject func(reason string)
}

// New returns an unbound guard.
func New(opts ...Option) *Guard {
	g := &Guard{
		cookie: http.Cookie{
			Name:     CookieName,
			Path:     "/",
			MaxAge:   nosurf.MaxAge,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		},
		logger:   logger.Nop(),
		onReject: metrics.RecordCSRFRejection,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Init binds the guard to host. It may be called once.
func (g *Guard) Init(host Host) error {
	if host == nil {
		return ErrNilHost
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.host != nil {
		return ErrAlreadyInitialized
	}
	g.host = host
	host.Use(g.Protect)
	return nil
}

// Protect wraps next so that unsafe methods need a valid token. When the
// host is in testing mode requests go straight to next.
func (g *Guard) Protect(next http.Handler) http.Handler {
	h := nosurf.New(next)
	h.SetBaseCookie(g.cookie)
	h.SetFailureHandler(http.HandlerFunc(g.reject))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.testing() {
			next.ServeHTTP(w, r)
			return
		}
		h.ServeHTTP(w, r)
	})
}

func (g *Guard) testing() bool {
	g.mu.Lock()
	host := g.host
	g.mu.Unlock()
	return host != nil && host.Testing()
}

// reject answers 403 before any route handler runs.
func (g *Guard) reject(w http.ResponseWriter, r *http.Request) {
	reason := reasonLabel(nosurf.Reason(r))
	g.onReject(reason)

	ctx := r.Context()
	logger.FromContext(ctx, g.logger).Warn(ctx, "csrf check failed",
		logger.String("method", r.Method),
		logger.String("path", r.URL.Path),
		logger.String("reason", reason))

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusForbidden)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    "csrf_failed",
		"message": "The CSRF token is missing or invalid.",
	})
}

func reasonLabel(err error) string {
	switch {
	case err == nil:
		return "unknown"
	case errors.Is(err, nosurf.ErrBadToken):
		return "bad_token"
	case errors.Is(err, nosurf.ErrNoReferer):
		return "no_referer"
	case errors.Is(err, nosurf.ErrBadReferer):
		return "bad_referer"
	default:
		return "other"
	}
}

// Token returns the masked token for r, or "" when r did not pass through
// an enforcing guard.
func Token(r *http.Request) string {
	return nosurf.Token(r)
}
