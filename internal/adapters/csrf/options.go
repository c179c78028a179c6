package csrf

import (
	"net/http"

	"github.com/okian/csvpage/pkg/logger"
)

// Option configures a Guard.
type Option func(*Guard)

// WithSecureCookie marks the cookie Secure so browsers only send it over HTTPS.
func WithSecureCookie(secure bool) Option {
	return func(g *Guard) {
		g.cookie.Secure = secure
	}
}

// WithMaxAge sets the cookie lifetime in seconds. Zero keeps the default.
func WithMaxAge(seconds int) Option {
	return func(g *Guard) {
		if seconds > 0 {
			g.cookie.MaxAge = seconds
		}
	}
}

// WithSameSite sets the cookie SameSite mode.
func WithSameSite(mode http.SameSite) Option {
	return func(g *Guard) {
		g.cookie.SameSite = mode
	}
}

// WithLogger sets the fallback logger used when a request carries none.
func WithLogger(l logger.Logger) Option {
	return func(g *Guard) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithRejectHook replaces the hook called with the reason of every rejection.
func WithRejectHook(fn func(reason string)) Option {
	return func(g *Guard) {
		if fn != nil {
			g.onReject = fn
		}
	}
}
