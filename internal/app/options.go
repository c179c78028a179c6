package app

import (
	"io/fs"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/okian/csvpage/internal/domain/sheet"
	"github.com/okian/csvpage/pkg/logger"
)

// Option applies a configuration option to the App.
type Option func(*App)

// WithLogger sets a custom logger for the App.
func WithLogger(l logger.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithTemplateFS replaces the template set. Files are matched by *.html at
// the root of fsys.
func WithTemplateFS(fsys fs.FS) Option {
	return func(a *App) {
		if fsys != nil {
			a.templates = fsys
		}
	}
}

// WithDataFS reads the data route's CSV from name inside fsys instead of
// the configured data file.
func WithDataFS(fsys fs.FS, name string) Option {
	return func(a *App) {
		if fsys != nil && name != "" {
			a.data = sheet.File{FS: fsys, Name: name}
		}
	}
}

// WithGatherer sets the registry served by /healthz.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(a *App) {
		if g != nil {
			a.gatherer = g
		}
	}
}
