package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/okian/csvpage/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

// HTTPServer returns an http.Server for the configured address. Testing
// mode never serves real traffic, so it yields ErrTestingMode.
func (a *App) HTTPServer() (*http.Server, error) {
	if a.Testing() {
		return nil, ErrTestingMode
	}
	return &http.Server{
		Addr:              a.cfg.Addr,
		Handler:           a.Handler(),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}, nil
}

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully. A nil ln listens on the configured address.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	srv, err := a.HTTPServer()
	if err != nil {
		return err
	}
	if ln == nil {
		ln, err = net.Listen("tcp", srv.Addr)
		if err != nil {
			return err
		}
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info(ctx, "starting HTTP server", logger.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.logger.Info(ctx, "shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	a.logger.Info(ctx, "server stopped")
	return nil
}
