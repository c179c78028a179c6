// Package web declares the HTML routes and their registration helpers.
package web

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/okian/csvpage/internal/domain/sheet"
	"github.com/okian/csvpage/pkg/logger"
)

// DataSource yields the rows rendered by the data route. Scan must release
// any resource it acquires before returning.
type DataSource interface {
	Scan(ctx context.Context, fn func(*sheet.Rows) error) error
}

// Server wires HTTP routes for the web application.
type Server struct {
	helloHandler  *HelloHandler
	dataHandler   *DataHandler
	tokenHandler  *TokenHandler
	healthHandler *HealthHandler
}

// NewServer creates a new web server with all handlers.
func NewServer(data DataSource, renderer *Renderer, gatherer prometheus.Gatherer, log logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{
		helloHandler:  NewHelloHandler(),
		dataHandler:   NewDataHandler(data, renderer, log),
		tokenHandler:  NewTokenHandler(),
		healthHandler: NewHealthHandler(gatherer),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	// {$} anchors the pattern so "/" does not swallow unknown paths.
	mux.HandleFunc("GET /{$}", MetricsMiddleware(s.helloHandler.HandleHello, "hello"))
	mux.HandleFunc("POST /{$}", MetricsMiddleware(s.helloHandler.HandleHello, "hello"))
	mux.HandleFunc("POST /data", MetricsMiddleware(s.dataHandler.HandleData, "data"))
	mux.HandleFunc("GET /csrf-token", MetricsMiddleware(s.tokenHandler.HandleToken, "csrf_token"))
	mux.HandleFunc("GET /healthz", s.healthHandler.HandleHealth)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error body. A nil err yields the status text,
// which keeps internal details out of 5xx responses.
func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
