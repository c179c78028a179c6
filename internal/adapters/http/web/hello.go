package web

import (
	"io"
	"net/http"
)

// HelloBody is the exact response of the hello route.
const HelloBody = "<h1>Hello, World!</h1>"

// HelloHandler serves the static greeting.
type HelloHandler struct{}

// NewHelloHandler creates a new hello handler.
func NewHelloHandler() *HelloHandler {
	return &HelloHandler{}
}

// HandleHello handles GET and POST / requests.
func (h *HelloHandler) HandleHello(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, HelloBody)
}
