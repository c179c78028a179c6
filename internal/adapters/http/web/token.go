package web

import (
	"net/http"

	"github.com/okian/csvpage/internal/adapters/csrf"
)

type tokenResponse struct {
	Token      string `json:"csrf_token"`
	HeaderName string `json:"header_name"`
	FormField  string `json:"form_field"`
}

// TokenHandler hands out CSRF tokens to non-browser clients.
type TokenHandler struct{}

// NewTokenHandler creates a new token handler.
func NewTokenHandler() *TokenHandler {
	return &TokenHandler{}
}

// HandleToken handles GET /csrf-token requests. The token is empty when the
// request did not pass through an enforcing guard (testing mode).
func (h *TokenHandler) HandleToken(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, tokenResponse{
		Token:      csrf.Token(r),
		HeaderName: csrf.HeaderName,
		FormField:  csrf.FormFieldName,
	})
}
