package web

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	"github.com/okian/csvpage/internal/adapters/csrf"
	"github.com/okian/csvpage/internal/domain/sheet"
	"github.com/okian/csvpage/pkg/logger"
	"github.com/okian/csvpage/pkg/metrics"
)

// Template contract of the data route.
const (
	DataTemplate = "data.html"
	// RowsVar names the lazy row sequence inside DataTemplate.
	RowsVar = "csv"
	// TokenVar names the CSRF token inside DataTemplate.
	TokenVar = "csrf_token"
)

// DataHandler renders the CSV data source through DataTemplate.
type DataHandler struct {
	source   DataSource
	renderer *Renderer
	logger   logger.Logger
}

// NewDataHandler creates a new data handler.
func NewDataHandler(source DataSource, renderer *Renderer, log logger.Logger) *DataHandler {
	return &DataHandler{source: source, renderer: renderer, logger: log}
}

// HandleData handles POST /data requests.
func (h *DataHandler) HandleData(w http.ResponseWriter, r *http.Request) {
	const op = "web.data"
	ctx := r.Context()

	// Render into a buffer so a failure halfway through never reaches the client as a 200.
	var page bytes.Buffer
	err := h.source.Scan(ctx, func(rows *sheet.Rows) error {
		start := time.Now()
		err := h.renderer.Execute(&page, DataTemplate, map[string]any{
			RowsVar:  rows.All(),
			TokenVar: csrf.Token(r),
		})
		metrics.RecordTemplateRender(DataTemplate, float64(time.Since(start).Microseconds())/1000)
		metrics.RecordCSVRows(rows.Count())
		return err
	})
	if err != nil {
		kind := failureKind(err)
		metrics.RecordCSVReadError(kind)
		logger.FromContext(ctx, h.logger).Error(ctx, "data route failed",
			logger.String("kind", kind),
			logger.Error(WrapKind(op, ErrDataUnavailable, err)))
		writeError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = page.WriteTo(w)
}

func failureKind(err error) string {
	switch {
	case errors.Is(err, sheet.ErrOpen):
		return "open"
	case errors.Is(err, sheet.ErrParse):
		return "parse"
	case errors.Is(err, ErrRender):
		return "render"
	default:
		return "other"
	}
}
