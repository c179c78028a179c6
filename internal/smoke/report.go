package smoke

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"
)

const (
	directoryPermission = 0o750
	// maxFailures bounds how many failures a report keeps verbatim.
	maxFailures = 50
	// PercentageMultiplier converts a ratio to a percentage.
	PercentageMultiplier = 100
)

// CheckStats counts the outcomes of one check across all rounds.
type CheckStats struct {
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

// Failure records one failed check.
type Failure struct {
	Round int    `json:"round"`
	Check string `json:"check"`
	Error string `json:"error"`
}

// Report is the outcome of a smoke run.
type Report struct {
	BaseURL   string                `json:"base_url"`
	StartTime time.Time             `json:"start_time"`
	EndTime   time.Time             `json:"end_time"`
	Duration  time.Duration         `json:"duration_ns"`
	Rounds    int                   `json:"rounds"`
	Passed    int                   `json:"rounds_passed"`
	Failed    int                   `json:"rounds_failed"`
	Checks    map[string]CheckStats `json:"checks"`
	Failures  []Failure             `json:"failures,omitempty"`
}

// SuccessRate returns the share of passed rounds as a percentage.
func (r *Report) SuccessRate() float64 {
	if r.Rounds == 0 {
		return 0
	}
	return float64(r.Passed) / float64(r.Rounds) * PercentageMultiplier
}

// WriteReport writes r as indented JSON to path. Readers never observe a
// partially written file.
func WriteReport(path string, r *Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
