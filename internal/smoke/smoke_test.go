package smoke_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okian/csvpage/internal/app"
	"github.com/okian/csvpage/internal/config"
	"github.com/okian/csvpage/internal/smoke"
)

func newServer(t *testing.T, testingMode bool) *httptest.Server {
	t.Helper()
	data := fstest.MapFS{"data.csv": {Data: []byte("a,b\n1,2\n")}}
	a, err := app.New(config.New(), app.WithDataFS(data, "data.csv"))
	require.NoError(t, err)
	a.SetTesting(testingMode)
	srv := httptest.NewServer(a.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(baseURL string) *smoke.Config {
	cfg := smoke.DefaultConfig()
	cfg.BaseURL = baseURL
	cfg.Rounds = 6
	cfg.Workers = 3
	cfg.Timeout = 5 * time.Second
	return cfg
}

func TestRunPasses(t *testing.T) {
	srv := newServer(t, false)
	cfg := testConfig(srv.URL)
	cfg.ReportFile = filepath.Join(t.TempDir(), "out", "smoke.json")

	rep, err := smoke.Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, 6, rep.Rounds)
	assert.Equal(t, 6, rep.Passed)
	assert.Zero(t, rep.Failed)
	assert.InDelta(t, 100.0, rep.SuccessRate(), 0.001)
	for _, ch := range smoke.Checks() {
		assert.Equal(t, smoke.CheckStats{Passed: 6}, rep.Checks[ch.Name], ch.Name)
	}

	raw, err := os.ReadFile(cfg.ReportFile)
	require.NoError(t, err)
	var saved smoke.Report
	require.NoError(t, json.Unmarshal(raw, &saved))
	assert.Equal(t, rep.Passed, saved.Passed)
	assert.Equal(t, srv.URL, saved.BaseURL)
}

func TestRunDetectsDisabledGuard(t *testing.T) {
	srv := newServer(t, true)
	cfg := testConfig(srv.URL)

	rep, err := smoke.Run(context.Background(), cfg)
	require.ErrorIs(t, err, smoke.ErrChecksFailed)
	require.NotNil(t, rep)

	assert.Equal(t, 6, rep.Failed)
	assert.Equal(t, 6, rep.Checks["reject_without_token"].Failed)
	// Rounds stop at the first failure.
	assert.Zero(t, rep.Checks["hello"].Passed+rep.Checks["hello"].Failed)
	require.NotEmpty(t, rep.Failures)
	assert.Equal(t, "reject_without_token", rep.Failures[0].Check)
}

func TestRunUnreachable(t *testing.T) {
	srv := newServer(t, false)
	url := srv.URL
	srv.Close()

	_, err := smoke.Run(context.Background(), testConfig(url))
	assert.ErrorContains(t, err, "service health check failed")
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*smoke.Config)
	}{
		{"relative url", func(c *smoke.Config) { c.BaseURL = "localhost:5000" }},
		{"zero rounds", func(c *smoke.Config) { c.Rounds = 0 }},
		{"zero workers", func(c *smoke.Config) { c.Workers = 0 }},
		{"zero timeout", func(c *smoke.Config) { c.Timeout = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := smoke.DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), smoke.ErrInvalidConfig)
		})
	}

	assert.NoError(t, smoke.DefaultConfig().Validate())
}

func TestClientToken(t *testing.T) {
	srv := newServer(t, false)
	c := smoke.NewClient(srv.URL+"/", time.Second)

	token, err := c.Token(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	bypass := newServer(t, true)
	_, err = smoke.NewClient(bypass.URL, time.Second).Token(context.Background())
	assert.ErrorContains(t, err, "empty token")
}

func TestWriteReportReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.json")
	require.NoError(t, smoke.WriteReport(path, &smoke.Report{Rounds: 1}))
	require.NoError(t, smoke.WriteReport(path, &smoke.Report{Rounds: 2}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var got smoke.Report
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, 2, got.Rounds)
}
