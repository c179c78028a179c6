package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/csvpage/internal/app"
	"github.com/okian/csvpage/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/smartystreets/goconvey/convey"
)

// setenv sets kv pairs and returns a func that unsets them.
func setenv(kv ...string) func() {
	for i := 0; i+1 < len(kv); i += 2 {
		_ = os.Setenv(kv[i], kv[i+1])
	}
	return func() {
		for i := 0; i < len(kv); i += 2 {
			_ = os.Unsetenv(kv[i])
		}
	}
}

func TestRun(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing mode is configured", func() {
			defer setenv("CSVPAGE_TESTING", "true", "CSVPAGE_ADDR", "127.0.0.1:0")()

			convey.Convey("Then it refuses to bind a listener", func() {
				err := run(context.Background())
				convey.So(errors.Is(err, app.ErrTestingMode), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the configuration is invalid", func() {
			defer setenv("CSVPAGE_LOG_FORMAT", "xml")()

			convey.Convey("Then run fails before serving", func() {
				convey.So(run(context.Background()), convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When the config file does not exist", func() {
			defer setenv("CSVPAGE_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))()

			convey.Convey("Then run reports the load error", func() {
				convey.So(run(context.Background()), convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When serving until the context ends", func() {
			defer setenv("CSVPAGE_ADDR", "127.0.0.1:0", "CSVPAGE_LOG_LEVEL", "error")()
			ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
			defer cancel()

			convey.Convey("Then run returns cleanly", func() {
				convey.So(run(ctx), convey.ShouldBeNil)
			})
		})
	})
}

func TestUpdateSystemMetrics(t *testing.T) {
	convey.Convey("Given the system metrics updater", t, func() {
		updateSystemMetrics()

		convey.Convey("Then the gauges are populated", func() {
			n, err := testutil.GatherAndCount(metrics.GetRegistry(), "csvpage_web_system_goroutines")
			convey.So(err, convey.ShouldBeNil)
			convey.So(n, convey.ShouldEqual, 1)
		})

		convey.Convey("And the updater stops with its context", func() {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})
			go func() {
				startSystemMetricsUpdater(ctx, time.Millisecond)
				close(done)
			}()
			cancel()
			select {
			case <-done:
			case <-time.After(time.Second):
				t.Fatal("updater did not stop")
			}
		})
	})
}
