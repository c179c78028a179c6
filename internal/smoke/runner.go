package smoke

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/okian/csvpage/pkg/logger"
)

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// ErrChecksFailed is returned when at least one round failed.
var ErrChecksFailed = errors.New("smoke checks failed")

type result struct {
	round   int
	check   string
	err     error
	elapsed time.Duration
}

// Run executes cfg.Rounds rounds of Checks over cfg.Workers workers and
// returns the report. The report is also returned alongside ErrChecksFailed.
func Run(ctx context.Context, cfg *Config) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := cfg.log()

	rep := &Report{
		BaseURL:   cfg.BaseURL,
		StartTime: time.Now(),
		Rounds:    cfg.Rounds,
		Checks:    make(map[string]CheckStats),
	}

	log.Info(ctx, "starting smoke run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("rounds", cfg.Rounds),
		logger.Int("workers", cfg.Workers),
		logger.String("timeout", cfg.Timeout.String()))

	if err := checkServiceHealth(ctx, cfg); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	results := runRounds(ctx, cfg)

	failedRounds := make(map[int]bool)
	for res := range results {
		st := rep.Checks[res.check]
		if res.err != nil {
			st.Failed++
			failedRounds[res.round] = true
			if len(rep.Failures) < maxFailures {
				rep.Failures = append(rep.Failures, Failure{Round: res.round, Check: res.check, Error: res.err.Error()})
			}
			log.Warn(ctx, "check failed",
				logger.Int("round", res.round),
				logger.String("check", res.check),
				logger.Error(res.err))
		} else {
			st.Passed++
			if cfg.Verbose {
				log.Debug(ctx, "check passed",
					logger.Int("round", res.round),
					logger.String("check", res.check),
					logger.String("elapsed", res.elapsed.String()))
			}
		}
		rep.Checks[res.check] = st
	}

	rep.Failed = len(failedRounds)
	rep.Passed = rep.Rounds - rep.Failed
	rep.EndTime = time.Now()
	rep.Duration = rep.EndTime.Sub(rep.StartTime)

	if err := ctx.Err(); err != nil {
		return rep, err
	}

	if cfg.ReportFile != "" {
		if err := WriteReport(cfg.ReportFile, rep); err != nil {
			log.Warn(ctx, "failed to save report", logger.Error(err))
		} else {
			log.Info(ctx, "report saved", logger.String("filename", cfg.ReportFile))
		}
	}

	log.Info(ctx, "final statistics",
		logger.Int("rounds", rep.Rounds),
		logger.Int("passed", rep.Passed),
		logger.Int("failed", rep.Failed),
		logger.String("duration", rep.Duration.String()),
		logger.Float64("successRate", rep.SuccessRate()))

	if rep.Failed > 0 {
		return rep, ErrChecksFailed
	}
	return rep, nil
}

// runRounds fans rounds out to the workers. The returned channel is closed
// once every worker has finished.
func runRounds(ctx context.Context, cfg *Config) <-chan result {
	rounds := make(chan int, cfg.Workers*WorkerChannelMultiplier)
	results := make(chan result, cfg.Workers*WorkerChannelMultiplier)
	checks := Checks()

	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client := NewClient(cfg.BaseURL, cfg.Timeout)
			for n := range rounds {
				runRound(ctx, client, checks, n, results)
			}
		}()
	}

	go func() {
		defer close(rounds)
		for n := 1; n <= cfg.Rounds; n++ {
			select {
			case <-ctx.Done():
				return
			case rounds <- n:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// runRound runs checks in order and stops at the first failure, since
// later checks depend on earlier ones.
func runRound(ctx context.Context, client *Client, checks []Check, n int, out chan<- result) {
	var r Round
	for _, ch := range checks {
		start := time.Now()
		err := ch.Run(ctx, client, &r)
		out <- result{round: n, check: ch.Name, err: err, elapsed: time.Since(start)}
		if err != nil {
			return
		}
	}
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, cfg *Config) error {
	cfg.log().Info(ctx, "checking service health")

	res, err := NewClient(cfg.BaseURL, cfg.Timeout).do(ctx, http.MethodGet, "/healthz", nil, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	if err := expectStatus(res, http.StatusOK); err != nil {
		return err
	}

	cfg.log().Info(ctx, "service is healthy")
	return nil
}
