package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/studora/studora/internal/planning/domain"
	"github.com/studora/studora/internal/planning/solver"
	"github.com/studora/studora/pkg/observability"
)

// SolverRunnerConfig tunes the circuit breaker around the solver.
type SolverRunnerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// DefaultSolverRunnerConfig returns the standard breaker settings.
func DefaultSolverRunnerConfig() SolverRunnerConfig {
	return SolverRunnerConfig{
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 3,
	}
}

// SolverRunner executes solves behind a circuit breaker so repeated wall-clock
// blowouts shed load instead of queueing ten-second burns. Domain outcomes
// like infeasibility are not failures; only timeouts and aborts trip it.
type SolverRunner struct {
	engine  *solver.Engine
	breaker *gobreaker.CircuitBreaker[*solver.Result]
	logger  *slog.Logger
	metrics observability.Metrics
}

// NewSolverRunner wraps the engine with breaker protection.
func NewSolverRunner(engine *solver.Engine, cfg SolverRunnerConfig, logger *slog.Logger) *SolverRunner {
	if logger == nil {
		logger = slog.Default()
	}

	settings := gobreaker.Settings{
		Name:        "planning-solver",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			return !errors.Is(err, domain.ErrSolverTimeout) && !errors.Is(err, domain.ErrSolverAborted)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &SolverRunner{
		engine:  engine,
		breaker: gobreaker.NewCircuitBreaker[*solver.Result](settings),
		logger:  logger,
		metrics: observability.NoopMetrics{},
	}
}

// SetMetrics sets the metrics collector for solve runs.
func (r *SolverRunner) SetMetrics(metrics observability.Metrics) {
	if metrics != nil {
		r.metrics = metrics
	}
}

// Run solves the input through the breaker.
func (r *SolverRunner) Run(ctx context.Context, input solver.Input) (*solver.Result, error) {
	start := time.Now()
	result, err := r.breaker.Execute(func() (*solver.Result, error) {
		return r.engine.Solve(ctx, input)
	})

	r.metrics.Counter(observability.MetricSolverRuns, 1)
	r.metrics.Timing(observability.MetricSolverDuration, time.Since(start))
	if errors.Is(err, domain.ErrSolverTimeout) {
		r.metrics.Counter(observability.MetricSolverTimeouts, 1)
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		r.logger.Warn("solver circuit open, rejecting reschedule")
		return nil, domain.ErrSolverAborted
	}
	return result, err
}

// State reports the breaker state, for health reporting.
func (r *SolverRunner) State() string {
	return r.breaker.State().String()
}
