package solver

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/studora/studora/internal/planning/domain"
)

// Config tunes the solver.
type Config struct {
	SlotMinutes    int
	HorizonDays    int
	NightStartHour int
	NightEndHour   int
	MaxHoursPerDay float64
	MinGapSlots    int
	WallClock      time.Duration
}

// DefaultConfig returns the standard solver settings.
func DefaultConfig() Config {
	return Config{
		SlotMinutes:    60,
		HorizonDays:    14,
		NightStartHour: 23,
		NightEndHour:   8,
		MaxHoursPerDay: 6,
		MinGapSlots:    1,
		WallClock:      10 * time.Second,
	}
}

// Engine builds and solves the placement model for one student's inputs.
// Runs are deterministic: identical inputs produce identical assignments.
type Engine struct {
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

// NewEngine creates a solver engine.
func NewEngine(cfg Config, logger *slog.Logger) *Engine {
	if cfg.SlotMinutes == 0 {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		cfg:    cfg,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithNow overrides the engine clock, for tests.
func (e *Engine) WithNow(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Solve produces an overlap-free assignment for the input, retrying once with
// the night window relaxed when the primary pass finds nothing.
func (e *Engine) Solve(ctx context.Context, input Input) (*Result, error) {
	if len(input.Tasks) == 0 {
		return &Result{Status: StatusOptimal}, nil
	}

	primary, err := e.pass(ctx, input, false)
	if err != nil {
		return nil, err
	}
	if primary.found {
		status := StatusFeasible
		if primary.exhausted {
			status = StatusOptimal
		}
		return e.result(primary, status), nil
	}

	e.logger.Info("primary pass found no assignment, relaxing night window",
		"exhausted", primary.exhausted,
		"nodes", primary.nodes,
	)

	relaxed, err := e.pass(ctx, input, true)
	if err != nil {
		return nil, err
	}
	if relaxed.found {
		return e.result(relaxed, StatusFeasibleRelaxed), nil
	}
	if !relaxed.exhausted {
		return &Result{Status: StatusInfeasible, NodesExplored: relaxed.nodes}, domain.ErrSolverTimeout
	}
	return &Result{Status: StatusInfeasible, NodesExplored: relaxed.nodes}, domain.ErrInfeasible
}

func (e *Engine) pass(ctx context.Context, input Input, relaxNight bool) (*searcher, error) {
	m, err := buildModel(input, modelParams{
		slotMinutes:    e.cfg.SlotMinutes,
		horizonDays:    e.cfg.HorizonDays,
		nightStartHour: e.cfg.NightStartHour,
		nightEndHour:   e.cfg.NightEndHour,
		maxHoursPerDay: e.cfg.MaxHoursPerDay,
		minGapSlots:    e.cfg.MinGapSlots,
		relaxNight:     relaxNight,
		now:            e.now(),
	})
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(e.cfg.WallClock)
	s := newSearcher(ctx, m, deadline)
	if err := s.run(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, domain.ErrSolverTimeout
		}
		return nil, domain.ErrSolverAborted
	}

	e.logger.Debug("solver pass finished",
		"relax_night", relaxNight,
		"found", s.found,
		"exhausted", s.exhausted,
		"nodes", s.nodes,
		"objective", s.bestCost,
	)

	return s, nil
}

func (e *Engine) result(s *searcher, status Status) *Result {
	sessions := make([]PlacedSession, 0, len(s.m.sessions))
	for i, sess := range s.m.sessions {
		slot := s.best[i]
		sessions = append(sessions, PlacedSession{
			TaskID:       sess.taskID,
			SessionIndex: sess.index,
			Start:        s.m.grid.At(slot),
			End:          s.m.grid.At(slot + sess.durSlots),
			Priority:     sess.priority,
			IsStudy:      sess.isStudy,
		})
	}
	sort.Slice(sessions, func(a, b int) bool {
		if !sessions[a].Start.Equal(sessions[b].Start) {
			return sessions[a].Start.Before(sessions[b].Start)
		}
		if sessions[a].TaskID != sessions[b].TaskID {
			return sessions[a].TaskID.String() < sessions[b].TaskID.String()
		}
		return sessions[a].SessionIndex < sessions[b].SessionIndex
	})

	return &Result{
		Status:        status,
		Sessions:      sessions,
		Objective:     s.bestCost,
		NodesExplored: s.nodes,
	}
}
