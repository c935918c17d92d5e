package commands

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/studora/studora/internal/behavior/domain"
	sharedApplication "github.com/studora/studora/internal/shared/application"
)

// StartSessionCommand opens a study session. A zero StartTime means now.
type StartSessionCommand struct {
	StudentID        uuid.UUID
	TaskID           *uuid.UUID
	StartTime        time.Time
	EstimatedMinutes int
}

// StartSessionResult contains the started session id.
type StartSessionResult struct {
	SessionID uuid.UUID
}

// StartSessionHandler handles the StartSessionCommand.
type StartSessionHandler struct {
	repo domain.SessionEventRepository
	uow  sharedApplication.UnitOfWork
	now  func() time.Time
}

// NewStartSessionHandler creates a new StartSessionHandler.
func NewStartSessionHandler(repo domain.SessionEventRepository, uow sharedApplication.UnitOfWork) *StartSessionHandler {
	return &StartSessionHandler{
		repo: repo,
		uow:  uow,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// WithNow overrides the clock for tests.
func (h *StartSessionHandler) WithNow(now func() time.Time) *StartSessionHandler {
	h.now = now
	return h
}

// Handle executes the StartSessionCommand.
func (h *StartSessionHandler) Handle(ctx context.Context, cmd StartSessionCommand) (*StartSessionResult, error) {
	start := cmd.StartTime
	if start.IsZero() {
		start = h.now()
	}

	session, err := domain.NewSessionEvent(cmd.StudentID, cmd.TaskID, start, cmd.EstimatedMinutes)
	if err != nil {
		return nil, err
	}

	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		return h.repo.Save(txCtx, session)
	})
	if err != nil {
		return nil, err
	}

	return &StartSessionResult{SessionID: session.ID()}, nil
}
