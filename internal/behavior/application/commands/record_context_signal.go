package commands

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/studora/studora/internal/behavior/domain"
	sharedApplication "github.com/studora/studora/internal/shared/application"
)

// RecordContextSignalCommand stores one context observation.
type RecordContextSignalCommand struct {
	StudentID uuid.UUID
	Kind      domain.SignalKind
	StartTime time.Time
	EndTime   time.Time
	Payload   map[string]string
}

// RecordContextSignalResult contains the stored signal id.
type RecordContextSignalResult struct {
	SignalID uuid.UUID
}

// RecordContextSignalHandler handles the RecordContextSignalCommand.
type RecordContextSignalHandler struct {
	repo domain.ContextSignalRepository
	uow  sharedApplication.UnitOfWork
}

// NewRecordContextSignalHandler creates a new RecordContextSignalHandler.
func NewRecordContextSignalHandler(repo domain.ContextSignalRepository, uow sharedApplication.UnitOfWork) *RecordContextSignalHandler {
	return &RecordContextSignalHandler{repo: repo, uow: uow}
}

// Handle executes the RecordContextSignalCommand.
func (h *RecordContextSignalHandler) Handle(ctx context.Context, cmd RecordContextSignalCommand) (*RecordContextSignalResult, error) {
	signal, err := domain.NewContextSignal(cmd.StudentID, cmd.Kind, cmd.StartTime, cmd.EndTime, cmd.Payload)
	if err != nil {
		return nil, err
	}

	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		return h.repo.Save(txCtx, signal)
	})
	if err != nil {
		return nil, err
	}

	return &RecordContextSignalResult{SignalID: signal.ID()}, nil
}
