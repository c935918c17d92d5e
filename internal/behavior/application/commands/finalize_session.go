package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/studora/studora/internal/behavior/application/services"
	"github.com/studora/studora/internal/behavior/domain"
	planningDomain "github.com/studora/studora/internal/planning/domain"
	sharedApplication "github.com/studora/studora/internal/shared/application"
	"github.com/studora/studora/internal/shared/infrastructure/outbox"
)

// FinalizeSessionCommand closes a study session with its outcome. A zero
// EndTime means now.
type FinalizeSessionCommand struct {
	SessionID  uuid.UUID
	StudentID  uuid.UUID
	EndTime    time.Time
	Completed  bool
	SelfRating *int
	Difficulty *int
	Notes      string
}

// FinalizeSessionResult reports the session's derived duration and whether
// the profile refresh succeeded.
type FinalizeSessionResult struct {
	ActualMinutes  int
	ProfileUpdated bool
}

// FinalizeSessionHandler closes the session and re-derives the student's
// productivity profile from the accumulated telemetry.
type FinalizeSessionHandler struct {
	sessions   domain.SessionEventRepository
	profiles   domain.ProductivityProfileRepository
	service    *services.ProfileService
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	logger     *slog.Logger
	now        func() time.Time
}

// NewFinalizeSessionHandler creates a new FinalizeSessionHandler.
func NewFinalizeSessionHandler(
	sessions domain.SessionEventRepository,
	profiles domain.ProductivityProfileRepository,
	service *services.ProfileService,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	logger *slog.Logger,
) *FinalizeSessionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FinalizeSessionHandler{
		sessions:   sessions,
		profiles:   profiles,
		service:    service,
		outboxRepo: outboxRepo,
		uow:        uow,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithNow overrides the clock for tests.
func (h *FinalizeSessionHandler) WithNow(now func() time.Time) *FinalizeSessionHandler {
	h.now = now
	return h
}

// Handle executes the FinalizeSessionCommand.
func (h *FinalizeSessionHandler) Handle(ctx context.Context, cmd FinalizeSessionCommand) (*FinalizeSessionResult, error) {
	session, err := h.sessions.FindByID(ctx, cmd.SessionID)
	if err != nil {
		return nil, err
	}
	if session.StudentID() != cmd.StudentID {
		return nil, fmt.Errorf("%w: session belongs to another student", planningDomain.ErrForbidden)
	}

	end := cmd.EndTime
	if end.IsZero() {
		end = h.now()
	}
	if err := session.Finalize(end, cmd.Completed, cmd.SelfRating, cmd.Difficulty, cmd.Notes); err != nil {
		return nil, err
	}

	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		if err := h.sessions.Save(txCtx, session); err != nil {
			return err
		}
		if err := stageEvents(txCtx, h.outboxRepo, cmd.StudentID, session.DomainEvents()); err != nil {
			return err
		}
		session.ClearDomainEvents()
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &FinalizeSessionResult{ActualMinutes: *session.ActualMinutes()}

	// Refresh the profile with the new telemetry. The session is already
	// durable; a failed refresh is reported but does not undo it.
	if err := h.refreshProfile(ctx, cmd.StudentID); err != nil {
		h.logger.Warn("profile refresh after session failed",
			"student_id", cmd.StudentID,
			"session_id", cmd.SessionID,
			"error", err)
		return result, nil
	}
	result.ProfileUpdated = true
	return result, nil
}

func (h *FinalizeSessionHandler) refreshProfile(ctx context.Context, studentID uuid.UUID) error {
	profile, err := h.service.GetOrCreate(ctx, studentID)
	if err != nil {
		return err
	}
	update, err := h.service.DeriveUpdate(ctx, studentID)
	if err != nil {
		return err
	}
	profile.Apply(update, h.now())

	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		if err := h.profiles.Save(txCtx, profile); err != nil {
			return err
		}
		if err := stageEvents(txCtx, h.outboxRepo, studentID, profile.DomainEvents()); err != nil {
			return err
		}
		profile.ClearDomainEvents()
		return nil
	})
}
