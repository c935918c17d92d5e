package commands

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/studora/studora/internal/behavior/application/services"
	"github.com/studora/studora/internal/behavior/domain"
	sharedApplication "github.com/studora/studora/internal/shared/application"
	"github.com/studora/studora/internal/shared/infrastructure/outbox"
)

// UpdateProfileCommand re-derives the student's productivity profile from
// recent telemetry.
type UpdateProfileCommand struct {
	StudentID uuid.UUID
}

// UpdateProfileResult contains the refreshed profile.
type UpdateProfileResult struct {
	ProfileID   uuid.UUID
	LastUpdated time.Time
}

// UpdateProfileHandler handles the UpdateProfileCommand.
type UpdateProfileHandler struct {
	profiles   domain.ProductivityProfileRepository
	service    *services.ProfileService
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	now        func() time.Time
}

// NewUpdateProfileHandler creates a new UpdateProfileHandler.
func NewUpdateProfileHandler(
	profiles domain.ProductivityProfileRepository,
	service *services.ProfileService,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
) *UpdateProfileHandler {
	return &UpdateProfileHandler{
		profiles:   profiles,
		service:    service,
		outboxRepo: outboxRepo,
		uow:        uow,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithNow overrides the clock for tests.
func (h *UpdateProfileHandler) WithNow(now func() time.Time) *UpdateProfileHandler {
	h.now = now
	return h
}

// Handle executes the UpdateProfileCommand.
func (h *UpdateProfileHandler) Handle(ctx context.Context, cmd UpdateProfileCommand) (*UpdateProfileResult, error) {
	profile, err := h.service.GetOrCreate(ctx, cmd.StudentID)
	if err != nil {
		return nil, err
	}
	update, err := h.service.DeriveUpdate(ctx, cmd.StudentID)
	if err != nil {
		return nil, err
	}
	profile.Apply(update, h.now())

	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		if err := h.profiles.Save(txCtx, profile); err != nil {
			return err
		}
		if err := stageEvents(txCtx, h.outboxRepo, cmd.StudentID, profile.DomainEvents()); err != nil {
			return err
		}
		profile.ClearDomainEvents()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &UpdateProfileResult{ProfileID: profile.ID(), LastUpdated: profile.LastUpdated()}, nil
}
