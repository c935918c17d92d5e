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

// ColdStartProfileCommand seeds a profile with prior slot weights for a
// student who has no session history yet.
type ColdStartProfileCommand struct {
	StudentID  uuid.UUID
	Preference services.StudyTimePreference
}

// ColdStartProfileResult contains the seeded profile.
type ColdStartProfileResult struct {
	ProfileID   uuid.UUID
	PeakWindows []domain.PeakWindow
}

// ColdStartProfileHandler handles the ColdStartProfileCommand.
type ColdStartProfileHandler struct {
	profiles   domain.ProductivityProfileRepository
	service    *services.ProfileService
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	now        func() time.Time
}

// NewColdStartProfileHandler creates a new ColdStartProfileHandler.
func NewColdStartProfileHandler(
	profiles domain.ProductivityProfileRepository,
	service *services.ProfileService,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
) *ColdStartProfileHandler {
	return &ColdStartProfileHandler{
		profiles:   profiles,
		service:    service,
		outboxRepo: outboxRepo,
		uow:        uow,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithNow overrides the clock for tests.
func (h *ColdStartProfileHandler) WithNow(now func() time.Time) *ColdStartProfileHandler {
	h.now = now
	return h
}

// Handle executes the ColdStartProfileCommand.
func (h *ColdStartProfileHandler) Handle(ctx context.Context, cmd ColdStartProfileCommand) (*ColdStartProfileResult, error) {
	update, err := h.service.ColdStartUpdate(cmd.Preference)
	if err != nil {
		return nil, err
	}
	profile, err := h.service.GetOrCreate(ctx, cmd.StudentID)
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

	return &ColdStartProfileResult{ProfileID: profile.ID(), PeakWindows: profile.PeakWindows()}, nil
}
