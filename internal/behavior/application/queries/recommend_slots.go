package queries

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/studora/studora/internal/behavior/application/services"
	"github.com/studora/studora/internal/behavior/domain"
)

// RecommendSlotsQuery asks for the best upcoming study slots. A zero From
// means now; a zero LookaheadDays uses the default window.
type RecommendSlotsQuery struct {
	StudentID       uuid.UUID
	From            time.Time
	DurationMinutes int
	LookaheadDays   int
}

// RecommendSlotsHandler handles the RecommendSlotsQuery.
type RecommendSlotsHandler struct {
	profiles domain.ProductivityProfileRepository
	service  *services.ProfileService
	now      func() time.Time
}

// NewRecommendSlotsHandler creates a new RecommendSlotsHandler.
func NewRecommendSlotsHandler(profiles domain.ProductivityProfileRepository, service *services.ProfileService) *RecommendSlotsHandler {
	return &RecommendSlotsHandler{
		profiles: profiles,
		service:  service,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithNow overrides the clock for tests.
func (h *RecommendSlotsHandler) WithNow(now func() time.Time) *RecommendSlotsHandler {
	h.now = now
	return h
}

// Handle executes the RecommendSlotsQuery.
func (h *RecommendSlotsHandler) Handle(ctx context.Context, q RecommendSlotsQuery) ([]services.RecommendedSlot, error) {
	profile, err := profileOrDefault(ctx, h.profiles, q.StudentID)
	if err != nil {
		return nil, err
	}
	from := q.From
	if from.IsZero() {
		from = h.now()
	}
	return h.service.RecommendSlots(profile, from, q.DurationMinutes, q.LookaheadDays)
}
