package queries

import (
	"context"

	"github.com/google/uuid"

	"github.com/studora/studora/internal/behavior/domain"
)

// GetProfileQuery fetches a student's productivity profile.
type GetProfileQuery struct {
	StudentID uuid.UUID
}

// GetProfileHandler handles the GetProfileQuery.
type GetProfileHandler struct {
	profiles domain.ProductivityProfileRepository
}

// NewGetProfileHandler creates a new GetProfileHandler.
func NewGetProfileHandler(profiles domain.ProductivityProfileRepository) *GetProfileHandler {
	return &GetProfileHandler{profiles: profiles}
}

// Handle executes the GetProfileQuery.
func (h *GetProfileHandler) Handle(ctx context.Context, q GetProfileQuery) (*domain.ProductivityProfile, error) {
	return h.profiles.FindByStudent(ctx, q.StudentID)
}
