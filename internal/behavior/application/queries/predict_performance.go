package queries

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/studora/studora/internal/behavior/application/services"
	"github.com/studora/studora/internal/behavior/domain"
	planningDomain "github.com/studora/studora/internal/planning/domain"
)

// PredictPerformanceQuery estimates how a session at the given slot will go.
type PredictPerformanceQuery struct {
	StudentID       uuid.UUID
	Start           time.Time
	DurationMinutes int
}

// PredictPerformanceHandler handles the PredictPerformanceQuery.
type PredictPerformanceHandler struct {
	profiles domain.ProductivityProfileRepository
	service  *services.ProfileService
}

// NewPredictPerformanceHandler creates a new PredictPerformanceHandler.
func NewPredictPerformanceHandler(profiles domain.ProductivityProfileRepository, service *services.ProfileService) *PredictPerformanceHandler {
	return &PredictPerformanceHandler{profiles: profiles, service: service}
}

// Handle executes the PredictPerformanceQuery. A student without a stored
// profile is predicted against the defaults.
func (h *PredictPerformanceHandler) Handle(ctx context.Context, q PredictPerformanceQuery) (*services.Prediction, error) {
	profile, err := profileOrDefault(ctx, h.profiles, q.StudentID)
	if err != nil {
		return nil, err
	}
	prediction, err := h.service.Predict(profile, q.Start, q.DurationMinutes)
	if err != nil {
		return nil, err
	}
	return &prediction, nil
}

// profileOrDefault loads the stored profile or falls back to an in-memory
// default without persisting it.
func profileOrDefault(ctx context.Context, profiles domain.ProductivityProfileRepository, studentID uuid.UUID) (*domain.ProductivityProfile, error) {
	profile, err := profiles.FindByStudent(ctx, studentID)
	if err == nil {
		return profile, nil
	}
	if errors.Is(err, planningDomain.ErrNotFound) {
		return domain.NewDefaultProfile(studentID)
	}
	return nil, err
}
