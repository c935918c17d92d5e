package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/studora/studora/internal/behavior/domain"
	planningDomain "github.com/studora/studora/internal/planning/domain"
	"github.com/studora/studora/internal/planning/solver"
)

// PlannerWeightsProvider feeds learned slot weights into the scheduler's
// objective. A zero beta or a missing profile yields nil weights, which the
// scheduler treats as unbiased.
type PlannerWeightsProvider struct {
	profiles domain.ProductivityProfileRepository
	beta     float64
}

// NewPlannerWeightsProvider creates a weights provider with the given bias
// strength.
func NewPlannerWeightsProvider(profiles domain.ProductivityProfileRepository, beta float64) *PlannerWeightsProvider {
	return &PlannerWeightsProvider{profiles: profiles, beta: beta}
}

// Weights returns the student's solver bias, or nil when no profile exists or
// biasing is disabled.
func (p *PlannerWeightsProvider) Weights(ctx context.Context, studentID uuid.UUID) (*solver.ProfileWeights, error) {
	if p.beta == 0 {
		return nil, nil
	}
	profile, err := p.profiles.FindByStudent(ctx, studentID)
	if errors.Is(err, planningDomain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &solver.ProfileWeights{
		SlotWeights:    profile.SlotWeights(),
		DayMultipliers: profile.DayMultipliers(),
		Beta:           p.beta,
	}, nil
}
