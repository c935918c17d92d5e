package subscribers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/studora/studora/internal/planning/application/commands"
	"github.com/studora/studora/internal/planning/domain"
	"github.com/studora/studora/internal/shared/infrastructure/eventbus"
)

// Rescheduler runs a reschedule for one student.
type Rescheduler interface {
	Handle(ctx context.Context, cmd commands.RescheduleCommand) (*commands.RescheduleResult, error)
}

// RescheduleSubscriber listens for planning-input changes and re-runs the
// scheduler for the affected student.
type RescheduleSubscriber struct {
	rescheduler Rescheduler
	logger      *slog.Logger
	enabled     bool
}

// NewRescheduleSubscriber creates a new reschedule subscriber.
func NewRescheduleSubscriber(rescheduler Rescheduler, logger *slog.Logger) *RescheduleSubscriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &RescheduleSubscriber{
		rescheduler: rescheduler,
		logger:      logger,
		enabled:     true,
	}
}

// SetEnabled enables or disables the subscriber.
func (s *RescheduleSubscriber) SetEnabled(enabled bool) {
	s.enabled = enabled
}

// EventTypes returns the event types this subscriber handles.
func (s *RescheduleSubscriber) EventTypes() []string {
	return []string{
		"planning.obligation.changed",
		"planning.task.changed",
		"roster.registration.changed",
	}
}

// changePayload is the slice of the event body the subscriber needs: who to
// reschedule for and what kind of change arrived.
type changePayload struct {
	StudentID uuid.UUID             `json:"student_id"`
	Kind      domain.ObligationKind `json:"kind,omitempty"`
	Change    domain.ChangeKind     `json:"change,omitempty"`
}

// Handle processes an event.
func (s *RescheduleSubscriber) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	if !s.enabled {
		s.logger.Debug("reschedule subscriber disabled, skipping event",
			"routing_key", event.RoutingKey,
		)
		return nil
	}

	var payload changePayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", event.RoutingKey, err)
	}
	if payload.StudentID == uuid.Nil {
		s.logger.Warn("change event without student id, skipping",
			"routing_key", event.RoutingKey,
			"event_id", event.EventID,
		)
		return nil
	}

	cmd := commands.RescheduleCommand{StudentID: payload.StudentID}
	// A freshly created flexible obligation has no placements yet; its hours
	// come from the weekly target.
	if event.RoutingKey == "planning.obligation.changed" &&
		payload.Kind == domain.ObligationKindFlexible &&
		payload.Change == domain.ChangeCreated {
		obligationID := event.AggregateID
		cmd.NewObligationID = &obligationID
	}

	result, err := s.rescheduler.Handle(ctx, cmd)
	if err != nil {
		return fmt.Errorf("reschedule after %s: %w", event.RoutingKey, err)
	}

	s.logger.Info("reschedule applied",
		"routing_key", event.RoutingKey,
		"student_id", payload.StudentID,
		"applied_events", result.AppliedEvents,
		"solver_status", result.SolverStatus,
	)
	return nil
}
