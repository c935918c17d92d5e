package queries

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/studora/studora/internal/planning/domain"
)

// UpcomingEventsQuery asks for a student's calendar over a window.
type UpcomingEventsQuery struct {
	StudentID uuid.UUID
	From      time.Time
	Days      int
}

// UpcomingEventsHandler handles the UpcomingEventsQuery.
type UpcomingEventsHandler struct {
	eventRepo domain.CalendarEventRepository
}

// NewUpcomingEventsHandler creates a new UpcomingEventsHandler.
func NewUpcomingEventsHandler(eventRepo domain.CalendarEventRepository) *UpcomingEventsHandler {
	return &UpcomingEventsHandler{eventRepo: eventRepo}
}

// Handle returns the student's scheduled events in the window, ordered by
// start time.
func (h *UpcomingEventsHandler) Handle(ctx context.Context, q UpcomingEventsQuery) ([]*domain.CalendarEvent, error) {
	days := q.Days
	if days <= 0 {
		days = 7
	}
	from := q.From.UTC()
	to := from.AddDate(0, 0, days)

	events, err := h.eventRepo.FindByStudentInRange(ctx, q.StudentID, from, to)
	if err != nil {
		return nil, err
	}

	scheduled := events[:0]
	for _, ev := range events {
		if ev.Status() == domain.EventScheduled {
			scheduled = append(scheduled, ev)
		}
	}
	sort.Slice(scheduled, func(i, j int) bool {
		return scheduled[i].StartTime().Before(scheduled[j].StartTime())
	})
	return scheduled, nil
}
