package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	planningDomain "github.com/studora/studora/internal/planning/domain"
	rosterDomain "github.com/studora/studora/internal/roster/domain"
)

// lectureHorizonWeeks bounds how far ahead lecture events materialize; one
// semester of weekly meetings.
const lectureHorizonWeeks = 16

// lecturePriority marks lecture events as hard commitments for the
// scheduler.
const lecturePriority = 1

// LectureExpander materializes a registered course's timetable into
// immovable calendar events.
type LectureExpander struct {
	events planningDomain.CalendarEventRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewLectureExpander creates a lecture expander.
func NewLectureExpander(events planningDomain.CalendarEventRepository, logger *slog.Logger) *LectureExpander {
	if logger == nil {
		logger = slog.Default()
	}
	return &LectureExpander{
		events: events,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithNow overrides the clock for tests.
func (e *LectureExpander) WithNow(now func() time.Time) *LectureExpander {
	e.now = now
	return e
}

// Materialize builds the lecture events for one student and course starting
// from the given instant, without persisting them.
func (e *LectureExpander) Materialize(studentID uuid.UUID, course *rosterDomain.Course, from time.Time) ([]*planningDomain.CalendarEvent, error) {
	from = from.UTC()
	weekAnchor := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)

	var events []*planningDomain.CalendarEvent
	for _, mt := range course.Timetable().Times {
		days, err := mt.Weekdays()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", planningDomain.ErrInvalidInput, err)
		}
		for _, day := range days {
			first := firstOnOrAfter(weekAnchor, day)
			for week := 0; week < lectureHorizonWeeks; week++ {
				date := first.AddDate(0, 0, 7*week)
				event, err := planningDomain.NewCalendarEvent(
					studentID,
					planningDomain.LectureRef(course.ID()),
					mt.StartTime.On(date),
					mt.EndTime.On(date),
					lecturePriority,
				)
				if err != nil {
					return nil, err
				}
				events = append(events, event)
			}
		}
	}

	sort.Slice(events, func(i, j int) bool { return events[i].StartTime().Before(events[j].StartTime()) })
	return events, nil
}

// Regenerate replaces the student's lecture events for the course with a
// fresh expansion of its current timetable, starting now.
func (e *LectureExpander) Regenerate(ctx context.Context, studentID uuid.UUID, course *rosterDomain.Course) (int, error) {
	now := e.now()
	ref := planningDomain.LectureRef(course.ID())

	deleted, err := e.events.DeleteByRefForStudent(ctx, ref, studentID)
	if err != nil {
		return 0, fmt.Errorf("%w: deleting future lecture events: %v", planningDomain.ErrPersistence, err)
	}

	all, err := e.Materialize(studentID, course, now)
	if err != nil {
		return 0, err
	}
	future := all[:0]
	for _, ev := range all {
		if !ev.StartTime().Before(now) {
			future = append(future, ev)
		}
	}
	if err := e.events.SaveBatch(ctx, future); err != nil {
		return 0, fmt.Errorf("%w: saving lecture events: %v", planningDomain.ErrPersistence, err)
	}

	e.logger.Debug("lecture events regenerated",
		"course_id", course.ID(),
		"student_id", studentID,
		"deleted", deleted,
		"created", len(future))
	return len(future), nil
}

// RemoveForStudent deletes the student's lecture events for the course,
// leaving other registrants' calendars alone.
func (e *LectureExpander) RemoveForStudent(ctx context.Context, studentID, courseID uuid.UUID) error {
	if _, err := e.events.DeleteByRefForStudent(ctx, planningDomain.LectureRef(courseID), studentID); err != nil {
		return fmt.Errorf("%w: deleting lecture events: %v", planningDomain.ErrPersistence, err)
	}
	return nil
}

func firstOnOrAfter(anchor time.Time, day time.Weekday) time.Time {
	offset := (int(day) - int(anchor.Weekday()) + 7) % 7
	return anchor.AddDate(0, 0, offset)
}
