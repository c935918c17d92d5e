package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	planningDomain "github.com/studora/studora/internal/planning/domain"
	sharedDomain "github.com/studora/studora/internal/shared/domain"
	"github.com/studora/studora/internal/timegrid"
)

// MeetingTime is one recurring timetable slot: a day-letter pattern plus the
// wall-clock window and location.
type MeetingTime struct {
	Days      string                  `json:"days"`
	StartTime planningDomain.TimeOfDay `json:"start_time"`
	EndTime   planningDomain.TimeOfDay `json:"end_time"`
	Building  string                  `json:"building,omitempty"`
	Room      string                  `json:"room,omitempty"`
}

// Weekdays decodes the day-letter pattern.
func (m MeetingTime) Weekdays() ([]time.Weekday, error) {
	return timegrid.ParseDayPattern(m.Days)
}

// Timetable is a course's full set of meeting times.
type Timetable struct {
	Times []MeetingTime `json:"times"`
}

// ParseBannerClock parses registrar-style clock strings such as "0930" or
// "1215" into a TimeOfDay.
func ParseBannerClock(s string) (planningDomain.TimeOfDay, error) {
	trimmed := strings.TrimSpace(s)
	if len(trimmed) != 4 {
		return 0, fmt.Errorf("%w: clock string %q must be four digits", planningDomain.ErrInvalidInput, s)
	}
	hour, err := strconv.Atoi(trimmed[:2])
	if err != nil {
		return 0, fmt.Errorf("%w: clock string %q", planningDomain.ErrInvalidInput, s)
	}
	minute, err := strconv.Atoi(trimmed[2:])
	if err != nil {
		return 0, fmt.Errorf("%w: clock string %q", planningDomain.ErrInvalidInput, s)
	}
	return planningDomain.NewTimeOfDay(hour, minute)
}

// Course is one registrar section, uniquely identified by its CRN within a
// semester sync.
type Course struct {
	sharedDomain.BaseAggregateRoot
	code             string
	name             string
	crn              int
	section          int
	credits          int
	actualEnrollment int
	maxEnrollment    int
	instructor       string
	semester         string
	timetable        Timetable
}

// NewCourse creates a course section.
func NewCourse(
	code, name string,
	crn, section, credits int,
	instructor, semester string,
	timetable Timetable,
) (*Course, error) {
	if strings.TrimSpace(code) == "" || strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: course code and name are required", planningDomain.ErrInvalidInput)
	}
	if crn <= 0 {
		return nil, fmt.Errorf("%w: course CRN must be positive", planningDomain.ErrInvalidInput)
	}
	if strings.TrimSpace(semester) == "" {
		return nil, fmt.Errorf("%w: semester is required", planningDomain.ErrInvalidInput)
	}
	for _, mt := range timetable.Times {
		if _, err := mt.Weekdays(); err != nil {
			return nil, fmt.Errorf("%w: %v", planningDomain.ErrInvalidInput, err)
		}
		if mt.EndTime <= mt.StartTime {
			return nil, fmt.Errorf("%w: meeting end %s not after start %s", planningDomain.ErrInvalidInput, mt.EndTime, mt.StartTime)
		}
	}

	return &Course{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(),
		code:              strings.TrimSpace(code),
		name:              strings.TrimSpace(name),
		crn:               crn,
		section:           section,
		credits:           credits,
		instructor:        instructor,
		semester:          semester,
		timetable:         timetable,
	}, nil
}

// RehydrateCourse recreates a course from persisted state.
func RehydrateCourse(
	id uuid.UUID,
	code, name string,
	crn, section, credits, actualEnrollment, maxEnrollment int,
	instructor, semester string,
	timetable Timetable,
	createdAt, updatedAt time.Time,
) *Course {
	return &Course{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(
			sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		),
		code:             code,
		name:             name,
		crn:              crn,
		section:          section,
		credits:          credits,
		actualEnrollment: actualEnrollment,
		maxEnrollment:    maxEnrollment,
		instructor:       instructor,
		semester:         semester,
		timetable:        timetable,
	}
}

func (c *Course) Code() string          { return c.code }
func (c *Course) Name() string          { return c.name }
func (c *Course) CRN() int              { return c.crn }
func (c *Course) Section() int          { return c.section }
func (c *Course) Credits() int          { return c.credits }
func (c *Course) ActualEnrollment() int { return c.actualEnrollment }
func (c *Course) MaxEnrollment() int    { return c.maxEnrollment }
func (c *Course) Instructor() string    { return c.instructor }
func (c *Course) Semester() string      { return c.semester }
func (c *Course) Timetable() Timetable  { return c.timetable }

// SyncDetails refreshes the registrar-sourced fields during a catalog sync,
// keeping the course identity stable across runs.
func (c *Course) SyncDetails(
	code, name string,
	section, credits, actualEnrollment, maxEnrollment int,
	instructor, semester string,
	timetable Timetable,
) {
	c.code = code
	c.name = name
	c.section = section
	c.credits = credits
	c.actualEnrollment = actualEnrollment
	c.maxEnrollment = maxEnrollment
	c.instructor = instructor
	c.semester = semester
	c.timetable = timetable
	c.Touch()
}

// SetEnrollment updates the seat counters.
func (c *Course) SetEnrollment(actual, max int) {
	c.actualEnrollment = actual
	c.maxEnrollment = max
	c.Touch()
}
