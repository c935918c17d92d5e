package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	planningDomain "github.com/studora/studora/internal/planning/domain"
	sharedDomain "github.com/studora/studora/internal/shared/domain"
)

// Preferences are the student's self-declared planning preferences.
type Preferences struct {
	PreferredStudyTime string `json:"preferred_study_time,omitempty"`
}

// Student is an enrolled person owning obligations, tasks, and a calendar.
type Student struct {
	sharedDomain.BaseAggregateRoot
	name        string
	email       string
	program     string
	year        int
	preferences Preferences
}

// NewStudent creates a student.
func NewStudent(name, email, program string, year int) (*Student, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(strings.ToLower(email))
	if name == "" {
		return nil, fmt.Errorf("%w: student name is required", planningDomain.ErrInvalidInput)
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: valid email is required", planningDomain.ErrInvalidInput)
	}

	return &Student{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(),
		name:              name,
		email:             email,
		program:           program,
		year:              year,
	}, nil
}

// RehydrateStudent recreates a student from persisted state.
func RehydrateStudent(
	id uuid.UUID,
	name, email, program string,
	year int,
	preferences Preferences,
	createdAt, updatedAt time.Time,
) *Student {
	return &Student{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(
			sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		),
		name:        name,
		email:       email,
		program:     program,
		year:        year,
		preferences: preferences,
	}
}

func (s *Student) Name() string             { return s.name }
func (s *Student) Email() string            { return s.email }
func (s *Student) Program() string          { return s.program }
func (s *Student) Year() int                { return s.year }
func (s *Student) Preferences() Preferences { return s.preferences }

// UpdatePreferences replaces the student's planning preferences.
func (s *Student) UpdatePreferences(preferences Preferences) {
	s.preferences = preferences
	s.Touch()
}
