package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SessionEventRepository persists session telemetry.
type SessionEventRepository interface {
	Save(ctx context.Context, session *SessionEvent) error
	FindByID(ctx context.Context, id uuid.UUID) (*SessionEvent, error)
	// FindCompletedByStudent returns finalized completed sessions started at
	// or after since, ordered by start time ascending.
	FindCompletedByStudent(ctx context.Context, studentID uuid.UUID, since time.Time) ([]*SessionEvent, error)
	// FindRecentFinalized returns the most recent finalized sessions, newest
	// first, up to limit.
	FindRecentFinalized(ctx context.Context, studentID uuid.UUID, limit int) ([]*SessionEvent, error)
}

// ContextSignalRepository persists context signals.
type ContextSignalRepository interface {
	Save(ctx context.Context, signal *ContextSignal) error
	FindByStudentInRange(ctx context.Context, studentID uuid.UUID, from, to time.Time) ([]*ContextSignal, error)
}

// ProductivityProfileRepository persists the per-student profile.
type ProductivityProfileRepository interface {
	Save(ctx context.Context, profile *ProductivityProfile) error
	FindByStudent(ctx context.Context, studentID uuid.UUID) (*ProductivityProfile, error)
}
