package application

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studora/studora/internal/shared/domain"
)

func TestNewEventMetadata(t *testing.T) {
	studentID := uuid.New()

	metadata := NewEventMetadata(studentID)

	assert.Equal(t, studentID, metadata.StudentID)
	assert.NotEqual(t, uuid.Nil, metadata.CorrelationID)
	assert.NotEqual(t, uuid.Nil, metadata.CausationID)
}

func TestApplyEventMetadata(t *testing.T) {
	studentID := uuid.New()
	metadata := NewEventMetadata(studentID)

	event := domain.NewBaseEvent(uuid.New(), "plan", "plan.applied")
	events := []domain.DomainEvent{&event}

	ApplyEventMetadata(events, metadata)

	require.Equal(t, metadata, events[0].Metadata())
	assert.Equal(t, studentID, events[0].Metadata().StudentID)
}
