package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/studora/studora/internal/shared/domain"
)

func TestNewBaseEvent(t *testing.T) {
	aggregateID := uuid.New()
	before := time.Now().UTC()

	event := domain.NewBaseEvent(aggregateID, "obligation", "obligation.changed")

	assert.NotEqual(t, uuid.Nil, event.EventID())
	assert.Equal(t, aggregateID, event.AggregateID())
	assert.Equal(t, "obligation", event.AggregateType())
	assert.Equal(t, "obligation.changed", event.RoutingKey())
	assert.False(t, event.OccurredAt().Before(before))
}

func TestBaseEvent_SetMetadata(t *testing.T) {
	event := domain.NewBaseEvent(uuid.New(), "profile", "profile.updated")
	metadata := domain.EventMetadata{
		CorrelationID: uuid.New(),
		CausationID:   uuid.New(),
		StudentID:     uuid.New(),
	}

	event.SetMetadata(metadata)

	assert.Equal(t, metadata, event.Metadata())
}
