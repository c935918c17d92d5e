package domain_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studora/studora/internal/shared/domain"
)

func TestNewBaseAggregateRoot(t *testing.T) {
	agg := domain.NewBaseAggregateRoot()

	assert.NotEqual(t, uuid.Nil, agg.ID())
	assert.Empty(t, agg.DomainEvents())
}

func TestBaseAggregateRoot_DomainEvents(t *testing.T) {
	agg := domain.NewBaseAggregateRoot()
	event := domain.NewBaseEvent(agg.ID(), "plan", "plan.applied")

	agg.AddDomainEvent(&event)
	require.Len(t, agg.DomainEvents(), 1)
	assert.Equal(t, "plan.applied", agg.DomainEvents()[0].RoutingKey())

	agg.ClearDomainEvents()
	assert.Empty(t, agg.DomainEvents())
}

func TestRehydrateBaseAggregateRoot(t *testing.T) {
	entity := domain.NewBaseEntity()
	agg := domain.RehydrateBaseAggregateRoot(entity)

	assert.Equal(t, entity.ID(), agg.ID())
	assert.Empty(t, agg.DomainEvents())
}
