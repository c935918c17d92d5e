package commands

import (
	"context"

	"github.com/google/uuid"

	sharedApplication "github.com/studora/studora/internal/shared/application"
	sharedDomain "github.com/studora/studora/internal/shared/domain"
	"github.com/studora/studora/internal/shared/infrastructure/outbox"
)

// stageEvents stamps metadata on the aggregate's events and stores them in
// the outbox within the caller's transaction.
func stageEvents(ctx context.Context, repo outbox.Repository, studentID uuid.UUID, events []sharedDomain.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}
	sharedApplication.ApplyEventMetadata(events, sharedApplication.NewEventMetadata(studentID))

	msgs := make([]*outbox.Message, 0, len(events))
	for _, event := range events {
		msg, err := outbox.NewMessage(event)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	return repo.SaveBatch(ctx, msgs)
}
