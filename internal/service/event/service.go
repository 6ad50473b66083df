package event

import (
	"context"
	"fmt"

	"github.com/jwalitptl/meditracker-api/internal/model"
	"github.com/jwalitptl/meditracker-api/internal/repository"
)

// Emitter records domain events in the outbox.
type Emitter interface {
	Emit(ctx context.Context, eventType string, payload interface{}) error
}

// Service writes events to the outbox table. Called with a transactional ctx
// the event commits or rolls back together with the caller's writes.
type Service struct {
	outboxRepo repository.OutboxRepository
}

func NewService(outboxRepo repository.OutboxRepository) *Service {
	return &Service{outboxRepo: outboxRepo}
}

func (s *Service) Emit(ctx context.Context, eventType string, payload interface{}) error {
	evt, err := model.NewOutboxEvent(eventType, payload)
	if err != nil {
		return err
	}
	if err := s.outboxRepo.Create(ctx, evt); err != nil {
		return fmt.Errorf("failed to emit %s: %w", eventType, err)
	}
	return nil
}
