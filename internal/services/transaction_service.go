// Package services decorates the document store with side effects that
// follow a committed write.
package services

import (
	"context"
	"fmt"
	"time"

	"finadvisor/internal/amqp"
	"finadvisor/internal/core"
	"finadvisor/internal/feed"
	"finadvisor/internal/identity"
	"finadvisor/internal/log"
	"finadvisor/internal/store"
)

// EventPublisher is satisfied by *amqp.Client.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, ev *amqp.TransactionEvent) error
}

// TransactionService writes through to a TransactionStore and announces each
// committed change. A failed publish is logged and never surfaced since the
// local write already succeeded.
type TransactionService struct {
	store     store.TransactionStore
	publisher EventPublisher
	logger    *log.Logger
	now       func() time.Time
}

func NewTransactionService(s store.TransactionStore, p EventPublisher, logger *log.Logger) *TransactionService {
	if logger == nil {
		logger = log.Discard()
	}
	return &TransactionService{
		store:     s,
		publisher: p,
		logger:    logger.WithComponent(log.ComponentStore),
		now:       time.Now,
	}
}

// CreateTransaction implements store.TransactionStore
func (s *TransactionService) CreateTransaction(ctx context.Context, id identity.Identity, tx core.Transaction) (string, error) {
	txID, err := s.store.CreateTransaction(ctx, id, tx)
	if err != nil {
		return "", fmt.Errorf("save transaction: %w", err)
	}
	tx.ID = txID
	s.publish(ctx, amqp.NewCreatedEvent(id, tx, s.now()))
	return txID, nil
}

// DeleteTransaction implements store.TransactionStore
func (s *TransactionService) DeleteTransaction(ctx context.Context, id identity.Identity, txID string) error {
	if err := s.store.DeleteTransaction(ctx, id, txID); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.publish(ctx, amqp.NewDeletedEvent(id, txID, s.now()))
	return nil
}

// SubscribeTransactions implements store.TransactionStore
func (s *TransactionService) SubscribeTransactions(ctx context.Context, id identity.Identity) (*feed.Subscription[[]core.Transaction], error) {
	return s.store.SubscribeTransactions(ctx, id)
}

func (s *TransactionService) publish(ctx context.Context, ev *amqp.TransactionEvent) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "No event publisher configured, skipping event", log.FieldEventOp, ev.Op)
		return
	}
	if err := s.publisher.PublishTransactionEvent(ctx, ev); err != nil {
		s.logger.Failure(ctx, "Failed to publish transaction event", log.OpPublish, err,
			log.FieldEventOp, ev.Op,
			log.FieldTransactionID, ev.TransactionID,
			log.FieldIdentity, ev.Identity)
	}
}

// DocumentStore combines a TransactionService with the budgets and profile
// side of the underlying store.
type DocumentStore struct {
	*TransactionService
	store.BudgetStore
	store.ProfileStore
}

// WithEvents returns ds with its transaction side publishing through p.
func WithEvents(ds store.DocumentStore, p EventPublisher, logger *log.Logger) *DocumentStore {
	return &DocumentStore{
		TransactionService: NewTransactionService(ds, p, logger),
		BudgetStore:        ds,
		ProfileStore:       ds,
	}
}
