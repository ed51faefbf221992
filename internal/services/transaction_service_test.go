package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"finadvisor/internal/amqp"
	"finadvisor/internal/core"
	"finadvisor/internal/store"
	"finadvisor/internal/store/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.TransactionEvent
	err    error
}

func (p *recordingPublisher) PublishTransactionEvent(_ context.Context, ev *amqp.TransactionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func expense() core.Transaction {
	return core.Transaction{
		Type:     core.Expense,
		Category: "Dining Out",
		Amount:   core.Money{Cents: 2599},
		Date:     core.NewDate(2025, 4, 2),
	}
}

func TestCreateAndDeletePublishEvents(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc := WithEvents(memory.New(), pub, nil)

	txID, err := svc.CreateTransaction(ctx, "u1", expense())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.DeleteTransaction(ctx, "u1", txID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if len(pub.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(pub.events))
	}
	created, deleted := pub.events[0], pub.events[1]
	if created.Op != amqp.EventCreated || created.TransactionID != txID || created.Transaction.AmountCents != 2599 {
		t.Errorf("unexpected created event %+v", created)
	}
	if deleted.Op != amqp.EventDeleted || deleted.TransactionID != txID || deleted.Identity != "u1" {
		t.Errorf("unexpected deleted event %+v", deleted)
	}
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := WithEvents(memory.New(), pub, nil)

	if _, err := svc.CreateTransaction(context.Background(), "u1", expense()); err != nil {
		t.Fatalf("publish failure leaked into create: %v", err)
	}
}

func TestStoreFailurePublishesNothing(t *testing.T) {
	pub := &recordingPublisher{}
	svc := WithEvents(memory.New(memory.WithRules(store.ReadOnly)), pub, nil)

	_, err := svc.CreateTransaction(context.Background(), "u1", expense())
	if !errors.Is(err, store.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	if err := svc.DeleteTransaction(context.Background(), "u1", "missing"); err == nil {
		t.Fatal("expected delete error")
	}
	if len(pub.events) != 0 {
		t.Fatalf("no events expected, got %d", len(pub.events))
	}
}

func TestNilPublisherIsAllowed(t *testing.T) {
	svc := WithEvents(memory.New(), nil, nil)
	if _, err := svc.CreateTransaction(context.Background(), "u1", expense()); err != nil {
		t.Fatalf("create: %v", err)
	}
}
