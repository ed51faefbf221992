package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"finadvisor/internal/amqp"
	"finadvisor/internal/core"
	"finadvisor/internal/sheets/memory"
)

type failingMirror struct{}

func (failingMirror) AppendTransaction(context.Context, core.Transaction) (string, error) {
	return "", errors.New("quota exceeded")
}

func (failingMirror) DeleteTransaction(context.Context, string) error {
	return errors.New("quota exceeded")
}

// sliceConsumer hands a fixed list of events to the handler.
type sliceConsumer struct {
	events []*amqp.TransactionEvent
	errs   []error
}

func (c *sliceConsumer) ConsumeTransactionEvents(ctx context.Context, h amqp.Handler) error {
	for _, ev := range c.events {
		c.errs = append(c.errs, h(ctx, ev))
	}
	return nil
}

func sample() core.Transaction {
	return core.Transaction{
		ID:       "tx-1",
		Type:     core.Income,
		Category: "Gift",
		Amount:   core.Money{Cents: 5000},
		Date:     core.NewDate(2025, 5, 5),
	}
}

func TestRunAppliesCreateThenDelete(t *testing.T) {
	mirror := memory.New()
	w := NewSyncWorker(mirror, nil)
	now := time.Now()
	consumer := &sliceConsumer{events: []*amqp.TransactionEvent{
		amqp.NewCreatedEvent("u1", sample(), now),
		amqp.NewDeletedEvent("u1", "tx-1", now),
	}}

	if err := w.Run(context.Background(), consumer); err != nil {
		t.Fatalf("run: %v", err)
	}
	for i, err := range consumer.errs {
		if err != nil {
			t.Fatalf("event %d: %v", i, err)
		}
	}
	if rows := mirror.Rows(); len(rows) != 1 {
		t.Fatalf("expected only the header, got %v", rows)
	}
	if s := w.Stats(); s.Appended != 1 || s.Deleted != 1 {
		t.Fatalf("unexpected stats %+v", s)
	}
}

func TestMirrorFailureRequestsRedelivery(t *testing.T) {
	w := NewSyncWorker(failingMirror{}, nil)
	ctx := context.Background()

	if err := w.HandleEvent(ctx, amqp.NewCreatedEvent("u1", sample(), time.Now())); err == nil {
		t.Fatal("expected error on append failure")
	}
	if err := w.HandleEvent(ctx, amqp.NewDeletedEvent("u1", "tx-1", time.Now())); err == nil {
		t.Fatal("expected error on delete failure")
	}
	if s := w.Stats(); s.Failed != 2 {
		t.Fatalf("unexpected stats %+v", s)
	}
}

func TestInvalidPayloadIsDropped(t *testing.T) {
	w := NewSyncWorker(memory.New(), nil)
	ev := amqp.NewCreatedEvent("u1", sample(), time.Now())
	ev.Transaction.Date = "not-a-date"

	if err := w.HandleEvent(context.Background(), ev); err != nil {
		t.Fatalf("invalid payload must be acknowledged, got %v", err)
	}
	if s := w.Stats(); s.Dropped != 1 {
		t.Fatalf("unexpected stats %+v", s)
	}
}
