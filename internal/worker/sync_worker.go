// Package worker applies transaction events to the spreadsheet mirror.
package worker

import (
	"context"
	"fmt"
	"sync/atomic"

	"finadvisor/internal/amqp"
	"finadvisor/internal/log"
	"finadvisor/internal/sheets"
)

// EventConsumer is satisfied by *amqp.Client.
type EventConsumer interface {
	ConsumeTransactionEvents(ctx context.Context, handler amqp.Handler) error
}

// Stats counts handled events since start.
type Stats struct {
	Appended int64
	Deleted  int64
	Dropped  int64
	Failed   int64
}

// SyncWorker mirrors created transactions into a sheet and removes deleted
// ones by ID.
type SyncWorker struct {
	mirror sheets.TransactionMirror
	logger *log.Logger

	appended, deleted, dropped, failed atomic.Int64
}

func NewSyncWorker(mirror sheets.TransactionMirror, logger *log.Logger) *SyncWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &SyncWorker{mirror: mirror, logger: logger.WithComponent(log.ComponentWorker)}
}

// Run consumes events until ctx is done.
func (w *SyncWorker) Run(ctx context.Context, consumer EventConsumer) error {
	w.logger.InfoContext(ctx, "Sync worker started")
	err := consumer.ConsumeTransactionEvents(ctx, w.HandleEvent)
	s := w.Stats()
	w.logger.InfoContext(ctx, "Sync worker stopped",
		"appended", s.Appended, "deleted", s.Deleted, "dropped", s.Dropped, "failed", s.Failed)
	return err
}

// HandleEvent applies one event. Returned errors cause a redelivery, so
// events that can never succeed are logged and acknowledged instead.
func (w *SyncWorker) HandleEvent(ctx context.Context, ev *amqp.TransactionEvent) error {
	switch ev.Op {
	case amqp.EventCreated:
		tx, err := ev.ToTransaction()
		if err != nil {
			w.dropped.Add(1)
			w.logger.Failure(ctx, "Dropping created event with invalid payload", log.OpSync, err,
				log.FieldTransactionID, ev.TransactionID)
			return nil
		}
		ref, err := w.mirror.AppendTransaction(ctx, tx)
		if err != nil {
			w.failed.Add(1)
			return fmt.Errorf("append transaction %s: %w", ev.TransactionID, err)
		}
		w.appended.Add(1)
		w.logger.InfoContext(ctx, "Transaction mirrored",
			log.FieldTransactionID, ev.TransactionID, log.FieldSheetRange, ref)
		return nil

	case amqp.EventDeleted:
		if err := w.mirror.DeleteTransaction(ctx, ev.TransactionID); err != nil {
			w.failed.Add(1)
			return fmt.Errorf("delete transaction %s: %w", ev.TransactionID, err)
		}
		w.deleted.Add(1)
		w.logger.InfoContext(ctx, "Transaction removed from mirror", log.FieldTransactionID, ev.TransactionID)
		return nil

	default:
		w.dropped.Add(1)
		w.logger.WarnContext(ctx, "Ignoring event with unknown op", log.FieldEventOp, ev.Op)
		return nil
	}
}

func (w *SyncWorker) Stats() Stats {
	return Stats{
		Appended: w.appended.Load(),
		Deleted:  w.deleted.Load(),
		Dropped:  w.dropped.Load(),
		Failed:   w.failed.Load(),
	}
}
