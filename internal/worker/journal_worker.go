package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"expenses/internal/amqp"
	"expenses/internal/journal"
	"expenses/internal/log"
)

// EventConsumer delivers payment events to a handler until ctx ends.
// Handler errors ask the consumer to redeliver the event.
type EventConsumer interface {
	ConsumePaymentEvents(ctx context.Context, handler func(context.Context, *amqp.PaymentEvent) error) error
}

// JournalWorker appends one journal row per payment event.
type JournalWorker struct {
	writer journal.Writer
	logger *log.Logger

	appended atomic.Int64
	dropped  atomic.Int64
}

func NewJournalWorker(writer journal.Writer, logger *log.Logger) *JournalWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &JournalWorker{
		writer: writer,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// HandleEvent appends ev to the journal. Events that can never be written
// (unknown type, rejected by the journal) are logged and acknowledged;
// transient journal failures are returned so the broker redelivers.
func (w *JournalWorker) HandleEvent(ctx context.Context, ev *amqp.PaymentEvent) error {
	entry, err := journal.EntryFromEvent(ev)
	if err != nil {
		w.dropped.Add(1)
		w.logger.WarnContext(ctx, "Dropping unjournalable event",
			log.FieldError, err.Error(),
			log.FieldOperation, log.OpConsume)
		return nil
	}

	ref, err := w.writer.Append(ctx, entry)
	if err != nil {
		if errors.Is(err, journal.ErrRejected) {
			w.dropped.Add(1)
			w.logger.ErrorContext(ctx, "Journal rejected event",
				log.FieldError, err.Error(),
				log.FieldPaymentID, entry.PaymentID,
				log.FieldEventType, entry.EventType)
			return nil
		}
		return fmt.Errorf("append journal entry for %s: %w", entry.PaymentID, err)
	}

	w.appended.Add(1)
	w.logger.InfoContext(ctx, "Payment event journaled",
		log.FieldPaymentID, entry.PaymentID,
		log.FieldEventType, entry.EventType,
		log.FieldJournalRef, ref)
	return nil
}

// Run consumes events until ctx is cancelled. Cancellation is a clean stop.
func (w *JournalWorker) Run(ctx context.Context, consumer EventConsumer) error {
	w.logger.InfoContext(ctx, "Journal worker started")
	err := consumer.ConsumePaymentEvents(ctx, w.HandleEvent)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("consume payment events: %w", err)
	}
	w.logger.InfoContext(ctx, "Journal worker stopped",
		"appended", w.appended.Load(),
		"dropped", w.dropped.Load())
	return nil
}

// Stats reports how many events were appended and how many were dropped.
func (w *JournalWorker) Stats() (appended, dropped int64) {
	return w.appended.Load(), w.dropped.Load()
}
