package services

import (
	"context"
	"fmt"

	"expenses/internal/amqp"
	"expenses/internal/core"
	"expenses/internal/log"

	"github.com/google/uuid"
)

// PaymentService is the payment write pipeline: validate, resolve wallet and
// category, persist, then re-read the denormalized payment for the response.
type PaymentService struct {
	store      PaymentStore
	categories *CategoryResolver
	wallets    *WalletResolver
	events     EventPublisher
	logger     *log.Logger
	audit      *log.StructuredLogger
}

// NewPaymentService wires the pipeline. events may be nil.
func NewPaymentService(store PaymentStore, categories *CategoryResolver, wallets *WalletResolver, events EventPublisher, logger *log.Logger) *PaymentService {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentPayments)
	return &PaymentService{
		store:      store,
		categories: categories,
		wallets:    wallets,
		events:     events,
		logger:     logger,
		audit:      log.NewStructuredLogger(logger),
	}
}

func (s *PaymentService) resolve(ctx context.Context, d core.PaymentDraft) (core.PaymentRecord, []core.TagInput, error) {
	merchant, desc, tags, err := d.Validate()
	if err != nil {
		return core.PaymentRecord{}, nil, err
	}

	walletID, err := s.wallets.Resolve(ctx, d.Wallet)
	if err != nil {
		return core.PaymentRecord{}, nil, err
	}

	categoryID, err := s.categories.Resolve(ctx, d.Category)
	if err != nil {
		return core.PaymentRecord{}, nil, err
	}

	return core.PaymentRecord{
		Description:    desc,
		CategoryID:     categoryID,
		AmountInCents:  d.AmountInCents,
		MerchantName:   merchant,
		AccountingDate: d.AccountingDate,
		WalletID:       walletID,
	}, tags, nil
}

// Create persists a new payment. Tags are best-effort: a failed tag insert is
// logged and the payment is still returned.
func (s *PaymentService) Create(ctx context.Context, d core.PaymentDraft) (core.Payment, error) {
	rec, tags, err := s.resolve(ctx, d)
	if err != nil {
		return core.Payment{}, err
	}

	id, err := s.store.InsertPayment(ctx, rec)
	if err != nil {
		return core.Payment{}, fmt.Errorf("create payment: %w", err)
	}

	for _, tag := range tags {
		if _, err := s.store.InsertTag(ctx, id, tag); err != nil {
			s.logger.ErrorContext(ctx, "Failed to insert tag, continuing without it",
				log.FieldPaymentID, id,
				log.FieldTagKey, tag.Key,
				log.FieldError, err)
		}
	}

	p, err := s.store.GetPayment(ctx, id)
	if err != nil {
		return core.Payment{}, fmt.Errorf("read created payment: %w", err)
	}

	s.audit.LogPaymentWritten(ctx, log.OpCreate, p.ID.String(), p.AmountInCents, p.MerchantName, p.Category)
	s.publish(ctx, amqp.NewPaymentEvent(amqp.PaymentCreated, p))
	return p, nil
}

// Update replaces every mutable field and the full tag set of payment id.
// Unlike Create, a tag failure fails the call.
func (s *PaymentService) Update(ctx context.Context, id uuid.UUID, d core.PaymentDraft) (core.Payment, error) {
	rec, tags, err := s.resolve(ctx, d)
	if err != nil {
		return core.Payment{}, err
	}

	if err := s.store.UpdatePayment(ctx, id, rec, tags); err != nil {
		return core.Payment{}, fmt.Errorf("update payment: %w", err)
	}

	p, err := s.store.GetPayment(ctx, id)
	if err != nil {
		return core.Payment{}, fmt.Errorf("read updated payment: %w", err)
	}

	s.audit.LogPaymentWritten(ctx, log.OpUpdate, p.ID.String(), p.AmountInCents, p.MerchantName, p.Category)
	s.publish(ctx, amqp.NewPaymentEvent(amqp.PaymentUpdated, p))
	return p, nil
}

func (s *PaymentService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeletePayment(ctx, id); err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}
	s.logger.InfoContext(ctx, "Payment deleted", log.FieldPaymentID, id)
	s.publish(ctx, amqp.NewPaymentDeletedEvent(id))
	return nil
}

func (s *PaymentService) Get(ctx context.Context, id uuid.UUID) (core.Payment, error) {
	return s.store.GetPayment(ctx, id)
}

func (s *PaymentService) List(ctx context.Context, page, size int64, f core.PaymentFilters) ([]core.Payment, error) {
	payments, err := s.store.ListPayments(ctx, page, size, f)
	if err != nil {
		return nil, err
	}
	s.logger.DebugContext(ctx, "Listed payments", log.NewFields().WithPage(page, size).ToSlice()...)
	return payments, nil
}

// publish never fails the request: the write already committed.
func (s *PaymentService) publish(ctx context.Context, ev *amqp.PaymentEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishPaymentEvent(ctx, ev); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish payment event",
			log.FieldEventType, ev.Type,
			log.FieldPaymentID, ev.PaymentID,
			log.FieldError, err)
	}
}
