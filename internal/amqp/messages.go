package amqp

import (
	"encoding/json"
	"time"

	"expenses/internal/core"

	"github.com/google/uuid"
)

type EventType string

const (
	PaymentCreated EventType = "payment.created"
	PaymentUpdated EventType = "payment.updated"
	PaymentDeleted EventType = "payment.deleted"
)

// PaymentEvent is published after a payment write commits. Deleted events only carry the id.
type PaymentEvent struct {
	Type           EventType `json:"type"`
	PaymentID      uuid.UUID `json:"paymentId"`
	AmountInCents  int32     `json:"amountInCents,omitempty"`
	MerchantName   string    `json:"merchantName,omitempty"`
	Category       string    `json:"category,omitempty"`
	Wallet         string    `json:"wallet,omitempty"`
	AccountingDate string    `json:"accountingDate,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// NewPaymentEvent snapshots p for the given event type.
func NewPaymentEvent(t EventType, p core.Payment) *PaymentEvent {
	ev := &PaymentEvent{
		Type:           t,
		PaymentID:      p.ID,
		AmountInCents:  p.AmountInCents,
		MerchantName:   p.MerchantName,
		Category:       p.Category,
		AccountingDate: p.AccountingDate.String(),
		Timestamp:      time.Now(),
	}
	if p.Wallet != nil {
		ev.Wallet = *p.Wallet
	}
	return ev
}

func NewPaymentDeletedEvent(id uuid.UUID) *PaymentEvent {
	return &PaymentEvent{Type: PaymentDeleted, PaymentID: id, Timestamp: time.Now()}
}

// ToJSON converts the event to JSON bytes
func (e *PaymentEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func PaymentEventFromJSON(data []byte) (*PaymentEvent, error) {
	var ev PaymentEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
