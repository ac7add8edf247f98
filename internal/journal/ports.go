package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"expenses/internal/amqp"
)

// Entry is one line of the payment journal, derived from a payment event.
type Entry struct {
	EventType      string
	PaymentID      string
	AccountingDate string
	MerchantName   string
	Category       string
	Wallet         string
	AmountInCents  int32
	RecordedAt     time.Time
}

// ErrRejected marks entries the journal refused permanently. Retrying them
// cannot succeed.
var ErrRejected = errors.New("journal rejected entry")

// Writer appends entries to an outbound journal.
type Writer interface {
	Append(ctx context.Context, e Entry) (rowRef string, err error)
}

// EntryFromEvent maps an event onto a journal entry. Events without a
// timestamp are recorded at the time of mapping.
func EntryFromEvent(ev *amqp.PaymentEvent) (Entry, error) {
	if ev == nil {
		return Entry{}, fmt.Errorf("nil payment event")
	}
	switch ev.Type {
	case amqp.PaymentCreated, amqp.PaymentUpdated, amqp.PaymentDeleted:
	default:
		return Entry{}, fmt.Errorf("unknown event type %q", ev.Type)
	}
	recorded := ev.Timestamp
	if recorded.IsZero() {
		recorded = time.Now()
	}
	return Entry{
		EventType:      string(ev.Type),
		PaymentID:      ev.PaymentID.String(),
		AccountingDate: ev.AccountingDate,
		MerchantName:   ev.MerchantName,
		Category:       ev.Category,
		Wallet:         ev.Wallet,
		AmountInCents:  ev.AmountInCents,
		RecordedAt:     recorded.UTC(),
	}, nil
}

// Row renders the entry as spreadsheet cells, columns A through H.
func (e Entry) Row() []any {
	return []any{
		e.RecordedAt.Format(time.RFC3339),
		e.EventType,
		e.PaymentID,
		e.AccountingDate,
		e.MerchantName,
		e.Category,
		e.Wallet,
		FormatAmount(e.AmountInCents),
	}
}

// FormatAmount renders cents as a decimal string, e.g. -1050 as "-10.50".
func FormatAmount(cents int32) string {
	sign := ""
	v := int64(cents)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}
