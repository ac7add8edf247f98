package journal

import (
	"testing"
	"time"

	"expenses/internal/amqp"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		cents int32
		want  string
	}{
		{0, "0.00"},
		{5, "0.05"},
		{1050, "10.50"},
		{-1050, "-10.50"},
		{-7, "-0.07"},
		{-2147483648, "-21474836.48"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatAmount(tt.cents), "cents=%d", tt.cents)
	}
}

func TestEntryFromEvent(t *testing.T) {
	id := uuid.New()
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.FixedZone("CET", 3600))
	ev := &amqp.PaymentEvent{
		Type:           amqp.PaymentCreated,
		PaymentID:      id,
		AmountInCents:  -1250,
		MerchantName:   "Bakery",
		Category:       "Food",
		Wallet:         "Cash",
		AccountingDate: "2024-03-01T09:30:00",
		Timestamp:      ts,
	}

	e, err := EntryFromEvent(ev)
	require.NoError(t, err)
	assert.Equal(t, "payment.created", e.EventType)
	assert.Equal(t, id.String(), e.PaymentID)
	assert.Equal(t, time.UTC, e.RecordedAt.Location())

	row := e.Row()
	require.Len(t, row, 8)
	assert.Equal(t, "2024-03-01T09:00:00Z", row[0])
	assert.Equal(t, "Bakery", row[4])
	assert.Equal(t, "-12.50", row[7])
}

func TestEntryFromEventRejectsUnknownType(t *testing.T) {
	_, err := EntryFromEvent(&amqp.PaymentEvent{Type: "payment.archived"})
	assert.Error(t, err)

	_, err = EntryFromEvent(nil)
	assert.Error(t, err)
}

func TestEntryFromDeletedEventFillsTimestamp(t *testing.T) {
	ev := amqp.NewPaymentDeletedEvent(uuid.New())
	ev.Timestamp = time.Time{}

	e, err := EntryFromEvent(ev)
	require.NoError(t, err)
	assert.False(t, e.RecordedAt.IsZero())
	assert.Equal(t, "0.00", e.Row()[7])
}
