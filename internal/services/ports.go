package services

import (
	"context"
	"time"

	"expenses/internal/amqp"
	"expenses/internal/core"

	"github.com/google/uuid"
)

// Ports implemented by storage.Store.
type (
	CategoryStore interface {
		FindCategoryIDByName(ctx context.Context, name string) (uuid.UUID, bool, error)
		InsertCategory(ctx context.Context, name core.CategoryName, icon *core.CategoryIcon, kind core.CategoryKind) (uuid.UUID, error)
		CategoryExists(ctx context.Context, id uuid.UUID) (bool, error)
		GetCategory(ctx context.Context, id uuid.UUID) (core.Category, error)
		ListCategories(ctx context.Context, kind *core.CategoryKind) ([]core.Category, error)
	}

	WalletStore interface {
		FindWalletIDByName(ctx context.Context, name string) (uuid.UUID, bool, error)
		InsertWallet(ctx context.Context, name core.WalletName) (core.Wallet, error)
		ListWallets(ctx context.Context) ([]core.Wallet, error)
		DeleteWallet(ctx context.Context, id uuid.UUID) error
	}

	PaymentStore interface {
		InsertPayment(ctx context.Context, rec core.PaymentRecord) (uuid.UUID, error)
		InsertTag(ctx context.Context, paymentID uuid.UUID, tag core.TagInput) (uuid.UUID, error)
		UpdatePayment(ctx context.Context, id uuid.UUID, rec core.PaymentRecord, tags []core.TagInput) error
		DeletePayment(ctx context.Context, id uuid.UUID) error
		GetPayment(ctx context.Context, id uuid.UUID) (core.Payment, error)
		ListPayments(ctx context.Context, page, size int64, f core.PaymentFilters) ([]core.Payment, error)
	}

	BalanceStore interface {
		Balance(ctx context.Context, q core.BalanceQuery) (core.Balance, error)
	}

	Store interface {
		CategoryStore
		WalletStore
		PaymentStore
		BalanceStore
		Ping(ctx context.Context) error
		Close() error
	}

	// EventPublisher receives payment events after writes commit.
	EventPublisher interface {
		PublishPaymentEvent(ctx context.Context, ev *amqp.PaymentEvent) error
	}
)

// BalanceRequest is the unresolved form of core.BalanceQuery: the wallet is a name.
type BalanceRequest struct {
	Start  *time.Time
	End    *time.Time
	Wallet *string
}
