package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"expenses/internal/amqp"
	"expenses/internal/cache"
	"expenses/internal/core"
	"expenses/internal/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.PaymentEvent
	err    error
}

func (p *recordingPublisher) PublishPaymentEvent(_ context.Context, ev *amqp.PaymentEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []amqp.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]amqp.EventType, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	store    *storage.Store
	payments *PaymentService
	balance  *BalanceService
	catalog  *CatalogService
	events   *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s, err := storage.Open(context.Background(), storage.Config{
		Driver:       storage.DriverSQLite,
		DSN:          filepath.Join(t.TempDir(), "expenses.db"),
		MaxOpenConns: 8,
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	events := &recordingPublisher{}
	wallets := NewWalletResolver(s)
	categories := NewCategoryResolver(s, cache.NewLRUCache[uuid.UUID](16, time.Minute))
	return &fixture{
		store:    s,
		payments: NewPaymentService(s, categories, wallets, events, nil),
		balance:  NewBalanceService(s, wallets),
		catalog:  NewCatalogService(s, s, nil),
		events:   events,
	}
}

func strp(s string) *string { return &s }

func draft(merchant, category string, cents int32) core.PaymentDraft {
	return core.PaymentDraft{
		Category:       core.ParseCategoryRef(category),
		AmountInCents:  cents,
		MerchantName:   merchant,
		AccountingDate: time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC),
	}
}

func TestPaymentService_CreateResolvesCategoryByName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d := draft("Market", "Groceries", -1000)
	d.Description = strp("weekly shop")
	d.Tags = []core.RawTag{{Key: "trip", Value: "rome"}}

	p, err := f.payments.Create(ctx, d)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, p.ID)
	assert.Equal(t, "Groceries", p.Category)
	require.NotNil(t, p.CategoryID)
	require.NotNil(t, p.Description)
	assert.Equal(t, "weekly shop", *p.Description)
	assert.Nil(t, p.Wallet)
	require.Len(t, p.Tags, 1)
	assert.Equal(t, "trip", p.Tags[0].Key)
	assert.Equal(t, []amqp.EventType{amqp.PaymentCreated}, f.events.types())

	// second payment reuses the category regardless of case
	p2, err := f.payments.Create(ctx, draft("Bakery", "groceries", -300))
	require.NoError(t, err)
	assert.Equal(t, *p.CategoryID, *p2.CategoryID)
	assert.Equal(t, "Groceries", p2.Category)
}

func TestPaymentService_CreateWithCategoryID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.catalog.CreateCategory(ctx, "Salary", nil, "income")
	require.NoError(t, err)

	p, err := f.payments.Create(ctx, draft("Employer", c.ID.String(), 250000))
	require.NoError(t, err)
	assert.Equal(t, "Salary", p.Category)

	_, err = f.payments.Create(ctx, draft("Employer", uuid.NewString(), 1))
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "categoryId", verr.Field)
}

func TestPaymentService_UnknownWalletPersistsNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d := draft("Market", "Groceries", -1000)
	d.Wallet = strp("Nope")

	_, err := f.payments.Create(ctx, d)
	require.ErrorIs(t, err, core.ErrValidation)

	list, err := f.payments.List(ctx, 0, 10, core.PaymentFilters{})
	require.NoError(t, err)
	assert.Empty(t, list)

	cats, err := f.catalog.ListCategories(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, cats, "wallet is resolved before the category is created")
	assert.Empty(t, f.events.types())
}

func TestPaymentService_ValidationBeforeIO(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		mod   func(*core.PaymentDraft)
		field string
	}{
		{"blank merchant", func(d *core.PaymentDraft) { d.MerchantName = "  " }, "merchantName"},
		{"forbidden category char", func(d *core.PaymentDraft) { d.Category = core.ParseCategoryRef("a<b") }, "category"},
		{"missing date", func(d *core.PaymentDraft) { d.AccountingDate = time.Time{} }, "accountingDate"},
		{"blank tag key", func(d *core.PaymentDraft) { d.Tags = []core.RawTag{{Key: "", Value: "v"}} }, "tags.key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := draft("Market", "Groceries", -1)
			tt.mod(&d)
			_, err := f.payments.Create(ctx, d)
			var verr *core.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	cats, err := f.catalog.ListCategories(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, cats)
}

func TestPaymentService_ConcurrentSameCategoryName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const n = 8
	ids := make([]uuid.UUID, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// fresh resolvers so the cache cannot hide the race
			r := NewCategoryResolver(f.store, nil)
			ids[i], errs[i] = r.Resolve(ctx, core.ParseCategoryRef("Travel"))
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}

	cats, err := f.catalog.ListCategories(ctx, "")
	require.NoError(t, err)
	assert.Len(t, cats, 1)
}

// tagFailingStore rejects every tag insert.
type tagFailingStore struct {
	*storage.Store
}

func (tagFailingStore) InsertTag(context.Context, uuid.UUID, core.TagInput) (uuid.UUID, error) {
	return uuid.Nil, errors.New("disk full")
}

// staleCategoryStore reports the next misses name lookups as absent, as if another
// writer committed between the read and the insert.
type staleCategoryStore struct {
	*storage.Store
	mu     sync.Mutex
	misses int
}

func (s *staleCategoryStore) FindCategoryIDByName(ctx context.Context, name string) (uuid.UUID, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.misses > 0 {
		s.misses--
		return uuid.Nil, false, nil
	}
	return s.Store.FindCategoryIDByName(ctx, name)
}

func TestPaymentService_CreateSurvivesTagFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	categories := NewCategoryResolver(f.store, nil)
	svc := NewPaymentService(tagFailingStore{f.store}, categories, NewWalletResolver(f.store), f.events, nil)

	d := draft("Market", "Groceries", -1000)
	d.Tags = []core.RawTag{{Key: "trip", Value: "rome"}, {Key: "who", Value: "me"}}

	p, err := svc.Create(ctx, d)
	require.NoError(t, err)
	assert.Empty(t, p.Tags)

	got, err := f.payments.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Market", got.MerchantName)
	assert.Empty(t, got.Tags)
	assert.Equal(t, []amqp.EventType{amqp.PaymentCreated}, f.events.types())
}

func TestCategoryResolver_InsertConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	existing, err := f.catalog.CreateCategory(ctx, "Travel", nil, "expense")
	require.NoError(t, err)

	t.Run("re-read returns the winner", func(t *testing.T) {
		r := NewCategoryResolver(&staleCategoryStore{Store: f.store, misses: 1}, nil)
		id, err := r.Resolve(ctx, core.ParseCategoryRef("TRAVEL"))
		require.NoError(t, err)
		assert.Equal(t, existing.ID, id)
	})

	t.Run("unreadable winner is inconsistent", func(t *testing.T) {
		r := NewCategoryResolver(&staleCategoryStore{Store: f.store, misses: 2}, nil)
		_, err := r.Resolve(ctx, core.ParseCategoryRef("travel"))
		require.ErrorIs(t, err, core.ErrInconsistent)
		assert.NotErrorIs(t, err, core.ErrValidation)
	})

	cats, err := f.catalog.ListCategories(ctx, "")
	require.NoError(t, err)
	assert.Len(t, cats, 1)
}

func TestPaymentService_NonASCIICategoryNamesShareOneRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p1, err := f.payments.Create(ctx, draft("Bar", "CAFÉ", -250))
	require.NoError(t, err)
	p2, err := f.payments.Create(ctx, draft("Bar", "café", -250))
	require.NoError(t, err)

	require.NotNil(t, p1.CategoryID)
	require.NotNil(t, p2.CategoryID)
	assert.Equal(t, *p1.CategoryID, *p2.CategoryID)
	assert.Equal(t, "CAFÉ", p2.Category)

	cats, err := f.catalog.ListCategories(ctx, "")
	require.NoError(t, err)
	assert.Len(t, cats, 1)
}

func TestPaymentService_UpdateReplacesTags(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.catalog.CreateWallet(ctx, "Cash")
	require.NoError(t, err)

	d := draft("Market", "Groceries", -1000)
	d.Tags = []core.RawTag{{Key: "a", Value: "1"}, {Key: "b", Value: "2"}}
	p, err := f.payments.Create(ctx, d)
	require.NoError(t, err)
	require.Len(t, p.Tags, 2)

	upd := draft("Market", "Food", -1200)
	upd.Wallet = strp("Cash")
	upd.Tags = []core.RawTag{{Key: "c", Value: "3"}}
	got, err := f.payments.Update(ctx, p.ID, upd)
	require.NoError(t, err)

	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, int32(-1200), got.AmountInCents)
	assert.Equal(t, "Food", got.Category)
	require.NotNil(t, got.Wallet)
	assert.Equal(t, "Cash", *got.Wallet)
	require.Len(t, got.Tags, 1)
	assert.Equal(t, "c", got.Tags[0].Key)

	_, err = f.payments.Update(ctx, uuid.New(), upd)
	assert.ErrorIs(t, err, core.ErrNotFound)

	assert.Equal(t, []amqp.EventType{amqp.PaymentCreated, amqp.PaymentUpdated}, f.events.types())
}

func TestPaymentService_Delete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.payments.Create(ctx, draft("Market", "Groceries", -1000))
	require.NoError(t, err)

	require.NoError(t, f.payments.Delete(ctx, p.ID))
	_, err = f.payments.Get(ctx, p.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	assert.ErrorIs(t, f.payments.Delete(ctx, p.ID), core.ErrNotFound)
	assert.Equal(t, []amqp.EventType{amqp.PaymentCreated, amqp.PaymentDeleted}, f.events.types())
}

func TestPaymentService_PublishFailureDoesNotFailWrite(t *testing.T) {
	f := newFixture(t)
	f.events.err = errors.New("circuit breaker is open")

	p, err := f.payments.Create(context.Background(), draft("Market", "Groceries", -1000))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, p.ID)
}

func TestPaymentService_NilPublisher(t *testing.T) {
	f := newFixture(t)
	svc := NewPaymentService(f.store, NewCategoryResolver(f.store, nil), NewWalletResolver(f.store), nil, nil)

	_, err := svc.Create(context.Background(), draft("Market", "Groceries", -1000))
	require.NoError(t, err)
}

func TestBalanceService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.catalog.CreateCategory(ctx, "Salary", nil, "income")
	require.NoError(t, err)
	_, err = f.catalog.CreateWallet(ctx, "Bank")
	require.NoError(t, err)

	_, err = f.payments.Create(ctx, draft("Market", "Groceries", -1000))
	require.NoError(t, err)
	pay := draft("Employer", "Salary", 5000)
	pay.Wallet = strp("Bank")
	_, err = f.payments.Create(ctx, pay)
	require.NoError(t, err)

	all, err := f.balance.Balance(ctx, BalanceRequest{})
	require.NoError(t, err)
	assert.Equal(t, core.Balance{TotalInCents: 4000, IncomeInCents: 5000, ExpensesInCents: -1000}, all)

	bank, err := f.balance.Balance(ctx, BalanceRequest{Wallet: strp("Bank")})
	require.NoError(t, err)
	assert.Equal(t, core.Balance{TotalInCents: 5000, IncomeInCents: 5000}, bank)

	_, err = f.balance.Balance(ctx, BalanceRequest{Wallet: strp("Ghost")})
	assert.ErrorIs(t, err, core.ErrValidation)

	after := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	none, err := f.balance.Balance(ctx, BalanceRequest{Start: &after})
	require.NoError(t, err)
	assert.Equal(t, core.Balance{}, none)
}

func TestCatalogService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	w, err := f.catalog.CreateWallet(ctx, " Cash ")
	require.NoError(t, err)
	assert.Equal(t, "Cash", w.Name)

	_, err = f.catalog.CreateWallet(ctx, "Cash")
	assert.ErrorIs(t, err, core.ErrConflict)

	wallets, err := f.catalog.ListWallets(ctx)
	require.NoError(t, err)
	assert.Len(t, wallets, 1)

	require.NoError(t, f.catalog.DeleteWallet(ctx, w.ID))
	assert.ErrorIs(t, f.catalog.DeleteWallet(ctx, w.ID), core.ErrNotFound)

	icon := "🍞"
	c, err := f.catalog.CreateCategory(ctx, "Bakery", &icon, "")
	require.NoError(t, err)
	assert.Equal(t, core.KindExpense, c.Kind)
	require.NotNil(t, c.Icon)
	assert.Equal(t, icon, *c.Icon)

	_, err = f.catalog.CreateCategory(ctx, "BAKERY", nil, "")
	assert.ErrorIs(t, err, core.ErrConflict)

	_, err = f.catalog.CreateCategory(ctx, "Salary", nil, "income")
	require.NoError(t, err)

	income, err := f.catalog.ListCategories(ctx, "income")
	require.NoError(t, err)
	require.Len(t, income, 1)
	assert.Equal(t, "Salary", income[0].Name)

	_, err = f.catalog.ListCategories(ctx, "weird")
	assert.ErrorIs(t, err, core.ErrValidation)
}
