package storage

import (
	"context"
	"testing"
	"time"

	"expenses/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildBalanceQuery(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	q, args := buildBalanceQuery(sqliteDialect{}, core.BalanceQuery{})
	assert.Empty(t, args)
	assert.NotContains(t, q, "WHERE")

	q, args = buildBalanceQuery(postgresDialect{}, core.BalanceQuery{Start: &start})
	assert.Equal(t, []any{"2026-01-01"}, args)
	assert.Contains(t, q, "DATE(p.accounting_date) >= $1::date")
}

func TestBalance(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedList(t, s)

	balance := func(t *testing.T, bq core.BalanceQuery) core.Balance {
		t.Helper()
		b, err := s.Balance(ctx, bq)
		require.NoError(t, err)
		assert.Equal(t, b.TotalInCents, b.IncomeInCents+b.ExpensesInCents)
		return b
	}

	jan1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	jan31 := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		bq   core.BalanceQuery
		want core.Balance
	}{
		{"unbounded", core.BalanceQuery{}, core.Balance{TotalInCents: 248550, IncomeInCents: 250000, ExpensesInCents: -1450}},
		{"from only", core.BalanceQuery{Start: &jan1}, core.Balance{TotalInCents: 248850, IncomeInCents: 250000, ExpensesInCents: -1150}},
		{"to only", core.BalanceQuery{End: &jan31}, core.Balance{TotalInCents: -1450, IncomeInCents: 0, ExpensesInCents: -1450}},
		{"both", core.BalanceQuery{Start: &jan1, End: &jan31}, core.Balance{TotalInCents: -1150, IncomeInCents: 0, ExpensesInCents: -1150}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, balance(t, tc.bq))
		})
	}

	t.Run("wallet scope", func(t *testing.T) {
		id, ok, err := s.FindWalletIDByName(ctx, "Main")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, core.Balance{TotalInCents: 249000, IncomeInCents: 250000, ExpensesInCents: -1000},
			balance(t, core.BalanceQuery{WalletID: &id}))
	})

	t.Run("empty range aggregates to zero", func(t *testing.T) {
		far := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, core.Balance{}, balance(t, core.BalanceQuery{Start: &far}))
	})
}
