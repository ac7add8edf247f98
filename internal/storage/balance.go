package storage

import (
	"context"
	"fmt"

	"expenses/internal/core"
)

func buildBalanceQuery(d Dialect, bq core.BalanceQuery) (string, []any) {
	c := newClauses(d)
	if bq.Start != nil {
		c.add(bq.Start.Format(core.DateLayout), func(ph string) string {
			return d.DateOf("p.accounting_date") + " >= " + d.DateParam(ph)
		})
	}
	if bq.End != nil {
		c.add(bq.End.Format(core.DateLayout), func(ph string) string {
			return d.DateOf("p.accounting_date") + " <= " + d.DateParam(ph)
		})
	}
	if bq.WalletID != nil {
		c.add(*bq.WalletID, func(ph string) string { return "p.wallet_id = " + ph })
	}

	query := `SELECT COALESCE(SUM(p.amount_in_cents), 0),
       COALESCE(SUM(CASE WHEN c.kind = 'income' THEN p.amount_in_cents ELSE 0 END), 0),
       COALESCE(SUM(CASE WHEN c.kind = 'expense' THEN p.amount_in_cents ELSE 0 END), 0)
FROM payments p
JOIN categories c ON c.id = p.category_id` + c.String()
	return query, c.args
}

// Balance sums amounts in one aggregate query. Income and expense buckets follow
// the category kind, so they always add up to the total.
func (s *Store) Balance(ctx context.Context, bq core.BalanceQuery) (core.Balance, error) {
	query, args := buildBalanceQuery(s.dialect, bq)

	var b core.Balance
	err := s.withConn(ctx, func(q querier) error {
		return q.QueryRowContext(ctx, query, args...).Scan(&b.TotalInCents, &b.IncomeInCents, &b.ExpensesInCents)
	})
	if err != nil {
		return core.Balance{}, fmt.Errorf("compute balance: %w", err)
	}
	return b, nil
}
