package storage

import (
	"context"
	"fmt"
	"math"
	"strings"

	"expenses/internal/core"
)

// paymentSelect reads the denormalized payment shape: category and wallet are
// left-joined so rows survive a missing wallet, tags come back as one JSON array.
func paymentSelect(d Dialect) string {
	return `SELECT p.id, p.description, p.amount_in_cents, p.merchant_name, p.accounting_date,
       c.id, c.name, c.icon, w.name, ` + d.TagsJSON("p.id") + ` AS tags
FROM payments p
LEFT JOIN categories c ON c.id = p.category_id
LEFT JOIN wallets w ON w.id = p.wallet_id`
}

// buildListQuery renders the filtered page query. Parameters 1 and 2 are always
// limit and offset; filters follow in a fixed order: date from, date to,
// category, wallet, search.
func buildListQuery(d Dialect, limit, offset int64, f core.PaymentFilters) (string, []any) {
	c := newClauses(d, limit, offset)

	if f.DateFrom != nil {
		c.add(f.DateFrom.Format(core.DateLayout), func(ph string) string {
			return d.DateOf("p.accounting_date") + " >= " + d.DateParam(ph)
		})
	}
	if f.DateTo != nil {
		c.add(f.DateTo.Format(core.DateLayout), func(ph string) string {
			return d.DateOf("p.accounting_date") + " <= " + d.DateParam(ph)
		})
	}
	if f.Category != nil {
		if f.Category.IsID() {
			c.add(f.Category.ID, func(ph string) string { return "p.category_id = " + ph })
		} else {
			c.add(f.Category.Name, func(ph string) string { return d.Lower("c.name") + " = " + d.Lower(ph) })
		}
	}
	if f.Wallet != nil {
		c.add(*f.Wallet, func(ph string) string { return "w.name = " + ph })
	}
	if f.Search != nil {
		c.add("%"+escapeLike(*f.Search)+"%", func(ph string) string {
			like := " LIKE " + d.Lower(ph) + ` ESCAPE '\'`
			return "(" + d.Lower("p.merchant_name") + like + " OR " + d.Lower("p.description") + like + ")"
		})
	}

	query := paymentSelect(d) + c.String() +
		"\nORDER BY p.accounting_date DESC\nLIMIT " + d.Placeholder(1) + " OFFSET " + d.Placeholder(2)
	return query, c.args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes wildcard characters in a search term match literally.
func escapeLike(s string) string { return likeEscaper.Replace(s) }

// ListPayments returns one page of payments, newest accounting date first.
func (s *Store) ListPayments(ctx context.Context, page, size int64, f core.PaymentFilters) ([]core.Payment, error) {
	if size <= 0 {
		return []core.Payment{}, nil
	}
	if page < 0 {
		page = 0
	}
	if page > math.MaxInt64/size {
		return []core.Payment{}, nil
	}

	query, args := buildListQuery(s.dialect, size, page*size, f)

	out := []core.Payment{}
	err := s.withConn(ctx, func(q querier) error {
		rows, err := q.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			p, err := scanPayment(rows)
			if err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return out, nil
}
