package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"expenses/internal/core"

	"github.com/google/uuid"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(row rowScanner) (core.Payment, error) {
	var (
		p            core.Payment
		description  sql.NullString
		accounting   scanTime
		categoryID   uuid.NullUUID
		categoryName sql.NullString
		categoryIcon sql.NullString
		walletName   sql.NullString
		tags         []byte
	)
	err := row.Scan(&p.ID, &description, &p.AmountInCents, &p.MerchantName, &accounting,
		&categoryID, &categoryName, &categoryIcon, &walletName, &tags)
	if err != nil {
		return core.Payment{}, err
	}

	p.AccountingDate = core.LocalDateTime{Time: accounting.Time}
	p.Category = categoryName.String
	if description.Valid {
		p.Description = &description.String
	}
	if categoryID.Valid {
		p.CategoryID = &categoryID.UUID
	}
	if categoryIcon.Valid {
		p.CategoryIcon = &categoryIcon.String
	}
	if walletName.Valid {
		p.Wallet = &walletName.String
	}

	p.Tags = []core.Tag{}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &p.Tags); err != nil {
			return core.Payment{}, fmt.Errorf("decode tags of payment %s: %w", p.ID, err)
		}
	}
	return p, nil
}

// GetPayment reads one payment in its response shape.
func (s *Store) GetPayment(ctx context.Context, id uuid.UUID) (core.Payment, error) {
	var p core.Payment
	err := s.withConn(ctx, func(q querier) error {
		var err error
		p, err = scanPayment(q.QueryRowContext(ctx, paymentSelect(s.dialect)+"\nWHERE p.id = "+s.ph(1), id))
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return core.Payment{}, fmt.Errorf("payment %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Payment{}, fmt.Errorf("get payment %s: %w", id, err)
	}
	return p, nil
}

func (s *Store) paymentArgs(rec core.PaymentRecord) []any {
	var desc sql.NullString
	if rec.Description != nil {
		desc = sql.NullString{String: string(*rec.Description), Valid: true}
	}
	var wallet uuid.NullUUID
	if rec.WalletID != nil {
		wallet = uuid.NullUUID{UUID: *rec.WalletID, Valid: true}
	}
	return []any{desc, rec.CategoryID, rec.AmountInCents, string(rec.MerchantName),
		s.dialect.BindTime(rec.AccountingDate), wallet}
}

// InsertPayment persists a resolved payment and returns its generated id.
func (s *Store) InsertPayment(ctx context.Context, rec core.PaymentRecord) (uuid.UUID, error) {
	query := fmt.Sprintf(`INSERT INTO payments (description, category_id, amount_in_cents, merchant_name, accounting_date, wallet_id, id)
VALUES (%s, %s, %s, %s, %s, %s, %s) RETURNING id`,
		s.ph(1), s.ph(2), s.ph(3), s.ph(4), s.ph(5), s.ph(6), s.ph(7))

	var id uuid.UUID
	err := s.withConn(ctx, func(q querier) error {
		return q.QueryRowContext(ctx, query, append(s.paymentArgs(rec), uuid.New())...).Scan(&id)
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert payment: %w", err)
	}
	return id, nil
}

// InsertTag attaches one tag to a payment.
func (s *Store) InsertTag(ctx context.Context, paymentID uuid.UUID, tag core.TagInput) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.withConn(ctx, func(q querier) error {
		var err error
		id, err = s.insertTag(ctx, q, paymentID, tag)
		return err
	})
	return id, err
}

func (s *Store) insertTag(ctx context.Context, q querier, paymentID uuid.UUID, tag core.TagInput) (uuid.UUID, error) {
	var id uuid.UUID
	err := q.QueryRowContext(ctx,
		fmt.Sprintf("INSERT INTO tags (id, payment_id, tag_key, tag_value) VALUES (%s, %s, %s, %s) RETURNING id",
			s.ph(1), s.ph(2), s.ph(3), s.ph(4)),
		uuid.New(), paymentID, string(tag.Key), string(tag.Value)).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert tag %q of payment %s: %w", tag.Key, paymentID, err)
	}
	return id, nil
}

func (s *Store) deleteTags(ctx context.Context, q querier, paymentID uuid.UUID) error {
	if _, err := q.ExecContext(ctx, "DELETE FROM tags WHERE payment_id = "+s.ph(1), paymentID); err != nil {
		return fmt.Errorf("delete tags of payment %s: %w", paymentID, err)
	}
	return nil
}

// UpdatePayment replaces every mutable field and the whole tag set in one
// transaction. When tags is nil the existing tags are cleared.
func (s *Store) UpdatePayment(ctx context.Context, id uuid.UUID, rec core.PaymentRecord, tags []core.TagInput) error {
	query := fmt.Sprintf(`UPDATE payments
SET description = %s, category_id = %s, amount_in_cents = %s, merchant_name = %s, accounting_date = %s, wallet_id = %s
WHERE id = %s`,
		s.ph(1), s.ph(2), s.ph(3), s.ph(4), s.ph(5), s.ph(6), s.ph(7))

	return s.withTx(ctx, func(q querier) error {
		res, err := q.ExecContext(ctx, query, append(s.paymentArgs(rec), id)...)
		if err != nil {
			return fmt.Errorf("update payment %s: %w", id, err)
		}
		if err := expectAffected(res, fmt.Sprintf("payment %s", id)); err != nil {
			return err
		}

		if err := s.deleteTags(ctx, q, id); err != nil {
			return err
		}
		for _, tag := range tags {
			if _, err := s.insertTag(ctx, q, id, tag); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeletePayment removes the tags first and then the payment row.
func (s *Store) DeletePayment(ctx context.Context, id uuid.UUID) error {
	return s.withTx(ctx, func(q querier) error {
		if err := s.deleteTags(ctx, q, id); err != nil {
			return err
		}
		res, err := q.ExecContext(ctx, "DELETE FROM payments WHERE id = "+s.ph(1), id)
		if err != nil {
			return fmt.Errorf("delete payment %s: %w", id, err)
		}
		return expectAffected(res, fmt.Sprintf("payment %s", id))
	})
}
