package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"expenses/internal/core"

	"github.com/google/uuid"
)

// FindWalletIDByName looks a wallet up by exact name.
func (s *Store) FindWalletIDByName(ctx context.Context, name string) (uuid.UUID, bool, error) {
	var id uuid.UUID
	err := s.withConn(ctx, func(q querier) error {
		return q.QueryRowContext(ctx, "SELECT id FROM wallets WHERE name = "+s.ph(1), name).Scan(&id)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("find wallet %q: %w", name, err)
	}
	return id, true, nil
}

func (s *Store) InsertWallet(ctx context.Context, name core.WalletName) (core.Wallet, error) {
	w := core.Wallet{Name: string(name)}
	err := s.withConn(ctx, func(q querier) error {
		return q.QueryRowContext(ctx,
			fmt.Sprintf("INSERT INTO wallets (id, name) VALUES (%s, %s) RETURNING id", s.ph(1), s.ph(2)),
			uuid.New(), string(name)).Scan(&w.ID)
	})
	if err != nil {
		if s.dialect.IsUniqueViolation(err) {
			return core.Wallet{}, fmt.Errorf("wallet %q: %w", name, core.ErrConflict)
		}
		return core.Wallet{}, fmt.Errorf("insert wallet %q: %w", name, err)
	}
	return w, nil
}

func (s *Store) ListWallets(ctx context.Context) ([]core.Wallet, error) {
	var out []core.Wallet
	err := s.withConn(ctx, func(q querier) error {
		rows, err := q.QueryContext(ctx, "SELECT id, name FROM wallets ORDER BY name")
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var w core.Wallet
			if err := rows.Scan(&w.ID, &w.Name); err != nil {
				return err
			}
			out = append(out, w)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	return out, nil
}

// DeleteWallet removes a wallet; payments that referenced it keep existing without one.
func (s *Store) DeleteWallet(ctx context.Context, id uuid.UUID) error {
	return s.withConn(ctx, func(q querier) error {
		res, err := q.ExecContext(ctx, "DELETE FROM wallets WHERE id = "+s.ph(1), id)
		if err != nil {
			return fmt.Errorf("delete wallet %s: %w", id, err)
		}
		return expectAffected(res, fmt.Sprintf("wallet %s", id))
	})
}

func expectAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, core.ErrNotFound)
	}
	return nil
}
