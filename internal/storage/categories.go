package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"expenses/internal/core"

	"github.com/google/uuid"
)

// FindCategoryIDByName looks a category up by case-insensitive name.
func (s *Store) FindCategoryIDByName(ctx context.Context, name string) (uuid.UUID, bool, error) {
	var id uuid.UUID
	err := s.withConn(ctx, func(q querier) error {
		return q.QueryRowContext(ctx,
			"SELECT id FROM categories WHERE "+s.dialect.Lower("name")+" = "+s.dialect.Lower(s.ph(1)), name).Scan(&id)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("find category %q: %w", name, err)
	}
	return id, true, nil
}

// InsertCategory creates a category. A name that already exists, in any case,
// yields an error wrapping core.ErrConflict.
func (s *Store) InsertCategory(ctx context.Context, name core.CategoryName, icon *core.CategoryIcon, kind core.CategoryKind) (uuid.UUID, error) {
	var iconArg sql.NullString
	if icon != nil {
		iconArg = sql.NullString{String: string(*icon), Valid: true}
	}
	if kind == "" {
		kind = core.KindExpense
	}

	var id uuid.UUID
	err := s.withConn(ctx, func(q querier) error {
		return q.QueryRowContext(ctx,
			fmt.Sprintf("INSERT INTO categories (id, name, icon, kind) VALUES (%s, %s, %s, %s) RETURNING id",
				s.ph(1), s.ph(2), s.ph(3), s.ph(4)),
			uuid.New(), string(name), iconArg, string(kind)).Scan(&id)
	})
	if err != nil {
		if s.dialect.IsUniqueViolation(err) {
			return uuid.Nil, fmt.Errorf("category %q: %w", name, core.ErrConflict)
		}
		return uuid.Nil, fmt.Errorf("insert category %q: %w", name, err)
	}
	return id, nil
}

func (s *Store) CategoryExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := s.withConn(ctx, func(q querier) error {
		return q.QueryRowContext(ctx,
			"SELECT EXISTS (SELECT 1 FROM categories WHERE id = "+s.ph(1)+")", id).Scan(&exists)
	})
	if err != nil {
		return false, fmt.Errorf("check category %s: %w", id, err)
	}
	return exists, nil
}

func (s *Store) GetCategory(ctx context.Context, id uuid.UUID) (core.Category, error) {
	var (
		c    core.Category
		icon sql.NullString
		kind string
	)
	err := s.withConn(ctx, func(q querier) error {
		return q.QueryRowContext(ctx,
			"SELECT id, name, icon, kind FROM categories WHERE id = "+s.ph(1), id).
			Scan(&c.ID, &c.Name, &icon, &kind)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, fmt.Errorf("category %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %s: %w", id, err)
	}
	c.Kind = core.CategoryKind(kind)
	if icon.Valid {
		c.Icon = &icon.String
	}
	return c, nil
}

// ListCategories returns categories ordered by name, optionally restricted to one kind.
func (s *Store) ListCategories(ctx context.Context, kind *core.CategoryKind) ([]core.Category, error) {
	query := "SELECT id, name, icon, kind FROM categories"
	var args []any
	if kind != nil {
		query += " WHERE kind = " + s.ph(1)
		args = append(args, string(*kind))
	}
	query += " ORDER BY name"

	var out []core.Category
	err := s.withConn(ctx, func(q querier) error {
		rows, err := q.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				c    core.Category
				icon sql.NullString
				k    string
			)
			if err := rows.Scan(&c.ID, &c.Name, &icon, &k); err != nil {
				return err
			}
			c.Kind = core.CategoryKind(k)
			if icon.Valid {
				c.Icon = &icon.String
			}
			out = append(out, c)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return out, nil
}
