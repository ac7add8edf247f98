package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"expenses/internal/cache"
	"expenses/internal/core"

	"github.com/google/uuid"
)

// CategoryResolver turns a category reference into the id of an existing row,
// creating the category when a name is not known yet. Concurrent creators of the
// same name are arbitrated by the store's case-insensitive unique index: the
// loser of the insert reads the winner's row back.
type CategoryResolver struct {
	store CategoryStore
	ids   cache.Cache[uuid.UUID]
}

// NewCategoryResolver builds a resolver. ids caches name lookups and may be nil.
func NewCategoryResolver(store CategoryStore, ids cache.Cache[uuid.UUID]) *CategoryResolver {
	return &CategoryResolver{store: store, ids: ids}
}

func (r *CategoryResolver) Resolve(ctx context.Context, ref core.CategoryRef) (uuid.UUID, error) {
	id := ref.ID
	if !ref.IsID() {
		name, err := core.ParseCategoryName(ref.Name)
		if err != nil {
			return uuid.Nil, err
		}
		if id, err = r.getOrCreate(ctx, name); err != nil {
			return uuid.Nil, err
		}
	}

	exists, err := r.store.CategoryExists(ctx, id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("resolve category: %w", err)
	}
	if !exists {
		return uuid.Nil, core.Invalid("categoryId", "category %s does not exist", id)
	}
	return id, nil
}

func (r *CategoryResolver) getOrCreate(ctx context.Context, name core.CategoryName) (uuid.UUID, error) {
	key := string(name)
	if r.ids != nil {
		if id, ok := r.ids.Get(key); ok {
			return id, nil
		}
	}

	id, found, err := r.store.FindCategoryIDByName(ctx, key)
	if err != nil {
		return uuid.Nil, fmt.Errorf("resolve category: %w", err)
	}
	if !found {
		id, err = r.store.InsertCategory(ctx, name, nil, core.KindExpense)
		switch {
		case errors.Is(err, core.ErrConflict):
			id, found, err = r.store.FindCategoryIDByName(ctx, key)
			if err != nil {
				return uuid.Nil, fmt.Errorf("re-read category %q: %w", name, err)
			}
			if !found {
				return uuid.Nil, fmt.Errorf("category %q conflicted on insert but is not readable: %w", name, core.ErrInconsistent)
			}
		case err != nil:
			return uuid.Nil, fmt.Errorf("create category: %w", err)
		}
	}

	if r.ids != nil {
		r.ids.Set(key, id)
	}
	return id, nil
}

// WalletResolver maps a wallet name to its id. Wallets are never created here.
type WalletResolver struct {
	store WalletStore
}

func NewWalletResolver(store WalletStore) *WalletResolver {
	return &WalletResolver{store: store}
}

// Resolve returns nil for an absent or blank name.
func (r *WalletResolver) Resolve(ctx context.Context, name *string) (*uuid.UUID, error) {
	if name == nil || strings.TrimSpace(*name) == "" {
		return nil, nil
	}
	wn, err := core.ParseWalletName(*name)
	if err != nil {
		return nil, err
	}

	id, found, err := r.store.FindWalletIDByName(ctx, string(wn))
	if err != nil {
		return nil, fmt.Errorf("resolve wallet: %w", err)
	}
	if !found {
		return nil, core.Invalid("wallet", "wallet %q does not exist", wn)
	}
	return &id, nil
}
