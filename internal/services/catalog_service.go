package services

import (
	"context"
	"strings"

	"expenses/internal/core"
	"expenses/internal/log"

	"github.com/google/uuid"
)

// CatalogService covers explicit wallet and category management.
type CatalogService struct {
	categories CategoryStore
	wallets    WalletStore
	logger     *log.Logger
}

func NewCatalogService(categories CategoryStore, wallets WalletStore, logger *log.Logger) *CatalogService {
	if logger == nil {
		logger = log.Discard()
	}
	return &CatalogService{categories: categories, wallets: wallets, logger: logger.WithComponent(log.ComponentCategories)}
}

func (s *CatalogService) CreateWallet(ctx context.Context, name string) (core.Wallet, error) {
	wn, err := core.ParseWalletName(name)
	if err != nil {
		return core.Wallet{}, err
	}
	w, err := s.wallets.InsertWallet(ctx, wn)
	if err != nil {
		return core.Wallet{}, err
	}
	s.logger.InfoContext(ctx, "Wallet created", log.FieldWallet, w.Name)
	return w, nil
}

func (s *CatalogService) ListWallets(ctx context.Context) ([]core.Wallet, error) {
	wallets, err := s.wallets.ListWallets(ctx)
	if err != nil {
		return nil, err
	}
	if wallets == nil {
		wallets = []core.Wallet{}
	}
	return wallets, nil
}

func (s *CatalogService) DeleteWallet(ctx context.Context, id uuid.UUID) error {
	return s.wallets.DeleteWallet(ctx, id)
}

// CreateCategory creates a category explicitly; a name clash in any case is a conflict.
func (s *CatalogService) CreateCategory(ctx context.Context, name string, icon *string, kind string) (core.Category, error) {
	cn, err := core.ParseCategoryName(name)
	if err != nil {
		return core.Category{}, err
	}
	var ci *core.CategoryIcon
	if icon != nil && strings.TrimSpace(*icon) != "" {
		parsed, err := core.ParseCategoryIcon(*icon)
		if err != nil {
			return core.Category{}, err
		}
		ci = &parsed
	}
	k, err := core.ParseCategoryKind(kind)
	if err != nil {
		return core.Category{}, err
	}

	id, err := s.categories.InsertCategory(ctx, cn, ci, k)
	if err != nil {
		return core.Category{}, err
	}
	s.logger.InfoContext(ctx, "Category created", log.FieldCategory, cn, log.FieldCategoryID, id)
	return s.categories.GetCategory(ctx, id)
}

// ListCategories lists every category, or only one kind when kind is not blank.
func (s *CatalogService) ListCategories(ctx context.Context, kind string) ([]core.Category, error) {
	var filter *core.CategoryKind
	if strings.TrimSpace(kind) != "" {
		k, err := core.ParseCategoryKind(kind)
		if err != nil {
			return nil, err
		}
		filter = &k
	}
	categories, err := s.categories.ListCategories(ctx, filter)
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []core.Category{}
	}
	return categories, nil
}
