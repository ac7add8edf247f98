package services

import (
	"context"

	"expenses/internal/core"
)

type BalanceService struct {
	store   BalanceStore
	wallets *WalletResolver
}

func NewBalanceService(store BalanceStore, wallets *WalletResolver) *BalanceService {
	return &BalanceService{store: store, wallets: wallets}
}

// Balance resolves the wallet name, if any, and aggregates in one query.
// An unknown wallet is a client error.
func (s *BalanceService) Balance(ctx context.Context, req BalanceRequest) (core.Balance, error) {
	walletID, err := s.wallets.Resolve(ctx, req.Wallet)
	if err != nil {
		return core.Balance{}, err
	}
	return s.store.Balance(ctx, core.BalanceQuery{Start: req.Start, End: req.End, WalletID: walletID})
}
