package usecase

import (
	"context"
	"fmt"

	"TradePulse/internal/domain/models"
	domrepo "TradePulse/internal/domain/repository"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// SignalsUseCase serves read queries over persisted signals.
type SignalsUseCase struct {
	store domrepo.SignalStore
}

func NewSignalsUseCase(store domrepo.SignalStore) *SignalsUseCase {
	return &SignalsUseCase{store: store}
}

// ListParams narrows the listing. Status and Outcome are mutually
// exclusive filters; empty means recent signals of any kind.
type ListParams struct {
	Status  models.SignalStatus
	Outcome models.Outcome
	Limit   int
}

func (u *SignalsUseCase) List(ctx context.Context, p ListParams) ([]*models.TradeSignal, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	switch {
	case p.Status != "" && p.Outcome != "":
		return nil, fmt.Errorf("list signals: status and outcome filters are exclusive")
	case p.Status != "":
		return u.store.ByStatus(ctx, p.Status, limit)
	case p.Outcome != "":
		return u.store.ByOutcome(ctx, p.Outcome, limit)
	default:
		return u.store.Recent(ctx, limit)
	}
}

// Get fetches one signal by id.
func (u *SignalsUseCase) Get(ctx context.Context, id int64) (*models.TradeSignal, error) {
	return u.store.Get(ctx, id)
}
