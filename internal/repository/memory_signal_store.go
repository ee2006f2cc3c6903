package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"TradePulse/internal/domain/models"
	domrepo "TradePulse/internal/domain/repository"
)

// MemorySignalStore is a mutex-guarded SignalStore for tests and
// single-node runs without ClickHouse. Ids are monotonic; records are
// copied on the way in and out so callers cannot mutate stored state.
type MemorySignalStore struct {
	mu      sync.RWMutex
	nextID  int64
	signals map[int64]*models.TradeSignal
}

func NewMemorySignalStore() *MemorySignalStore {
	return &MemorySignalStore{
		nextID:  1,
		signals: make(map[int64]*models.TradeSignal),
	}
}

func (s *MemorySignalStore) Init(ctx context.Context) error { return nil }

func (s *MemorySignalStore) Insert(_ context.Context, sig *models.TradeSignal) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	stored := copySignal(sig)
	stored.ID = id
	s.signals[id] = stored
	return id, nil
}

func (s *MemorySignalStore) UpdateOutcome(_ context.Context, id int64, u domrepo.OutcomeUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sig, ok := s.signals[id]
	if !ok {
		return domrepo.ErrSignalNotFound
	}
	if sig.Status == models.StatusRejected {
		return domrepo.ErrSignalRejected
	}
	if sig.Evaluated() {
		return domrepo.ErrAlreadyEvaluated
	}

	now := time.Now().UTC()
	sig.Outcome = u.Outcome
	sig.TPHit = u.TPHit
	sig.HitStopLoss = u.HitStopLoss
	sig.FinalPrice = u.FinalPrice
	sig.ProfitLoss = u.ProfitLoss
	sig.EvaluatedAt = &now
	return nil
}

func (s *MemorySignalStore) Get(_ context.Context, id int64) (*models.TradeSignal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sig, ok := s.signals[id]
	if !ok {
		return nil, domrepo.ErrSignalNotFound
	}
	return copySignal(sig), nil
}

func (s *MemorySignalStore) Unevaluated(_ context.Context) ([]*models.TradeSignal, error) {
	return s.collect(func(sig *models.TradeSignal) bool {
		return sig.Evaluable()
	}, 0), nil
}

func (s *MemorySignalStore) ByStatus(_ context.Context, status models.SignalStatus, limit int) ([]*models.TradeSignal, error) {
	return s.collect(func(sig *models.TradeSignal) bool {
		return sig.Status == status
	}, limit), nil
}

func (s *MemorySignalStore) ByOutcome(_ context.Context, outcome models.Outcome, limit int) ([]*models.TradeSignal, error) {
	return s.collect(func(sig *models.TradeSignal) bool {
		return sig.Outcome == outcome
	}, limit), nil
}

func (s *MemorySignalStore) Recent(_ context.Context, limit int) ([]*models.TradeSignal, error) {
	return s.collect(func(*models.TradeSignal) bool { return true }, limit), nil
}

func (s *MemorySignalStore) Close() error { return nil }

// collect returns matching signals, newest first.
func (s *MemorySignalStore) collect(match func(*models.TradeSignal) bool, limit int) []*models.TradeSignal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.TradeSignal, 0, len(s.signals))
	for _, sig := range s.signals {
		if match(sig) {
			out = append(out, copySignal(sig))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func copySignal(sig *models.TradeSignal) *models.TradeSignal {
	cp := *sig
	if sig.Plan != nil {
		plan := *sig.Plan
		cp.Plan = &plan
	}
	if sig.EvaluatedAt != nil {
		ts := *sig.EvaluatedAt
		cp.EvaluatedAt = &ts
	}
	return &cp
}
