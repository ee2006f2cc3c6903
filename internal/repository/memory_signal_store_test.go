package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"TradePulse/internal/domain/models"
	domrepo "TradePulse/internal/domain/repository"
)

func pendingSignal(symbol string) *models.TradeSignal {
	return &models.TradeSignal{
		Symbol:    symbol,
		CreatedAt: time.Now().UTC(),
		Status:    models.StatusPending,
		Direction: models.DirectionBuy,
		TPHit:     models.TPNone,
		Plan: &models.RiskPlan{
			EntryPrice: 100, StopLoss: 98,
			TakeProfit1: 103, TakeProfit2: 106, TakeProfit3: 109,
			RiskAmount: 2, RiskPercent: 2, PositionSize: 10, Leverage: 1,
		},
		Balance: 100,
	}
}

func TestInsertAssignsMonotonicIDs(t *testing.T) {
	s := NewMemorySignalStore()
	ctx := context.Background()

	var prev int64
	for i := 0; i < 5; i++ {
		id, err := s.Insert(ctx, pendingSignal("BTCUSDT"))
		if err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
		if id <= prev {
			t.Fatalf("id %d not greater than previous %d", id, prev)
		}
		prev = id
	}
}

func TestUpdateOutcomeSetOnce(t *testing.T) {
	s := NewMemorySignalStore()
	ctx := context.Background()
	id, _ := s.Insert(ctx, pendingSignal("BTCUSDT"))

	update := domrepo.OutcomeUpdate{
		Outcome:    models.OutcomeWin,
		TPHit:      models.TP1,
		FinalPrice: 103,
		ProfitLoss: 3,
	}
	if err := s.UpdateOutcome(ctx, id, update); err != nil {
		t.Fatalf("first update failed: %v", err)
	}

	err := s.UpdateOutcome(ctx, id, domrepo.OutcomeUpdate{Outcome: models.OutcomeLoss})
	if !errors.Is(err, domrepo.ErrAlreadyEvaluated) {
		t.Fatalf("expected ErrAlreadyEvaluated, got %v", err)
	}

	got, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Outcome != models.OutcomeWin || got.TPHit != models.TP1 || got.ProfitLoss != 3 {
		t.Fatalf("second update must not change fields: %+v", got)
	}
	if got.EvaluatedAt == nil {
		t.Fatal("evaluation timestamp not set")
	}
}

func TestUpdateOutcomeRejectedSignal(t *testing.T) {
	s := NewMemorySignalStore()
	ctx := context.Background()

	rejected := pendingSignal("BTCUSDT")
	rejected.Status = models.StatusRejected
	rejected.RejectReason = models.RejectMarketNotTrending
	rejected.Plan = nil
	id, _ := s.Insert(ctx, rejected)

	err := s.UpdateOutcome(ctx, id, domrepo.OutcomeUpdate{Outcome: models.OutcomeLoss})
	if !errors.Is(err, domrepo.ErrSignalRejected) {
		t.Fatalf("expected ErrSignalRejected, got %v", err)
	}
}

func TestUnevaluatedExcludesSettledAndRejected(t *testing.T) {
	s := NewMemorySignalStore()
	ctx := context.Background()

	id1, _ := s.Insert(ctx, pendingSignal("BTCUSDT"))
	s.Insert(ctx, pendingSignal("ETHUSDT"))
	rejected := pendingSignal("SOLUSDT")
	rejected.Status = models.StatusRejected
	rejected.Plan = nil
	s.Insert(ctx, rejected)

	s.UpdateOutcome(ctx, id1, domrepo.OutcomeUpdate{Outcome: models.OutcomeWin, TPHit: models.TP1})

	open, err := s.Unevaluated(ctx)
	if err != nil {
		t.Fatalf("Unevaluated failed: %v", err)
	}
	if len(open) != 1 || open[0].Symbol != "ETHUSDT" {
		t.Fatalf("expected only the open ETHUSDT signal, got %+v", open)
	}
}

func TestQueriesReturnCopies(t *testing.T) {
	s := NewMemorySignalStore()
	ctx := context.Background()
	id, _ := s.Insert(ctx, pendingSignal("BTCUSDT"))

	got, _ := s.Get(ctx, id)
	got.Plan.EntryPrice = 1
	got.Symbol = "MUTATED"

	again, _ := s.Get(ctx, id)
	if again.Symbol != "BTCUSDT" || again.Plan.EntryPrice != 100 {
		t.Fatalf("store leaked internal state: %+v", again)
	}
}

func TestRecentOrderAndLimit(t *testing.T) {
	s := NewMemorySignalStore()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		s.Insert(ctx, pendingSignal("BTCUSDT"))
	}

	recent, err := s.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("expected 3 signals, got %d", len(recent))
	}
	if recent[0].ID < recent[1].ID || recent[1].ID < recent[2].ID {
		t.Fatalf("expected newest first, got ids %d %d %d", recent[0].ID, recent[1].ID, recent[2].ID)
	}
}
