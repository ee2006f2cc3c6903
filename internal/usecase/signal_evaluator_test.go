package usecase

import (
	"context"
	"testing"
	"time"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/domain/service"
	"TradePulse/internal/repository"
	"TradePulse/internal/services/outcome"
)

type fixedOutcome struct {
	decision service.OutcomeDecision
}

func (f *fixedOutcome) Decide(context.Context, *models.TradeSignal) (service.OutcomeDecision, error) {
	return f.decision, nil
}

func openSignal(symbol string) *models.TradeSignal {
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

func TestEvaluateAllSettlesOpenSignals(t *testing.T) {
	store := repository.NewMemorySignalStore()
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		store.Insert(ctx, openSignal("BTCUSDT"))
	}
	rejected := openSignal("ETHUSDT")
	rejected.Status = models.StatusRejected
	rejected.Plan = nil
	store.Insert(ctx, rejected)

	model := &fixedOutcome{decision: service.OutcomeDecision{
		Outcome: models.OutcomeWin, TPHit: models.TP1, FinalPrice: 103, ProfitLoss: 3,
	}}
	e := NewSignalEvaluator(store, model, newCountingMetrics(), testLogger(t))

	summary, err := e.EvaluateAll(ctx)
	if err != nil {
		t.Fatalf("EvaluateAll failed: %v", err)
	}
	if summary.Evaluated != 4 || summary.Wins != 4 {
		t.Fatalf("expected 4 wins, got %+v", summary)
	}

	open, _ := store.Unevaluated(ctx)
	if len(open) != 0 {
		t.Fatalf("expected no open signals after the batch, got %d", len(open))
	}
}

func TestEvaluateAllIsIdempotent(t *testing.T) {
	store := repository.NewMemorySignalStore()
	ctx := context.Background()
	id, _ := store.Insert(ctx, openSignal("BTCUSDT"))

	first := &fixedOutcome{decision: service.OutcomeDecision{
		Outcome: models.OutcomeWin, TPHit: models.TP2, FinalPrice: 106, ProfitLoss: 6,
	}}
	e := NewSignalEvaluator(store, first, newCountingMetrics(), testLogger(t))
	if _, err := e.EvaluateAll(ctx); err != nil {
		t.Fatalf("first batch failed: %v", err)
	}

	// a second batch with a contradicting model must change nothing
	second := &fixedOutcome{decision: service.OutcomeDecision{
		Outcome: models.OutcomeLoss, HitStopLoss: true, FinalPrice: 98, ProfitLoss: -2,
	}}
	e = NewSignalEvaluator(store, second, newCountingMetrics(), testLogger(t))
	summary, err := e.EvaluateAll(ctx)
	if err != nil {
		t.Fatalf("second batch failed: %v", err)
	}
	if summary.Evaluated != 0 {
		t.Fatalf("second batch must evaluate nothing, got %+v", summary)
	}

	s, _ := store.Get(ctx, id)
	if s.Outcome != models.OutcomeWin || s.TPHit != models.TP2 || s.ProfitLoss != 6 {
		t.Fatalf("outcome changed by the second batch: %+v", s)
	}
}

func TestEvaluateAllWithSimulator(t *testing.T) {
	store := repository.NewMemorySignalStore()
	ctx := context.Background()
	for i := 0; i < 50; i++ {
		store.Insert(ctx, openSignal("BTCUSDT"))
	}

	cfg := outcome.DefaultSimulatorConfig()
	cfg.Seed = 7
	e := NewSignalEvaluator(store, outcome.NewSimulator(cfg), newCountingMetrics(), testLogger(t))

	summary, err := e.EvaluateAll(ctx)
	if err != nil {
		t.Fatalf("EvaluateAll failed: %v", err)
	}
	if summary.Evaluated != 50 {
		t.Fatalf("expected all 50 settled, got %+v", summary)
	}
	if summary.Wins == 0 || summary.Losses == 0 {
		t.Fatalf("expected mixed outcomes over 50 draws, got %+v", summary)
	}
}

func TestStatsAggregation(t *testing.T) {
	store := repository.NewMemorySignalStore()
	ctx := context.Background()

	settle := func(d service.OutcomeDecision) {
		id, _ := store.Insert(ctx, openSignal("BTCUSDT"))
		e := NewSignalEvaluator(store, &fixedOutcome{decision: d}, newCountingMetrics(), testLogger(t))
		if _, err := e.EvaluateAll(ctx); err != nil {
			t.Fatalf("settle %d: %v", id, err)
		}
	}

	settle(service.OutcomeDecision{Outcome: models.OutcomeWin, TPHit: models.TP1, ProfitLoss: 3})
	settle(service.OutcomeDecision{Outcome: models.OutcomeWin, TPHit: models.TP3, ProfitLoss: 9})
	settle(service.OutcomeDecision{Outcome: models.OutcomeLoss, HitStopLoss: true, ProfitLoss: -2})
	settle(service.OutcomeDecision{Outcome: models.OutcomeLoss, TPHit: models.TPNone, ProfitLoss: -1})

	e := NewSignalEvaluator(store, &fixedOutcome{}, newCountingMetrics(), testLogger(t))
	stats, err := e.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Total != 4 || stats.Wins != 2 || stats.Losses != 2 {
		t.Fatalf("bad totals: %+v", stats)
	}
	if stats.WinRate != 50 {
		t.Fatalf("expected 50%% win rate, got %f", stats.WinRate)
	}
	if stats.TP1Hits != 1 || stats.TP3Hits != 1 || stats.TP2Hits != 0 {
		t.Fatalf("bad TP counts: %+v", stats)
	}
	if stats.SLHits != 1 {
		t.Fatalf("expected one stop hit, got %d", stats.SLHits)
	}
}
