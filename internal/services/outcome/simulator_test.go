package outcome

import (
	"context"
	"math"
	"testing"

	"TradePulse/internal/domain/models"
)

func pendingSignal() *models.TradeSignal {
	return &models.TradeSignal{
		ID:     1,
		Symbol: "BTCUSDT",
		Status: models.StatusPending,
		Plan: &models.RiskPlan{
			EntryPrice:  100,
			StopLoss:    98,
			TakeProfit1: 103,
			TakeProfit2: 106,
			TakeProfit3: 109,
			RiskAmount:  2,
		},
	}
}

func TestDecideProfitRules(t *testing.T) {
	// across many seeded draws every outcome must respect the P/L law
	sim := NewSimulator(DefaultSimulatorConfig())
	counts := map[models.TPLevel]int{}
	stops := 0
	for i := 0; i < 2000; i++ {
		d, err := sim.Decide(context.Background(), pendingSignal())
		if err != nil {
			t.Fatalf("Decide failed: %v", err)
		}
		switch {
		case d.HitStopLoss:
			stops++
			if d.Outcome != models.OutcomeLoss || d.ProfitLoss != -2 || d.FinalPrice != 98 {
				t.Fatalf("bad stop outcome: %+v", d)
			}
		case d.Outcome == models.OutcomeWin:
			counts[d.TPHit]++
			want := map[models.TPLevel]float64{models.TP1: 3, models.TP2: 6, models.TP3: 9}[d.TPHit]
			if d.ProfitLoss != want {
				t.Fatalf("TP %s profit %f, want %f", d.TPHit, d.ProfitLoss, want)
			}
		default:
			if d.ProfitLoss != -1 || math.Abs(d.FinalPrice-99.5) > 1e-9 {
				t.Fatalf("bad partial loss: %+v", d)
			}
		}
	}
	// with 2000 draws each configured branch must have fired
	if stops == 0 || counts[models.TP1] == 0 || counts[models.TP2] == 0 || counts[models.TP3] == 0 {
		t.Fatalf("branch never hit: stops=%d counts=%v", stops, counts)
	}
	if counts[models.TP1] <= counts[models.TP3] {
		t.Fatalf("TP1 (p=0.40) should outnumber TP3 (p=0.15): %v", counts)
	}
}

func TestDecideIsSeedDeterministic(t *testing.T) {
	cfg := DefaultSimulatorConfig()
	cfg.Seed = 42
	a := NewSimulator(cfg)
	b := NewSimulator(cfg)
	for i := 0; i < 50; i++ {
		da, _ := a.Decide(context.Background(), pendingSignal())
		db, _ := b.Decide(context.Background(), pendingSignal())
		if da != db {
			t.Fatalf("same seed diverged at draw %d: %+v vs %+v", i, da, db)
		}
	}
}

func TestDecideRequiresPlan(t *testing.T) {
	sim := NewSimulator(DefaultSimulatorConfig())
	s := pendingSignal()
	s.Plan = nil
	if _, err := sim.Decide(context.Background(), s); err == nil {
		t.Fatal("expected an error for a signal without a plan")
	}
}
