package engine

import (
	"math"
	"testing"

	"TradePulse/internal/domain/models"
)

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestPlanSmallAccountBuy(t *testing.T) {
	p := NewPlanner(DefaultRiskConfig())
	riskPercent := p.RiskPercentFor(20)
	if riskPercent != 1.5 {
		t.Fatalf("expected 1.5%% risk for a $20 balance, got %f", riskPercent)
	}

	plan, err := p.Plan(models.DirectionBuy, 42350, 0.75, 20, riskPercent)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if !almostEqual(plan.RiskAmount, 0.30, 1e-9) {
		t.Fatalf("expected $0.30 risk amount, got %f", plan.RiskAmount)
	}
	if !almostEqual(plan.StopLoss, 41714.75, 1e-6) {
		t.Fatalf("expected stop 41714.75, got %f", plan.StopLoss)
	}
	if !almostEqual(plan.TakeProfit1, 43302.875, 1e-6) {
		t.Fatalf("expected TP1 43302.875, got %f", plan.TakeProfit1)
	}
	if plan.Leverage != 1.0 {
		t.Fatalf("sub-$50 accounts never leverage, got %f", plan.Leverage)
	}
}

func TestPlanMidAccountSell(t *testing.T) {
	p := NewPlanner(DefaultRiskConfig())
	riskPercent := p.RiskPercentFor(100)
	if riskPercent != 2.5 {
		t.Fatalf("expected 2.5%% risk for a $100 balance, got %f", riskPercent)
	}

	plan, err := p.Plan(models.DirectionSell, 2450, 0.82, 100, riskPercent)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if !almostEqual(plan.StopLoss, 2511.25, 1e-6) {
		t.Fatalf("expected stop 2511.25, got %f", plan.StopLoss)
	}
	if plan.Leverage != 5.0 {
		t.Fatalf("expected 5x at confidence 0.82, got %f", plan.Leverage)
	}

	plan, err = p.Plan(models.DirectionSell, 2450, 0.79, 100, riskPercent)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if plan.Leverage != 3.0 {
		t.Fatalf("expected base 3x below the confidence floor, got %f", plan.Leverage)
	}
}

func TestPlanTargetRatios(t *testing.T) {
	p := NewPlanner(DefaultRiskConfig())
	for _, dir := range []models.Direction{models.DirectionBuy, models.DirectionSell} {
		plan, err := p.Plan(dir, 1000, 0.75, 60, p.RiskPercentFor(60))
		if err != nil {
			t.Fatalf("Plan failed for %s: %v", dir, err)
		}
		stopDist := math.Abs(plan.EntryPrice - plan.StopLoss)
		for i, tp := range []float64{plan.TakeProfit1, plan.TakeProfit2, plan.TakeProfit3} {
			want := stopDist * []float64{1.5, 3.0, 4.5}[i]
			got := math.Abs(tp - plan.EntryPrice)
			if !almostEqual(got, want, 1e-9) {
				t.Fatalf("%s TP%d distance %f, want %f", dir, i+1, got, want)
			}
		}
	}
}

func TestPlanOrderingInvariant(t *testing.T) {
	p := NewPlanner(DefaultRiskConfig())

	buy, err := p.Plan(models.DirectionBuy, 500, 0.9, 300, p.RiskPercentFor(300))
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if !(buy.StopLoss < buy.EntryPrice && buy.EntryPrice < buy.TakeProfit1 &&
		buy.TakeProfit1 < buy.TakeProfit2 && buy.TakeProfit2 < buy.TakeProfit3) {
		t.Fatalf("BUY levels out of order: %+v", buy)
	}

	sell, err := p.Plan(models.DirectionSell, 500, 0.9, 300, p.RiskPercentFor(300))
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if !(sell.StopLoss > sell.EntryPrice && sell.EntryPrice > sell.TakeProfit1 &&
		sell.TakeProfit1 > sell.TakeProfit2 && sell.TakeProfit2 > sell.TakeProfit3) {
		t.Fatalf("SELL levels out of order: %+v", sell)
	}
}

func TestRiskPercentTiers(t *testing.T) {
	p := NewPlanner(DefaultRiskConfig())
	cases := []struct {
		balance float64
		want    float64
	}{
		{10, 2.0}, // below the first tier, configured default applies
		{20, 1.5},
		{49.99, 1.5},
		{50, 2.0},
		{100, 2.5},
		{249.99, 2.5},
		{250, 3.0},
		{10000, 3.0},
	}
	for _, c := range cases {
		if got := p.RiskPercentFor(c.balance); got != c.want {
			t.Fatalf("balance %f: expected %f%%, got %f%%", c.balance, c.want, got)
		}
	}
}

func TestLeverageTiers(t *testing.T) {
	p := NewPlanner(DefaultRiskConfig())
	cases := []struct {
		balance    float64
		confidence float64
		want       float64
	}{
		{30, 0.99, 1.0},
		{49.99, 0.99, 1.0},
		{50, 0.70, 2.0},
		{99, 0.95, 2.0},
		{100, 0.79, 3.0},
		{100, 0.80, 5.0},
		{250, 0.84, 5.0},
		{250, 0.85, 10.0},
	}
	for _, c := range cases {
		if got := p.Leverage(c.balance, c.confidence); got != c.want {
			t.Fatalf("balance %f confidence %f: expected %fx, got %fx",
				c.balance, c.confidence, c.want, got)
		}
	}

	// monotone non-decreasing in balance at fixed confidence
	prev := 0.0
	for _, balance := range []float64{10, 40, 50, 80, 100, 200, 250, 1000} {
		lev := p.Leverage(balance, 0.90)
		if lev < prev {
			t.Fatalf("leverage decreased from %f to %f at balance %f", prev, lev, balance)
		}
		prev = lev
	}
}

func TestPlanRejectsMalformedInput(t *testing.T) {
	p := NewPlanner(DefaultRiskConfig())
	if _, err := p.Plan(models.DirectionBuy, 0, 0.8, 100, 2.5); err == nil {
		t.Fatal("expected an error for zero entry price")
	}
	if _, err := p.Plan(models.DirectionBuy, 100, 0.8, 0, 2.5); err == nil {
		t.Fatal("expected an error for zero balance")
	}
	if _, err := p.Plan(models.Direction("HOLD"), 100, 0.8, 100, 2.5); err == nil {
		t.Fatal("expected an error for an unknown direction")
	}
}
