package engine

import (
	"fmt"
	"math"

	"TradePulse/internal/domain/models"
)

// RiskConfig holds the planner tunables.
type RiskConfig struct {
	DefaultRiskPercent float64 // applies below the first balance tier
	MaxRiskFraction    float64 // cap on risk amount as a fraction of balance (default 0.10)
}

func DefaultRiskConfig() RiskConfig {
	return RiskConfig{
		DefaultRiskPercent: 2.0,
		MaxRiskFraction:    0.10,
	}
}

// riskTiers scale risk per trade with account size. Thresholds are
// inclusive of the lower bound; the highest matching tier wins.
var riskTiers = []struct {
	minBalance  float64
	riskPercent float64
}{
	{20, 1.5},
	{50, 2.0},
	{100, 2.5},
	{250, 3.0},
}

// leverageTiers pair a conservative base with a higher maximum that is
// only unlocked at the stated confidence floor.
var leverageTiers = []struct {
	minBalance      float64
	base            float64
	max             float64
	confidenceFloor float64
}{
	{0, 1.0, 1.0, 0},
	{50, 2.0, 2.0, 0.70},
	{100, 3.0, 5.0, 0.80},
	{250, 5.0, 10.0, 0.85},
}

// Planner turns an accepted setup and a balance snapshot into a complete
// RiskPlan. It is a pure function of its arguments; the balance is always
// passed in explicitly, never read from shared state.
type Planner struct {
	cfg RiskConfig
}

func NewPlanner(cfg RiskConfig) *Planner {
	return &Planner{cfg: cfg}
}

// RiskPercentFor returns the tiered risk percent for a balance.
func (p *Planner) RiskPercentFor(balance float64) float64 {
	riskPercent := p.cfg.DefaultRiskPercent
	for _, tier := range riskTiers {
		if balance >= tier.minBalance {
			riskPercent = tier.riskPercent
		}
	}
	return riskPercent
}

// Leverage returns the multiplier for a balance and confidence. Accounts
// under $50 never leverage regardless of confidence.
func (p *Planner) Leverage(balance, confidence float64) float64 {
	leverage := 1.0
	for _, tier := range leverageTiers {
		if balance < tier.minBalance {
			break
		}
		if confidence >= tier.confidenceFloor {
			leverage = tier.max
		} else {
			leverage = tier.base
		}
	}
	return leverage
}

// Plan computes stop, targets, position size, risk amount and leverage.
// Targets sit at 1.5x, 3x and 4.5x the stop distance from entry. The risk
// amount is capped at MaxRiskFraction of the balance; on a clamp the
// position size and reported risk percent are recomputed from the clamped
// amount so the plan stays internally consistent.
func (p *Planner) Plan(dir models.Direction, entry, confidence, balance, riskPercent float64) (*models.RiskPlan, error) {
	if entry <= 0 {
		return nil, fmt.Errorf("plan: entry price must be positive, got %f", entry)
	}
	if balance <= 0 {
		return nil, fmt.Errorf("plan: balance must be positive, got %f", balance)
	}
	if riskPercent <= 0 {
		return nil, fmt.Errorf("plan: risk percent must be positive, got %f", riskPercent)
	}

	r := riskPercent / 100
	var stop, tp1, tp2, tp3 float64
	switch dir {
	case models.DirectionBuy:
		stop = entry * (1 - r)
		tp1 = entry * (1 + 1.5*r)
		tp2 = entry * (1 + 3.0*r)
		tp3 = entry * (1 + 4.5*r)
	case models.DirectionSell:
		stop = entry * (1 + r)
		tp1 = entry * (1 - 1.5*r)
		tp2 = entry * (1 - 3.0*r)
		tp3 = entry * (1 - 4.5*r)
	default:
		return nil, fmt.Errorf("plan: unknown direction %q", dir)
	}

	riskAmount := balance * r
	if maxRisk := balance * p.cfg.MaxRiskFraction; riskAmount > maxRisk {
		riskAmount = maxRisk
	}
	stopDistance := math.Abs(entry - stop)
	positionSize := riskAmount / stopDistance * entry

	plan := &models.RiskPlan{
		EntryPrice:   entry,
		StopLoss:     stop,
		TakeProfit1:  tp1,
		TakeProfit2:  tp2,
		TakeProfit3:  tp3,
		PositionSize: positionSize,
		RiskAmount:   riskAmount,
		RiskPercent:  riskAmount / balance * 100,
		Leverage:     p.Leverage(balance, confidence),
	}
	if err := validatePlan(dir, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// validatePlan enforces the level ordering and positivity invariants. A
// failure here is an internal defect, never a tradeable plan.
func validatePlan(dir models.Direction, plan *models.RiskPlan) error {
	if plan.PositionSize <= 0 || plan.RiskAmount <= 0 {
		return fmt.Errorf("plan: non-positive size %f or risk %f", plan.PositionSize, plan.RiskAmount)
	}
	ordered := plan.StopLoss < plan.EntryPrice &&
		plan.EntryPrice < plan.TakeProfit1 &&
		plan.TakeProfit1 < plan.TakeProfit2 &&
		plan.TakeProfit2 < plan.TakeProfit3
	if dir == models.DirectionSell {
		ordered = plan.StopLoss > plan.EntryPrice &&
			plan.EntryPrice > plan.TakeProfit1 &&
			plan.TakeProfit1 > plan.TakeProfit2 &&
			plan.TakeProfit2 > plan.TakeProfit3
	}
	if !ordered {
		return fmt.Errorf("plan: inverted levels for %s: stop=%f entry=%f tp=%f/%f/%f",
			dir, plan.StopLoss, plan.EntryPrice, plan.TakeProfit1, plan.TakeProfit2, plan.TakeProfit3)
	}
	return nil
}
