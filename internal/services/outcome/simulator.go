package outcome

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/domain/service"
)

// SimulatorConfig holds the per-level hit probabilities. They should sum
// to 1.0; any residual mass falls through to the partial-loss case.
type SimulatorConfig struct {
	SLProbability  float64
	TP1Probability float64
	TP2Probability float64
	TP3Probability float64
	Seed           int64
}

func DefaultSimulatorConfig() SimulatorConfig {
	return SimulatorConfig{
		SLProbability:  0.20,
		TP1Probability: 0.40,
		TP2Probability: 0.25,
		TP3Probability: 0.15,
	}
}

// Simulator draws signal outcomes from fixed probabilities instead of
// replaying real price paths. It exists for reproducible testing and as a
// placeholder until a price-path evaluator replaces it behind the
// OutcomeModel interface. Profit on a win is the signal's risk amount
// times the matched R/R multiplier; a stop costs the full risk amount and
// a drift against the position without hitting either costs half.
type Simulator struct {
	cfg SimulatorConfig

	mu  sync.Mutex
	rng *rand.Rand
}

func NewSimulator(cfg SimulatorConfig) *Simulator {
	return &Simulator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}
}

func (s *Simulator) Decide(_ context.Context, sig *models.TradeSignal) (service.OutcomeDecision, error) {
	if sig.Plan == nil {
		return service.OutcomeDecision{}, fmt.Errorf("signal %d has no plan to evaluate", sig.ID)
	}

	s.mu.Lock()
	draw := s.rng.Float64()
	s.mu.Unlock()

	plan := sig.Plan
	risk := plan.RiskAmount

	threshold := s.cfg.SLProbability
	if draw < threshold {
		return service.OutcomeDecision{
			Outcome:     models.OutcomeLoss,
			TPHit:       models.TPNone,
			HitStopLoss: true,
			FinalPrice:  plan.StopLoss,
			ProfitLoss:  -risk,
		}, nil
	}
	threshold += s.cfg.TP1Probability
	if draw < threshold {
		return winDecision(models.TP1, plan.TakeProfit1, risk*1.5), nil
	}
	threshold += s.cfg.TP2Probability
	if draw < threshold {
		return winDecision(models.TP2, plan.TakeProfit2, risk*3.0), nil
	}
	threshold += s.cfg.TP3Probability
	if draw < threshold {
		return winDecision(models.TP3, plan.TakeProfit3, risk*4.5), nil
	}

	// drifted against the position without reaching any level
	return service.OutcomeDecision{
		Outcome:     models.OutcomeLoss,
		TPHit:       models.TPNone,
		HitStopLoss: false,
		FinalPrice:  plan.EntryPrice * 0.995,
		ProfitLoss:  -risk * 0.5,
	}, nil
}

func winDecision(tp models.TPLevel, price, profit float64) service.OutcomeDecision {
	return service.OutcomeDecision{
		Outcome:    models.OutcomeWin,
		TPHit:      tp,
		FinalPrice: price,
		ProfitLoss: profit,
	}
}
