package engine

import (
	"testing"

	"TradePulse/internal/domain/models"
)

func newPipeline() *Pipeline {
	return NewPipeline(
		NewClassifier(DefaultClassifierConfig()),
		NewEntryFinder(DefaultEntryFinderConfig()),
		NewGate(DefaultGateConfig(), NewRuleScorer()),
		NewPlanner(DefaultRiskConfig()),
	)
}

// strongBundle is a trending bundle with the derived scalars filled in the
// way the feature extractor would for a healthy move.
func strongBundle() *models.IndicatorBundle {
	b := trendingBundle(true)
	b.PriceChangeShort = 1.5
	b.PriceChangeLong = 4.0
	b.VolumeChangePct = 12
	b.TrendStrength = b.ADX
	b.Volatility = 1.8
	return b
}

func TestRunAcceptedSignal(t *testing.T) {
	res, err := newPipeline().Run(strongBundle(), 100)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Rejected {
		t.Fatalf("expected an accepted signal, rejected with %s", res.Reason)
	}
	if res.Proposal == nil || res.Plan == nil {
		t.Fatal("accepted result must carry a proposal and a plan")
	}
	if res.Proposal.Direction != models.DirectionBuy {
		t.Fatalf("expected BUY in an uptrend, got %s", res.Proposal.Direction)
	}
	if res.Confidence < 0.70 {
		t.Fatalf("accepted confidence below threshold: %f", res.Confidence)
	}
	if res.Plan.RiskPercent != 2.5 {
		t.Fatalf("expected 2.5%% risk for a $100 balance, got %f", res.Plan.RiskPercent)
	}
	if res.Plan.Leverage != 5.0 {
		t.Fatalf("expected 5x at this confidence and balance, got %f", res.Plan.Leverage)
	}
}

func TestRunRejectsRangingMarket(t *testing.T) {
	res, err := newPipeline().Run(flatBundle(), 100)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !res.Rejected || res.Reason != models.RejectMarketNotTrending {
		t.Fatalf("expected market_not_trending, got %+v", res)
	}
	// the entry finder and planner must never run for a ranging market
	if res.Proposal != nil || res.Plan != nil {
		t.Fatal("rejected result must not carry a proposal or a plan")
	}
}

func TestRunRejectsNoEntry(t *testing.T) {
	b := strongBundle()
	b.RSI = 72 // too extended for any entry rule

	res, err := newPipeline().Run(b, 100)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !res.Rejected || res.Reason != models.RejectNoOptimalEntry {
		t.Fatalf("expected no_optimal_entry, got %+v", res)
	}
	if !res.Regime.Tradeable() {
		t.Fatalf("no_optimal_entry implies a tradeable regime, got %s", res.Regime)
	}
}

func TestRunRejectsLowConfidence(t *testing.T) {
	// trending setup without volume or momentum backing scores below 0.70
	res, err := newPipeline().Run(trendingBundle(true), 100)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !res.Rejected || res.Reason != models.RejectLowConfidence {
		t.Fatalf("expected low_confidence, got %+v", res)
	}
	if res.Confidence <= 0 || res.Confidence >= 0.70 {
		t.Fatalf("rejection must carry the near-miss confidence, got %f", res.Confidence)
	}
	if res.Plan != nil {
		t.Fatal("rejected result must not carry a plan")
	}
}

func TestRunPropagatesBundleErrors(t *testing.T) {
	b := strongBundle()
	b.Closes = b.Closes[:10]
	if _, err := newPipeline().Run(b, 100); err == nil {
		t.Fatal("expected an error for a malformed bundle")
	}
}
