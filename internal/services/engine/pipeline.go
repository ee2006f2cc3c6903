package engine

import (
	"TradePulse/internal/domain/models"
)

// Pipeline chains the classifier, entry finder, confirmation gate and risk
// planner. Rejections at any stage are terminal results, not errors; an
// error from Run means a broken input or an internal defect.
type Pipeline struct {
	classifier *Classifier
	finder     *EntryFinder
	gate       *Gate
	planner    *Planner
}

func NewPipeline(classifier *Classifier, finder *EntryFinder, gate *Gate, planner *Planner) *Pipeline {
	return &Pipeline{
		classifier: classifier,
		finder:     finder,
		gate:       gate,
		planner:    planner,
	}
}

// Classify runs only the regime stage, for read-only inspection.
func (p *Pipeline) Classify(b *models.IndicatorBundle) (models.Regime, error) {
	return p.classifier.Classify(b)
}

// Run takes a bundle and a balance snapshot through the full decision
// sequence. Non-tradeable regimes and failed gates short-circuit: the
// entry finder never sees a ranging market and the planner never sees an
// unconfirmed proposal.
func (p *Pipeline) Run(b *models.IndicatorBundle, balance float64) (*models.PipelineResult, error) {
	regime, err := p.classifier.Classify(b)
	if err != nil {
		return nil, err
	}
	result := &models.PipelineResult{
		Symbol: b.Symbol,
		Regime: regime,
	}
	if !regime.Tradeable() {
		result.Rejected = true
		result.Reason = models.RejectMarketNotTrending
		return result, nil
	}

	proposal, err := p.finder.Find(b, regime)
	if err != nil {
		return nil, err
	}
	if proposal == nil {
		result.Rejected = true
		result.Reason = models.RejectNoOptimalEntry
		return result, nil
	}
	result.Proposal = proposal

	confirmation := p.gate.Confirm(b, proposal)
	result.Confidence = confirmation.Confidence
	if !confirmation.Accepted {
		result.Rejected = true
		result.Reason = models.RejectLowConfidence
		return result, nil
	}

	plan, err := p.planner.Plan(
		proposal.Direction,
		proposal.EntryPrice,
		confirmation.Confidence,
		balance,
		p.planner.RiskPercentFor(balance),
	)
	if err != nil {
		return nil, err
	}
	result.Plan = plan
	return result, nil
}
