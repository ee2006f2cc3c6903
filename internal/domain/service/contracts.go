package service

import (
	"context"

	"TradePulse/internal/domain/models"
)

// FeatureVector is the fixed-order ten-scalar input to the confirmation
// gate: RSI, MACD line, MACD signal, volume change %, short-term price
// change, long-term price change, volatility, distance to nearest
// support/resistance, trend strength, volume profile.
type FeatureVector [10]float64

const (
	FeatRSI = iota
	FeatMACDLine
	FeatMACDSignal
	FeatVolumeChange
	FeatPriceChangeShort
	FeatPriceChangeLong
	FeatVolatility
	FeatSRDistance
	FeatTrendStrength
	FeatVolumeProfile
)

// Scorer turns a feature vector into a confidence in [0,1]. Any monotone
// scoring function (rule-based, trained model, stub) satisfies the
// contract; the pipeline only depends on this interface.
type Scorer interface {
	Score(features FeatureVector) float64
}

// OutcomeModel decides the outcome of a pending signal at evaluation
// time. The default implementation draws from fixed probabilities; a real
// price-path evaluator can replace it behind the same contract.
type OutcomeModel interface {
	Decide(ctx context.Context, s *models.TradeSignal) (OutcomeDecision, error)
}

// OutcomeDecision carries the fields the evaluator writes for one signal.
type OutcomeDecision struct {
	Outcome     models.Outcome
	TPHit       models.TPLevel
	HitStopLoss bool
	FinalPrice  float64
	ProfitLoss  float64
}

// Notifier delivers accepted signals and rejections to a presentation
// collaborator. Implementations must not block the pipeline on failure.
type Notifier interface {
	NotifySignal(ctx context.Context, s *models.TradeSignal) error
	NotifyRejection(ctx context.Context, symbol string, reason models.RejectReason, confidence float64) error
}

// BundleProvider computes an IndicatorBundle for a symbol from stored
// candles. A fetch failure means "no signal possible this cycle".
type BundleProvider interface {
	Bundle(ctx context.Context, symbol string) (*models.IndicatorBundle, error)
}
