package engine

import (
	"TradePulse/internal/domain/models"
	"TradePulse/internal/domain/service"
)

// GateConfig holds the confirmation gate tunables.
type GateConfig struct {
	ConfidenceThreshold float64 // minimum confidence to execute (default 0.70)
	Lookback            int     // candles for level detection (default 50)
}

func DefaultGateConfig() GateConfig {
	return GateConfig{
		ConfidenceThreshold: 0.70,
		Lookback:            50,
	}
}

// Gate is the final yes/no before a proposal becomes an executed signal.
// It builds the feature vector, asks the scorer for a confidence and
// compares it against the threshold.
type Gate struct {
	cfg    GateConfig
	scorer service.Scorer
}

func NewGate(cfg GateConfig, scorer service.Scorer) *Gate {
	return &Gate{cfg: cfg, scorer: scorer}
}

// Confirm scores a proposal. A rejected proposal still reports its
// confidence so the caller can record how close it came.
func (g *Gate) Confirm(b *models.IndicatorBundle, p *models.EntryProposal) models.ConfirmationResult {
	features := BuildFeatures(b, p.Direction, g.cfg.Lookback)
	confidence := g.scorer.Score(features)
	return models.ConfirmationResult{
		Confidence: confidence,
		Accepted:   confidence >= g.cfg.ConfidenceThreshold,
	}
}

// BuildFeatures assembles the ten-scalar input for the scorer. Features
// are orientation-normalized: for SELL proposals the momentum and price
// change scalars are negated and RSI is mirrored around 50, so that
// positive values always favor the trade direction.
func BuildFeatures(b *models.IndicatorBundle, dir models.Direction, lookback int) service.FeatureVector {
	sign := 1.0
	rsi := b.RSI
	if dir == models.DirectionSell {
		sign = -1.0
		rsi = 100 - b.RSI
	}

	var f service.FeatureVector
	f[service.FeatRSI] = rsi
	f[service.FeatMACDLine] = sign * b.MACDLine
	f[service.FeatMACDSignal] = sign * b.MACDSignal
	f[service.FeatVolumeChange] = b.VolumeChangePct
	f[service.FeatPriceChangeShort] = sign * b.PriceChangeShort
	f[service.FeatPriceChangeLong] = sign * b.PriceChangeLong
	f[service.FeatVolatility] = b.Volatility
	f[service.FeatSRDistance] = levelDistance(b, dir, lookback)
	f[service.FeatTrendStrength] = b.TrendStrength
	f[service.FeatVolumeProfile] = b.VolumeProfile
	return f
}

// levelDistance is the fractional distance from price to the level that
// protects the trade: nearest support below for longs, nearest resistance
// above for shorts. 1.0 when no such level exists.
func levelDistance(b *models.IndicatorBundle, dir models.Direction, lookback int) float64 {
	supports, resistances := findLevels(b.Highs, b.Lows, lookback)
	if dir == models.DirectionBuy {
		if level := nearestBelow(b.Price, supports); level > 0 {
			return (b.Price - level) / b.Price
		}
		return 1.0
	}
	if level := nearestAbove(b.Price, resistances); level > 0 {
		return (level - b.Price) / b.Price
	}
	return 1.0
}

// RuleScorer is the default deterministic scorer: a fixed base plus
// bounded additive contributions from each favorable feature, clamped to
// [0,1]. It stands in until a trained model is wired behind the same
// interface.
type RuleScorer struct{}

func NewRuleScorer() *RuleScorer {
	return &RuleScorer{}
}

func (RuleScorer) Score(f service.FeatureVector) float64 {
	score := 0.40
	if f[service.FeatMACDLine] > f[service.FeatMACDSignal] {
		score += 0.15
	}
	if f[service.FeatRSI] >= 45 && f[service.FeatRSI] <= 65 {
		score += 0.10
	}
	if f[service.FeatPriceChangeShort] > 0 {
		score += 0.10
	}
	if f[service.FeatPriceChangeLong] > 0 {
		score += 0.05
	}
	if f[service.FeatVolumeChange] > 0 {
		score += 0.10
	}
	if f[service.FeatTrendStrength] >= 25 {
		score += 0.10
	}
	if f[service.FeatSRDistance] <= 0.02 {
		score += 0.05
	}
	if f[service.FeatVolumeProfile] > 1.0 {
		score += 0.05
	}
	if f[service.FeatVolatility] > 5.0 {
		score -= 0.10
	}
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
