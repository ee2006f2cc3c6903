package engine

import (
	"fmt"

	"TradePulse/internal/domain/models"
)

// EntryFinderConfig holds the entry rule tunables.
type EntryFinderConfig struct {
	EntryTolerance       float64 // proximity to a level for bounce/rejection entries (default 0.005)
	PullbackMin          float64 // minimum distance from the fast EMA for a pullback (default 0.01)
	PullbackMax          float64 // maximum distance from the fast EMA for a pullback (default 0.03)
	BreakoutConfirmation int     // consecutive closes beyond a level to confirm (default 2)
	Lookback             int     // candles for level detection (default 50)
}

func DefaultEntryFinderConfig() EntryFinderConfig {
	return EntryFinderConfig{
		EntryTolerance:       0.005,
		PullbackMin:          0.01,
		PullbackMax:          0.03,
		BreakoutConfirmation: 2,
		Lookback:             50,
	}
}

// entryContext bundles everything a rule needs to decide.
type entryContext struct {
	bundle      *models.IndicatorBundle
	uptrend     bool
	supports    []float64
	resistances []float64
	cfg         EntryFinderConfig
}

// entryRule is a pure predicate+proposal function. Rules are evaluated in
// priority order (highest R/R first); the first match wins.
type entryRule func(entryContext) *models.EntryProposal

// EntryFinder proposes an entry for a tradeable regime, or nothing.
type EntryFinder struct {
	cfg   EntryFinderConfig
	rules []entryRule
}

func NewEntryFinder(cfg EntryFinderConfig) *EntryFinder {
	return &EntryFinder{
		cfg:   cfg,
		rules: []entryRule{levelBounceRule, emaPullbackRule, breakoutRule, continuationRule},
	}
}

// Find runs the ordered rule list. It must only be called with a tradeable
// regime; a nil result means "no optimal entry", which is a terminal
// pipeline outcome, not an error.
func (f *EntryFinder) Find(b *models.IndicatorBundle, regime models.Regime) (*models.EntryProposal, error) {
	if !regime.Tradeable() {
		return nil, fmt.Errorf("entry finder called with non-tradeable regime %s", regime)
	}
	supports, resistances := findLevels(b.Highs, b.Lows, f.cfg.Lookback)
	ctx := entryContext{
		bundle:      b,
		uptrend:     regime.Bullish(),
		supports:    supports,
		resistances: resistances,
		cfg:         f.cfg,
	}
	for _, rule := range f.rules {
		if p := rule(ctx); p != nil {
			return p, nil
		}
	}
	return nil, nil
}

// levelBounceRule: price sitting on a detected support (uptrend) or pressed
// against a resistance (downtrend) with momentum not yet extended. Best
// risk/reward of the four rules.
func levelBounceRule(ctx entryContext) *models.EntryProposal {
	b := ctx.bundle
	if ctx.uptrend {
		level := nearestBelow(b.Price, ctx.supports)
		if level == 0 || !withinTolerance(b.Price, level, ctx.cfg.EntryTolerance) {
			return nil
		}
		if b.RSI >= 60 {
			return nil
		}
		return &models.EntryProposal{
			Direction:  models.DirectionBuy,
			Strategy:   models.StrategySupportBounce,
			EntryPrice: b.Price,
			Quality:    models.QualityExcellent,
			Level:      level,
			Reason:     "bouncing off support in uptrend",
		}
	}
	level := nearestAbove(b.Price, ctx.resistances)
	if level == 0 || !withinTolerance(b.Price, level, ctx.cfg.EntryTolerance) {
		return nil
	}
	if b.RSI <= 40 {
		return nil
	}
	return &models.EntryProposal{
		Direction:  models.DirectionSell,
		Strategy:   models.StrategyResistanceRejection,
		EntryPrice: b.Price,
		Quality:    models.QualityExcellent,
		Level:      level,
		Reason:     "rejection at resistance in downtrend",
	}
}

// emaPullbackRule: a shallow pullback toward the fast EMA with the trend
// intact and momentum not extended.
func emaPullbackRule(ctx entryContext) *models.EntryProposal {
	b := ctx.bundle
	if b.EMAFast <= 0 {
		return nil
	}
	if ctx.uptrend {
		if !(b.Price > b.EMAFast && b.EMAFast > b.EMAMid) {
			return nil
		}
		dist := (b.Price - b.EMAFast) / b.EMAFast
		if dist < ctx.cfg.PullbackMin || dist > ctx.cfg.PullbackMax || b.RSI >= 65 {
			return nil
		}
		return &models.EntryProposal{
			Direction:  models.DirectionBuy,
			Strategy:   models.StrategyEMAPullback,
			EntryPrice: b.Price,
			Quality:    models.QualityGood,
			Level:      b.EMAFast,
			Reason:     "pullback to fast EMA in uptrend",
		}
	}
	if !(b.Price < b.EMAFast && b.EMAFast < b.EMAMid) {
		return nil
	}
	dist := (b.EMAFast - b.Price) / b.Price
	if dist < ctx.cfg.PullbackMin || dist > ctx.cfg.PullbackMax || b.RSI <= 35 {
		return nil
	}
	return &models.EntryProposal{
		Direction:  models.DirectionSell,
		Strategy:   models.StrategyEMAPullback,
		EntryPrice: b.Price,
		Quality:    models.QualityGood,
		Level:      b.EMAFast,
		Reason:     "pullback to fast EMA in downtrend",
	}
}

// breakoutRule: the last N candles closed beyond a level that used to cap
// the trend, with price still near the broken level.
func breakoutRule(ctx entryContext) *models.EntryProposal {
	b := ctx.bundle
	n := ctx.cfg.BreakoutConfirmation
	if n <= 0 || len(b.Closes) < n {
		return nil
	}
	if ctx.uptrend {
		level := nearestBelow(b.Price, ctx.resistances)
		if level == 0 || (b.Price-level)/level > ctx.cfg.PullbackMin {
			return nil
		}
		for _, close := range b.Closes[len(b.Closes)-n:] {
			if close <= level {
				return nil
			}
		}
		return &models.EntryProposal{
			Direction:  models.DirectionBuy,
			Strategy:   models.StrategyBreakout,
			EntryPrice: b.Price,
			Quality:    models.QualityModerate,
			Level:      level,
			Reason:     "confirmed breakout above resistance",
		}
	}
	level := nearestAbove(b.Price, ctx.supports)
	if level == 0 || (level-b.Price)/level > ctx.cfg.PullbackMin {
		return nil
	}
	for _, close := range b.Closes[len(b.Closes)-n:] {
		if close >= level {
			return nil
		}
	}
	return &models.EntryProposal{
		Direction:  models.DirectionSell,
		Strategy:   models.StrategyBreakdown,
		EntryPrice: b.Price,
		Quality:    models.QualityModerate,
		Level:      level,
		Reason:     "confirmed breakdown below support",
	}
}

// continuationRule: momentum in the healthy band, MACD on the trend's side
// of its signal line and price aligned with the fast EMA.
func continuationRule(ctx entryContext) *models.EntryProposal {
	b := ctx.bundle
	if ctx.uptrend {
		if b.RSI <= 55 || b.RSI >= 70 || b.MACDLine <= b.MACDSignal || b.Price <= b.EMAFast {
			return nil
		}
		return &models.EntryProposal{
			Direction:  models.DirectionBuy,
			Strategy:   models.StrategyTrendContinuation,
			EntryPrice: b.Price,
			Quality:    models.QualityModerate,
			Reason:     "trend continuation with momentum",
		}
	}
	if b.RSI >= 45 || b.RSI <= 30 || b.MACDLine >= b.MACDSignal || b.Price >= b.EMAFast {
		return nil
	}
	return &models.EntryProposal{
		Direction:  models.DirectionSell,
		Strategy:   models.StrategyTrendContinuation,
		EntryPrice: b.Price,
		Quality:    models.QualityModerate,
		Reason:     "downtrend continuation with momentum",
	}
}

func withinTolerance(price, level, tolerance float64) bool {
	if level <= 0 {
		return false
	}
	diff := price - level
	if diff < 0 {
		diff = -diff
	}
	return diff <= level*tolerance
}
