package models

import (
	"fmt"
	"math"
	"time"
)

// IndicatorBundle is a fixed record of precomputed technical values for one
// symbol at one timestamp, plus the raw lookback series the values were
// derived from. The engine treats it as read-only.
type IndicatorBundle struct {
	Symbol    string
	Timestamp time.Time

	Closes  []float64
	Highs   []float64
	Lows    []float64
	Volumes []float64

	Price           float64 // latest close
	RSI             float64
	MACDLine        float64
	MACDSignal      float64
	ADX             float64
	EMAFast         float64
	EMAMid          float64
	EMASlow         float64
	ATR             float64
	BollingerUpper  float64
	BollingerLower  float64
	VolumeChangePct float64

	// Derived scalars used by the confirmation gate.
	PriceChangeShort float64 // % over 5 candles
	PriceChangeLong  float64 // % over 20 candles
	Volatility       float64 // ATR as % of price
	TrendStrength    float64 // 0-100
	VolumeProfile    float64 // latest volume / 20-candle average
}

// Validate enforces the input contract: all scalar fields finite, series
// non-empty and of equal length matching the configured lookback. The
// engine must never substitute defaults for a malformed bundle.
func (b *IndicatorBundle) Validate(lookback int) error {
	if b.Symbol == "" {
		return fmt.Errorf("indicator bundle: symbol is empty")
	}
	n := len(b.Closes)
	if n < lookback {
		return fmt.Errorf("indicator bundle: lookback %d < required %d", n, lookback)
	}
	if len(b.Highs) != n || len(b.Lows) != n || len(b.Volumes) != n {
		return fmt.Errorf("indicator bundle: series length mismatch (closes=%d highs=%d lows=%d volumes=%d)",
			n, len(b.Highs), len(b.Lows), len(b.Volumes))
	}
	scalars := map[string]float64{
		"price":             b.Price,
		"rsi":               b.RSI,
		"macd_line":         b.MACDLine,
		"macd_signal":       b.MACDSignal,
		"adx":               b.ADX,
		"ema_fast":          b.EMAFast,
		"ema_mid":           b.EMAMid,
		"ema_slow":          b.EMASlow,
		"atr":               b.ATR,
		"bollinger_upper":   b.BollingerUpper,
		"bollinger_lower":   b.BollingerLower,
		"volume_change_pct": b.VolumeChangePct,
		"trend_strength":    b.TrendStrength,
		"volume_profile":    b.VolumeProfile,
		"volatility":        b.Volatility,
	}
	for name, v := range scalars {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("indicator bundle: %s is not finite", name)
		}
	}
	if b.Price <= 0 {
		return fmt.Errorf("indicator bundle: price %f is not positive", b.Price)
	}
	return nil
}
