package engine

import (
	"math"

	"TradePulse/internal/domain/models"
)

// ClassifierConfig holds the regime classification thresholds.
type ClassifierConfig struct {
	ADXThreshold   float64 // below: candidate range (default 25)
	ADXStrong      float64 // at or above: weak trend escalates to strong (default 30)
	RangeThreshold float64 // close-to-close span fraction below which market is range-bound (default 0.02)
	ChopThreshold  float64 // direction-reversal ratio above which market is choppy (default 0.4)
	ChopWindow     int     // candles inspected for reversals (default 20)
	VolatileStdPct float64 // close-change stddev % above which a range is "volatile" (default 3.0)
	Lookback       int     // candles considered for the price-range check (default 50)
}

// DefaultClassifierConfig returns the standard thresholds.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		ADXThreshold:   25.0,
		ADXStrong:      30.0,
		RangeThreshold: 0.02,
		ChopThreshold:  0.4,
		ChopWindow:     20,
		VolatileStdPct: 3.0,
		Lookback:       50,
	}
}

// Classifier labels an indicator bundle with a market regime. Pure: the
// same bundle always yields the same label.
type Classifier struct {
	cfg ClassifierConfig
}

func NewClassifier(cfg ClassifierConfig) *Classifier {
	return &Classifier{cfg: cfg}
}

// Classify resolves the regime from trend strength (ADX), EMA alignment,
// the price-range span and choppiness. Ambiguous EMA bias under a
// trending ADX resolves to range_bound: an unclear bias is never tradeable.
func (c *Classifier) Classify(b *models.IndicatorBundle) (models.Regime, error) {
	if err := b.Validate(c.cfg.Lookback); err != nil {
		return "", err
	}

	adxRanging := b.ADX < c.cfg.ADXThreshold
	rangeBound := c.rangePercent(b.Closes) < c.cfg.RangeThreshold
	chopRatio, stdPct := c.choppiness(b.Closes)
	choppy := chopRatio > c.cfg.ChopThreshold

	if (adxRanging && rangeBound) || choppy {
		return c.rangeFamily(stdPct), nil
	}
	if adxRanging {
		// ADX alone says range; without the narrow-range confirmation we
		// still refuse to call it a trend.
		return c.rangeFamily(stdPct), nil
	}

	strong := b.ADX >= c.cfg.ADXStrong
	switch {
	case bullishAlignment(b):
		if strong {
			return models.RegimeStrongUptrend, nil
		}
		return models.RegimeWeakUptrend, nil
	case bearishAlignment(b):
		if strong {
			return models.RegimeStrongDowntrend, nil
		}
		return models.RegimeWeakDowntrend, nil
	default:
		return c.rangeFamily(stdPct), nil
	}
}

// rangeFamily picks between the two range labels: a range with unusually
// large close-to-close swings is volatile_range. Neither is tradeable.
func (c *Classifier) rangeFamily(stdPct float64) models.Regime {
	if stdPct > c.cfg.VolatileStdPct {
		return models.RegimeVolatileRange
	}
	return models.RegimeRangeBound
}

func bullishAlignment(b *models.IndicatorBundle) bool {
	return b.EMAFast > b.EMAMid && b.EMAMid > b.EMASlow && b.Price > b.EMAFast
}

func bearishAlignment(b *models.IndicatorBundle) bool {
	return b.EMAFast < b.EMAMid && b.EMAMid < b.EMASlow && b.Price < b.EMAFast
}

// rangePercent is (max close - min close) / min close over the lookback window.
func (c *Classifier) rangePercent(closes []float64) float64 {
	window := closes
	if len(window) > c.cfg.Lookback {
		window = window[len(window)-c.cfg.Lookback:]
	}
	lo, hi := window[0], window[0]
	for _, v := range window[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo <= 0 {
		return 0
	}
	return (hi - lo) / lo
}

// choppiness counts local direction reversals in the closing sequence and
// measures the stddev of close-to-close % changes over the chop window.
func (c *Classifier) choppiness(closes []float64) (ratio, stdPct float64) {
	window := closes
	if len(window) > c.cfg.ChopWindow {
		window = window[len(window)-c.cfg.ChopWindow:]
	}
	if len(window) < 3 {
		return 0, 0
	}

	reversals := 0
	for i := 2; i < len(window); i++ {
		prev := window[i-1] - window[i-2]
		cur := window[i] - window[i-1]
		if (prev > 0 && cur < 0) || (prev < 0 && cur > 0) {
			reversals++
		}
	}
	ratio = float64(reversals) / float64(len(window))

	changes := make([]float64, 0, len(window)-1)
	for i := 1; i < len(window); i++ {
		if window[i-1] != 0 {
			changes = append(changes, (window[i]-window[i-1])/window[i-1]*100)
		}
	}
	stdPct = stddev(changes)
	return ratio, stdPct
}

func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var sum, sum2 float64
	for _, x := range xs {
		sum += x
		sum2 += x * x
	}
	n := float64(len(xs))
	mean := sum / n
	variance := (sum2 - n*mean*mean) / (n - 1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}
