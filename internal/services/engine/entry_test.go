package engine

import (
	"testing"

	"TradePulse/internal/domain/models"
)

// entryBundle builds a 60-candle series that is flat around 105 with one
// pivot low at 100 and one pivot high at 110, so level detection yields a
// single support at 100 and a single resistance at 110.
func entryBundle() *models.IndicatorBundle {
	n := 60
	closes := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	volumes := make([]float64, n)
	for i := 0; i < n; i++ {
		closes[i] = 105
		highs[i] = 105.5
		lows[i] = 104.5
		volumes[i] = 1000
	}
	lows[20] = 100
	highs[40] = 110

	return &models.IndicatorBundle{
		Symbol:     "BTCUSDT",
		Closes:     closes,
		Highs:      highs,
		Lows:       lows,
		Volumes:    volumes,
		Price:      105,
		RSI:        50,
		MACDLine:   -0.5,
		MACDSignal: 0.5,
		EMAFast:    104,
		EMAMid:     103,
		EMASlow:    101,
		ADX:        30,
	}
}

func TestFindSupportBounce(t *testing.T) {
	f := NewEntryFinder(DefaultEntryFinderConfig())
	b := entryBundle()
	b.Price = 100.3
	b.RSI = 50

	p, err := f.Find(b, models.RegimeStrongUptrend)
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if p == nil {
		t.Fatal("expected a proposal")
	}
	if p.Strategy != models.StrategySupportBounce {
		t.Fatalf("expected support_bounce, got %s", p.Strategy)
	}
	if p.Direction != models.DirectionBuy {
		t.Fatalf("expected BUY, got %s", p.Direction)
	}
	if p.Quality != models.QualityExcellent {
		t.Fatalf("expected excellent quality, got %s", p.Quality)
	}
	if p.Level < 99.5 || p.Level > 100.5 {
		t.Fatalf("expected level near 100, got %f", p.Level)
	}
}

func TestFindSupportBounceBlockedByRSI(t *testing.T) {
	f := NewEntryFinder(DefaultEntryFinderConfig())
	b := entryBundle()
	b.Price = 100.3
	b.RSI = 65

	p, err := f.Find(b, models.RegimeStrongUptrend)
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if p != nil {
		t.Fatalf("expected no proposal with extended RSI, got %s", p.Strategy)
	}
}

func TestFindResistanceRejection(t *testing.T) {
	f := NewEntryFinder(DefaultEntryFinderConfig())
	b := entryBundle()
	b.Price = 109.6
	b.RSI = 50

	p, err := f.Find(b, models.RegimeStrongDowntrend)
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if p == nil {
		t.Fatal("expected a proposal")
	}
	if p.Strategy != models.StrategyResistanceRejection {
		t.Fatalf("expected resistance_rejection, got %s", p.Strategy)
	}
	if p.Direction != models.DirectionSell {
		t.Fatalf("expected SELL, got %s", p.Direction)
	}
	if p.Quality != models.QualityExcellent {
		t.Fatalf("expected excellent quality, got %s", p.Quality)
	}
}

func TestFindEMAPullback(t *testing.T) {
	f := NewEntryFinder(DefaultEntryFinderConfig())
	b := entryBundle()
	b.Price = 105
	b.EMAFast = 103
	b.EMAMid = 101
	b.RSI = 55

	p, err := f.Find(b, models.RegimeWeakUptrend)
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if p == nil {
		t.Fatal("expected a proposal")
	}
	if p.Strategy != models.StrategyEMAPullback {
		t.Fatalf("expected ema_pullback, got %s", p.Strategy)
	}
	if p.Quality != models.QualityGood {
		t.Fatalf("expected good quality, got %s", p.Quality)
	}
}

func TestFindBreakout(t *testing.T) {
	f := NewEntryFinder(DefaultEntryFinderConfig())
	b := entryBundle()
	b.Price = 110.4
	b.RSI = 66
	b.Closes[len(b.Closes)-2] = 110.3
	b.Closes[len(b.Closes)-1] = 110.4

	p, err := f.Find(b, models.RegimeStrongUptrend)
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if p == nil {
		t.Fatal("expected a proposal")
	}
	if p.Strategy != models.StrategyBreakout {
		t.Fatalf("expected breakout, got %s", p.Strategy)
	}
	if p.Quality != models.QualityModerate {
		t.Fatalf("expected moderate quality, got %s", p.Quality)
	}
	if p.Level < 109.5 || p.Level > 110.5 {
		t.Fatalf("expected level near 110, got %f", p.Level)
	}
}

func TestFindBreakoutNeedsConsecutiveCloses(t *testing.T) {
	f := NewEntryFinder(DefaultEntryFinderConfig())
	b := entryBundle()
	b.Price = 110.4
	b.RSI = 66
	b.Closes[len(b.Closes)-2] = 109.8 // closed back below the level
	b.Closes[len(b.Closes)-1] = 110.4

	p, err := f.Find(b, models.RegimeStrongUptrend)
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if p != nil && p.Strategy == models.StrategyBreakout {
		t.Fatal("breakout must require consecutive closes beyond the level")
	}
}

func TestFindBreakdown(t *testing.T) {
	f := NewEntryFinder(DefaultEntryFinderConfig())
	b := entryBundle()
	b.Price = 99.7
	b.RSI = 34
	b.EMAFast = 101
	b.EMAMid = 102
	b.Closes[len(b.Closes)-2] = 99.8
	b.Closes[len(b.Closes)-1] = 99.7

	p, err := f.Find(b, models.RegimeStrongDowntrend)
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if p == nil {
		t.Fatal("expected a proposal")
	}
	if p.Strategy != models.StrategyBreakdown {
		t.Fatalf("expected breakdown, got %s", p.Strategy)
	}
	if p.Direction != models.DirectionSell {
		t.Fatalf("expected SELL, got %s", p.Direction)
	}
}

func TestFindTrendContinuation(t *testing.T) {
	f := NewEntryFinder(DefaultEntryFinderConfig())
	b := entryBundle()
	b.Price = 105
	b.EMAFast = 104.2 // too close for a pullback entry
	b.RSI = 60
	b.MACDLine = 1.2
	b.MACDSignal = 0.8

	p, err := f.Find(b, models.RegimeStrongUptrend)
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if p == nil {
		t.Fatal("expected a proposal")
	}
	if p.Strategy != models.StrategyTrendContinuation {
		t.Fatalf("expected trend_continuation, got %s", p.Strategy)
	}
	if p.Quality != models.QualityModerate {
		t.Fatalf("expected moderate quality, got %s", p.Quality)
	}
}

func TestFindNoEntry(t *testing.T) {
	f := NewEntryFinder(DefaultEntryFinderConfig())
	b := entryBundle()
	b.Price = 105
	b.EMAFast = 104.2
	b.RSI = 50 // outside the continuation band
	b.MACDLine = -1
	b.MACDSignal = 0

	p, err := f.Find(b, models.RegimeStrongUptrend)
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if p != nil {
		t.Fatalf("expected no entry, got %s", p.Strategy)
	}
}

func TestFindRejectsNonTradeableRegime(t *testing.T) {
	f := NewEntryFinder(DefaultEntryFinderConfig())
	if _, err := f.Find(entryBundle(), models.RegimeRangeBound); err == nil {
		t.Fatal("expected an error for a non-tradeable regime")
	}
}
