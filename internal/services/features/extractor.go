package features

import (
	"context"
	"fmt"
	"math"

	"github.com/markcheno/go-talib"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/domain/repository"
)

// Config holds the indicator periods. Defaults follow the common
// 9/21/50 EMA ladder with 14-period oscillators and 12/26/9 MACD.
type Config struct {
	Timeframe   repository.Timeframe
	Lookback    int // candles carried into the bundle
	Warmup      int // extra candles fetched so talib has stable values
	EMAFast     int
	EMAMid      int
	EMASlow     int
	RSIPeriod   int
	ADXPeriod   int
	ATRPeriod   int
	MACDFast    int
	MACDSlow    int
	MACDSignal  int
	BBPeriod    int
	ShortChange int // bars for the short-term price change
	LongChange  int // bars for the long-term price change
}

func DefaultConfig() Config {
	return Config{
		Timeframe:   repository.DefaultTimeframe(),
		Lookback:    50,
		Warmup:      150,
		EMAFast:     9,
		EMAMid:      21,
		EMASlow:     50,
		RSIPeriod:   14,
		ADXPeriod:   14,
		ATRPeriod:   14,
		MACDFast:    12,
		MACDSlow:    26,
		MACDSignal:  9,
		BBPeriod:    20,
		ShortChange: 5,
		LongChange:  20,
	}
}

// Extractor computes an IndicatorBundle from stored candles. It is the
// boundary between raw OHLCV storage and the decision engine: everything
// downstream sees only the bundle.
type Extractor struct {
	cfg   Config
	store repository.CandleStore
}

func NewExtractor(cfg Config, store repository.CandleStore) *Extractor {
	return &Extractor{cfg: cfg, store: store}
}

// Bundle fetches the most recent candles for a symbol and derives the
// full indicator set. The returned bundle carries exactly cfg.Lookback
// candles; a thinner history is an error, not a partial bundle.
func (e *Extractor) Bundle(ctx context.Context, symbol string) (*models.IndicatorBundle, error) {
	need := e.cfg.Lookback + e.cfg.Warmup
	candles, err := e.store.GetLatestNCandles(ctx, symbol, need, e.cfg.Timeframe)
	if err != nil {
		return nil, fmt.Errorf("fetch candles for %s: %w", symbol, err)
	}
	if len(candles) < need {
		return nil, fmt.Errorf("insufficient history for %s: have %d candles, need %d", symbol, len(candles), need)
	}

	closes := make([]float64, len(candles))
	highs := make([]float64, len(candles))
	lows := make([]float64, len(candles))
	volumes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
		highs[i] = c.High
		lows[i] = c.Low
		volumes[i] = c.Volume
	}

	rsi := talib.Rsi(closes, e.cfg.RSIPeriod)
	macdLine, macdSignal, _ := talib.Macd(closes, e.cfg.MACDFast, e.cfg.MACDSlow, e.cfg.MACDSignal)
	adx := talib.Adx(highs, lows, closes, e.cfg.ADXPeriod)
	atr := talib.Atr(highs, lows, closes, e.cfg.ATRPeriod)
	emaFast := talib.Ema(closes, e.cfg.EMAFast)
	emaMid := talib.Ema(closes, e.cfg.EMAMid)
	emaSlow := talib.Ema(closes, e.cfg.EMASlow)
	bbUpper, _, bbLower := talib.BBands(closes, e.cfg.BBPeriod, 2.0, 2.0, talib.SMA)

	last := len(candles) - 1
	b := &models.IndicatorBundle{
		Symbol:         symbol,
		Timestamp:      candles[last].Bucket,
		Closes:         closes[len(closes)-e.cfg.Lookback:],
		Highs:          highs[len(highs)-e.cfg.Lookback:],
		Lows:           lows[len(lows)-e.cfg.Lookback:],
		Volumes:        volumes[len(volumes)-e.cfg.Lookback:],
		Price:          closes[last],
		RSI:            lastValue(rsi),
		MACDLine:       lastValue(macdLine),
		MACDSignal:     lastValue(macdSignal),
		ADX:            lastValue(adx),
		EMAFast:        lastValue(emaFast),
		EMAMid:         lastValue(emaMid),
		EMASlow:        lastValue(emaSlow),
		ATR:            lastValue(atr),
		BollingerUpper: lastValue(bbUpper),
		BollingerLower: lastValue(bbLower),
	}
	e.derive(b)

	if err := b.Validate(e.cfg.Lookback); err != nil {
		return nil, fmt.Errorf("bundle for %s: %w", symbol, err)
	}
	return b, nil
}

// derive fills the scalars computed from the raw series rather than from
// a talib call.
func (e *Extractor) derive(b *models.IndicatorBundle) {
	b.VolumeChangePct = pctChange(b.Volumes, 1)
	b.PriceChangeShort = pctChange(b.Closes, e.cfg.ShortChange)
	b.PriceChangeLong = pctChange(b.Closes, e.cfg.LongChange)
	b.TrendStrength = b.ADX
	b.Volatility = closeChangeStddev(b.Closes)
	b.VolumeProfile = volumeProfile(b.Volumes)
}

// lastValue returns the final element, skipping trailing NaN padding.
func lastValue(series []float64) float64 {
	for i := len(series) - 1; i >= 0; i-- {
		if !math.IsNaN(series[i]) {
			return series[i]
		}
	}
	return 0
}

// pctChange is the percent change over the last n steps of a series.
func pctChange(series []float64, n int) float64 {
	if len(series) <= n || n <= 0 {
		return 0
	}
	base := series[len(series)-1-n]
	if base == 0 {
		return 0
	}
	return (series[len(series)-1] - base) / base * 100
}

// closeChangeStddev is the standard deviation of candle-to-candle close
// changes in percent, the volatility measure the gate consumes.
func closeChangeStddev(closes []float64) float64 {
	if len(closes) < 2 {
		return 0
	}
	changes := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			continue
		}
		changes = append(changes, (closes[i]-closes[i-1])/closes[i-1]*100)
	}
	if len(changes) == 0 {
		return 0
	}
	mean := 0.0
	for _, c := range changes {
		mean += c
	}
	mean /= float64(len(changes))
	variance := 0.0
	for _, c := range changes {
		variance += (c - mean) * (c - mean)
	}
	variance /= float64(len(changes))
	return math.Sqrt(variance)
}

// volumeProfile is the last volume relative to the window average. >1
// means the latest candle traded heavier than usual.
func volumeProfile(volumes []float64) float64 {
	if len(volumes) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range volumes {
		sum += v
	}
	avg := sum / float64(len(volumes))
	if avg == 0 {
		return 0
	}
	return volumes[len(volumes)-1] / avg
}
