package binance

import (
	"context"
	"fmt"
	"time"

	"TradePulse/internal/domain/models"
	drepo "TradePulse/internal/domain/repository"
	applogger "TradePulse/pkg/logger"

	gobinance "github.com/adshao/go-binance/v2"
)

// klineAPI is the slice of the Binance REST client the backfiller uses.
type klineAPI interface {
	Klines(ctx context.Context, symbol, interval string, limit int, endTime int64) ([]*gobinance.Kline, error)
}

// restClient adapts the go-binance client to klineAPI.
type restClient struct {
	c *gobinance.Client
}

func (r *restClient) Klines(ctx context.Context, symbol, interval string, limit int, endTime int64) ([]*gobinance.Kline, error) {
	svc := r.c.NewKlinesService().Symbol(symbol).Interval(interval).Limit(limit)
	if endTime > 0 {
		svc = svc.EndTime(endTime)
	}
	return svc.Do(ctx)
}

// Backfiller loads historical klines over REST so the indicator lookback
// window is warm before the live stream takes over.
type Backfiller struct {
	api       klineAPI
	symbols   []string
	timeframe drepo.Timeframe
	depth     int
	l         *applogger.Logger
}

// NewBackfiller builds a Backfiller against the public Binance REST API.
// Kline history needs no credentials.
func NewBackfiller(symbols []string, tf drepo.Timeframe, depth int, l *applogger.Logger) *Backfiller {
	return &Backfiller{
		api:       &restClient{c: gobinance.NewClient("", "")},
		symbols:   symbols,
		timeframe: tf,
		depth:     depth,
		l:         l,
	}
}

// Run fetches up to depth closed candles per symbol, oldest first, and
// hands each symbol's batch to sink. A failed symbol is logged and
// skipped; the remaining symbols still backfill.
func (b *Backfiller) Run(ctx context.Context, sink func(ctx context.Context, candles []*models.Candle) error) error {
	var failed int
	for _, symbol := range b.symbols {
		candles, err := b.fetchSymbol(ctx, symbol)
		if err != nil {
			failed++
			if b.l != nil {
				b.l.Error("backfill fetch failed",
					applogger.String("symbol", symbol),
					applogger.Error(err))
			}
			continue
		}
		if err := sink(ctx, candles); err != nil {
			return fmt.Errorf("backfill store %s: %w", symbol, err)
		}
		if b.l != nil {
			b.l.Info("backfilled symbol",
				applogger.String("symbol", symbol),
				applogger.String("timeframe", string(b.timeframe)),
				applogger.Int("candles", len(candles)))
		}
		// stay under REST rate limits
		time.Sleep(100 * time.Millisecond)
	}
	if failed == len(b.symbols) && len(b.symbols) > 0 {
		return fmt.Errorf("backfill: all %d symbols failed", failed)
	}
	return nil
}

// fetchSymbol pages backwards in 1000-candle chunks until depth candles
// are collected, then returns them in ascending bucket order.
func (b *Backfiller) fetchSymbol(ctx context.Context, symbol string) ([]*models.Candle, error) {
	const pageLimit = 1000

	var pages [][]*models.Candle
	remaining := b.depth
	var endTime int64

	for remaining > 0 {
		limit := remaining
		if limit > pageLimit {
			limit = pageLimit
		}
		klines, err := b.api.Klines(ctx, symbol, string(b.timeframe), limit, endTime)
		if err != nil {
			return nil, fmt.Errorf("klines %s %s: %w", symbol, b.timeframe, err)
		}
		if len(klines) == 0 {
			break
		}
		page := make([]*models.Candle, 0, len(klines))
		for _, k := range klines {
			page = append(page, candleFromKline(symbol, k))
		}
		pages = append(pages, page)
		remaining -= len(page)
		// next page ends just before the oldest candle seen
		endTime = klines[0].OpenTime - 1
		if len(klines) < limit {
			break
		}
	}

	// pages were collected newest-first; flatten oldest-first
	var out []*models.Candle
	for i := len(pages) - 1; i >= 0; i-- {
		out = append(out, pages[i]...)
	}
	return out, nil
}

func candleFromKline(symbol string, k *gobinance.Kline) *models.Candle {
	return &models.Candle{
		Bucket: time.Unix(k.OpenTime/1000, 0).UTC(),
		Symbol: symbol,
		Open:   parseFloat(k.Open),
		High:   parseFloat(k.High),
		Low:    parseFloat(k.Low),
		Close:  parseFloat(k.Close),
		Volume: parseFloat(k.Volume),
	}
}
