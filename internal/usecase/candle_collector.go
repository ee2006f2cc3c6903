package usecase

import (
	"context"

	"TradePulse/internal/domain/models"
	drepo "TradePulse/internal/domain/repository"
	mid "TradePulse/internal/middleware"
)

// CandleCollector consumes closed candles from the market stream and
// pushes them through the ingest pipeline.
type CandleCollector struct {
	stream  drepo.MarketStream
	proc    *CandleProcessor
	metrics drepo.Metrics
	pipe    *mid.IngestPipeline
}

func NewCandleCollector(stream drepo.MarketStream, proc *CandleProcessor, metrics drepo.Metrics, pipe *mid.IngestPipeline) *CandleCollector {
	return &CandleCollector{stream: stream, proc: proc, metrics: metrics, pipe: pipe}
}

// IsConnected returns true if the market stream is connected.
func (c *CandleCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *CandleCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	candleCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, candleCh, errCh)
	return nil
}

func (c *CandleCollector) consume(ctx context.Context, candleCh <-chan *models.Candle, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errCh:
			if !ok {
				// The read loop died and closed its channels. Reconnect
				// and swap to the new connection's channels, or the old
				// closed pair would spin this select forever.
				if candleCh, errCh = c.reread(ctx); candleCh == nil {
					return
				}
				continue
			}
			if err != nil {
				c.metrics.RecordError("stream")
			}
		case candle, ok := <-candleCh:
			if !ok {
				if candleCh, errCh = c.reread(ctx); candleCh == nil {
					return
				}
				continue
			}
			if candle == nil {
				continue
			}
			if c.pipe != nil {
				_ = c.pipe.Process(ctx, candle)
			} else {
				_ = c.proc.Process(ctx, candle)
			}
			c.metrics.RecordLastPrice(candle.Symbol, candle.Close)
		}
	}
}

// reread re-establishes the stream and returns the new channel pair.
// Retries until the context is cancelled; Reconnect carries the delay
// between attempts. Returns nil channels only on cancellation.
func (c *CandleCollector) reread(ctx context.Context) (<-chan *models.Candle, <-chan error) {
	for ctx.Err() == nil {
		if err := c.stream.Reconnect(ctx); err != nil {
			c.metrics.RecordError("reconnect")
			continue
		}
		candleCh, errCh := c.stream.Read(ctx)
		return candleCh, errCh
	}
	return nil, nil
}

func (c *CandleCollector) Stop() error { return c.stream.Close() }

// Processor returns the underlying CandleProcessor for lifecycle management.
func (c *CandleCollector) Processor() *CandleProcessor { return c.proc }

// Shutdown stops the pipeline and closes the stream.
func (c *CandleCollector) Shutdown(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return c.stream.Close()
}
