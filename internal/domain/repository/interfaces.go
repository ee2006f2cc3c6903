package repository

import (
	"context"

	"TradePulse/internal/domain/models"
)

// MarketStream is a live source of candles (one per symbol/interval close).
type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Candle, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Publisher forwards candles to a message broker.
type Publisher interface {
	Publish(ctx context.Context, c *models.Candle) error
	PublishBatch(ctx context.Context, candles []*models.Candle) error
	Close() error
}

// CandleStorage persists raw candles.
type CandleStorage interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Store(ctx context.Context, c *models.Candle) error
	StoreBatch(ctx context.Context, candles []*models.Candle) error
	Health(ctx context.Context) error
	Close() error
}

// OutcomeUpdate carries the evaluation fields that must commit together.
type OutcomeUpdate struct {
	Outcome     models.Outcome
	TPHit       models.TPLevel
	HitStopLoss bool
	FinalPrice  float64
	ProfitLoss  float64
}

// SignalStore persists trade signals and their lifecycle transitions.
// Insert assigns a monotonic id; UpdateOutcome commits all outcome fields
// atomically for one record and fails if the signal is already evaluated
// or rejected. The store never deletes signals.
type SignalStore interface {
	Init(ctx context.Context) error
	Insert(ctx context.Context, s *models.TradeSignal) (int64, error)
	UpdateOutcome(ctx context.Context, id int64, u OutcomeUpdate) error
	Get(ctx context.Context, id int64) (*models.TradeSignal, error)
	Unevaluated(ctx context.Context) ([]*models.TradeSignal, error)
	ByStatus(ctx context.Context, status models.SignalStatus, limit int) ([]*models.TradeSignal, error)
	ByOutcome(ctx context.Context, outcome models.Outcome, limit int) ([]*models.TradeSignal, error)
	Recent(ctx context.Context, limit int) ([]*models.TradeSignal, error)
	Close() error
}

// Metrics records operational measurements for the engine.
type Metrics interface {
	RecordSignal(symbol string, status models.SignalStatus)
	RecordRejection(reason models.RejectReason)
	RecordConfidence(v float64)
	RecordEvaluation(outcome models.Outcome)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
	RecordError(kind string)
}
