package usecase

import (
	"context"
	"fmt"
	"time"

	"TradePulse/internal/domain/models"
	domrepo "TradePulse/internal/domain/repository"
	domsvc "TradePulse/internal/domain/service"
	"TradePulse/internal/services/engine"
	"TradePulse/pkg/logger"
)

// SignalGenerator runs the decision pipeline for a symbol and persists the
// result as a TradeSignal, whether accepted or rejected. Rejections are
// first-class records: they carry the failing stage's reason and no plan.
type SignalGenerator struct {
	provider       domsvc.BundleProvider
	pipeline       *engine.Pipeline
	store          domrepo.SignalStore
	metrics        domrepo.Metrics
	notifier       domsvc.Notifier
	log            *logger.Logger
	defaultBalance float64
}

func NewSignalGenerator(
	provider domsvc.BundleProvider,
	pipeline *engine.Pipeline,
	store domrepo.SignalStore,
	metrics domrepo.Metrics,
	notifier domsvc.Notifier,
	log *logger.Logger,
	defaultBalance float64,
) *SignalGenerator {
	return &SignalGenerator{
		provider:       provider,
		pipeline:       pipeline,
		store:          store,
		metrics:        metrics,
		notifier:       notifier,
		log:            log,
		defaultBalance: defaultBalance,
	}
}

type GenerateParams struct {
	Symbol  string
	Balance float64 // 0 means "use the configured default"
}

// Generate produces and persists one signal for a symbol. The balance is
// snapshotted into the record so later evaluation is independent of any
// balance changes.
func (g *SignalGenerator) Generate(ctx context.Context, p GenerateParams) (*models.TradeSignal, error) {
	if p.Symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	balance := p.Balance
	if balance <= 0 {
		balance = g.defaultBalance
	}

	start := time.Now()
	bundle, err := g.provider.Bundle(ctx, p.Symbol)
	if err != nil {
		g.metrics.RecordError("bundle")
		return nil, fmt.Errorf("generate signal: %w", err)
	}
	g.metrics.RecordLastPrice(p.Symbol, bundle.Price)

	result, err := g.pipeline.Run(bundle, balance)
	if err != nil {
		g.metrics.RecordError("pipeline")
		return nil, fmt.Errorf("generate signal: %w", err)
	}
	g.metrics.RecordLatency("pipeline", time.Since(start).Seconds())

	signal := signalFromResult(result, balance)
	id, err := g.store.Insert(ctx, signal)
	if err != nil {
		g.metrics.RecordError("signal_insert")
		return nil, fmt.Errorf("persist signal: %w", err)
	}
	signal.ID = id

	g.record(signal)
	g.notify(ctx, signal)
	return signal, nil
}

// Regime classifies the current market for a symbol without running the
// rest of the pipeline or persisting anything.
func (g *SignalGenerator) Regime(ctx context.Context, symbol string) (*models.RegimeReport, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	b, err := g.provider.Bundle(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("bundle %s: %w", symbol, err)
	}
	regime, err := g.pipeline.Classify(b)
	if err != nil {
		return nil, fmt.Errorf("classify %s: %w", symbol, err)
	}
	return &models.RegimeReport{
		Symbol:    symbol,
		Regime:    regime,
		Tradeable: regime.Tradeable(),
		ADX:       b.ADX,
		LastPrice: b.Price,
	}, nil
}

func signalFromResult(r *models.PipelineResult, balance float64) *models.TradeSignal {
	s := &models.TradeSignal{
		Symbol:     r.Symbol,
		CreatedAt:  time.Now().UTC(),
		Regime:     r.Regime,
		Confidence: r.Confidence,
		Balance:    balance,
		TPHit:      models.TPNone,
	}
	if r.Rejected {
		s.Status = models.StatusRejected
		s.RejectReason = r.Reason
		return s
	}
	s.Status = models.StatusPending
	s.Direction = r.Proposal.Direction
	s.Strategy = r.Proposal.Strategy
	s.Quality = r.Proposal.Quality
	s.Plan = r.Plan
	return s
}

func (g *SignalGenerator) record(s *models.TradeSignal) {
	g.metrics.RecordSignal(s.Symbol, s.Status)
	if s.Status == models.StatusRejected {
		g.metrics.RecordRejection(s.RejectReason)
		return
	}
	g.metrics.RecordConfidence(s.Confidence)
}

// notify delivers the result but never fails the pipeline over it.
func (g *SignalGenerator) notify(ctx context.Context, s *models.TradeSignal) {
	if g.notifier == nil {
		return
	}
	var err error
	if s.Status == models.StatusRejected {
		err = g.notifier.NotifyRejection(ctx, s.Symbol, s.RejectReason, s.Confidence)
	} else {
		err = g.notifier.NotifySignal(ctx, s)
	}
	if err != nil {
		g.metrics.RecordError("notify")
		g.log.Warn("notification failed",
			logger.String("symbol", s.Symbol),
			logger.Int64("signal_id", s.ID),
			logger.Error(err))
	}
}
