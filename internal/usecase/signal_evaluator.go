package usecase

import (
	"context"
	"errors"
	"fmt"

	"TradePulse/internal/domain/models"
	domrepo "TradePulse/internal/domain/repository"
	domsvc "TradePulse/internal/domain/service"
	"TradePulse/pkg/logger"
)

// SignalEvaluator settles outstanding signals. A batch works on a
// snapshot of unevaluated signals, so re-running it immediately is a
// no-op; a concurrent update loses gracefully via ErrAlreadyEvaluated.
type SignalEvaluator struct {
	store   domrepo.SignalStore
	model   domsvc.OutcomeModel
	metrics domrepo.Metrics
	log     *logger.Logger
}

func NewSignalEvaluator(store domrepo.SignalStore, model domsvc.OutcomeModel, metrics domrepo.Metrics, log *logger.Logger) *SignalEvaluator {
	return &SignalEvaluator{store: store, model: model, metrics: metrics, log: log}
}

type EvaluationSummary struct {
	Evaluated int `json:"evaluated"`
	Wins      int `json:"wins"`
	Losses    int `json:"losses"`
	Skipped   int `json:"skipped"`
}

// EvaluateAll settles every pending or executed signal lacking an
// outcome. Per-signal failures are logged and skipped rather than
// aborting the batch.
func (e *SignalEvaluator) EvaluateAll(ctx context.Context) (*EvaluationSummary, error) {
	signals, err := e.store.Unevaluated(ctx)
	if err != nil {
		return nil, fmt.Errorf("list unevaluated signals: %w", err)
	}

	summary := &EvaluationSummary{}
	for _, s := range signals {
		if !s.Evaluable() {
			summary.Skipped++
			continue
		}

		decision, err := e.model.Decide(ctx, s)
		if err != nil {
			e.metrics.RecordError("evaluate")
			e.log.Warn("outcome decision failed",
				logger.Int64("signal_id", s.ID),
				logger.Error(err))
			summary.Skipped++
			continue
		}

		err = e.store.UpdateOutcome(ctx, s.ID, domrepo.OutcomeUpdate{
			Outcome:     decision.Outcome,
			TPHit:       decision.TPHit,
			HitStopLoss: decision.HitStopLoss,
			FinalPrice:  decision.FinalPrice,
			ProfitLoss:  decision.ProfitLoss,
		})
		if errors.Is(err, domrepo.ErrAlreadyEvaluated) {
			summary.Skipped++
			continue
		}
		if err != nil {
			e.metrics.RecordError("evaluate_update")
			e.log.Error("outcome update failed",
				logger.Int64("signal_id", s.ID),
				logger.Error(err))
			summary.Skipped++
			continue
		}

		e.metrics.RecordEvaluation(decision.Outcome)
		summary.Evaluated++
		if decision.Outcome == models.OutcomeWin {
			summary.Wins++
		} else {
			summary.Losses++
		}
	}

	e.log.Info("evaluation batch finished",
		logger.Int("evaluated", summary.Evaluated),
		logger.Int("wins", summary.Wins),
		logger.Int("losses", summary.Losses))
	return summary, nil
}

// Stats recomputes accuracy aggregates from all evaluated signals.
func (e *SignalEvaluator) Stats(ctx context.Context) (*models.AccuracyStats, error) {
	wins, err := e.store.ByOutcome(ctx, models.OutcomeWin, 0)
	if err != nil {
		return nil, fmt.Errorf("list wins: %w", err)
	}
	losses, err := e.store.ByOutcome(ctx, models.OutcomeLoss, 0)
	if err != nil {
		return nil, fmt.Errorf("list losses: %w", err)
	}

	stats := &models.AccuracyStats{
		Total:  len(wins) + len(losses),
		Wins:   len(wins),
		Losses: len(losses),
	}
	for _, s := range wins {
		switch s.TPHit {
		case models.TP1:
			stats.TP1Hits++
		case models.TP2:
			stats.TP2Hits++
		case models.TP3:
			stats.TP3Hits++
		}
	}
	for _, s := range losses {
		if s.HitStopLoss {
			stats.SLHits++
		}
	}
	if stats.Total > 0 {
		stats.WinRate = float64(stats.Wins) / float64(stats.Total) * 100
	}
	return stats, nil
}
