package jobs

import (
	"context"
	"fmt"

	"TradePulse/internal/usecase"
	"TradePulse/pkg/logger"
	"TradePulse/pkg/queue"
)

// EvaluateType is the queue message type for evaluation runs.
const EvaluateType = "signals.evaluate"

// EvaluatePayload is the (currently empty) payload for an evaluation run.
// Kept as a struct so future fields (symbol filter, dry-run) stay wire
// compatible.
type EvaluatePayload struct{}

// EvaluateJob settles all unevaluated signals when triggered via the
// queue. Batches are idempotent so redelivery is harmless.
type EvaluateJob struct {
	evaluator *usecase.SignalEvaluator
	l         *logger.Logger
}

func NewEvaluateJob(evaluator *usecase.SignalEvaluator, l *logger.Logger) *EvaluateJob {
	return &EvaluateJob{evaluator: evaluator, l: l}
}

var _ queue.Job = (*EvaluateJob)(nil)

func (j *EvaluateJob) Name() string { return "signal-evaluator" }

func (j *EvaluateJob) Type() string { return EvaluateType }

func (j *EvaluateJob) Handle(ctx context.Context, payload interface{}) error {
	if _, err := queue.ParsePayload[EvaluatePayload](payload); err != nil {
		return fmt.Errorf("evaluate payload: %w", err)
	}
	summary, err := j.evaluator.EvaluateAll(ctx)
	if err != nil {
		return fmt.Errorf("evaluate batch: %w", err)
	}
	if j.l != nil {
		j.l.Info("queued evaluation done",
			logger.Int("evaluated", summary.Evaluated),
			logger.Int("wins", summary.Wins),
			logger.Int("losses", summary.Losses),
			logger.Int("skipped", summary.Skipped))
	}
	return nil
}
