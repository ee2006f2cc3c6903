package models

import "time"

// Regime labels the current market behavior. Only the four trend labels
// are tradeable; both range labels short-circuit the pipeline.
type Regime string

const (
	RegimeStrongUptrend   Regime = "strong_uptrend"
	RegimeWeakUptrend     Regime = "weak_uptrend"
	RegimeStrongDowntrend Regime = "strong_downtrend"
	RegimeWeakDowntrend   Regime = "weak_downtrend"
	RegimeRangeBound      Regime = "range_bound"
	RegimeVolatileRange   Regime = "volatile_range"
)

// Tradeable reports whether the regime admits entries at all.
func (r Regime) Tradeable() bool {
	switch r {
	case RegimeStrongUptrend, RegimeWeakUptrend, RegimeStrongDowntrend, RegimeWeakDowntrend:
		return true
	}
	return false
}

// Bullish reports whether the regime is one of the two uptrend labels.
func (r Regime) Bullish() bool {
	return r == RegimeStrongUptrend || r == RegimeWeakUptrend
}

type Direction string

const (
	DirectionBuy  Direction = "BUY"
	DirectionSell Direction = "SELL"
)

// Strategy tags which entry rule produced the proposal.
type Strategy string

const (
	StrategySupportBounce       Strategy = "support_bounce"
	StrategyResistanceRejection Strategy = "resistance_rejection"
	StrategyEMAPullback         Strategy = "ema_pullback"
	StrategyBreakout            Strategy = "breakout"
	StrategyBreakdown           Strategy = "breakdown"
	StrategyTrendContinuation   Strategy = "trend_continuation"
)

type Quality string

const (
	QualityExcellent Quality = "excellent"
	QualityGood      Quality = "good"
	QualityModerate  Quality = "moderate"
)

// EntryProposal is the output of the entry finder. A nil proposal is the
// valid "no entry" terminal state, not an error.
type EntryProposal struct {
	Direction  Direction
	Strategy   Strategy
	EntryPrice float64
	Quality    Quality
	Level      float64 // support/resistance or EMA level the rule anchored on, 0 if none
	Reason     string
}

// ConfirmationResult carries the gate's confidence score.
type ConfirmationResult struct {
	Confidence float64
	Accepted   bool
}

// RiskPlan is a fully specified set of price levels and sizing for an
// accepted entry. Invariants (checked at construction): for BUY
// stop < entry < tp1 < tp2 < tp3, mirrored for SELL; risk amount and
// position size strictly positive.
type RiskPlan struct {
	EntryPrice   float64
	StopLoss     float64
	TakeProfit1  float64
	TakeProfit2  float64
	TakeProfit3  float64
	PositionSize float64
	RiskAmount   float64
	RiskPercent  float64
	Leverage     float64
}

// SignalStatus is the lifecycle state of a persisted signal.
type SignalStatus string

const (
	StatusPending  SignalStatus = "PENDING"
	StatusExecuted SignalStatus = "EXECUTED"
	StatusRejected SignalStatus = "REJECTED"
)

// Outcome of an evaluated signal. Empty until evaluation; REJECTED
// signals never receive one.
type Outcome string

const (
	OutcomeWin  Outcome = "WIN"
	OutcomeLoss Outcome = "LOSS"
)

// TPLevel names which take-profit level was reached.
type TPLevel string

const (
	TPNone TPLevel = "NONE"
	TP1    TPLevel = "TP1"
	TP2    TPLevel = "TP2"
	TP3    TPLevel = "TP3"
)

// RejectReason identifies the pipeline stage that rejected a setup.
type RejectReason string

const (
	RejectMarketNotTrending RejectReason = "market_not_trending"
	RejectNoOptimalEntry    RejectReason = "no_optimal_entry"
	RejectLowConfidence     RejectReason = "low_confidence"
)

// TradeSignal is the persisted unit of work. A REJECTED signal carries no
// RiskPlan and never receives outcome fields.
type TradeSignal struct {
	ID        int64
	Symbol    string
	CreatedAt time.Time

	Status       SignalStatus
	RejectReason RejectReason // set iff Status == REJECTED

	Regime     Regime
	Direction  Direction
	Strategy   Strategy
	Quality    Quality
	Confidence float64

	Plan    *RiskPlan
	Balance float64 // account balance snapshot at creation

	// Outcome fields, set exactly once by evaluation.
	Outcome     Outcome
	TPHit       TPLevel
	HitStopLoss bool
	FinalPrice  float64
	ProfitLoss  float64
	EvaluatedAt *time.Time
}

// Evaluated reports whether the signal already carries an outcome.
func (s *TradeSignal) Evaluated() bool {
	return s.Outcome != ""
}

// Evaluable reports whether the signal may still receive an outcome.
func (s *TradeSignal) Evaluable() bool {
	return s.Status != StatusRejected && !s.Evaluated()
}
