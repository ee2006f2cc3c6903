package models

import "time"

// RiskPlanView is the JSON shape of a RiskPlan.
type RiskPlanView struct {
	EntryPrice   float64 `json:"entry_price"`
	StopLoss     float64 `json:"stop_loss"`
	TakeProfit1  float64 `json:"take_profit_1"`
	TakeProfit2  float64 `json:"take_profit_2"`
	TakeProfit3  float64 `json:"take_profit_3"`
	PositionSize float64 `json:"position_size"`
	RiskAmount   float64 `json:"risk_amount"`
	RiskPercent  float64 `json:"risk_percent"`
	Leverage     float64 `json:"leverage"`
}

// SignalView is the JSON shape of a TradeSignal. Outcome fields are
// omitted until evaluation; the plan is omitted for rejections.
type SignalView struct {
	ID        int64     `json:"id"`
	Symbol    string    `json:"symbol"`
	CreatedAt time.Time `json:"created_at"`

	Status       SignalStatus `json:"status"`
	RejectReason RejectReason `json:"reject_reason,omitempty"`

	Regime     Regime    `json:"regime"`
	Direction  Direction `json:"direction,omitempty"`
	Strategy   Strategy  `json:"strategy,omitempty"`
	Quality    Quality   `json:"quality,omitempty"`
	Confidence float64   `json:"confidence"`

	Plan    *RiskPlanView `json:"plan,omitempty"`
	Balance float64       `json:"balance"`

	Outcome     Outcome    `json:"outcome,omitempty"`
	TPHit       TPLevel    `json:"tp_hit,omitempty"`
	HitStopLoss bool       `json:"hit_stop_loss,omitempty"`
	FinalPrice  float64    `json:"final_price,omitempty"`
	ProfitLoss  float64    `json:"profit_loss,omitempty"`
	EvaluatedAt *time.Time `json:"evaluated_at,omitempty"`
}

// SignalViewFrom converts a domain signal to its JSON view.
func SignalViewFrom(s *TradeSignal) *SignalView {
	if s == nil {
		return nil
	}
	v := &SignalView{
		ID:           s.ID,
		Symbol:       s.Symbol,
		CreatedAt:    s.CreatedAt,
		Status:       s.Status,
		RejectReason: s.RejectReason,
		Regime:       s.Regime,
		Direction:    s.Direction,
		Strategy:     s.Strategy,
		Quality:      s.Quality,
		Confidence:   s.Confidence,
		Balance:      s.Balance,
		Outcome:      s.Outcome,
		HitStopLoss:  s.HitStopLoss,
		FinalPrice:   s.FinalPrice,
		ProfitLoss:   s.ProfitLoss,
		EvaluatedAt:  s.EvaluatedAt,
	}
	if s.Evaluated() {
		v.TPHit = s.TPHit
	}
	if s.Plan != nil {
		p := *s.Plan
		v.Plan = &RiskPlanView{
			EntryPrice:   p.EntryPrice,
			StopLoss:     p.StopLoss,
			TakeProfit1:  p.TakeProfit1,
			TakeProfit2:  p.TakeProfit2,
			TakeProfit3:  p.TakeProfit3,
			PositionSize: p.PositionSize,
			RiskAmount:   p.RiskAmount,
			RiskPercent:  p.RiskPercent,
			Leverage:     p.Leverage,
		}
	}
	return v
}
