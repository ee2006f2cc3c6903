package models

// PipelineResult is the terminal output of one pipeline run: either an
// accepted signal with a full plan, or a rejection with the failing stage's
// reason. Note: no transport (json/http) concerns here.
type PipelineResult struct {
	Symbol     string
	Regime     Regime
	Proposal   *EntryProposal
	Confidence float64
	Plan       *RiskPlan
	Rejected   bool
	Reason     RejectReason
}

// RegimeReport is the classification-only read model for the regime
// endpoint.
type RegimeReport struct {
	Symbol    string  `json:"symbol"`
	Regime    Regime  `json:"regime"`
	Tradeable bool    `json:"tradeable"`
	ADX       float64 `json:"adx"`
	LastPrice float64 `json:"last_price"`
}

// AccuracyStats is a read-only aggregation over evaluated signals. It is
// never persisted independently; always derivable from the signal set.
type AccuracyStats struct {
	Total   int     `json:"total"`
	Wins    int     `json:"wins"`
	Losses  int     `json:"losses"`
	WinRate float64 `json:"win_rate"`
	TP1Hits int     `json:"tp1_hits"`
	TP2Hits int     `json:"tp2_hits"`
	TP3Hits int     `json:"tp3_hits"`
	SLHits  int     `json:"sl_hits"`
}
