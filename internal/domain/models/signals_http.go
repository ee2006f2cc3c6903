package models

// Requests for the signal HTTP endpoints. Defined in domain for consistency and reuse.

type GenerateSignalRequest struct {
	Symbol  string  `query:"symbol" json:"symbol" validate:"required"`
	Balance float64 `query:"balance" json:"balance" validate:"gte=0"`
}

type RegimeRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
}

type ListSignalsRequest struct {
	Status  string `query:"status" json:"status" validate:"omitempty,oneof=PENDING EXECUTED REJECTED"`
	Outcome string `query:"outcome" json:"outcome" validate:"omitempty,oneof=WIN LOSS"`
	Limit   int    `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=1000"`
}

type StatsRequest struct {
	Limit int `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=1000"`
}

type CandlesRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
	TF     string `query:"tf" json:"tf"`
	Limit  int    `query:"limit" json:"limit" default:"10000" validate:"gte=1,lte=50000"`
}
