package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"TradePulse/internal/domain/models"
)

func acceptedSignal() *models.TradeSignal {
	return &models.TradeSignal{
		ID:         7,
		Symbol:     "BTCUSDT",
		CreatedAt:  time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		Status:     models.StatusPending,
		Regime:     models.RegimeStrongUptrend,
		Direction:  models.DirectionBuy,
		Strategy:   models.StrategyEMAPullback,
		Quality:    models.QualityGood,
		Confidence: 0.82,
		Balance:    100,
		Plan: &models.RiskPlan{
			EntryPrice:   42350,
			StopLoss:     41714.75,
			TakeProfit1:  43302.875,
			TakeProfit2:  44255.75,
			TakeProfit3:  45208.625,
			PositionSize: 0.00393,
			RiskAmount:   2.5,
			RiskPercent:  2.5,
			Leverage:     5,
		},
	}
}

func TestFormatSignalIncludesPlanLevels(t *testing.T) {
	msg := formatSignal(acceptedSignal())
	for _, want := range []string{
		"BUY BTCUSDT",
		"strong_uptrend",
		"ema_pullback",
		"82%",
		"42350.0000",
		"41714.7500",
		"43302.8750",
		"5x",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestFormatRejectionCarriesConfidenceOnlyForLowConfidence(t *testing.T) {
	msg := formatRejection("ETHUSDT", models.RejectLowConfidence, 0.61)
	if !strings.Contains(msg, "61%") {
		t.Fatalf("low_confidence rejection must carry confidence:\n%s", msg)
	}
	msg = formatRejection("ETHUSDT", models.RejectMarketNotTrending, 0)
	if strings.Contains(msg, "%") && strings.Contains(msg, "Confidence") {
		t.Fatalf("trend rejection must not carry confidence:\n%s", msg)
	}
}

func TestTelegramSendPostsToBotEndpoint(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tg := NewTelegram("token123", "chat456", nil)
	tg.baseURL = srv.URL

	if err := tg.NotifySignal(context.Background(), acceptedSignal()); err != nil {
		t.Fatalf("NotifySignal: %v", err)
	}
	if gotPath != "/bottoken123/sendMessage" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotBody["chat_id"] != "chat456" {
		t.Fatalf("chat_id = %v", gotBody["chat_id"])
	}
	if gotBody["parse_mode"] != "HTML" {
		t.Fatalf("parse_mode = %v", gotBody["parse_mode"])
	}
}

func TestTelegramSendErrorsOnNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	tg := NewTelegram("token", "chat", nil)
	tg.baseURL = srv.URL

	if err := tg.NotifyRejection(context.Background(), "BTCUSDT", models.RejectNoOptimalEntry, 0); err == nil {
		t.Fatalf("expected error on 429")
	}
}

func TestTelegramDisabledIsNoOp(t *testing.T) {
	tg := NewTelegram("", "", nil)
	if err := tg.NotifySignal(context.Background(), acceptedSignal()); err != nil {
		t.Fatalf("disabled notifier must be a no-op, got %v", err)
	}
}
