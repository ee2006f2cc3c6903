package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"TradePulse/internal/domain/models"
	icache "TradePulse/internal/service/cache"
	"TradePulse/internal/services/engine"
	"TradePulse/internal/services/outcome"
	"TradePulse/internal/repository"
	"TradePulse/internal/usecase"
	applogger "TradePulse/pkg/logger"
)

type stubProvider struct {
	bundle *models.IndicatorBundle
}

func (s *stubProvider) Bundle(_ context.Context, symbol string) (*models.IndicatorBundle, error) {
	b := *s.bundle
	b.Symbol = symbol
	return &b, nil
}

type noopMetrics struct{}

func (noopMetrics) RecordSignal(string, models.SignalStatus) {}
func (noopMetrics) RecordRejection(models.RejectReason)      {}
func (noopMetrics) RecordConfidence(float64)                 {}
func (noopMetrics) RecordEvaluation(models.Outcome)          {}
func (noopMetrics) RecordLastPrice(string, float64)          {}
func (noopMetrics) RecordLatency(string, float64)            {}
func (noopMetrics) RecordError(string)                       {}

// rangingBundle is flat price action: low ADX, tight range.
func rangingBundle() *models.IndicatorBundle {
	n := 60
	b := &models.IndicatorBundle{
		Symbol:    "BTCUSDT",
		Timestamp: time.Now().UTC(),
		Closes:    make([]float64, n),
		Highs:     make([]float64, n),
		Lows:      make([]float64, n),
		Volumes:   make([]float64, n),

		Price:          100,
		RSI:            50,
		MACDLine:       0.01,
		MACDSignal:     0.01,
		ADX:            15,
		EMAFast:        100,
		EMAMid:         100,
		EMASlow:        100,
		ATR:            0.5,
		BollingerUpper: 101,
		BollingerLower: 99,

		Volatility:    0.5,
		TrendStrength: 15,
		VolumeProfile: 1.0,
	}
	for i := 0; i < n; i++ {
		b.Closes[i] = 100
		b.Highs[i] = 100.5
		b.Lows[i] = 99.5
		b.Volumes[i] = 1000
	}
	return b
}

func newTestHandler(t *testing.T) (*SignalsHandler, *icache.TTLCache) {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	pipeline := engine.NewPipeline(
		engine.NewClassifier(engine.DefaultClassifierConfig()),
		engine.NewEntryFinder(engine.DefaultEntryFinderConfig()),
		engine.NewGate(engine.DefaultGateConfig(), engine.NewRuleScorer()),
		engine.NewPlanner(engine.DefaultRiskConfig()),
	)
	store := repository.NewMemorySignalStore()
	gen := usecase.NewSignalGenerator(&stubProvider{bundle: rangingBundle()}, pipeline, store, noopMetrics{}, nil, l, 20)
	eval := usecase.NewSignalEvaluator(store, outcome.NewSimulator(outcome.DefaultSimulatorConfig()), noopMetrics{}, l)

	h := NewSignalsHandler(gen, eval)
	h.SetLogger(l)
	c := icache.NewTTLCache()
	h.SetCache(c)
	return h, c
}

func TestRegimeEndpointReturnsClassification(t *testing.T) {
	h, cache := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/regime?symbol=BTCUSDT", nil)
	rec := httptest.NewRecorder()
	h.Regime().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	var report models.RegimeReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.Regime != models.RegimeRangeBound {
		t.Fatalf("regime = %s, want range_bound", report.Regime)
	}
	if report.Tradeable {
		t.Fatalf("range_bound must not be tradeable")
	}
	if _, ok, _ := cache.GetBytes("regime:BTCUSDT"); !ok {
		t.Fatalf("response should be cached")
	}
}

func TestRegimeEndpointRequiresSymbol(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/regime", nil)
	rec := httptest.NewRecorder()
	h.Regime().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestRegimeEndpointRateLimits(t *testing.T) {
	h, _ := newTestHandler(t)

	var last int
	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/regime?symbol=BTCUSDT", nil)
		rec := httptest.NewRecorder()
		h.Regime().ServeHTTP(rec, req)
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("6th request status = %d, want 429", last)
	}
}

func TestSignalEndpointPersistsRejection(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/signal?symbol=BTCUSDT&balance=100", nil)
	rec := httptest.NewRecorder()
	h.Signal().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	var view models.SignalView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.Status != models.StatusRejected {
		t.Fatalf("status = %s, want REJECTED", view.Status)
	}
	if view.RejectReason != models.RejectMarketNotTrending {
		t.Fatalf("reason = %s", view.RejectReason)
	}
	if view.Plan != nil {
		t.Fatalf("rejected signal must carry no plan")
	}
}

func TestStatsEndpointServesAggregates(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	rec := httptest.NewRecorder()
	h.Stats().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	var stats models.AccuracyStats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.Total != 0 {
		t.Fatalf("fresh store stats total = %d", stats.Total)
	}
}

func TestMuxRoutesInstrumentedEndpoints(t *testing.T) {
	h, _ := newTestHandler(t)
	mux := h.Mux()

	req := httptest.NewRequest(http.MethodGet, "/api/regime?symbol=BTCUSDT", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("regime status = %d body=%s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/nope", nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown route status = %d", rec.Code)
	}
}
