package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/repository"
	"TradePulse/internal/services/engine"
	"TradePulse/internal/services/outcome"
	"TradePulse/internal/usecase"
	applogger "TradePulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newEchoFixture(t *testing.T) (*echo.Echo, *repository.MemorySignalStore) {
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

	h := NewSignalsEchoHandler(l, gen, eval, usecase.NewSignalsUseCase(store))
	e := echo.New()
	h.RegisterRoutes(e)
	return e, store
}

func doRequest(e *echo.Echo, method, target string) (*httptest.ResponseRecorder, envelope) {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var env envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec, env
}

func TestGenerateEndpointReturnsRejectedRecord(t *testing.T) {
	e, store := newEchoFixture(t)

	rec, env := doRequest(e, http.MethodGet, "/api/signal?symbol=BTCUSDT&balance=100")
	if rec.Code != http.StatusOK || env.Status != http.StatusOK {
		t.Fatalf("code=%d envelope=%d body=%s", rec.Code, env.Status, rec.Body.String())
	}
	var view models.SignalView
	if err := json.Unmarshal(env.Data, &view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if view.Status != models.StatusRejected || view.RejectReason != models.RejectMarketNotTrending {
		t.Fatalf("view = %+v", view)
	}

	got, err := store.Get(context.Background(), view.ID)
	if err != nil {
		t.Fatalf("persisted record missing: %v", err)
	}
	if got.Balance != 100 {
		t.Fatalf("balance snapshot = %f", got.Balance)
	}
}

func TestGenerateEndpointValidatesSymbol(t *testing.T) {
	e, _ := newEchoFixture(t)

	rec, env := doRequest(e, http.MethodGet, "/api/signal")
	if rec.Code != http.StatusOK {
		t.Fatalf("transport code = %d", rec.Code)
	}
	if env.Status != http.StatusBadRequest {
		t.Fatalf("envelope status = %d body=%s", env.Status, rec.Body.String())
	}
}

func TestListEndpointFiltersByStatus(t *testing.T) {
	e, _ := newEchoFixture(t)

	doRequest(e, http.MethodGet, "/api/signal?symbol=BTCUSDT")
	doRequest(e, http.MethodGet, "/api/signal?symbol=ETHUSDT")

	_, env := doRequest(e, http.MethodGet, "/api/signals?status=REJECTED")
	var list struct {
		Rows  []*models.SignalView `json:"rows"`
		Total int64                `json:"total"`
	}
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Total != 2 || len(list.Rows) != 2 {
		t.Fatalf("total=%d rows=%d", list.Total, len(list.Rows))
	}

	_, env = doRequest(e, http.MethodGet, "/api/signals?status=EXECUTED")
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Total != 0 {
		t.Fatalf("executed total = %d", list.Total)
	}
}

func TestGetSignalByID(t *testing.T) {
	e, _ := newEchoFixture(t)

	_, created := doRequest(e, http.MethodGet, "/api/signal?symbol=BTCUSDT")
	var view models.SignalView
	if err := json.Unmarshal(created.Data, &view); err != nil {
		t.Fatalf("decode view: %v", err)
	}

	rec, env := doRequest(e, http.MethodGet, fmt.Sprintf("/api/signals/%d", view.ID))
	if rec.Code != http.StatusOK || env.Status != http.StatusOK {
		t.Fatalf("code=%d envelope=%d body=%s", rec.Code, env.Status, rec.Body.String())
	}
	var got models.SignalView
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if got.ID != view.ID || got.Status != models.StatusRejected {
		t.Fatalf("got = %+v", got)
	}
}

func TestGetSignalByIDUnknownIsNotFound(t *testing.T) {
	e, _ := newEchoFixture(t)

	_, env := doRequest(e, http.MethodGet, "/api/signals/424242")
	if env.Status != http.StatusNotFound {
		t.Fatalf("envelope status = %d", env.Status)
	}
}

func TestGetSignalByIDRejectsNonNumericID(t *testing.T) {
	e, _ := newEchoFixture(t)

	_, env := doRequest(e, http.MethodGet, "/api/signals/latest")
	if env.Status != http.StatusBadRequest {
		t.Fatalf("envelope status = %d", env.Status)
	}
}

func TestListEndpointRejectsUnknownStatus(t *testing.T) {
	e, _ := newEchoFixture(t)

	_, env := doRequest(e, http.MethodGet, "/api/signals?status=BOGUS")
	if env.Status != http.StatusBadRequest {
		t.Fatalf("envelope status = %d", env.Status)
	}
}

func TestEvaluateEndpointSkipsRejectedSignals(t *testing.T) {
	e, _ := newEchoFixture(t)

	doRequest(e, http.MethodGet, "/api/signal?symbol=BTCUSDT")

	_, env := doRequest(e, http.MethodPost, "/api/evaluate")
	if env.Status != http.StatusOK {
		t.Fatalf("envelope status = %d", env.Status)
	}
	var summary usecase.EvaluationSummary
	if err := json.Unmarshal(env.Data, &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.Evaluated != 0 {
		t.Fatalf("rejected signals must not be evaluated, got %d", summary.Evaluated)
	}
}

func TestRegimeEndpointSetsCacheControl(t *testing.T) {
	e, _ := newEchoFixture(t)

	rec, env := doRequest(e, http.MethodGet, "/api/regime?symbol=BTCUSDT")
	if env.Status != http.StatusOK {
		t.Fatalf("envelope status = %d body=%s", env.Status, rec.Body.String())
	}
	if cc := rec.Header().Get(echo.HeaderCacheControl); cc != "private, max-age=15" {
		t.Fatalf("cache-control = %q", cc)
	}
	var report models.RegimeReport
	if err := json.Unmarshal(env.Data, &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.Regime != models.RegimeRangeBound {
		t.Fatalf("regime = %s", report.Regime)
	}
}
