package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"TradePulse/internal/domain/models"
	icache "TradePulse/internal/service/cache"
	"TradePulse/internal/service/metrics"
	"TradePulse/internal/service/ratelimit"
	"TradePulse/internal/usecase"
	httpmw "TradePulse/pkg/http/middleware"
	applogger "TradePulse/pkg/logger"
)

// SignalsHandler is the plain net/http surface for the cached read
// endpoints. The Echo handler carries the full API; this one exists for
// embedding in hosts without the Echo server, with per-client rate
// limits and a short response cache.
type SignalsHandler struct {
	generator *usecase.SignalGenerator
	evaluator *usecase.SignalEvaluator
	cache     icache.BytesCache
	rl        *ratelimit.Limiter
	l         *applogger.Logger
}

func NewSignalsHandler(generator *usecase.SignalGenerator, evaluator *usecase.SignalEvaluator) *SignalsHandler {
	metrics.Register()
	return &SignalsHandler{generator: generator, evaluator: evaluator, rl: ratelimit.New()}
}

func (h *SignalsHandler) SetCache(c icache.BytesCache) { h.cache = c }

// SetLogger injects a structured logger.
func (h *SignalsHandler) SetLogger(l *applogger.Logger) { h.l = l }

// Mux returns a ready-to-mount ServeMux with request metrics around
// every endpoint. Requests slower than a second are logged as warnings.
func (h *SignalsHandler) Mux() *http.ServeMux {
	instrument := httpmw.Metrics(h.l, time.Second)
	mux := http.NewServeMux()
	mux.Handle("/api/regime", instrument(h.Regime()))
	mux.Handle("/api/stats", instrument(h.Stats()))
	mux.Handle("/api/signal", instrument(h.Signal()))
	return mux
}

func (h *SignalsHandler) Regime() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		endpoint := "regime"
		defer func() { metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

		symbol := r.URL.Query().Get("symbol")
		if symbol == "" {
			if h.l != nil {
				h.l.Warn("signals.regime missing symbol")
			}
			http.Error(w, "symbol required", http.StatusBadRequest)
			return
		}
		if !h.rl.Allow(r.RemoteAddr+":regime", 5, 2) {
			if h.l != nil {
				h.l.Warn("signals.regime rate_limited", applogger.String("remote", r.RemoteAddr))
			}
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		cacheKey := "regime:" + symbol
		if b, ok := h.cached(cacheKey, endpoint); ok {
			h.writeJSON(w, endpoint, b)
			return
		}
		report, err := h.generator.Regime(r.Context(), symbol)
		if err != nil {
			metrics.APIErrors.WithLabelValues(endpoint).Inc()
			if h.l != nil {
				h.l.Error("signals.regime error", applogger.Error(err))
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		h.respond(w, endpoint, cacheKey, report, 30*time.Second)
	}
}

func (h *SignalsHandler) Stats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		endpoint := "stats"
		defer func() { metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

		if !h.rl.Allow(r.RemoteAddr+":stats", 5, 2) {
			if h.l != nil {
				h.l.Warn("signals.stats rate_limited", applogger.String("remote", r.RemoteAddr))
			}
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		cacheKey := "stats"
		if b, ok := h.cached(cacheKey, endpoint); ok {
			h.writeJSON(w, endpoint, b)
			return
		}
		stats, err := h.evaluator.Stats(r.Context())
		if err != nil {
			metrics.APIErrors.WithLabelValues(endpoint).Inc()
			if h.l != nil {
				h.l.Error("signals.stats error", applogger.Error(err))
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		h.respond(w, endpoint, cacheKey, stats, 15*time.Second)
	}
}

func (h *SignalsHandler) Signal() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		endpoint := "signal"
		defer func() { metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

		symbol := r.URL.Query().Get("symbol")
		if symbol == "" {
			http.Error(w, "symbol required", http.StatusBadRequest)
			return
		}
		balance := parseFloat(r.URL.Query().Get("balance"), 0)
		if !h.rl.Allow(r.RemoteAddr+":signal", 2, 1) {
			if h.l != nil {
				h.l.Warn("signals.signal rate_limited", applogger.String("remote", r.RemoteAddr))
			}
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		sig, err := h.generator.Generate(r.Context(), usecase.GenerateParams{Symbol: symbol, Balance: balance})
		if err != nil {
			metrics.APIErrors.WithLabelValues(endpoint).Inc()
			if h.l != nil {
				h.l.Error("signals.signal error", applogger.Error(err))
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		// signals are never cached
		h.respond(w, endpoint, "", models.SignalViewFrom(sig), 0)
	}
}

// cached returns a cache hit for key, if any.
func (h *SignalsHandler) cached(key, endpoint string) ([]byte, bool) {
	if h.cache == nil {
		return nil, false
	}
	b, ok, err := h.cache.GetBytes(key)
	if err != nil {
		if h.l != nil {
			h.l.Warn("signals."+endpoint+" cache_get_error", applogger.Error(err))
		}
		return nil, false
	}
	if ok && h.l != nil {
		h.l.Debug("signals."+endpoint+" cache_hit", applogger.String("key", key))
	}
	return b, ok
}

func (h *SignalsHandler) respond(w http.ResponseWriter, endpoint, cacheKey string, v any, ttl time.Duration) {
	b, err := json.Marshal(v)
	if err != nil {
		if h.l != nil {
			h.l.Error("signals."+endpoint+" marshal_error", applogger.Error(err))
		}
		http.Error(w, "encode error", http.StatusInternalServerError)
		return
	}
	if h.cache != nil && cacheKey != "" && ttl > 0 {
		if err := h.cache.SetBytes(cacheKey, b, ttl); err != nil && h.l != nil {
			h.l.Warn("signals."+endpoint+" cache_set_error", applogger.Error(err))
		}
	}
	h.writeJSON(w, endpoint, b)
}

func (h *SignalsHandler) writeJSON(w http.ResponseWriter, endpoint string, b []byte) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(b); err != nil && h.l != nil {
		h.l.Warn("signals."+endpoint+" write_error", applogger.Error(err))
	}
}

func parseFloat(s string, def float64) float64 {
	if s == "" {
		return def
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return f
}
