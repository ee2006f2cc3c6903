package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"TradePulse/internal/domain/models"
	drepo "TradePulse/internal/domain/repository"

	"github.com/gorilla/websocket"
)

// Stream implements a MarketStream backed by Binance combined kline
// streams. It emits one Candle per symbol when the exchange marks the
// kline closed; in-progress updates are dropped.
type Stream struct {
	baseURL        string
	symbols        []string
	timeframe      drepo.Timeframe
	reconnectDelay time.Duration
	pingInterval   time.Duration

	conn      *websocket.Conn
	connected bool
}

// NewStream creates a Binance kline MarketStream.
func NewStream(baseURL string, symbols []string, tf drepo.Timeframe, reconnectDelay, pingInterval time.Duration) drepo.MarketStream {
	return &Stream{
		baseURL:        baseURL,
		symbols:        symbols,
		timeframe:      tf,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
	}
}

// streamNames builds the combined-stream path segments, e.g.
// btcusdt@kline_1h.
func (s *Stream) streamNames() []string {
	names := make([]string, 0, len(s.symbols))
	for _, sym := range s.symbols {
		names = append(names, fmt.Sprintf("%s@kline_%s", strings.ToLower(sym), s.timeframe))
	}
	return names
}

// Connect establishes the WebSocket connection against the combined
// stream endpoint for all configured symbols.
func (s *Stream) Connect(ctx context.Context) error {
	u := fmt.Sprintf("%s/stream?streams=%s", strings.TrimRight(s.baseURL, "/"), strings.Join(s.streamNames(), "/"))
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("binance connect: %w", err)
	}
	s.conn = conn
	s.connected = true
	return nil
}

// Subscribe sends an explicit SUBSCRIBE frame. The combined-stream URL
// already carries the subscriptions, but the frame makes recovery after
// a server-side reset deterministic.
func (s *Stream) Subscribe(ctx context.Context) error {
	if s.conn == nil || !s.connected {
		return fmt.Errorf("binance not connected")
	}
	msg := map[string]any{
		"method": "SUBSCRIBE",
		"params": s.streamNames(),
		"id":     1,
	}
	if err := s.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("binance subscribe: %w", err)
	}
	return nil
}

type wsKline struct {
	Start  int64  `json:"t"` // ms
	Symbol string `json:"s"`
	Open   string `json:"o"`
	High   string `json:"h"`
	Low    string `json:"l"`
	Close  string `json:"c"`
	Volume string `json:"v"`
	Closed bool   `json:"x"`
}

type wsKlineEvent struct {
	EventType string  `json:"e"`
	Kline     wsKline `json:"k"`
}

type wsCombinedFrame struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

// Read streams closed candles and errors. Both channels close when the
// read loop exits.
func (s *Stream) Read(ctx context.Context) (<-chan *models.Candle, <-chan error) {
	candles := make(chan *models.Candle, 256)
	errs := make(chan error, 1)

	// ping loop
	go func() {
		ticker := time.NewTicker(s.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if s.conn != nil {
					_ = s.conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(candles)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if s.conn == nil {
					errs <- fmt.Errorf("binance conn nil")
					return
				}
				_, b, err := s.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("binance read: %w", err)
					return
				}
				c, ok := decodeKlineFrame(b)
				if !ok {
					continue
				}
				select {
				case candles <- c:
				default:
					// drop on backpressure
				}
			}
		}
	}()

	return candles, errs
}

// decodeKlineFrame parses a combined-stream frame and returns a Candle
// only for closed klines. Subscription acks and in-progress updates
// return false.
func decodeKlineFrame(b []byte) (*models.Candle, bool) {
	var frame wsCombinedFrame
	if err := json.Unmarshal(b, &frame); err != nil || len(frame.Data) == 0 {
		return nil, false
	}
	var ev wsKlineEvent
	if err := json.Unmarshal(frame.Data, &ev); err != nil {
		return nil, false
	}
	if ev.EventType != "kline" || !ev.Kline.Closed {
		return nil, false
	}
	k := ev.Kline
	return &models.Candle{
		Bucket: time.Unix(k.Start/1000, 0).UTC(),
		Symbol: k.Symbol,
		Open:   parseFloat(k.Open),
		High:   parseFloat(k.High),
		Low:    parseFloat(k.Low),
		Close:  parseFloat(k.Close),
		Volume: parseFloat(k.Volume),
	}, true
}

func parseFloat(v string) float64 {
	f, _ := strconv.ParseFloat(v, 64)
	return f
}

// Reconnect closes and reconnects.
func (s *Stream) Reconnect(ctx context.Context) error {
	_ = s.Close()
	time.Sleep(s.reconnectDelay)
	if err := s.Connect(ctx); err != nil {
		return err
	}
	return s.Subscribe(ctx)
}

// Close closes the WS connection.
func (s *Stream) Close() error {
	s.connected = false
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (s *Stream) IsConnected() bool { return s.connected }
