package binance

import (
	"context"
	"testing"
	"time"

	drepo "TradePulse/internal/domain/repository"

	gobinance "github.com/adshao/go-binance/v2"
)

func TestDecodeKlineFrameClosed(t *testing.T) {
	frame := []byte(`{"stream":"btcusdt@kline_1h","data":{"e":"kline","s":"BTCUSDT","k":{"t":1700000000000,"s":"BTCUSDT","o":"42000.5","h":"42350.0","l":"41900.0","c":"42310.2","v":"1250.7","x":true}}}`)

	c, ok := decodeKlineFrame(frame)
	if !ok {
		t.Fatalf("expected closed kline to decode")
	}
	if c.Symbol != "BTCUSDT" {
		t.Fatalf("symbol = %q", c.Symbol)
	}
	if got := c.Bucket.Unix(); got != 1700000000 {
		t.Fatalf("bucket = %d, want 1700000000", got)
	}
	if c.Open != 42000.5 || c.High != 42350.0 || c.Low != 41900.0 || c.Close != 42310.2 || c.Volume != 1250.7 {
		t.Fatalf("OHLCV mismatch: %+v", c)
	}
}

func TestDecodeKlineFrameSkipsOpenKline(t *testing.T) {
	frame := []byte(`{"stream":"btcusdt@kline_1h","data":{"e":"kline","s":"BTCUSDT","k":{"t":1700000000000,"s":"BTCUSDT","o":"1","h":"2","l":"0.5","c":"1.5","v":"10","x":false}}}`)
	if _, ok := decodeKlineFrame(frame); ok {
		t.Fatalf("in-progress kline must not produce a candle")
	}
}

func TestDecodeKlineFrameSkipsNonKline(t *testing.T) {
	for _, frame := range []string{
		`{"result":null,"id":1}`,
		`{"stream":"btcusdt@trade","data":{"e":"trade","p":"42000"}}`,
		`not json`,
	} {
		if _, ok := decodeKlineFrame([]byte(frame)); ok {
			t.Fatalf("frame %q must be skipped", frame)
		}
	}
}

func TestStreamNames(t *testing.T) {
	s := &Stream{symbols: []string{"BTCUSDT", "ETHUSDT"}, timeframe: drepo.TF15m}
	names := s.streamNames()
	want := []string{"btcusdt@kline_15m", "ethusdt@kline_15m"}
	if len(names) != len(want) {
		t.Fatalf("got %d names, want %d", len(names), len(want))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

type fakeKlineAPI struct {
	pages map[int64][]*gobinance.Kline // keyed by endTime, 0 = latest
	calls int
}

func (f *fakeKlineAPI) Klines(_ context.Context, _, _ string, _ int, endTime int64) ([]*gobinance.Kline, error) {
	f.calls++
	return f.pages[endTime], nil
}

func mkKline(openMs int64, close string) *gobinance.Kline {
	return &gobinance.Kline{OpenTime: openMs, Open: "1", High: "2", Low: "0.5", Close: close, Volume: "10"}
}

func TestBackfillerFetchSymbolPagesOldestFirst(t *testing.T) {
	hour := int64(3600 * 1000)
	base := int64(1700000000000)

	api := &fakeKlineAPI{pages: map[int64][]*gobinance.Kline{}}
	// latest page: 1000 candles ending at base+1001h
	latest := make([]*gobinance.Kline, 0, 1000)
	for i := int64(2); i < 1002; i++ {
		latest = append(latest, mkKline(base+i*hour, "2"))
	}
	api.pages[0] = latest
	// older page requested with endTime just before the oldest seen
	api.pages[base+2*hour-1] = []*gobinance.Kline{
		mkKline(base, "1"),
		mkKline(base+hour, "1.5"),
	}

	b := &Backfiller{api: api, timeframe: drepo.TF1h, depth: 1002}
	candles, err := b.fetchSymbol(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("fetchSymbol: %v", err)
	}
	if len(candles) != 1002 {
		t.Fatalf("got %d candles, want 1002", len(candles))
	}
	if api.calls != 2 {
		t.Fatalf("api calls = %d, want 2", api.calls)
	}
	if got := candles[0].Bucket; !got.Equal(time.Unix(base/1000, 0).UTC()) {
		t.Fatalf("first bucket = %v, want oldest", got)
	}
	for i := 1; i < len(candles); i++ {
		if !candles[i].Bucket.After(candles[i-1].Bucket) {
			t.Fatalf("buckets not ascending at %d", i)
		}
	}
}

func TestBackfillerFetchSymbolStopsOnShortPage(t *testing.T) {
	api := &fakeKlineAPI{pages: map[int64][]*gobinance.Kline{
		0: {mkKline(1700000000000, "1")},
	}}
	b := &Backfiller{api: api, timeframe: drepo.TF1h, depth: 500}
	candles, err := b.fetchSymbol(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("fetchSymbol: %v", err)
	}
	if len(candles) != 1 {
		t.Fatalf("got %d candles, want 1", len(candles))
	}
	if api.calls != 1 {
		t.Fatalf("api calls = %d, want 1", api.calls)
	}
}
