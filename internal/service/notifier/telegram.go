package notifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"TradePulse/internal/domain/models"
	domsvc "TradePulse/internal/domain/service"
	xhttp "TradePulse/pkg/http"
	applogger "TradePulse/pkg/logger"
)

const telegramAPIBase = "https://api.telegram.org"

// Telegram pushes accepted signals and rejections to a chat. With an
// empty token or chat id it becomes a no-op, so wiring it is always
// safe.
type Telegram struct {
	botToken string
	chatID   string
	baseURL  string
	client   *xhttp.Client
	enabled  bool
	l        *applogger.Logger
}

// NewTelegram builds a Telegram notifier. Disabled (empty token or
// chat id) notifiers silently accept every message.
func NewTelegram(botToken, chatID string, l *applogger.Logger) *Telegram {
	return &Telegram{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  telegramAPIBase,
		client:   xhttp.NewClient(xhttp.WithTimeout(10 * time.Second)),
		enabled:  botToken != "" && chatID != "",
		l:        l,
	}
}

var _ domsvc.Notifier = (*Telegram)(nil)

// NotifySignal formats and sends an accepted signal.
func (t *Telegram) NotifySignal(ctx context.Context, s *models.TradeSignal) error {
	return t.send(ctx, formatSignal(s))
}

// NotifyRejection formats and sends a rejection notice.
func (t *Telegram) NotifyRejection(ctx context.Context, symbol string, reason models.RejectReason, confidence float64) error {
	return t.send(ctx, formatRejection(symbol, reason, confidence))
}

func formatSignal(s *models.TradeSignal) string {
	icon := "🟢"
	if s.Direction == models.DirectionSell {
		icon = "🔴"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s <b>%s %s</b>\n", icon, s.Direction, s.Symbol)
	fmt.Fprintf(&b, "Regime: %s | Strategy: %s (%s)\n", s.Regime, s.Strategy, s.Quality)
	fmt.Fprintf(&b, "Confidence: %.0f%%\n", s.Confidence*100)
	if p := s.Plan; p != nil {
		fmt.Fprintf(&b, "\nEntry: %.4f\nStop:  %.4f\n", p.EntryPrice, p.StopLoss)
		fmt.Fprintf(&b, "TP1: %.4f | TP2: %.4f | TP3: %.4f\n", p.TakeProfit1, p.TakeProfit2, p.TakeProfit3)
		fmt.Fprintf(&b, "Size: %.6f @ %.0fx | Risk: $%.2f (%.1f%%)\n", p.PositionSize, p.Leverage, p.RiskAmount, p.RiskPercent)
	}
	fmt.Fprintf(&b, "\n%s", s.CreatedAt.UTC().Format("2006-01-02 15:04:05 UTC"))
	return b.String()
}

func formatRejection(symbol string, reason models.RejectReason, confidence float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "⚪ <b>No signal: %s</b>\nReason: %s\n", symbol, reason)
	if reason == models.RejectLowConfidence {
		fmt.Fprintf(&b, "Confidence: %.0f%%\n", confidence*100)
	}
	return b.String()
}

func (t *Telegram) send(ctx context.Context, text string) error {
	if !t.enabled {
		return nil
	}
	err := t.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.botToken),
		Body: map[string]any{
			"chat_id":    t.chatID,
			"text":       text,
			"parse_mode": "HTML",
		},
	}, nil)
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	if t.l != nil {
		t.l.Debug("telegram message sent", applogger.String("chat_id", t.chatID))
	}
	return nil
}
