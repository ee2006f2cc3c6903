package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"TradePulse/internal/domain/models"
	domrepo "TradePulse/internal/domain/repository"
	pkgch "TradePulse/pkg/clickhouse"
	applogger "TradePulse/pkg/logger"
)

// signalColumns is the column list shared by inserts and selects. Order
// matters: scanSignal and insert args follow it.
const signalColumns = `id, version, symbol, created_at, status, reject_reason, regime, direction,
strategy, quality, confidence, entry_price, stop_loss, take_profit_1, take_profit_2,
take_profit_3, position_size, risk_amount, risk_percent, leverage, balance,
outcome, tp_hit, hit_stop_loss, final_price, profit_loss, evaluated_at`

// CHSignalStore persists trade signals in ClickHouse. ClickHouse rows are
// effectively immutable, so the one lifecycle mutation (outcome set) is
// written as a second row with a higher version into a
// ReplacingMergeTree; reads take the highest version per id, so the
// effect is an atomic per-signal update without ALTER TABLE UPDATE.
type CHSignalStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger

	// Serializes id assignment and the outcome check-and-insert within
	// the process. Without it two overlapping evaluation batches could
	// both observe a signal unevaluated and write contradictory
	// version-2 rows.
	mu sync.Mutex
}

func NewCHSignalStore(ch *pkgch.Client, table string) *CHSignalStore {
	return &CHSignalStore{db: ch.DB(), table: table}
}

// SetLogger injects a structured logger.
func (s *CHSignalStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHSignalStore) Init(ctx context.Context) error {
	q := fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            id            Int64,
            version       UInt8,
            symbol        String,
            created_at    DateTime64(3, 'UTC'),
            status        LowCardinality(String),
            reject_reason LowCardinality(String),
            regime        LowCardinality(String),
            direction     LowCardinality(String),
            strategy      LowCardinality(String),
            quality       LowCardinality(String),
            confidence    Float64,
            entry_price   Float64,
            stop_loss     Float64,
            take_profit_1 Float64,
            take_profit_2 Float64,
            take_profit_3 Float64,
            position_size Float64,
            risk_amount   Float64,
            risk_percent  Float64,
            leverage      Float64,
            balance       Float64,
            outcome       LowCardinality(String),
            tp_hit        LowCardinality(String),
            hit_stop_loss UInt8,
            final_price   Float64,
            profit_loss   Float64,
            evaluated_at  Nullable(DateTime64(3, 'UTC'))
        ) ENGINE = ReplacingMergeTree(version)
        ORDER BY id
    `, s.table)
	if _, err := s.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("create signals table: %w", err)
	}
	return nil
}

func (s *CHSignalStore) Insert(ctx context.Context, sig *models.TradeSignal) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var maxID sql.NullInt64
	q := fmt.Sprintf("SELECT max(id) FROM %s", s.table)
	if err := s.db.QueryRowContext(ctx, q).Scan(&maxID); err != nil {
		s.logError("signal id query error", err, sig.Symbol)
		return 0, fmt.Errorf("next signal id: %w", err)
	}
	id := maxID.Int64 + 1

	stored := *sig
	stored.ID = id
	if err := s.insertRow(ctx, &stored, 1); err != nil {
		s.logError("signal insert error", err, sig.Symbol)
		return 0, fmt.Errorf("insert signal: %w", err)
	}
	return id, nil
}

// UpdateOutcome writes the evaluation as a version-2 row. Evaluation is
// set-once: the read, the Evaluated check and the insert happen under
// s.mu so concurrent batches settle each signal exactly once.
func (s *CHSignalStore) UpdateOutcome(ctx context.Context, id int64, u domrepo.OutcomeUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sig, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if sig.Status == models.StatusRejected {
		return domrepo.ErrSignalRejected
	}
	if sig.Evaluated() {
		return domrepo.ErrAlreadyEvaluated
	}

	now := time.Now().UTC()
	sig.Outcome = u.Outcome
	sig.TPHit = u.TPHit
	sig.HitStopLoss = u.HitStopLoss
	sig.FinalPrice = u.FinalPrice
	sig.ProfitLoss = u.ProfitLoss
	sig.EvaluatedAt = &now

	if err := s.insertRow(ctx, sig, 2); err != nil {
		s.logError("signal outcome insert error", err, sig.Symbol)
		return fmt.Errorf("update outcome: %w", err)
	}
	return nil
}

func (s *CHSignalStore) insertRow(ctx context.Context, sig *models.TradeSignal, version uint8) error {
	plan := sig.Plan
	if plan == nil {
		plan = &models.RiskPlan{}
	}
	q := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.table, signalColumns)
	_, err := s.db.ExecContext(ctx, q,
		sig.ID,
		version,
		sig.Symbol,
		sig.CreatedAt,
		string(sig.Status),
		string(sig.RejectReason),
		string(sig.Regime),
		string(sig.Direction),
		string(sig.Strategy),
		string(sig.Quality),
		sig.Confidence,
		plan.EntryPrice,
		plan.StopLoss,
		plan.TakeProfit1,
		plan.TakeProfit2,
		plan.TakeProfit3,
		plan.PositionSize,
		plan.RiskAmount,
		plan.RiskPercent,
		plan.Leverage,
		sig.Balance,
		string(sig.Outcome),
		string(sig.TPHit),
		boolToUint8(sig.HitStopLoss),
		sig.FinalPrice,
		sig.ProfitLoss,
		sig.EvaluatedAt,
	)
	return err
}

func (s *CHSignalStore) Get(ctx context.Context, id int64) (*models.TradeSignal, error) {
	q := fmt.Sprintf(`
        SELECT %s FROM %s
        WHERE id = ?
        ORDER BY version DESC
        LIMIT 1
    `, signalColumns, s.table)
	sig, err := scanSignal(s.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, domrepo.ErrSignalNotFound
	}
	if err != nil {
		s.logError("signal get error", err, "")
		return nil, fmt.Errorf("get signal %d: %w", id, err)
	}
	return sig, nil
}

func (s *CHSignalStore) Unevaluated(ctx context.Context) ([]*models.TradeSignal, error) {
	q := fmt.Sprintf(`
        SELECT %s FROM %s
        ORDER BY id DESC, version DESC
        LIMIT 1 BY id
    `, signalColumns, s.table)
	signals, err := s.querySignals(ctx, q)
	if err != nil {
		return nil, err
	}
	out := signals[:0]
	for _, sig := range signals {
		if sig.Evaluable() {
			out = append(out, sig)
		}
	}
	return out, nil
}

func (s *CHSignalStore) ByStatus(ctx context.Context, status models.SignalStatus, limit int) ([]*models.TradeSignal, error) {
	q := fmt.Sprintf(`
        SELECT %s FROM (
            SELECT %s FROM %s ORDER BY id DESC, version DESC LIMIT 1 BY id
        ) WHERE status = ?
        %s
    `, signalColumns, signalColumns, s.table, limitClause(limit))
	return s.querySignals(ctx, q, string(status))
}

func (s *CHSignalStore) ByOutcome(ctx context.Context, outcome models.Outcome, limit int) ([]*models.TradeSignal, error) {
	q := fmt.Sprintf(`
        SELECT %s FROM (
            SELECT %s FROM %s ORDER BY id DESC, version DESC LIMIT 1 BY id
        ) WHERE outcome = ?
        %s
    `, signalColumns, signalColumns, s.table, limitClause(limit))
	return s.querySignals(ctx, q, string(outcome))
}

func (s *CHSignalStore) Recent(ctx context.Context, limit int) ([]*models.TradeSignal, error) {
	q := fmt.Sprintf(`
        SELECT %s FROM %s
        ORDER BY id DESC, version DESC
        LIMIT 1 BY id
        %s
    `, signalColumns, s.table, limitClause(limit))
	return s.querySignals(ctx, q)
}

func (s *CHSignalStore) Close() error {
	return nil // connection owned by pkg/clickhouse
}

func (s *CHSignalStore) querySignals(ctx context.Context, q string, args ...interface{}) ([]*models.TradeSignal, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		s.logError("signal query error", err, "")
		return nil, fmt.Errorf("query signals: %w", err)
	}
	defer rows.Close()

	var out []*models.TradeSignal
	for rows.Next() {
		sig, err := scanSignal(rows)
		if err != nil {
			s.logError("signal scan error", err, "")
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		out = append(out, sig)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSignal(row rowScanner) (*models.TradeSignal, error) {
	var (
		sig         models.TradeSignal
		plan        models.RiskPlan
		version     uint8
		hitSL       uint8
		evaluatedAt sql.NullTime
		status      string
		reason      string
		regime      string
		direction   string
		strategy    string
		quality     string
		outcome     string
		tpHit       string
	)
	err := row.Scan(
		&sig.ID, &version, &sig.Symbol, &sig.CreatedAt,
		&status, &reason, &regime, &direction, &strategy, &quality,
		&sig.Confidence,
		&plan.EntryPrice, &plan.StopLoss,
		&plan.TakeProfit1, &plan.TakeProfit2, &plan.TakeProfit3,
		&plan.PositionSize, &plan.RiskAmount, &plan.RiskPercent, &plan.Leverage,
		&sig.Balance,
		&outcome, &tpHit, &hitSL, &sig.FinalPrice, &sig.ProfitLoss,
		&evaluatedAt,
	)
	if err != nil {
		return nil, err
	}

	sig.Status = models.SignalStatus(status)
	sig.RejectReason = models.RejectReason(reason)
	sig.Regime = models.Regime(regime)
	sig.Direction = models.Direction(direction)
	sig.Strategy = models.Strategy(strategy)
	sig.Quality = models.Quality(quality)
	sig.Outcome = models.Outcome(outcome)
	sig.TPHit = models.TPLevel(tpHit)
	sig.HitStopLoss = hitSL == 1
	if sig.Status != models.StatusRejected {
		sig.Plan = &plan
	}
	if evaluatedAt.Valid {
		ts := evaluatedAt.Time
		sig.EvaluatedAt = &ts
	}
	return &sig, nil
}

func (s *CHSignalStore) logError(msg string, err error, symbol string) {
	if s.l == nil {
		return
	}
	fields := []applogger.Field{applogger.String("table", s.table), applogger.Error(err)}
	if symbol != "" {
		fields = append(fields, applogger.String("symbol", symbol))
	}
	s.l.Error(msg, fields...)
}

func boolToUint8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

func limitClause(limit int) string {
	if limit <= 0 {
		return ""
	}
	return fmt.Sprintf("LIMIT %d", limit)
}
