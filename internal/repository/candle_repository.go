package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/domain/repository"
	pkgkafka "TradePulse/pkg/kafka"
)

// CHCandleStorage implements CandleStorage for ClickHouse. Closed candles
// from the ingest path land in the table for the stream's configured
// interval; Init creates all timeframe tables so reads on any of them
// are valid.
type CHCandleStorage struct {
	db     *sql.DB
	table  string
	tables []string
}

func NewCHCandleStorage(db *sql.DB, table string, allTables ...string) repository.CandleStorage {
	if len(allTables) == 0 {
		allTables = []string{table}
	}
	return &CHCandleStorage{db: db, table: table, tables: allTables}
}

func (s *CHCandleStorage) Init(ctx context.Context) error {
	const qtpl = `
        CREATE TABLE IF NOT EXISTS %s (
            bucket  DateTime('UTC'),
            symbol  LowCardinality(String),
            open    Float64,
            high    Float64,
            low     Float64,
            close   Float64,
            vol     Float64
        ) ENGINE = ReplacingMergeTree
        ORDER BY (symbol, bucket)
    `
	for _, table := range s.tables {
		if _, err := s.db.ExecContext(ctx, fmt.Sprintf(qtpl, table)); err != nil {
			return fmt.Errorf("create table %s: %w", table, err)
		}
	}
	return nil
}

func (s *CHCandleStorage) Store(ctx context.Context, c *models.Candle) error {
	q := fmt.Sprintf("INSERT INTO %s (bucket, symbol, open, high, low, close, vol) VALUES (?, ?, ?, ?, ?, ?, ?)", s.table)
	_, err := s.db.ExecContext(ctx, q, c.Bucket, c.Symbol, c.Open, c.High, c.Low, c.Close, c.Volume)
	return err
}

func (s *CHCandleStorage) StoreBatch(ctx context.Context, candles []*models.Candle) error {
	if len(candles) == 0 {
		return nil
	}
	// chunked multi-row VALUES to cut round-trips
	const chunkSize = 2000
	for start := 0; start < len(candles); start += chunkSize {
		end := start + chunkSize
		if end > len(candles) {
			end = len(candles)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*7)
		for _, c := range candles[start:end] {
			if c == nil || c.Symbol == "" || c.Bucket.IsZero() {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?)")
			args = append(args, c.Bucket, c.Symbol, c.Open, c.High, c.Low, c.Close, c.Volume)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (bucket, symbol, open, high, low, close, vol) VALUES %s", s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

func (s *CHCandleStorage) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHCandleStorage) Close() error {
	return nil // connection owned by pkg
}

// KafkaCandlePublisher implements Publisher for Kafka.
type KafkaCandlePublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaCandlePublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	return &KafkaCandlePublisher{producer: producer, topic: topic}
}

func (p *KafkaCandlePublisher) Publish(ctx context.Context, c *models.Candle) error {
	return p.producer.Publish(ctx, p.topic, []byte(c.Symbol), candlePayload(c))
}

func (p *KafkaCandlePublisher) PublishBatch(ctx context.Context, candles []*models.Candle) error {
	if len(candles) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(candles))
	for i, c := range candles {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(c.Symbol),
			Value: candlePayload(c),
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaCandlePublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

func candlePayload(c *models.Candle) map[string]interface{} {
	return map[string]interface{}{
		"symbol": c.Symbol,
		"t":      c.Bucket.Unix(),
		"o":      c.Open,
		"h":      c.High,
		"l":      c.Low,
		"c":      c.Close,
		"v":      c.Volume,
	}
}
