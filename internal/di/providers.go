package di

import (
	"context"
	"fmt"
	"time"

	"TradePulse/internal/handler/api"
	mid "TradePulse/internal/middleware"
	internalrepo "TradePulse/internal/repository"
	domrepo "TradePulse/internal/domain/repository"
	domsvc "TradePulse/internal/domain/service"
	"TradePulse/internal/service/binance"
	"TradePulse/internal/service/jobs"
	"TradePulse/internal/service/notifier"
	"TradePulse/internal/services/engine"
	"TradePulse/internal/services/features"
	"TradePulse/internal/services/outcome"
	"TradePulse/internal/usecase"
	pkgch "TradePulse/pkg/clickhouse"
	"TradePulse/pkg/config"
	xhttp "TradePulse/pkg/http"
	pkgkafka "TradePulse/pkg/kafka"
	applogger "TradePulse/pkg/logger"
	"TradePulse/pkg/metrics"
	"TradePulse/pkg/queue"
	"TradePulse/pkg/server"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logger.Level,
		Format: cfg.Logger.Format,
		Output: cfg.Logger.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	// Initialize schema
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + cfg.ClickHouse.Database,
	}); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	return producer, nil
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideCandleStorage creates ClickHouse candle storage.
func ProvideCandleStorage(chClient *pkgch.Client, cfg *config.Config) domrepo.CandleStorage {
	db := cfg.ClickHouse.Database
	ingest := fmt.Sprintf("%s.candles_%s", db, cfg.Binance.Interval)
	all := []string{
		db + ".candles_1m",
		db + ".candles_15m",
		db + ".candles_1h",
		db + ".candles_4h",
	}
	return internalrepo.NewCHCandleStorage(chClient.DB(), ingest, all...)
}

// ProvideCandlePublisher creates the Kafka candle publisher.
func ProvideCandlePublisher(producer *pkgkafka.Producer, cfg *config.Config) domrepo.Publisher {
	return internalrepo.NewKafkaCandlePublisher(producer, cfg.Kafka.Topic)
}

// ProvideKafkaCandlesHandler registers the handler for the candles topic.
func ProvideKafkaCandlesHandler(store domrepo.CandleStorage, m domrepo.Metrics, cfg *config.Config) *usecase.KafkaCandlesHandler {
	return usecase.NewKafkaCandlesHandler(cfg.Kafka.Topic, store, m)
}

// ProvideMarketStream creates the Binance kline WebSocket stream.
func ProvideMarketStream(cfg *config.Config) domrepo.MarketStream {
	return binance.NewStream(
		cfg.Binance.WebSocketURL,
		cfg.Binance.Symbols,
		domrepo.NormalizeTimeframe(cfg.Binance.Interval),
		cfg.Binance.ReconnectDelay,
		cfg.Binance.PingInterval,
	)
}

// ProvideBackfiller creates the REST kline backfiller.
func ProvideBackfiller(cfg *config.Config, l *applogger.Logger) *binance.Backfiller {
	return binance.NewBackfiller(
		cfg.Binance.Symbols,
		domrepo.NormalizeTimeframe(cfg.Binance.Interval),
		cfg.Binance.Backfill,
		l,
	)
}

// ProvideCandleProcessor creates the candle processor use case.
func ProvideCandleProcessor(
	pub domrepo.Publisher,
	store domrepo.CandleStorage,
	m domrepo.Metrics,
	cfg *config.Config,
) *usecase.CandleProcessor {
	return usecase.NewCandleProcessor(pub, store, m, cfg.Backend.Type)
}

// ProvideCandleCollector creates the candle collector use case.
func ProvideCandleCollector(
	stream domrepo.MarketStream,
	processor *usecase.CandleProcessor,
	m domrepo.Metrics,
) *usecase.CandleCollector {
	// Throttle and buffer between WebSocket and the storage backend
	pipe := mid.NewIngestPipeline(processor, m,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
	return usecase.NewCandleCollector(stream, processor, m, pipe)
}

// ProvideCandleStore creates the read-side candle store for indicators.
func ProvideCandleStore(chClient *pkgch.Client, l *applogger.Logger) domrepo.CandleStore {
	store := internalrepo.NewCHCandleStore(chClient)
	store.SetLogger(l)
	return store
}

// ProvideSignalStore creates the versioned ClickHouse signal store.
func ProvideSignalStore(chClient *pkgch.Client, cfg *config.Config, l *applogger.Logger) (domrepo.SignalStore, error) {
	store := internalrepo.NewCHSignalStore(chClient, cfg.ClickHouse.Database+".signals")
	store.SetLogger(l)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("signal store init: %w", err)
	}
	return store, nil
}

// ProvideBundleProvider creates the indicator extractor.
func ProvideBundleProvider(store domrepo.CandleStore, cfg *config.Config) domsvc.BundleProvider {
	fcfg := features.DefaultConfig()
	fcfg.Timeframe = domrepo.NormalizeTimeframe(cfg.Binance.Interval)
	fcfg.Lookback = cfg.Engine.Lookback
	return features.NewExtractor(fcfg, store)
}

// ProvidePipeline assembles the decision pipeline from config.
func ProvidePipeline(cfg *config.Config) *engine.Pipeline {
	ccfg := engine.DefaultClassifierConfig()
	ccfg.ADXThreshold = cfg.Engine.ADXThreshold
	ccfg.ADXStrong = cfg.Engine.ADXStrong
	ccfg.RangeThreshold = cfg.Engine.RangeThreshold
	ccfg.ChopThreshold = cfg.Engine.ChopThreshold
	ccfg.Lookback = cfg.Engine.Lookback

	ecfg := engine.DefaultEntryFinderConfig()
	ecfg.EntryTolerance = cfg.Engine.EntryTolerance
	ecfg.PullbackMin = cfg.Engine.PullbackMin
	ecfg.PullbackMax = cfg.Engine.PullbackMax
	ecfg.BreakoutConfirmation = cfg.Engine.BreakoutConfirmation
	ecfg.Lookback = cfg.Engine.Lookback

	gcfg := engine.DefaultGateConfig()
	gcfg.ConfidenceThreshold = cfg.Engine.ConfidenceThreshold
	gcfg.Lookback = cfg.Engine.Lookback

	rcfg := engine.DefaultRiskConfig()
	rcfg.DefaultRiskPercent = cfg.Risk.DefaultRiskPercent
	rcfg.MaxRiskFraction = cfg.Risk.MaxRiskFraction

	return engine.NewPipeline(
		engine.NewClassifier(ccfg),
		engine.NewEntryFinder(ecfg),
		engine.NewGate(gcfg, engine.NewRuleScorer()),
		engine.NewPlanner(rcfg),
	)
}

// ProvideNotifier creates the Telegram notifier. Without credentials it
// degrades to a no-op.
func ProvideNotifier(cfg *config.Config, l *applogger.Logger) domsvc.Notifier {
	return notifier.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID, l)
}

// ProvideOutcomeModel creates the probabilistic outcome simulator.
func ProvideOutcomeModel(cfg *config.Config) domsvc.OutcomeModel {
	scfg := outcome.DefaultSimulatorConfig()
	if cfg.Evaluation.Seed != 0 {
		scfg.Seed = cfg.Evaluation.Seed
	}
	return outcome.NewSimulator(scfg)
}

// ProvideSignalGenerator creates the signal generation use case.
func ProvideSignalGenerator(
	provider domsvc.BundleProvider,
	pipeline *engine.Pipeline,
	store domrepo.SignalStore,
	m domrepo.Metrics,
	n domsvc.Notifier,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.SignalGenerator {
	return usecase.NewSignalGenerator(provider, pipeline, store, m, n, l, cfg.Risk.DefaultBalance)
}

// ProvideSignalEvaluator creates the evaluation use case.
func ProvideSignalEvaluator(
	store domrepo.SignalStore,
	model domsvc.OutcomeModel,
	m domrepo.Metrics,
	l *applogger.Logger,
) *usecase.SignalEvaluator {
	return usecase.NewSignalEvaluator(store, model, m, l)
}

// ProvideSignalsUseCase creates the signal read use case.
func ProvideSignalsUseCase(store domrepo.SignalStore) *usecase.SignalsUseCase {
	return usecase.NewSignalsUseCase(store)
}

// ProvideHTTPHandler creates the Echo API handler.
func ProvideHTTPHandler(
	l *applogger.Logger,
	generator *usecase.SignalGenerator,
	evaluator *usecase.SignalEvaluator,
	signals *usecase.SignalsUseCase,
	candleStore domrepo.CandleStore,
) xhttp.Handler {
	h := api.NewSignalsEchoHandler(l, generator, evaluator, signals)
	h.SetCandles(usecase.NewCandlesUseCase(candleStore))
	return h
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	collector *usecase.CandleCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaCandlesHandler,
	chClient *pkgch.Client,
	handler xhttp.Handler,
	backfiller *binance.Backfiller,
	evaluator *usecase.SignalEvaluator,
	m domrepo.Metrics,
	l *applogger.Logger,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(consumeHook(m, l))
	}
	app := server.New(cfg, collector, consumer, kh, chClient)
	app.SetHTTPHandler(handler)
	app.SetBackfiller(backfiller)
	if collector != nil {
		app.CandleProc = collector.Processor()
	}
	if cfg.Cache.Enabled {
		cli := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.Addr,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		q := queue.NewRedisQueue(l, &queue.QueueConfig{Workers: 1, RetryLimit: 2}, cli, queue.ModeProducerConsumer)
		q.RegisterJob(jobs.NewEvaluateJob(evaluator, l))
		app.SetEvaluationQueue(q, time.Hour)
	}
	return app
}

// consumeHook instruments candle consumption: the before hook stamps
// start time and trace id onto the context, the after hook records
// end-to-end handling latency, and failures are counted and logged with
// the trace id when the producer supplied one.
func consumeHook(m domrepo.Metrics, l *applogger.Logger) pkgkafka.ConsumerHook {
	return pkgkafka.NewHookChain(pkgkafka.HookFuncs{
		Before: func(ctx context.Context, topic string, km kafkago.Message, data []byte) (context.Context, kafkago.Message, []byte, error) {
			ctx = pkgkafka.WithStartTime(ctx, time.Now())
			ctx = pkgkafka.WithTraceID(ctx, pkgkafka.ExtractTraceID(km))
			return ctx, km, data, nil
		},
		After: func(ctx context.Context, topic string, km kafkago.Message, data []byte, err error) {
			if t, ok := ctx.Value(pkgkafka.CtxStartTime).(time.Time); ok {
				m.RecordLatency("kafka_consume", time.Since(t).Seconds())
			}
		},
		Err: func(ctx context.Context, topic string, km kafkago.Message, data []byte, err error) {
			m.RecordError("kafka_consume")
			fields := []applogger.Field{applogger.String("topic", topic), applogger.Error(err)}
			if id, ok := ctx.Value(pkgkafka.CtxTraceID).(string); ok && id != "" {
				fields = append(fields, applogger.String("trace_id", id))
			}
			l.Warn("kafka handler error", fields...)
		},
	})
}
