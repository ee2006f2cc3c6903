package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"TradePulse/pkg/util"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Logger struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logger"`
	Backend struct {
		Type string `yaml:"type"`
	} `yaml:"backend"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Cache struct {
		Enabled  bool          `yaml:"enabled"`
		Addr     string        `yaml:"addr"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		TTL      time.Duration `yaml:"ttl"`
	} `yaml:"cache"`
	Binance struct {
		WebSocketURL   string        `yaml:"websocket_url"`
		Symbols        []string      `yaml:"symbols"`
		Interval       string        `yaml:"interval"`
		Backfill       int           `yaml:"backfill"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"binance"`
	Engine struct {
		ConfidenceThreshold  float64 `yaml:"confidence_threshold"`
		ADXThreshold         float64 `yaml:"adx_threshold"`
		ADXStrong            float64 `yaml:"adx_strong"`
		RangeThreshold       float64 `yaml:"range_threshold"`
		ChopThreshold        float64 `yaml:"chop_threshold"`
		Lookback             int     `yaml:"lookback"`
		EntryTolerance       float64 `yaml:"entry_tolerance"`
		BreakoutConfirmation int     `yaml:"breakout_confirmation"`
		PullbackMin          float64 `yaml:"pullback_min"`
		PullbackMax          float64 `yaml:"pullback_max"`
	} `yaml:"engine"`
	Risk struct {
		DefaultRiskPercent float64 `yaml:"default_risk_percent"`
		MaxRiskFraction    float64 `yaml:"max_risk_fraction"`
		DefaultBalance     float64 `yaml:"default_balance"`
	} `yaml:"risk"`
	Evaluation struct {
		Seed int64 `yaml:"seed"`
	} `yaml:"evaluation"`
	Telegram struct {
		Token  string `yaml:"token"`
		ChatID string `yaml:"chat_id"`
	} `yaml:"telegram"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Binance.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("BACKEND"); v != "" {
		c.Backend.Type = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("TELEGRAM_TOKEN"); v != "" {
		c.Telegram.Token = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("BACKFILL_DEPTH"); v != "" {
		c.Binance.Backfill = util.ParseIntDefault(v, c.Binance.Backfill)
	}

	return c, nil
}

// applyDefaults fills the engine and risk tunables. Zero means "not set"
// for all of them; none has a meaningful zero value.
func (c *Config) applyDefaults() {
	e := &c.Engine
	if e.ConfidenceThreshold == 0 {
		e.ConfidenceThreshold = 0.70
	}
	if e.ADXThreshold == 0 {
		e.ADXThreshold = 25
	}
	if e.ADXStrong == 0 {
		e.ADXStrong = 30
	}
	if e.RangeThreshold == 0 {
		e.RangeThreshold = 0.02
	}
	if e.ChopThreshold == 0 {
		e.ChopThreshold = 0.4
	}
	if e.Lookback == 0 {
		e.Lookback = 50
	}
	if e.EntryTolerance == 0 {
		e.EntryTolerance = 0.005
	}
	if e.BreakoutConfirmation == 0 {
		e.BreakoutConfirmation = 2
	}
	if e.PullbackMin == 0 {
		e.PullbackMin = 0.01
	}
	if e.PullbackMax == 0 {
		e.PullbackMax = 0.03
	}

	r := &c.Risk
	if r.DefaultRiskPercent == 0 {
		r.DefaultRiskPercent = 2.0
	}
	if r.MaxRiskFraction == 0 {
		r.MaxRiskFraction = 0.10
	}
	if r.DefaultBalance == 0 {
		r.DefaultBalance = 20
	}

	if c.Binance.Interval == "" {
		c.Binance.Interval = "1h"
	}
	if c.Binance.Backfill == 0 {
		c.Binance.Backfill = 500
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Backend.Type == "" {
		return fmt.Errorf("backend.type is required")
	}
	if c.Backend.Type != "kafka" && c.Backend.Type != "clickhouse" {
		return fmt.Errorf("backend.type must be 'kafka' or 'clickhouse', got '%s'", c.Backend.Type)
	}
	if len(c.Binance.Symbols) == 0 {
		return fmt.Errorf("binance.symbols cannot be empty")
	}
	if c.Engine.ConfidenceThreshold < 0 || c.Engine.ConfidenceThreshold > 1 {
		return fmt.Errorf("engine.confidence_threshold must be in [0,1]")
	}
	if c.Risk.MaxRiskFraction <= 0 || c.Risk.MaxRiskFraction > 1 {
		return fmt.Errorf("risk.max_risk_fraction must be in (0,1]")
	}
	return nil
}
