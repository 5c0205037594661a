// internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/YaganovValera/reddit-collector/pkg/backoff"
	"github.com/YaganovValera/reddit-collector/pkg/configloader"
)

// EnvPrefix — префикс переменных окружения: REDDIT_COLLECTOR_KAFKA_TOPIC и т.п.
const EnvPrefix = "REDDIT_COLLECTOR"

// Config — все настройки сервиса.
type Config struct {
	ServiceName    string          `mapstructure:"service_name" validate:"required"`
	ServiceVersion string          `mapstructure:"service_version" validate:"required"`
	Reddit         RedditConfig    `mapstructure:"reddit"`
	Kafka          KafkaConfig     `mapstructure:"kafka"`
	Scheduler      SchedulerConfig `mapstructure:"scheduler"`
	Telemetry      Telemetry       `mapstructure:"telemetry"`
	Logging        Logging         `mapstructure:"logging"`
	HTTP           HTTPConfig      `mapstructure:"http"`
}

// RedditConfig — источник листинга.
type RedditConfig struct {
	URL       string        `mapstructure:"url" validate:"required,url"`
	Limit     int           `mapstructure:"limit" validate:"min=1,max=100"`
	UserAgent string        `mapstructure:"user_agent" validate:"required"`
	Timeout   time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// KafkaConfig хранит настройки Kafka.
type KafkaConfig struct {
	Brokers        []string       `mapstructure:"brokers" validate:"required,min=1,dive,required"`
	Topic          string         `mapstructure:"topic" validate:"required"`
	Acks           string         `mapstructure:"acks" validate:"oneof=all leader none"`
	Compression    string         `mapstructure:"compression" validate:"oneof=none gzip snappy lz4 zstd"`
	Timeout        time.Duration  `mapstructure:"timeout" validate:"gt=0"`
	FlushFrequency time.Duration  `mapstructure:"flush_frequency" validate:"gte=0"`
	FlushMessages  int            `mapstructure:"flush_messages" validate:"gte=0"`
	EnqueueTimeout time.Duration  `mapstructure:"enqueue_timeout" validate:"gt=0"`
	Backoff        backoff.Config `mapstructure:"backoff"`
}

// SchedulerConfig — периодический запуск цикла.
type SchedulerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Period       time.Duration `mapstructure:"period"`
	InitialDelay time.Duration `mapstructure:"initial_delay" validate:"gte=0"`
}

// Telemetry хранит настройки OpenTelemetry.
type Telemetry struct {
	Enabled      bool    `mapstructure:"enabled"`
	OTLPEndpoint string  `mapstructure:"otel_endpoint"`
	Insecure     bool    `mapstructure:"insecure"`
	SamplerRatio float64 `mapstructure:"sampler_ratio" validate:"gte=0,lte=1"`
}

// Logging хранит настройки логгера.
type Logging struct {
	Level   string `mapstructure:"level" validate:"oneof=debug info warn error"`
	DevMode bool   `mapstructure:"dev_mode"`
}

// HTTPConfig хранит конфигурацию HTTP-сервера.
type HTTPConfig struct {
	Port            int           `mapstructure:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MetricsPath     string        `mapstructure:"metrics_path" validate:"startswith=/"`
	HealthzPath     string        `mapstructure:"healthz_path" validate:"startswith=/"`
	ReadyzPath      string        `mapstructure:"readyz_path" validate:"startswith=/"`
}

// Addr — адрес для net/http.
func (h HTTPConfig) Addr() string { return fmt.Sprintf(":%d", h.Port) }

// Defaults — значения по умолчанию по ключам viper.
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"service_name":    "reddit-collector",
		"service_version": "v1.0.0",

		"reddit.url":        "https://www.reddit.com/r/all/hot.json",
		"reddit.limit":      10,
		"reddit.user_agent": "reddit-collector/1.0",
		"reddit.timeout":    "10s",

		"kafka.brokers":                      []string{"localhost:9092"},
		"kafka.topic":                        "reddit-posts",
		"kafka.acks":                         "all",
		"kafka.compression":                  "none",
		"kafka.timeout":                      "10s",
		"kafka.flush_frequency":              "0s",
		"kafka.flush_messages":               0,
		"kafka.enqueue_timeout":              "5s",
		"kafka.backoff.initial_interval":     "500ms",
		"kafka.backoff.randomization_factor": 0.5,
		"kafka.backoff.multiplier":           1.5,
		"kafka.backoff.max_interval":         "30s",
		"kafka.backoff.max_elapsed_time":     "2m",
		"kafka.backoff.per_attempt_timeout":  "10s",

		"scheduler.enabled":       true,
		"scheduler.period":        "6s",
		"scheduler.initial_delay": "0s",

		"telemetry.enabled":       true,
		"telemetry.otel_endpoint": "otel-collector:4317",
		"telemetry.insecure":      true,
		"telemetry.sampler_ratio": 1.0,

		"logging.level":    "info",
		"logging.dev_mode": false,

		"http.port":             8080,
		"http.read_timeout":     "10s",
		"http.write_timeout":    "30s",
		"http.idle_timeout":     "60s",
		"http.shutdown_timeout": "15s",
		"http.metrics_path":     "/metrics",
		"http.healthz_path":     "/healthz",
		"http.readyz_path":      "/readyz",
	}
}

// Load загружает и валидирует конфиг. Если path пустой — читаются только ENV и defaults.
func Load(path string) (*Config, error) {
	var cfg Config
	err := configloader.Load(configloader.Options{
		Path:      path,
		EnvPrefix: EnvPrefix,
		EnvFiles:  []string{".env"},
		Defaults:  Defaults(),
	}, &cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет связи между полями, которые не выразить тегами.
func (c *Config) Validate() error {
	if c.Scheduler.Enabled && c.Scheduler.Period <= 0 {
		return fmt.Errorf("scheduler.period must be > 0 when scheduler is enabled")
	}
	if c.Telemetry.Enabled && c.Telemetry.OTLPEndpoint == "" {
		return fmt.Errorf("telemetry.otel_endpoint is required when telemetry is enabled")
	}
	// ответ ручного триггера синхронный: цикл должен уложиться в write timeout
	if c.HTTP.WriteTimeout > 0 && c.Reddit.Timeout >= c.HTTP.WriteTimeout {
		return fmt.Errorf("reddit.timeout (%v) must be less than http.write_timeout (%v)",
			c.Reddit.Timeout, c.HTTP.WriteTimeout)
	}
	return nil
}
