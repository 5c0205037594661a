// pkg/kafka/producer/producer.go
package producer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/dnwe/otelsarama"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/YaganovValera/reddit-collector/pkg/backoff"
	"github.com/YaganovValera/reddit-collector/pkg/kafka"
	"github.com/YaganovValera/reddit-collector/pkg/logger"
)

// ErrEnqueueTimeout возвращается, если очередь продьюсера не приняла
// сообщение за Config.EnqueueTimeout.
var ErrEnqueueTimeout = errors.New("kafka producer: enqueue timeout")

// -----------------------------------------------------------------------------
// Prometheus-метрики
// -----------------------------------------------------------------------------

var producerMetrics = struct {
	ConnectAttempts prometheus.Counter
	ConnectErrors   prometheus.Counter
	Enqueued        *prometheus.CounterVec
	EnqueueErrors   *prometheus.CounterVec
	DeliveryErrors  *prometheus.CounterVec
	EnqueueLatency  prometheus.Histogram
	PingErrors      prometheus.Counter
}{
	ConnectAttempts: promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "collector", Subsystem: "kafka_producer", Name: "connect_attempts_total",
		Help: "Kafka producer connect attempts",
	}),
	ConnectErrors: promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "collector", Subsystem: "kafka_producer", Name: "connect_errors_total",
		Help: "Kafka producer connect errors",
	}),
	Enqueued: promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "collector", Subsystem: "kafka_producer", Name: "enqueued_total",
		Help: "Messages accepted by the producer queue",
	}, []string{"topic"}),
	EnqueueErrors: promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "collector", Subsystem: "kafka_producer", Name: "enqueue_errors_total",
		Help: "Messages rejected before reaching the producer queue",
	}, []string{"topic"}),
	DeliveryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "collector", Subsystem: "kafka_producer", Name: "delivery_errors_total",
		Help: "Asynchronous delivery failures reported by the producer",
	}, []string{"topic"}),
	EnqueueLatency: promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "collector", Subsystem: "kafka_producer", Name: "enqueue_latency_seconds",
		Help:    "Time spent handing a message to the producer queue (seconds)",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
	}),
	PingErrors: promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "collector", Subsystem: "kafka_producer", Name: "ping_errors_total",
		Help: "Ping errors",
	}),
}

var tracer = otel.Tracer("kafka-producer")

// -----------------------------------------------------------------------------
// Configuration
// -----------------------------------------------------------------------------

// Config groups all tunables for the asynchronous producer.
//
// Zero values are replaced with defaults by applyDefaults().
type Config struct {
	// Brokers — список адресов Kafka-брокеров (bootstrap).
	Brokers []string

	// RequiredAcks: "all" (дефолт) | "leader" | "none".
	RequiredAcks string

	// Timeout — максимальное время ожидания ack от кластера.
	Timeout time.Duration

	// Compression: "none" (дефолт), "gzip", "snappy", "lz4", "zstd".
	Compression string

	// FlushFrequency / FlushMessages — пороги смыва буфера, ноль → выкл.
	FlushFrequency time.Duration
	FlushMessages  int

	// EnqueueTimeout ограничивает ожидание места во входной очереди.
	EnqueueTimeout time.Duration

	// Backoff — стратегия ретраев первичного подключения к кластеру.
	Backoff backoff.Config
}

func (c *Config) applyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.RequiredAcks == "" {
		c.RequiredAcks = "all"
	}
	if c.Compression == "" {
		c.Compression = "none"
	}
	if c.EnqueueTimeout <= 0 {
		c.EnqueueTimeout = 5 * time.Second
	}
}

func (c Config) validate() error {
	if len(c.Brokers) == 0 {
		return fmt.Errorf("kafka producer: brokers required")
	}
	return nil
}

func buildSaramaConfig(c Config) (*sarama.Config, error) {
	sc := sarama.NewConfig()

	switch strings.ToLower(c.RequiredAcks) {
	case "all":
		sc.Producer.RequiredAcks = sarama.WaitForAll
	case "leader":
		sc.Producer.RequiredAcks = sarama.WaitForLocal
	case "none":
		sc.Producer.RequiredAcks = sarama.NoResponse
	default:
		return nil, fmt.Errorf("kafka producer: invalid RequiredAcks %q", c.RequiredAcks)
	}

	// fire-and-forget: успехи не читаем, ошибки доставки сливаются в фоне
	sc.Producer.Return.Successes = false
	sc.Producer.Return.Errors = true
	sc.Producer.Timeout = c.Timeout
	sc.Producer.Partitioner = sarama.NewHashPartitioner

	if c.FlushFrequency > 0 {
		sc.Producer.Flush.Frequency = c.FlushFrequency
	}
	if c.FlushMessages > 0 {
		sc.Producer.Flush.Messages = c.FlushMessages
	}

	switch strings.ToLower(c.Compression) {
	case "none":
		sc.Producer.Compression = sarama.CompressionNone
	case "gzip":
		sc.Producer.Compression = sarama.CompressionGZIP
	case "snappy":
		sc.Producer.Compression = sarama.CompressionSnappy
	case "lz4":
		sc.Producer.Compression = sarama.CompressionLZ4
	case "zstd":
		sc.Producer.Compression = sarama.CompressionZSTD
	default:
		return nil, fmt.Errorf("kafka producer: invalid Compression %q", c.Compression)
	}

	return sc, nil
}

// -----------------------------------------------------------------------------
// Producer implementation
// -----------------------------------------------------------------------------

type asyncProducer struct {
	prod           sarama.AsyncProducer
	client         sarama.Client
	log            *logger.Logger
	enqueueTimeout time.Duration

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

var _ kafka.Producer = (*asyncProducer)(nil)

// New подключается к кластеру с back-off и возвращает асинхронный продьюсер,
// обёрнутый для OpenTelemetry.
func New(ctx context.Context, cfg Config, log *logger.Logger) (kafka.Producer, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	log = log.Named("kafka-producer")

	sc, err := buildSaramaConfig(cfg)
	if err != nil {
		return nil, err
	}

	var client sarama.Client
	connect := func(ctx context.Context) error {
		producerMetrics.ConnectAttempts.Inc()
		c, err := sarama.NewClient(cfg.Brokers, sc)
		if err != nil {
			producerMetrics.ConnectErrors.Inc()
			return err
		}
		client = c
		return nil
	}

	ctxConn, span := tracer.Start(ctx, "Connect",
		trace.WithAttributes(attribute.StringSlice("brokers", cfg.Brokers)))
	if err := backoff.Execute(ctxConn, cfg.Backoff, log, "kafka-connect", connect); err != nil {
		span.RecordError(err)
		span.End()
		log.Error("kafka producer connect failed", zap.Error(err))
		return nil, fmt.Errorf("kafka producer: connect: %w", err)
	}
	span.End()

	ap, err := sarama.NewAsyncProducerFromClient(client)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("kafka producer: new async producer: %w", err)
	}

	log.Info("kafka producer ready", zap.Strings("brokers", cfg.Brokers))
	return newAsyncProducer(otelsarama.WrapAsyncProducer(sc, ap), client, cfg.EnqueueTimeout, log), nil
}

func newAsyncProducer(prod sarama.AsyncProducer, client sarama.Client, enqueueTimeout time.Duration, log *logger.Logger) *asyncProducer {
	p := &asyncProducer{
		prod:           prod,
		client:         client,
		log:            log,
		enqueueTimeout: enqueueTimeout,
		done:           make(chan struct{}),
	}
	go p.drainErrors()
	return p
}

// drainErrors читает ошибки доставки до закрытия продьюсера.
func (p *asyncProducer) drainErrors() {
	defer close(p.done)
	for perr := range p.prod.Errors() {
		topic := ""
		if perr.Msg != nil {
			topic = perr.Msg.Topic
		}
		producerMetrics.DeliveryErrors.WithLabelValues(topic).Inc()
		p.log.Warn("kafka delivery failed", zap.String("topic", topic), zap.Error(perr.Err))
	}
}

// Publish кладёт сообщение во входную очередь Sarama и возвращается,
// не дожидаясь ack брокера.
func (p *asyncProducer) Publish(ctx context.Context, topic string, key, value []byte) error {
	_, span := tracer.Start(ctx, "Publish", trace.WithAttributes(attribute.String("topic", topic)))
	defer span.End()

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Value: sarama.ByteEncoder(value),
	}
	if len(key) > 0 {
		msg.Key = sarama.ByteEncoder(key)
	}

	err := p.enqueue(ctx, msg)
	if err != nil {
		producerMetrics.EnqueueErrors.WithLabelValues(topic).Inc()
		span.RecordError(err)
		return err
	}
	producerMetrics.Enqueued.WithLabelValues(topic).Inc()
	return nil
}

func (p *asyncProducer) enqueue(ctx context.Context, msg *sarama.ProducerMessage) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return kafka.ErrProducerClosed
	}

	start := time.Now()
	defer func() { producerMetrics.EnqueueLatency.Observe(time.Since(start).Seconds()) }()

	timer := time.NewTimer(p.enqueueTimeout)
	defer timer.Stop()

	select {
	case p.prod.Input() <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrEnqueueTimeout
	}
}

// Ping обновляет метаданные клиента, проверяя доступность кластера.
func (p *asyncProducer) Ping(ctx context.Context) error {
	_, span := tracer.Start(ctx, "Ping")
	defer span.End()

	if p.client == nil {
		return fmt.Errorf("kafka producer: no client")
	}
	if err := p.client.RefreshMetadata(); err != nil {
		producerMetrics.PingErrors.Inc()
		span.RecordError(err)
		return err
	}
	return nil
}

// Close смывает очередь, дожидается слива ошибок и закрывает клиент.
// Повторный вызов ничего не делает.
func (p *asyncProducer) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	p.prod.AsyncClose()
	<-p.done

	if p.client != nil && !p.client.Closed() {
		if err := p.client.Close(); err != nil {
			p.log.Error("client close failed", zap.Error(err))
			return err
		}
	}
	p.log.Info("kafka producer closed")
	return nil
}
