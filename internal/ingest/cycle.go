package ingest

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/YaganovValera/reddit-collector/internal/metrics"
	"github.com/YaganovValera/reddit-collector/internal/reddit"
	"github.com/YaganovValera/reddit-collector/pkg/kafka"
	"github.com/YaganovValera/reddit-collector/pkg/logger"
)

var tracer = otel.Tracer("collector/ingest")

// Fetcher отдаёт один снимок листинга.
type Fetcher interface {
	Fetch(ctx context.Context) (*reddit.Response, error)
}

// Trigger — источник запуска цикла.
type Trigger string

const (
	TriggerScheduled Trigger = "scheduled"
	TriggerManual    Trigger = "manual"
)

// Outcome — итог цикла. Ошибки публикации отдельных постов исход не меняют.
type Outcome string

const (
	OutcomeCompleted   Outcome = "completed"
	OutcomeNoData      Outcome = "no_data"
	OutcomeFetchFailed Outcome = "fetch_failed"
)

// Summary описывает результат одного цикла.
type Summary struct {
	Trigger   Trigger
	Outcome   Outcome
	Fetched   int
	Published int
	Failed    int
	Duration  time.Duration
}

// FormatPayload собирает сообщение "<title> - <url>" без экранирования.
func FormatPayload(p reddit.Post) string {
	return p.Title + " - " + p.URL
}

// Cycle — fetch → publish каждого поста в topic. Состояния между
// запусками нет, поэтому Run можно вызывать конкурентно.
type Cycle struct {
	fetcher  Fetcher
	producer kafka.Producer
	topic    string
	log      *logger.Logger
}

// NewCycle создаёт цикл ингеста.
func NewCycle(fetcher Fetcher, producer kafka.Producer, topic string, log *logger.Logger) *Cycle {
	return &Cycle{
		fetcher:  fetcher,
		producer: producer,
		topic:    topic,
		log:      log.Named("ingest"),
	}
}

// Run выполняет один цикл. Ошибки не возвращаются наружу: они логируются
// и отражаются в Summary.
func (c *Cycle) Run(ctx context.Context, trigger Trigger) (sum Summary) {
	ctx, span := tracer.Start(ctx, "Cycle",
		trace.WithAttributes(
			attribute.String("ingest.trigger", string(trigger)),
			attribute.String("messaging.destination", c.topic),
		))
	defer span.End()

	metrics.InFlightCycles.Inc()
	defer metrics.InFlightCycles.Dec()

	start := time.Now()
	sum = Summary{Trigger: trigger}
	log := c.log.WithContext(ctx).With(zap.String("trigger", string(trigger)))

	defer func() {
		sum.Duration = time.Since(start)
		metrics.CyclesTotal.WithLabelValues(string(trigger), string(sum.Outcome)).Inc()
		metrics.CycleDuration.WithLabelValues(string(trigger)).Observe(sum.Duration.Seconds())
		span.SetAttributes(
			attribute.String("ingest.outcome", string(sum.Outcome)),
			attribute.Int("ingest.fetched", sum.Fetched),
			attribute.Int("ingest.published", sum.Published),
			attribute.Int("ingest.failed", sum.Failed),
		)
	}()

	resp, err := c.fetcher.Fetch(ctx)
	if err != nil {
		metrics.FetchErrors.Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		log.Error("fetch listing failed", zap.Error(err))
		sum.Outcome = OutcomeFetchFailed
		return sum
	}
	if !resp.HasData() {
		log.Warn("listing has no data, nothing to publish")
		sum.Outcome = OutcomeNoData
		return sum
	}

	posts := resp.Posts()
	sum.Fetched = len(posts)
	metrics.ItemsFetched.Add(float64(len(posts)))

	for i, p := range posts {
		payload := FormatPayload(p)
		log.Debug("sending post", zap.Int("index", i), zap.String("title", p.Title), zap.String("url", p.URL))
		if err := c.producer.Publish(ctx, c.topic, nil, []byte(payload)); err != nil {
			sum.Failed++
			metrics.PublishErrors.Inc()
			span.RecordError(err)
			log.Error("publish post failed",
				zap.Int("index", i),
				zap.String("payload", payload),
				zap.Error(err),
			)
			continue
		}
		sum.Published++
		metrics.ItemsPublished.Inc()
	}

	sum.Outcome = OutcomeCompleted
	log.Info("cycle completed",
		zap.Int("fetched", sum.Fetched),
		zap.Int("published", sum.Published),
		zap.Int("failed", sum.Failed),
		zap.Duration("elapsed", time.Since(start)),
	)
	return sum
}
