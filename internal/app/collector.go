// internal/app/collector.go
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/YaganovValera/reddit-collector/internal/config"
	"github.com/YaganovValera/reddit-collector/internal/ingest"
	"github.com/YaganovValera/reddit-collector/internal/metrics"
	"github.com/YaganovValera/reddit-collector/internal/reddit"
	"github.com/YaganovValera/reddit-collector/internal/scheduler"
	transporthttp "github.com/YaganovValera/reddit-collector/internal/transport/http"
	"github.com/YaganovValera/reddit-collector/pkg/httpserver"
	"github.com/YaganovValera/reddit-collector/pkg/kafka/producer"
	"github.com/YaganovValera/reddit-collector/pkg/logger"
	"github.com/YaganovValera/reddit-collector/pkg/middleware"
	"github.com/YaganovValera/reddit-collector/pkg/telemetry"
)

// Run поднимает сервис и блокируется до отмены ctx.
func Run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	metrics.Register(nil)
	middleware.RegisterMetrics(nil)

	// Инициализируем трассировку
	shutdownTracer, err := telemetry.InitTracer(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		Endpoint:       cfg.Telemetry.OTLPEndpoint,
		ServiceName:    cfg.ServiceName,
		ServiceVersion: cfg.ServiceVersion,
		Insecure:       cfg.Telemetry.Insecure,
		SamplerRatio:   cfg.Telemetry.SamplerRatio,
	}, log)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	// ctx к этому моменту уже отменён, экспортёру нужен живой
	defer shutdownSafe(ctx, "telemetry", func() error { return shutdownTracer(context.WithoutCancel(ctx)) }, log)

	// 1) Kafka Producer
	kafkaProd, err := producer.New(ctx, producer.Config{
		Brokers:        cfg.Kafka.Brokers,
		RequiredAcks:   cfg.Kafka.Acks,
		Timeout:        cfg.Kafka.Timeout,
		Compression:    cfg.Kafka.Compression,
		FlushFrequency: cfg.Kafka.FlushFrequency,
		FlushMessages:  cfg.Kafka.FlushMessages,
		EnqueueTimeout: cfg.Kafka.EnqueueTimeout,
		Backoff:        cfg.Kafka.Backoff,
	}, log)
	if err != nil {
		return fmt.Errorf("kafka producer init: %w", err)
	}
	defer shutdownSafe(ctx, "kafka-producer", kafkaProd.Close, log)

	// 2) Reddit client + цикл
	redditClient, err := reddit.NewClient(reddit.Config{
		URL:       cfg.Reddit.URL,
		Limit:     cfg.Reddit.Limit,
		UserAgent: cfg.Reddit.UserAgent,
		Timeout:   cfg.Reddit.Timeout,
	}, log)
	if err != nil {
		return fmt.Errorf("reddit client init: %w", err)
	}
	cycle := ingest.NewCycle(redditClient, kafkaProd, cfg.Kafka.Topic, log)

	// 3) HTTP-сервер с ручным триггером
	httpSrv, err := httpserver.New(
		httpserver.Config{
			Addr:            cfg.HTTP.Addr(),
			ReadTimeout:     cfg.HTTP.ReadTimeout,
			WriteTimeout:    cfg.HTTP.WriteTimeout,
			IdleTimeout:     cfg.HTTP.IdleTimeout,
			ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
			MetricsPath:     cfg.HTTP.MetricsPath,
			HealthzPath:     cfg.HTTP.HealthzPath,
			ReadyzPath:      cfg.HTTP.ReadyzPath,
		},
		kafkaProd.Ping,
		log,
		transporthttp.Routes(transporthttp.NewHandler(cycle, log)),
	)
	if err != nil {
		return fmt.Errorf("httpserver init: %w", err)
	}

	// 4) Периодический запуск
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched, err = scheduler.New(scheduler.Config{
			Period:       cfg.Scheduler.Period,
			InitialDelay: cfg.Scheduler.InitialDelay,
		}, func(ctx context.Context) {
			cycle.Run(ctx, ingest.TriggerScheduled)
		}, log)
		if err != nil {
			return fmt.Errorf("scheduler init: %w", err)
		}
	} else {
		log.Info("scheduler disabled, only manual trigger is available",
			zap.String("path", transporthttp.FetchPath))
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return httpSrv.Start(ctx) })
	if sched != nil {
		g.Go(func() error { return sched.Run(ctx) })
	}

	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) {
			log.WithContext(ctx).Info("collector stopped by context")
			return nil
		}
		return err
	}
	return nil
}

// shutdownSafe оборачивает вызов Close()/Shutdown() с логированием
func shutdownSafe(ctx context.Context, name string, fn func() error, log *logger.Logger) {
	log.WithContext(ctx).Info(fmt.Sprintf("%s: shutting down", name))
	if err := fn(); err != nil {
		log.WithContext(ctx).Error(fmt.Sprintf("%s shutdown error", name), zap.Error(err))
	} else {
		log.WithContext(ctx).Info(fmt.Sprintf("%s: shutdown complete", name))
	}
}
