// Package scheduler периодически запускает одну задачу.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/YaganovValera/reddit-collector/pkg/logger"
)

// Job — периодическая задача. ctx не отменяется при остановке
// планировщика: начатый запуск доводится до конца.
type Job func(ctx context.Context)

// Config задаёт расписание.
type Config struct {
	Period       time.Duration // интервал между запусками
	InitialDelay time.Duration // пауза перед первым запуском
}

func (c Config) validate() error {
	if c.Period <= 0 {
		return fmt.Errorf("scheduler: period must be > 0, got %v", c.Period)
	}
	if c.InitialDelay < 0 {
		return fmt.Errorf("scheduler: initial delay must be >= 0, got %v", c.InitialDelay)
	}
	return nil
}

// Scheduler запускает job сразу после InitialDelay, затем каждые Period.
// Запуски последовательны: если job дольше Period, пропущенные тики
// схлопываются в один (поведение time.Ticker).
type Scheduler struct {
	cfg Config
	job Job
	log *logger.Logger
}

// New создаёт планировщик.
func New(cfg Config, job Job, log *logger.Logger) (*Scheduler, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if job == nil {
		return nil, fmt.Errorf("scheduler: job is nil")
	}
	return &Scheduler{cfg: cfg, job: job, log: log.Named("scheduler")}, nil
}

// Run блокируется до отмены ctx и возвращает ctx.Err().
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info("scheduler started",
		zap.Duration("period", s.cfg.Period),
		zap.Duration("initial_delay", s.cfg.InitialDelay),
	)
	defer s.log.Info("scheduler stopped")

	if s.cfg.InitialDelay > 0 {
		timer := time.NewTimer(s.cfg.InitialDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	s.runOnce(ctx)

	ticker := time.NewTicker(s.cfg.Period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			// тик и отмена могли прийти одновременно
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("scheduled job panicked", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()
	s.job(context.WithoutCancel(ctx))
}
