package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/YaganovValera/reddit-collector/internal/app"
	"github.com/YaganovValera/reddit-collector/internal/config"
	"github.com/YaganovValera/reddit-collector/pkg/logger"
)

func main() {
	var cfgFile string

	root := &cobra.Command{
		Use:           "reddit-collector",
		Short:         "Reddit hot feed → Kafka collector",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// 1. Загрузить конфиг
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}

			// 2. Инициализация логгера
			log, err := logger.New(logger.Config{Level: cfg.Logging.Level, DevMode: cfg.Logging.DevMode})
			if err != nil {
				return fmt.Errorf("logger init error: %w", err)
			}
			defer log.Sync()

			// 3. Контекст с отменой по сигналам
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			log.Info("starting service",
				zap.String("service.name", cfg.ServiceName),
				zap.String("service.version", cfg.ServiceVersion),
				zap.String("reddit.url", cfg.Reddit.URL),
				zap.String("kafka.topic", cfg.Kafka.Topic),
			)

			// 4. Запуск основного приложения
			if err := app.Run(ctx, cfg, log); err != nil {
				log.Error("application exited with error", zap.Error(err))
				return err
			}
			log.Info("shutdown complete")
			return nil
		},
	}

	root.Flags().StringVar(&cfgFile, "config", "", "path to config file (empty → env and defaults only)")
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
