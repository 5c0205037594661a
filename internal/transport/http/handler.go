// Package http содержит ручной триггер цикла ингеста.
package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/YaganovValera/reddit-collector/internal/ingest"
	"github.com/YaganovValera/reddit-collector/pkg/httpserver"
	"github.com/YaganovValera/reddit-collector/pkg/logger"
)

const (
	FetchPath = "/api/reddit/fetch"

	// FetchResponse отдаётся всегда, независимо от исхода цикла.
	FetchResponse = "Posts sent to Kafka successfully!"

	HeaderItemsFetched   = "X-Items-Fetched"
	HeaderItemsPublished = "X-Items-Published"
)

// CycleRunner запускает один цикл ингеста.
type CycleRunner interface {
	Run(ctx context.Context, trigger ingest.Trigger) ingest.Summary
}

// Handler обслуживает ручной запуск.
type Handler struct {
	cycle CycleRunner
	log   *logger.Logger
}

func NewHandler(cycle CycleRunner, log *logger.Logger) *Handler {
	return &Handler{cycle: cycle, log: log.Named("fetch-handler")}
}

// Fetch синхронно выполняет цикл и отвечает фиксированным текстом.
// Отключение клиента не прерывает цикл.
func (h *Handler) Fetch(w http.ResponseWriter, r *http.Request) {
	sum := h.cycle.Run(context.WithoutCancel(r.Context()), ingest.TriggerManual)

	h.log.WithContext(r.Context()).Info("manual fetch finished",
		zap.String("outcome", string(sum.Outcome)),
		zap.Int("fetched", sum.Fetched),
		zap.Int("published", sum.Published),
	)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set(HeaderItemsFetched, strconv.Itoa(sum.Fetched))
	w.Header().Set(HeaderItemsPublished, strconv.Itoa(sum.Published))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(FetchResponse))
}

// Routes монтирует GET FetchPath.
func Routes(h *Handler) httpserver.RouteRegistrar {
	return func(r chi.Router) {
		r.Get(FetchPath, h.Fetch)
	}
}
