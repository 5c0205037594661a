package reddit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/YaganovValera/reddit-collector/internal/metrics"
	"github.com/YaganovValera/reddit-collector/pkg/logger"
)

var tracer = otel.Tracer("collector/reddit")

// ErrUnexpectedStatus — API ответил не 2xx.
var ErrUnexpectedStatus = errors.New("reddit: unexpected status")

// Config описывает endpoint листинга.
type Config struct {
	URL       string        // e.g. https://www.reddit.com/r/all/hot.json
	Limit     int           // параметр limit, 1..100
	UserAgent string        // Reddit отклоняет запросы с пустым User-Agent
	Timeout   time.Duration // единственный таймаут на весь запрос
}

func (c *Config) applyDefaults() {
	if c.Limit <= 0 {
		c.Limit = 10
	}
	if c.UserAgent == "" {
		c.UserAgent = "reddit-collector/1.0"
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
}

func (c Config) validate() error {
	switch {
	case c.URL == "":
		return fmt.Errorf("reddit: URL is required")
	case c.Limit > 100:
		return fmt.Errorf("reddit: limit must be <= 100, got %d", c.Limit)
	default:
		return nil
	}
}

// Client выполняет GET листинга. Безопасен для конкурентного использования:
// resty.Client поверх общего http.Transport.
//
// Ретраев нет, ошибка запроса сразу возвращается из Fetch.
type Client struct {
	http *resty.Client
	cfg  Config
	log  *logger.Logger
}

// NewClient создаёт клиента с otelhttp-транспортом.
func NewClient(cfg Config, log *logger.Logger) (*Client, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	hc := resty.New().
		SetTransport(otelhttp.NewTransport(http.DefaultTransport)).
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "application/json")

	return &Client{http: hc, cfg: cfg, log: log.Named("reddit")}, nil
}

// Fetch запрашивает листинг и декодирует его в Response.
// Ответ без data не ошибка: Response.HasData() == false.
func (c *Client) Fetch(ctx context.Context) (*Response, error) {
	ctx, span := tracer.Start(ctx, "Fetch")
	defer span.End()
	span.SetAttributes(attribute.String("reddit.url", c.cfg.URL), attribute.Int("reddit.limit", c.cfg.Limit))

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("limit", strconv.Itoa(c.cfg.Limit)).
		Get(c.cfg.URL)
	metrics.FetchLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return nil, fmt.Errorf("reddit: get %s: %w", c.cfg.URL, err)
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode()))
	if !resp.IsSuccess() {
		err := fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode())
		span.RecordError(err)
		span.SetStatus(codes.Error, "unexpected status")
		return nil, err
	}

	var out Response
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "decode failed")
		return nil, fmt.Errorf("reddit: decode listing: %w", err)
	}

	c.log.WithContext(ctx).Debug("listing fetched",
		zap.Int("status", resp.StatusCode()),
		zap.Int("bytes", len(resp.Body())),
		zap.Bool("has_data", out.HasData()),
	)
	return &out, nil
}
