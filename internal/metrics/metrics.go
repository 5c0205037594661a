package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// CyclesTotal — завершённые циклы по триггеру (scheduled/manual) и исходу.
	CyclesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "collector",
		Subsystem: "ingest",
		Name:      "cycles_total",
		Help:      "Total number of ingestion cycles by trigger and outcome",
	}, []string{"trigger", "outcome"})

	// InFlightCycles — циклы, выполняющиеся прямо сейчас.
	InFlightCycles = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "collector",
		Subsystem: "ingest",
		Name:      "cycles_in_flight",
		Help:      "Number of ingestion cycles currently running",
	})

	CycleDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "collector",
		Subsystem: "ingest",
		Name:      "cycle_duration_seconds",
		Help:      "Duration of a full fetch-and-publish cycle (seconds)",
		Buckets:   prometheus.DefBuckets,
	}, []string{"trigger"})

	// ItemsFetched — посты, полученные из листинга.
	ItemsFetched = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "collector",
		Subsystem: "reddit",
		Name:      "items_fetched_total",
		Help:      "Total number of posts extracted from fetched listings",
	})

	// FetchErrors — неудачные запросы листинга (сеть, статус, декодирование).
	FetchErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "collector",
		Subsystem: "reddit",
		Name:      "fetch_errors_total",
		Help:      "Total number of failed listing fetches",
	})

	FetchLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "collector",
		Subsystem: "reddit",
		Name:      "fetch_latency_seconds",
		Help:      "Latency of listing HTTP requests (seconds)",
		Buckets:   prometheus.DefBuckets,
	})

	// ItemsPublished — payload'ы, принятые producer'ом.
	ItemsPublished = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "collector",
		Subsystem: "kafka",
		Name:      "items_published_total",
		Help:      "Total number of post payloads handed to the Kafka producer",
	})

	// PublishErrors — число ошибок при публикации сообщений в Kafka.
	PublishErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "collector",
		Subsystem: "kafka",
		Name:      "publish_errors_total",
		Help:      "Total number of errors when publishing to Kafka",
	})
)

// Register регистрирует все метрики в заданном реестре.
// Можно вызвать без аргументов, чтобы зарегистрировать в DefaultRegisterer.
func Register(registerers ...prometheus.Registerer) {
	once.Do(func() {
		var reg prometheus.Registerer
		if len(registerers) > 0 && registerers[0] != nil {
			reg = registerers[0]
		} else {
			reg = prometheus.DefaultRegisterer
		}
		reg.MustRegister(
			CyclesTotal,
			InFlightCycles,
			CycleDuration,
			ItemsFetched,
			FetchErrors,
			FetchLatency,
			ItemsPublished,
			PublishErrors,
		)
	})
}
