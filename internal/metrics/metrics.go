package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики регистрируются один раз при загрузке пакета в глобальном реестре.
// Каждый процесс отдаёт свои: бот через Serve на METRICS_ADDR, админка на /metrics.
var (
	UpdatesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pitashka_bot_updates_processed_total",
		Help: "Total number of processed Telegram updates by kind",
	}, []string{"kind"})

	UpdateDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pitashka_bot_update_processing_seconds",
		Help:    "Time spent processing one update",
		Buckets: prometheus.DefBuckets,
	})

	ErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pitashka_errors_total",
		Help: "Total number of errors by component",
	}, []string{"component"})

	OracleRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pitashka_oracle_requests_total",
		Help: "Nutrition oracle requests by operation and outcome",
	}, []string{"operation", "outcome"})

	OracleDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pitashka_oracle_request_seconds",
		Help:    "Duration of oracle requests including retries",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
	}, []string{"operation"})

	OracleCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pitashka_oracle_cache_total",
		Help: "Oracle response cache lookups by result",
	}, []string{"result"})

	FoodItemsLogged = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pitashka_food_items_total",
		Help: "Food items processed by outcome",
	}, []string{"outcome"})

	WorkoutsLogged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pitashka_workouts_logged_total",
		Help: "Total number of logged workouts",
	})

	SummaryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pitashka_summary_seconds",
		Help:    "Time spent building period summaries",
		Buckets: prometheus.DefBuckets,
	}, []string{"period"})
)
