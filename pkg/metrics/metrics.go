package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP 指标
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// 文档存储指标
	storeMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_mutations_total",
			Help: "Number of committed document mutations",
		},
		[]string{"operation"},
	)

	persistDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "store_persist_duration_seconds",
			Help:    "Time spent writing the document to storage",
			Buckets: prometheus.DefBuckets,
		},
	)

	// PersistFailures 写入失败次数（失败后进入重试队列）
	PersistFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "store_persist_failures_total",
			Help: "Number of failed document writes",
		},
	)

	// PersistDropped 重试耗尽或队列已满被丢弃的写入
	PersistDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "store_persist_dropped_total",
			Help: "Number of document writes dropped after retries",
		},
	)

	notificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_emitted_total",
			Help: "Number of notifications emitted by type",
		},
		[]string{"type"},
	)
)

// RecordHTTPRequest 记录一次 HTTP 请求
func RecordHTTPRequest(method, endpoint, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordMutation 记录一次文档变更
func RecordMutation(operation string) {
	storeMutationsTotal.WithLabelValues(operation).Inc()
}

// RecordPersist 记录一次写入耗时
func RecordPersist(duration time.Duration, err error) {
	persistDuration.Observe(duration.Seconds())
	if err != nil {
		PersistFailures.Inc()
	}
}

// RecordNotifications 记录产生的通知
func RecordNotifications(notificationType string, n int) {
	if n <= 0 {
		return
	}
	notificationsTotal.WithLabelValues(notificationType).Add(float64(n))
}
