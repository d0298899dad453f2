// File: internal/pkg/metrics/http_metrics.go
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTPMetrics HTTP 指标收集器
type HTTPMetrics struct {
	// 请求总数（按路由模板、方法、状态码分组）
	RequestsTotal *prometheus.CounterVec

	// 请求延迟直方图（按路由模板分组）
	RequestDuration *prometheus.HistogramVec

	// 当前进行中的请求数，SSE 连接会在整个战斗期间计入
	RequestsInProgress *prometheus.GaugeVec
}

// HTTPBuckets HTTP 请求延迟 buckets（秒）
// 普通接口落在前几档，SSE 流按整场战斗时长落在末尾几档
var HTTPBuckets = []float64{0.05, 0.1, 0.2, 0.5, 1, 5, 15, 30, 60, 120}

// NewHTTPMetricsWithRegistry 创建 HTTP 指标收集器（使用自定义注册表）
func NewHTTPMetricsWithRegistry(namespace string, registerer prometheus.Registerer) *HTTPMetrics {
	factory := promauto.With(registerer)

	return &HTTPMetrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests by service, route template, method, and status code",
			},
			[]string{"service", "route", "method", "status_code"},
		),

		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency histogram by service and route template",
				Buckets:   HTTPBuckets,
			},
			[]string{"service", "route"},
		),

		RequestsInProgress: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_progress",
				Help:      "Current number of HTTP requests being processed by service",
			},
			[]string{"service"},
		),
	}
}

// RecordRequest 记录一次请求
//   - route: 路由模板（如 "/api/battle/:id"，而非具体 ID）
func (m *HTTPMetrics) RecordRequest(service, route, method string, statusCode int, duration time.Duration) {
	service = normalizeServiceName(service)
	route = NormalizeRoute(route)

	m.RequestsTotal.WithLabelValues(service, route, method, strconv.Itoa(statusCode)).Inc()
	m.RequestDuration.WithLabelValues(service, route).Observe(duration.Seconds())
}

// IncInProgress 增加当前进行中的请求数
func (m *HTTPMetrics) IncInProgress(service string) {
	m.RequestsInProgress.WithLabelValues(normalizeServiceName(service)).Inc()
}

// DecInProgress 减少当前进行中的请求数
func (m *HTTPMetrics) DecInProgress(service string) {
	m.RequestsInProgress.WithLabelValues(normalizeServiceName(service)).Dec()
}

// IsHealthCheckEndpoint 健康检查与指标端点不计入 HTTP 指标
func IsHealthCheckEndpoint(path string) bool {
	switch path {
	case "/metrics", "/health", "/healthz", "/readyz", "/livez":
		return true
	default:
		return false
	}
}

// NormalizeRoute 未匹配到路由（404）时 echo 返回空模板，统一归为 unknown 防止基数爆炸
func NormalizeRoute(route string) string {
	if route == "" {
		return "unknown"
	}
	return route
}
