package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Webhook 处理结果标签
const (
	OutcomeUpdated          = "updated"
	OutcomeUnchanged        = "unchanged"
	OutcomeFailed           = "failed"
	OutcomeNotFound         = "not_found"
	OutcomeBadRequest       = "bad_request"
	OutcomeUnauthorized     = "unauthorized"
	OutcomeMethodNotAllowed = "method_not_allowed"
)

// Registry 服务指标注册表
var Registry = prometheus.NewRegistry()

var (
	// WebhookEvents Shiprocket 推送处理结果计数
	WebhookEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shiprocket_webhook_events_total",
		Help: "Shiprocket webhook events by outcome.",
	}, []string{"outcome"})

	// StatusTransitions 订单状态流转计数
	StatusTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_transitions_total",
		Help: "Order status transitions applied from shipment events.",
	}, []string{"from", "to"})

	// SyncFailures 物流同步失败计数
	SyncFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shipment_sync_failures_total",
		Help: "Shipment sync failures by stage.",
	}, []string{"stage"})

	// SyncConflicts 乐观锁冲突计数
	SyncConflicts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "shipment_sync_conflicts_total",
		Help: "Order version conflicts hit while applying shipment updates.",
	})

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by route, method and status code.",
	}, []string{"method", "route", "code"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by route and method.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)

func init() {
	Registry.MustRegister(
		WebhookEvents,
		StatusTransitions,
		SyncFailures,
		SyncConflicts,
		httpRequests,
		httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// ObserveWebhook 记录推送处理结果
func ObserveWebhook(outcome string) {
	WebhookEvents.WithLabelValues(outcome).Inc()
}

// ObserveTransition 记录状态流转
func ObserveTransition(from, to string) {
	StatusTransitions.WithLabelValues(from, to).Inc()
}

// ObserveSyncFailure 记录同步失败
func ObserveSyncFailure(stage string) {
	SyncFailures.WithLabelValues(stage).Inc()
}

// ObserveSyncConflict 记录版本冲突
func ObserveSyncConflict() {
	SyncConflicts.Inc()
}

// Handler 指标暴露接口
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}

// GinMiddleware HTTP 请求指标中间件，未匹配路由统一记为 unmatched
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		httpRequests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
