// Package metrics Prometheus 指标
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry 服务专用的指标注册表
var Registry = newRegistry()

var factory = promauto.With(Registry)

var (
	// HTTPRequestsTotal HTTP 请求总数
	HTTPRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "srm_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration HTTP 请求耗时
	HTTPRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "srm_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// SupplierRegistrations 供应商注册数
	SupplierRegistrations = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "srm_supplier_registrations_total",
			Help: "Total number of supplier registrations",
		},
		[]string{"supplier_type"},
	)

	// AuditActions 审核操作数
	AuditActions = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "srm_audit_actions_total",
			Help: "Total number of audit gateway actions",
		},
		[]string{"action", "result"},
	)

	// ProvisioningFailures 权限开通失败数
	ProvisioningFailures = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "srm_provisioning_failures_total",
			Help: "Total number of failed provisioning steps",
		},
		[]string{"terminal", "step"},
	)
)

func newRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return registry
}

// Handler 指标导出处理器
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
