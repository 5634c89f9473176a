package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/sma-leave-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP layer and the leave workflow.
type MetricsService struct {
	registry             *prometheus.Registry
	handler              http.Handler
	requestDuration      *prometheus.HistogramVec
	requestTotal         *prometheus.CounterVec
	leaveApplications    *prometheus.CounterVec
	leaveTransitions     *prometheus.CounterVec
	notificationsCreated prometheus.Counter
	notificationFailures *prometheus.CounterVec
}

// NewMetricsService registers the collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	leaveApplications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "leave_applications_total",
		Help: "Leave requests submitted by students",
	}, []string{"emergency"})

	leaveTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "leave_transitions_total",
		Help: "Committed leave status transitions",
	}, []string{"from", "to"})

	notificationsCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "leave_notifications_total",
		Help: "Notifications persisted for leave transitions",
	})

	notificationFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "leave_notification_failures_total",
		Help: "Notifications that could not be stored or delivered",
	}, []string{"stage"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, leaveApplications, leaveTransitions, notificationsCreated, notificationFailures, goroutines)

	return &MetricsService{
		registry:             registry,
		handler:              promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:      requestDuration,
		requestTotal:         requestTotal,
		leaveApplications:    leaveApplications,
		leaveTransitions:     leaveTransitions,
		notificationsCreated: notificationsCreated,
		notificationFailures: notificationFailures,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordLeaveApplication counts a submitted request.
func (m *MetricsService) RecordLeaveApplication(emergency bool) {
	if m == nil {
		return
	}
	m.leaveApplications.WithLabelValues(fmt.Sprintf("%t", emergency)).Inc()
}

// RecordLeaveTransition counts a committed decision.
func (m *MetricsService) RecordLeaveTransition(from, to models.LeaveStatus) {
	if m == nil {
		return
	}
	m.leaveTransitions.WithLabelValues(string(from), string(to)).Inc()
}

// RecordNotification counts a stored notification.
func (m *MetricsService) RecordNotification() {
	if m == nil {
		return
	}
	m.notificationsCreated.Inc()
}

// RecordNotificationFailure counts a notification lost at the given stage ("store" or "deliver").
func (m *MetricsService) RecordNotificationFailure(stage string) {
	if m == nil {
		return
	}
	m.notificationFailures.WithLabelValues(stage).Inc()
}
