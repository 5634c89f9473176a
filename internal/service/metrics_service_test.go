package service

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-leave-api/internal/models"
)

func counterValue(t *testing.T, m *MetricsService, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			matched := 0
			for _, pair := range metric.GetLabel() {
				if labels[pair.GetName()] == pair.GetValue() {
					matched++
				}
			}
			if matched == len(labels) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestMetricsServiceLeaveCounters(t *testing.T) {
	m := NewMetricsService()

	m.RecordLeaveApplication(true)
	m.RecordLeaveTransition(models.LeaveStatusPending, models.LeaveStatusPendingAdmin)
	m.RecordLeaveTransition(models.LeaveStatusPending, models.LeaveStatusPendingAdmin)
	m.RecordNotification()
	m.RecordNotificationFailure("store")

	assert.Equal(t, float64(1), counterValue(t, m, "leave_applications_total", map[string]string{"emergency": "true"}))
	assert.Equal(t, float64(2), counterValue(t, m, "leave_transitions_total", map[string]string{"from": "PENDING", "to": "PENDING_ADMIN"}))
	assert.Equal(t, float64(1), counterValue(t, m, "leave_notifications_total", nil))
	assert.Equal(t, float64(1), counterValue(t, m, "leave_notification_failures_total", map[string]string{"stage": "store"}))
}

func TestMetricsServiceHandler(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/leaves", http.StatusOK, 20*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "http_requests_total"))
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	assert.NotPanics(t, func() {
		m.RecordLeaveApplication(false)
		m.RecordLeaveTransition(models.LeaveStatusPending, models.LeaveStatusApproved)
		m.RecordNotificationFailure("deliver")
	})
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
