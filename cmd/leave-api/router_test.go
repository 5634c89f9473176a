package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-leave-api/internal/handler"
	"github.com/noah-isme/sma-leave-api/internal/models"
	"github.com/noah-isme/sma-leave-api/internal/service"
	"github.com/noah-isme/sma-leave-api/pkg/config"
)

func newTestRouter(t *testing.T) (*gin.Engine, *service.TokenService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	tokens := service.NewTokenService(service.TokenConfig{Secret: "router-secret"})
	r := gin.New()
	registerRoutes(r, &config.Config{Env: config.EnvProduction, APIPrefix: "/api/v1"}, routeDeps{
		tokens:        tokens,
		leaves:        handler.NewLeaveHandler(nil, nil),
		notifications: handler.NewNotificationHandler(nil),
		roster:        handler.NewRosterHandler(nil),
		metrics:       handler.NewMetricsHandler(service.NewMetricsService(), nil),
	})
	return r, tokens
}

func request(r *gin.Engine, method, path, token string) int {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec.Code
}

func TestRoutesRequireAuthentication(t *testing.T) {
	r, _ := newTestRouter(t)

	assert.Equal(t, http.StatusOK, request(r, http.MethodGet, "/health", ""))
	assert.Equal(t, http.StatusOK, request(r, http.MethodGet, "/ready", ""))
	assert.Equal(t, http.StatusNotFound, request(r, http.MethodGet, "/docs/index.html", ""))
	assert.Equal(t, http.StatusUnauthorized, request(r, http.MethodGet, "/api/v1/leaves/mine", ""))
	assert.Equal(t, http.StatusUnauthorized, request(r, http.MethodGet, "/api/v1/notifications", ""))
}

func TestRoutesEnforceRoles(t *testing.T) {
	r, tokens := newTestRouter(t)
	student, err := tokens.Sign(models.User{ID: "stu-1", Role: models.RoleStudent}, time.Minute)
	require.NoError(t, err)
	coordinator, err := tokens.Sign(models.User{ID: "coord-1", Role: models.RoleCoordinator}, time.Minute)
	require.NoError(t, err)
	admin, err := tokens.Sign(models.User{ID: "admin-1", Role: models.RoleAdmin}, time.Minute)
	require.NoError(t, err)

	cases := []struct {
		method string
		path   string
		token  string
	}{
		{http.MethodGet, "/api/v1/leaves", student},
		{http.MethodGet, "/api/v1/leaves", coordinator},
		{http.MethodPost, "/api/v1/leaves/l-1/decision", student},
		{http.MethodPost, "/api/v1/leaves", coordinator},
		{http.MethodPost, "/api/v1/leaves", admin},
		{http.MethodGet, "/api/v1/students/stu-2/leaves", student},
		{http.MethodGet, "/api/v1/classes/Class%20A/leaves", student},
		{http.MethodPost, "/api/v1/students/stu-1/approve", admin},
		{http.MethodGet, "/api/v1/admin/emergency-queue", coordinator},
		{http.MethodPost, "/api/v1/admin/coordinators/coord-1/approve", coordinator},
	}
	for _, tc := range cases {
		assert.Equal(t, http.StatusForbidden, request(r, tc.method, tc.path, tc.token), "%s %s", tc.method, tc.path)
	}
}
