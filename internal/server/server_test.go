package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"binwahab-store/internal/config"
	appmw "binwahab-store/internal/middleware"
	"binwahab-store/internal/model"
	"binwahab-store/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type stubUsers struct{}

func (stubUsers) Sync(_ context.Context, actor model.Actor) (*model.User, error) {
	return &model.User{ID: actor.UserID, Email: actor.Email, Role: actor.Role}, nil
}

type stubDashboard struct{}

func (stubDashboard) Summary(context.Context) *service.DashboardSummary {
	return &service.DashboardSummary{
		OrdersByStatus: map[model.OrderStatus]int64{},
		GeneratedAt:    time.Now(),
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{
		FrontendURL: "http://shop.test",
		Auth:        config.Auth{JWTSecret: testSecret, Issuer: "binwahab"},
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(log, cfg, Services{User: stubUsers{}, Dashboard: stubDashboard{}})
}

func token(t *testing.T, role model.Role) string {
	t.Helper()
	tok, err := appmw.SignToken([]byte(testSecret), "binwahab",
		model.Actor{UserID: "user-1", Email: "aminah@example.com", Role: role}, time.Hour)
	require.NoError(t, err)
	return tok
}

func do(s *Server, method, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestRoutes(t *testing.T) {
	s := newTestServer(t)
	customer := token(t, model.RoleCustomer)
	admin := token(t, model.RoleAdmin)

	t.Run("health is public", func(t *testing.T) {
		rec := do(s, http.MethodGet, "/api/health", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("customer routes need a token", func(t *testing.T) {
		rec := do(s, http.MethodGet, "/api/me", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		var body struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "UNAUTHORIZED", body.Error.Code)
	})

	t.Run("me", func(t *testing.T) {
		rec := do(s, http.MethodGet, "/api/me", customer)
		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "user-1", body["id"])
		assert.Equal(t, "CUSTOMER", body["role"])
	})

	t.Run("admin routes reject customers", func(t *testing.T) {
		rec := do(s, http.MethodGet, "/api/admin/dashboard", customer)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin dashboard", func(t *testing.T) {
		rec := do(s, http.MethodGet, "/api/admin/dashboard", admin)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("token from another issuer", func(t *testing.T) {
		tok, err := appmw.SignToken([]byte(testSecret), "elsewhere",
			model.Actor{UserID: "user-1", Role: model.RoleAdmin}, time.Hour)
		require.NoError(t, err)

		rec := do(s, http.MethodGet, "/api/admin/dashboard", tok)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
