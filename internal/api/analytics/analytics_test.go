package analytics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	analyticsService "github.com/samirwankhede/stayinsights/internal/analytics"
	jwtMiddleware "github.com/samirwankhede/stayinsights/internal/middleware"
	"github.com/samirwankhede/stayinsights/internal/reservations"
)

const secret = "test-secret"

func init() { gin.SetMode(gin.TestMode) }

type fakeReports struct {
	caller analyticsService.Caller
	months int
	year   int
	list   analyticsService.ListRequest
	err    error
}

func (f *fakeReports) Dashboard(_ context.Context, caller analyticsService.Caller, months int) ([]byte, error) {
	f.caller, f.months = caller, months
	return []byte(`{"kind":"dashboard"}`), f.err
}

func (f *fakeReports) History(_ context.Context, caller analyticsService.Caller, year int) ([]byte, error) {
	f.caller, f.year = caller, year
	return []byte(`{"kind":"history"}`), f.err
}

func (f *fakeReports) Reservations(_ context.Context, caller analyticsService.Caller, req analyticsService.ListRequest) ([]byte, error) {
	f.caller, f.list = caller, req
	return []byte(`{"total":0}`), f.err
}

func token(t *testing.T, uid, role string) string {
	t.Helper()
	tok, err := jwtMiddleware.Issue(secret, uid, role, time.Hour)
	require.NoError(t, err)
	return tok
}

func get(r http.Handler, path, tok string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func newRouter(svc ReportService) *gin.Engine {
	r := gin.New()
	NewAnalyticsHandler(zap.NewNop(), svc, secret).Register(r)
	return r
}

func TestDashboardPassesCallerFromToken(t *testing.T) {
	svc := &fakeReports{}
	r := newRouter(svc)

	w := get(r, "/v1/analytics/dashboard?months=6", token(t, "owner-7", "Owner"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"kind":"dashboard"}`, w.Body.String())
	assert.Equal(t, analyticsService.Caller{Role: "owner", OwnerID: "owner-7"}, svc.caller)
	assert.Equal(t, 6, svc.months)
}

func TestEndpointsRequireToken(t *testing.T) {
	r := newRouter(&fakeReports{})
	for _, p := range []string{"/v1/analytics/dashboard", "/v1/analytics/history", "/v1/analytics/reservations"} {
		assert.Equal(t, http.StatusUnauthorized, get(r, p, "").Code, p)
	}
}

func TestHistoryAndReservationsParams(t *testing.T) {
	svc := &fakeReports{}
	r := newRouter(svc)
	tok := token(t, "a1", "admin")

	require.Equal(t, http.StatusOK, get(r, "/v1/analytics/history?year=2024", tok).Code)
	assert.Equal(t, 2024, svc.year)

	w := get(r, "/v1/analytics/reservations?from=2025-01-01&to=2025-02-01&offset=10&limit=5", tok)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), svc.list.From)
	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), svc.list.To)
	assert.Equal(t, 10, svc.list.Offset)
	assert.Equal(t, 5, svc.list.Limit)
}

func TestBadParams(t *testing.T) {
	r := newRouter(&fakeReports{})
	tok := token(t, "a1", "admin")

	for _, p := range []string{
		"/v1/analytics/dashboard?months=six",
		"/v1/analytics/history?year=last",
		"/v1/analytics/reservations?from=01/01/2025&to=2025-02-01",
		"/v1/analytics/reservations?from=2025-01-01",
		"/v1/analytics/reservations?from=2025-01-01&to=2025-02-01&limit=x",
	} {
		assert.Equal(t, http.StatusBadRequest, get(r, p, tok).Code, p)
	}
}

func TestErrorMapping(t *testing.T) {
	tok := token(t, "a1", "admin")
	cases := []struct {
		name string
		err  error
		code int
		body string
	}{
		{"invalid", fmt.Errorf("%w: window too long", analyticsService.ErrInvalidRequest), http.StatusBadRequest, ""},
		{"configuration", fmt.Errorf("fetch: %w", reservations.ErrNotConfigured), http.StatusServiceUnavailable, `"kind":"configuration"`},
		{"upstream retryable", &reservations.UpstreamError{Op: "list", StatusCode: 503, Err: errors.New("unavailable")}, http.StatusBadGateway, `"retryable":true`},
		{"upstream permanent", &reservations.UpstreamError{Op: "list", StatusCode: 401, Err: errors.New("denied")}, http.StatusBadGateway, `"retryable":false`},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, ""},
		{"other", errors.New("boom"), http.StatusInternalServerError, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := get(newRouter(&fakeReports{err: tc.err}), "/v1/analytics/dashboard", tok)
			assert.Equal(t, tc.code, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tc.body), w.Body.String())
		})
	}
}
