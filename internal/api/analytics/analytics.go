package analytics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	analyticsService "github.com/samirwankhede/stayinsights/internal/analytics"
	jwtMiddleware "github.com/samirwankhede/stayinsights/internal/middleware"
	"github.com/samirwankhede/stayinsights/internal/reservations"
)

// ReportService is the analytics engine as the handlers see it.
type ReportService interface {
	Dashboard(ctx context.Context, caller analyticsService.Caller, months int) ([]byte, error)
	History(ctx context.Context, caller analyticsService.Caller, year int) ([]byte, error)
	Reservations(ctx context.Context, caller analyticsService.Caller, req analyticsService.ListRequest) ([]byte, error)
}

type AnalyticsHandler struct {
	log    *zap.Logger
	svc    ReportService
	secret string
}

func NewAnalyticsHandler(log *zap.Logger, svc ReportService, secret string) *AnalyticsHandler {
	return &AnalyticsHandler{log: log, svc: svc, secret: secret}
}

func (h *AnalyticsHandler) Register(r *gin.Engine) {
	g := r.Group("/v1/analytics")
	g.Use(jwtMiddleware.Middleware(h.secret))
	{
		g.GET("/dashboard", h.dashboard)
		g.GET("/history", h.history)
		g.GET("/reservations", h.reservations)
	}
}

func callerFrom(c *gin.Context) analyticsService.Caller {
	return analyticsService.Caller{
		Role:    c.GetString(jwtMiddleware.CtxRole),
		OwnerID: c.GetString(jwtMiddleware.CtxUserID),
	}
}

func (h *AnalyticsHandler) dashboard(c *gin.Context) {
	months, ok := intQuery(c, "months", 0)
	if !ok {
		return
	}
	b, err := h.svc.Dashboard(c.Request.Context(), callerFrom(c), months)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", b)
}

func (h *AnalyticsHandler) history(c *gin.Context) {
	year, ok := intQuery(c, "year", time.Now().Year()-1)
	if !ok {
		return
	}
	b, err := h.svc.History(c.Request.Context(), callerFrom(c), year)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", b)
}

func (h *AnalyticsHandler) reservations(c *gin.Context) {
	from, err := time.Parse("2006-01-02", c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must be YYYY-MM-DD"})
		return
	}
	to, err := time.Parse("2006-01-02", c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to must be YYYY-MM-DD"})
		return
	}
	offset, ok := intQuery(c, "offset", 0)
	if !ok {
		return
	}
	limit, ok := intQuery(c, "limit", 0)
	if !ok {
		return
	}

	b, err := h.svc.Reservations(c.Request.Context(), callerFrom(c), analyticsService.ListRequest{
		From:   from,
		To:     to,
		Offset: offset,
		Limit:  limit,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", b)
}

func intQuery(c *gin.Context, name string, def int) (int, bool) {
	v := c.Query(name)
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad " + name})
		return 0, false
	}
	return n, true
}

// writeError maps engine errors so callers can tell configuration problems
// from upstream failures worth retrying.
func writeError(c *gin.Context, log *zap.Logger, err error) {
	var ue *reservations.UpstreamError
	switch {
	case errors.Is(err, analyticsService.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case reservations.IsConfigError(err):
		log.Error("reservation source not configured", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "reservation source not configured", "kind": "configuration"})
	case errors.As(err, &ue):
		log.Warn("reservation source failed", zap.Error(err))
		if ue.Retryable() {
			c.Header("Retry-After", "30")
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "reservation source failed", "kind": "upstream", "retryable": ue.Retryable()})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "timed out", "kind": "upstream", "retryable": true})
	default:
		log.Error("analytics request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
