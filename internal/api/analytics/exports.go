package analytics

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	jwtMiddleware "github.com/samirwankhede/stayinsights/internal/middleware"
	redisx "github.com/samirwankhede/stayinsights/internal/redis"
	exportsService "github.com/samirwankhede/stayinsights/internal/service/exports"
)

const maxExportMonths = 36

type ExportsHandler struct {
	log      *zap.Logger
	svc      *exportsService.ExportService
	elevated func(role string) bool
	secret   string
}

func NewExportsHandler(log *zap.Logger, svc *exportsService.ExportService, elevated func(role string) bool, secret string) *ExportsHandler {
	return &ExportsHandler{log: log, svc: svc, elevated: elevated, secret: secret}
}

func (h *ExportsHandler) Register(r *gin.Engine) {
	g := r.Group("/v1/analytics/exports")
	g.Use(jwtMiddleware.Middleware(h.secret))
	{
		g.POST("", h.create)
		g.GET("/:id", h.get)
	}
}

func (h *ExportsHandler) create(c *gin.Context) {
	var req exportsService.Request
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Months < 0 || req.Months > maxExportMonths {
		c.JSON(http.StatusBadRequest, gin.H{"error": "months out of range"})
		return
	}

	e, err := h.svc.Request(c.Request.Context(), callerFrom(c), req)
	if err != nil {
		h.log.Error("export request failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "could not queue export"})
		return
	}
	c.Header("Location", "/v1/analytics/exports/"+e.ID)
	c.JSON(http.StatusAccepted, e)
}

func (h *ExportsHandler) get(c *gin.Context) {
	role := c.GetString(jwtMiddleware.CtxRole)
	e, err := h.svc.Get(c.Request.Context(), c.Param("id"), c.GetString(jwtMiddleware.CtxUserID), h.elevated(role))
	switch {
	case errors.Is(err, redisx.ErrExportNotFound), errors.Is(err, exportsService.ErrForbidden):
		// other users' exports are indistinguishable from missing ones
		c.JSON(http.StatusNotFound, gin.H{"error": "export not found"})
	case err != nil:
		h.log.Error("export lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	default:
		c.JSON(http.StatusOK, e)
	}
}
