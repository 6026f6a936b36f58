package admin

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/samirwankhede/stayinsights/internal/analytics"
	jwtMiddleware "github.com/samirwankhede/stayinsights/internal/middleware"
)

// PropertyRegistrar adds owner/property pairs to the local directory.
type PropertyRegistrar interface {
	AddProperty(ctx context.Context, ownerID, externalID, name string) error
}

type AdminHandler struct {
	log           *zap.Logger
	scopes        *analytics.ScopeResolver
	registrar     PropertyRegistrar
	elevatedRoles []string
	secret        string
}

func NewAdminHandler(log *zap.Logger, scopes *analytics.ScopeResolver, registrar PropertyRegistrar, elevatedRoles []string, secret string) *AdminHandler {
	return &AdminHandler{log: log, scopes: scopes, registrar: registrar, elevatedRoles: elevatedRoles, secret: secret}
}

func (h *AdminHandler) Register(r *gin.Engine) {
	g := r.Group("/admin")
	g.Use(jwtMiddleware.Middleware(h.secret), jwtMiddleware.RequireRole(h.elevatedRoles...))
	{
		g.GET("/scopes/:ownerId", h.scope)
		g.POST("/properties", h.addProperty)
	}
}

// scope shows which properties an owner's reports would cover.
func (h *AdminHandler) scope(c *gin.Context) {
	ownerID := c.Param("ownerId")
	s := h.scopes.Resolve(c.Request.Context(), analytics.RoleOwner, ownerID)
	ids := s.PropertyIDs
	if ids == nil {
		ids = []string{}
	}
	c.JSON(http.StatusOK, gin.H{
		"ownerId":     ownerID,
		"propertyIds": ids,
		"empty":       s.Empty(),
	})
}

type addPropertyRequest struct {
	OwnerID    string `json:"ownerId" binding:"required"`
	ExternalID string `json:"externalId" binding:"required"`
	Name       string `json:"name"`
}

func (h *AdminHandler) addProperty(c *gin.Context) {
	var in addPropertyRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.registrar.AddProperty(c.Request.Context(), in.OwnerID, in.ExternalID, in.Name); err != nil {
		h.log.Error("add property failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusCreated, in)
}
