package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	authMiddleware "github.com/samirwankhede/stayinsights/internal/middleware"
	authService "github.com/samirwankhede/stayinsights/internal/service/auth"
)

type AuthHandler struct {
	log    *zap.Logger
	svc    *authService.AuthService
	secret string
}

func NewAuthHandler(log *zap.Logger, svc *authService.AuthService, secret string) *AuthHandler {
	return &AuthHandler{log: log, svc: svc, secret: secret}
}

func (h *AuthHandler) Register(r *gin.Engine) {
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", h.login)
	}

	protected := r.Group("/v1/auth")
	protected.Use(authMiddleware.Middleware(h.secret))
	{
		protected.GET("/me", h.me)
	}
}

func (h *AuthHandler) login(c *gin.Context) {
	var req authService.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, authService.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		h.log.Error("Login failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"id":   c.GetString(authMiddleware.CtxUserID),
		"role": c.GetString(authMiddleware.CtxRole),
	})
}
