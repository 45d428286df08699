package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jimrulison/CustomermindIQ-sub005/internal/core/domain"
	appLogger "github.com/jimrulison/CustomermindIQ-sub005/internal/infra/logger"
	"github.com/jimrulison/CustomermindIQ-sub005/internal/transport/http/middleware"
	"github.com/jimrulison/CustomermindIQ-sub005/internal/usecase"
)

// AuthHandler serves login and session introspection.
type AuthHandler struct {
	auth   *usecase.AuthService
	logger *zap.Logger
}

func NewAuthHandler(auth *usecase.AuthService, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{auth: auth, logger: logger}
}

// RegisterRoutes mounts the auth endpoints. Extra middleware (rate limiting)
// applies to login only.
func (h *AuthHandler) RegisterRoutes(r gin.IRouter, authRequired gin.HandlerFunc, loginMiddlewares ...gin.HandlerFunc) {
	login := append([]gin.HandlerFunc{}, loginMiddlewares...)
	login = append(login, h.Login)
	r.POST("/login", login...)
	r.GET("/session", authRequired, h.Session)
}

// Login authenticates an email/password pair and returns a session token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "email and password are required"))
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Email, req.Password, req.RememberMe)
	if err != nil {
		h.respondLoginError(c, req.Email, err)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		Account:   newAccountSummary(result.Account),
		Support:   newSupportSummary(result.Support),
	})
}

func (h *AuthHandler) respondLoginError(c *gin.Context, email string, err error) {
	var locked *usecase.AccountLockedError
	if errors.As(err, &locked) {
		retryAfter := int(locked.RetryAfter.Seconds()) + 1
		c.Header("Retry-After", strconv.Itoa(retryAfter))
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c,
			"account temporarily locked, retry in "+locked.RetryAfter.Round(time.Second).String()))
		return
	}

	switch {
	case errors.Is(err, usecase.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid email or password"))
	case errors.Is(err, usecase.ErrAccountDisabled):
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "account is disabled"))
	case errors.Is(err, usecase.ErrStoreUnavailable):
		h.logger.Error("login store failure",
			zap.String("email", appLogger.MaskEmail(email)),
			zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, NewErrorResponse(c, "service temporarily unavailable"))
	default:
		h.logger.Error("login failed",
			zap.String("email", appLogger.MaskEmail(email)),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "login failed"))
	}
}

// Session returns the claims of the presented session token.
func (h *AuthHandler) Session(c *gin.Context) {
	claims, ok := middleware.SessionClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	resp := SessionResponse{
		AccountID: claims.AccountID(),
		Email:     claims.Email,
		Role:      string(claims.Role),
		Tier:      string(claims.Tier),
		Support:   newSupportSummary(domain.SupportLevelFor(claims.Tier)),
	}
	if claims.IssuedAt != nil {
		resp.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.Time
	}

	c.JSON(http.StatusOK, resp)
}
