package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jimrulison/CustomermindIQ-sub005/internal/core/domain"
	appLogger "github.com/jimrulison/CustomermindIQ-sub005/internal/infra/logger"
	"github.com/jimrulison/CustomermindIQ-sub005/internal/infra/security"
	"github.com/jimrulison/CustomermindIQ-sub005/internal/usecase"
)

// RegistrationHandler serves account signup.
type RegistrationHandler struct {
	registration *usecase.RegistrationService
	logger       *zap.Logger
}

func NewRegistrationHandler(registration *usecase.RegistrationService, logger *zap.Logger) *RegistrationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationHandler{registration: registration, logger: logger}
}

// RegisterRoutes mounts the signup endpoint.
func (h *RegistrationHandler) RegisterRoutes(r gin.IRouter, middlewares ...gin.HandlerFunc) {
	register := append([]gin.HandlerFunc{}, middlewares...)
	register = append(register, h.Register)
	r.POST("/register", register...)
}

// Register provisions a new account.
func (h *RegistrationHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "email and password are required"))
		return
	}

	account, err := h.registration.Register(c.Request.Context(), usecase.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Tier:     domain.SubscriptionTier(req.Tier),
	})
	if err != nil {
		h.respondRegisterError(c, req.Email, err)
		return
	}

	c.JSON(http.StatusCreated, newAccountSummary(*account))
}

func (h *RegistrationHandler) respondRegisterError(c *gin.Context, email string, err error) {
	var validation *security.PasswordValidationError
	if errors.As(err, &validation) {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, validation.Error()))
		return
	}

	switch {
	case errors.Is(err, usecase.ErrInvalidEmail):
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid email address"))
	case errors.Is(err, domain.ErrInvalidTier):
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "unknown subscription tier"))
	case errors.Is(err, usecase.ErrDuplicateEmail):
		c.JSON(http.StatusConflict, NewErrorResponse(c, "email already registered"))
	case errors.Is(err, usecase.ErrStoreUnavailable):
		h.logger.Error("registration store failure",
			zap.String("email", appLogger.MaskEmail(email)),
			zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, NewErrorResponse(c, "service temporarily unavailable"))
	default:
		h.logger.Error("registration failed",
			zap.String("email", appLogger.MaskEmail(email)),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "registration failed"))
	}
}
