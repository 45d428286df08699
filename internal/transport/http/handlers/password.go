package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jimrulison/CustomermindIQ-sub005/internal/infra/security"
	"github.com/jimrulison/CustomermindIQ-sub005/internal/transport/http/middleware"
	"github.com/jimrulison/CustomermindIQ-sub005/internal/usecase"
)

// PasswordHandler serves self-service password changes.
type PasswordHandler struct {
	accounts *usecase.AccountService
	logger   *zap.Logger
}

func NewPasswordHandler(accounts *usecase.AccountService, logger *zap.Logger) *PasswordHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PasswordHandler{accounts: accounts, logger: logger}
}

// RegisterRoutes mounts the password change endpoint. The caller must attach
// auth middleware; the account id comes from the session claims.
func (h *PasswordHandler) RegisterRoutes(r gin.IRouter) {
	r.POST("/password/change", h.ChangePassword)
}

// ChangePassword swaps the caller's credential after verifying the current
// password.
func (h *PasswordHandler) ChangePassword(c *gin.Context) {
	claims, ok := middleware.SessionClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "current and new passwords are required"))
		return
	}

	err := h.accounts.ChangePassword(c.Request.Context(), claims.AccountID(), req.CurrentPassword, req.NewPassword)
	if err != nil {
		h.respondChangeError(c, claims.AccountID(), err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "password changed"})
}

func (h *PasswordHandler) respondChangeError(c *gin.Context, accountID string, err error) {
	var validation *security.PasswordValidationError
	if errors.As(err, &validation) {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, validation.Error()))
		return
	}

	switch {
	case errors.Is(err, usecase.ErrWrongPassword):
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "current password does not match"))
	case errors.Is(err, usecase.ErrAccountNotFound):
		c.JSON(http.StatusNotFound, NewErrorResponse(c, "account not found"))
	case errors.Is(err, usecase.ErrStoreUnavailable):
		h.logger.Error("password change store failure",
			zap.String("account_id", accountID),
			zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, NewErrorResponse(c, "service temporarily unavailable"))
	default:
		h.logger.Error("password change failed",
			zap.String("account_id", accountID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "password change failed"))
	}
}
