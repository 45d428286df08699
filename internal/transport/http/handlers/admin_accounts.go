package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jimrulison/CustomermindIQ-sub005/internal/core/domain"
	"github.com/jimrulison/CustomermindIQ-sub005/internal/core/port"
	"github.com/jimrulison/CustomermindIQ-sub005/internal/transport/http/middleware"
	"github.com/jimrulison/CustomermindIQ-sub005/internal/usecase"
)

// AdminAccountsHandler serves admin account management.
type AdminAccountsHandler struct {
	accounts *usecase.AccountService
	logger   *zap.Logger
}

func NewAdminAccountsHandler(accounts *usecase.AccountService, logger *zap.Logger) *AdminAccountsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminAccountsHandler{accounts: accounts, logger: logger}
}

// RegisterRoutes mounts the admin account endpoints. The caller must attach
// auth and role middleware to the group.
func (h *AdminAccountsHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("", h.List)
	r.GET("/:id", h.Get)
	r.PATCH("/:id/active", h.SetActive)
	r.PATCH("/:id/role", h.ChangeRole)
	r.PATCH("/:id/tier", h.ChangeTier)
	r.POST("/:id/lockout/reset", h.ResetLockout)
}

var adminErrorCases = []ErrorCase{
	{Err: usecase.ErrAccountNotFound, Status: http.StatusNotFound, Message: "account not found"},
	{Err: domain.ErrInvalidRole, Status: http.StatusBadRequest, Message: "unknown role"},
	{Err: domain.ErrInvalidTier, Status: http.StatusBadRequest, Message: "unknown subscription tier"},
	{Err: usecase.ErrStoreUnavailable, Status: http.StatusServiceUnavailable, Message: "service temporarily unavailable"},
}

// List returns accounts matching optional role, tier, and active filters.
func (h *AdminAccountsHandler) List(c *gin.Context) {
	filter := port.AccountFilter{}

	if role := c.Query("role"); role != "" {
		parsed, err := domain.ParseRole(role)
		if err != nil {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "unknown role"))
			return
		}
		filter.Role = parsed
	}

	if tier := c.Query("tier"); tier != "" {
		parsed, err := domain.ParseTier(tier)
		if err != nil {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "unknown subscription tier"))
			return
		}
		filter.Tier = parsed
	}

	if active := c.Query("active"); active != "" {
		parsed, err := strconv.ParseBool(active)
		if err != nil {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "active must be true or false"))
			return
		}
		filter.IsActive = &parsed
	}

	filter.Limit = queryInt(c, "limit", 50)
	filter.Offset = queryInt(c, "offset", 0)

	accounts, err := h.accounts.List(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("list accounts failed", zap.Error(err))
		RespondWithMappedError(c, err, adminErrorCases,
			http.StatusInternalServerError, "list accounts failed")
		return
	}

	resp := ListAccountsResponse{Accounts: make([]AccountSummary, 0, len(accounts))}
	for _, account := range accounts {
		resp.Accounts = append(resp.Accounts, newAccountSummary(account))
	}
	c.JSON(http.StatusOK, resp)
}

// Get returns a single account.
func (h *AdminAccountsHandler) Get(c *gin.Context) {
	account, err := h.accounts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, adminErrorCases,
			http.StatusInternalServerError, "get account failed")
		return
	}
	c.JSON(http.StatusOK, newAccountSummary(*account))
}

// SetActive enables or disables an account.
func (h *AdminAccountsHandler) SetActive(c *gin.Context) {
	var req SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Active == nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "active is required"))
		return
	}

	if err := h.accounts.SetActive(c.Request.Context(), c.Param("id"), *req.Active); err != nil {
		RespondWithMappedError(c, err, adminErrorCases,
			http.StatusInternalServerError, "set active failed")
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "account updated"})
}

// ChangeRole moves an account to a different role.
func (h *AdminAccountsHandler) ChangeRole(c *gin.Context) {
	var req ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "role is required"))
		return
	}

	if err := h.accounts.ChangeRole(c.Request.Context(), c.Param("id"), domain.Role(req.Role)); err != nil {
		RespondWithMappedError(c, err, adminErrorCases,
			http.StatusInternalServerError, "change role failed")
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "role updated"})
}

// ChangeTier moves an account to a different subscription tier.
func (h *AdminAccountsHandler) ChangeTier(c *gin.Context) {
	var req ChangeTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "tier is required"))
		return
	}

	changedBy := ""
	if claims, ok := middleware.SessionClaims(c); ok {
		changedBy = claims.AccountID()
	}

	if err := h.accounts.ChangeTier(c.Request.Context(), c.Param("id"), domain.SubscriptionTier(req.Tier), changedBy); err != nil {
		RespondWithMappedError(c, err, adminErrorCases,
			http.StatusInternalServerError, "change tier failed")
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "tier updated"})
}

// ResetLockout clears an account's failed-attempt counter and lock.
func (h *AdminAccountsHandler) ResetLockout(c *gin.Context) {
	if err := h.accounts.ResetLockout(c.Request.Context(), c.Param("id")); err != nil {
		RespondWithMappedError(c, err, adminErrorCases,
			http.StatusInternalServerError, "reset lockout failed")
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "lockout cleared"})
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
