package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jimrulison/CustomermindIQ-sub005/internal/core/domain"
	"github.com/jimrulison/CustomermindIQ-sub005/internal/transport/http/middleware"
)

// ErrorResponse is the generic error payload with a trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with the request's trace ID.
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	return ErrorResponse{
		Error:   errorMsg,
		TraceID: middleware.GetTraceID(c),
	}
}

// MessageResponse is a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// AccountSummary is the API view of an account. Password hashes never leave
// the usecase layer.
type AccountSummary struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	Tier      string     `json:"tier"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

func newAccountSummary(account domain.Account) AccountSummary {
	return AccountSummary{
		ID:        account.ID,
		Email:     account.Email,
		Role:      string(account.Role),
		Tier:      string(account.Tier),
		IsActive:  account.IsActive,
		CreatedAt: account.CreatedAt,
		LastLogin: account.LastLogin,
	}
}

// SupportSummary describes the support service level for a subscription tier.
type SupportSummary struct {
	Tier          string `json:"tier"`
	FirstResponse string `json:"first_response"`
	LiveChat      bool   `json:"live_chat"`
	Phone         bool   `json:"phone"`
}

func newSupportSummary(level domain.SupportLevel) SupportSummary {
	return SupportSummary{
		Tier:          string(level.Tier),
		FirstResponse: level.FirstResponse.String(),
		LiveChat:      level.LiveChat,
		Phone:         level.Phone,
	}
}

// LoginRequest is the payload for the login endpoint.
type LoginRequest struct {
	Email      string `json:"email" binding:"required"`
	Password   string `json:"password" binding:"required"`
	RememberMe bool   `json:"remember_me"`
}

// LoginResponse carries the issued session token and account context.
type LoginResponse struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	Account   AccountSummary `json:"account"`
	Support   SupportSummary `json:"support"`
}

// SessionResponse describes the current authenticated session.
type SessionResponse struct {
	AccountID string         `json:"account_id"`
	Email     string         `json:"email"`
	Role      string         `json:"role"`
	Tier      string         `json:"tier"`
	IssuedAt  time.Time      `json:"issued_at"`
	ExpiresAt time.Time      `json:"expires_at"`
	Support   SupportSummary `json:"support"`
}

// RegisterRequest is the payload for account registration.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Tier     string `json:"tier"`
}

// ChangePasswordRequest is the payload for self-service password changes.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// SetActiveRequest toggles the account's active flag.
type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// ChangeRoleRequest moves an account to a different role.
type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// ChangeTierRequest moves an account to a different subscription tier.
type ChangeTierRequest struct {
	Tier string `json:"tier" binding:"required"`
}

// ListAccountsResponse wraps a page of accounts.
type ListAccountsResponse struct {
	Accounts []AccountSummary `json:"accounts"`
}
