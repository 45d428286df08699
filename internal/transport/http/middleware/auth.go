package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jimrulison/CustomermindIQ-sub005/internal/core/domain"
	"github.com/jimrulison/CustomermindIQ-sub005/internal/usecase"
)

// ErrorResponse is the JSON error payload emitted by middleware.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

func newErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	return ErrorResponse{
		Error:   errorMsg,
		TraceID: GetTraceID(c),
	}
}

// RequireAuth validates the Authorization header and stores session claims on
// the gin context.
func RequireAuth(authService *usecase.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "missing authorization header"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "invalid authorization format: expected 'Bearer <token>'"))
			return
		}

		token := strings.TrimSpace(parts[1])
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "missing session token"))
			return
		}

		claims, err := authService.ParseSessionToken(token)
		if err != nil {
			switch {
			case errors.Is(err, usecase.ErrExpiredSessionToken):
				c.AbortWithStatusJSON(http.StatusUnauthorized,
					newErrorResponse(c, "session token expired"))
			case errors.Is(err, usecase.ErrInvalidSessionToken):
				c.AbortWithStatusJSON(http.StatusUnauthorized,
					newErrorResponse(c, "invalid session token"))
			default:
				c.AbortWithStatusJSON(http.StatusInternalServerError,
					newErrorResponse(c, "authentication failed"))
			}
			return
		}

		c.Set(AccountIDKey, claims.AccountID())
		c.Set(ClaimsKey, claims)

		c.Next()
	}
}

// SessionClaims retrieves parsed claims stored by RequireAuth.
func SessionClaims(c *gin.Context) (*usecase.SessionClaims, bool) {
	value, exists := c.Get(ClaimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*usecase.SessionClaims)
	return claims, ok
}

// RequireRole enforces a minimum role on an authenticated route.
func RequireRole(minRole domain.Role) gin.HandlerFunc {
	return requireClaims(usecase.Requirement{MinRole: minRole})
}

// RequirePremium enforces a premium subscription tier on an authenticated
// route.
func RequirePremium() gin.HandlerFunc {
	return requireClaims(usecase.Requirement{Premium: true})
}

func requireClaims(req usecase.Requirement) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := SessionClaims(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "authentication required"))
			return
		}

		if err := usecase.Authorize(claims, req); err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden,
				newErrorResponse(c, err.Error()))
			return
		}

		c.Next()
	}
}
