package middleware

import (
	"github.com/gin-gonic/gin"
)

const (
	// TraceIDHeader is the HTTP header carrying the trace identifier.
	TraceIDHeader = "X-Trace-ID"
	// TraceIDKey is the gin context key for the trace identifier.
	TraceIDKey = "trace_id"
	// AccountIDKey is the gin context key for the authenticated account id.
	AccountIDKey = "account_id"
	// ClaimsKey is the gin context key for parsed session claims.
	ClaimsKey = "session_claims"
)

// GetTraceID retrieves the trace ID from the gin context.
func GetTraceID(c *gin.Context) string {
	if traceID, exists := c.Get(TraceIDKey); exists {
		if id, ok := traceID.(string); ok {
			return id
		}
	}
	return ""
}
