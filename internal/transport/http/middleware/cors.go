package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const corsMaxAge = "86400"

var corsAllowedMethods = strings.Join([]string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodOptions,
}, ",")

type corsPolicy struct {
	wildcard bool
	origins  map[string]struct{}
}

func (p corsPolicy) allow(origin string) (string, bool) {
	if p.wildcard {
		return "*", true
	}
	if _, ok := p.origins[origin]; ok {
		return origin, true
	}
	return "", false
}

// CORS answers preflight requests and stamps allow-origin headers for the
// configured origin list. Credentials are only allowed for explicit origins;
// a wildcard policy must not carry them.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	policy := corsPolicy{origins: make(map[string]struct{}, len(allowedOrigins))}
	for _, origin := range allowedOrigins {
		if origin == "*" {
			policy.wildcard = true
		}
		policy.origins[origin] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}

		header := c.Writer.Header()
		header.Add("Vary", "Origin")

		allowed, ok := policy.allow(origin)
		if ok {
			header.Set("Access-Control-Allow-Origin", allowed)
			if !policy.wildcard {
				header.Set("Access-Control-Allow-Credentials", "true")
			}
		}

		if c.Request.Method != http.MethodOptions {
			c.Next()
			return
		}

		if ok {
			header.Set("Access-Control-Allow-Methods", corsAllowedMethods)
			requested := c.GetHeader("Access-Control-Request-Headers")
			if requested == "" {
				requested = "Authorization,Content-Type"
			}
			header.Set("Access-Control-Allow-Headers", requested)
			header.Set("Access-Control-Max-Age", corsMaxAge)
		}

		c.AbortWithStatus(http.StatusNoContent)
	}
}
