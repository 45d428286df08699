package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jimrulison/CustomermindIQ-sub005/internal/core/domain"
	"github.com/jimrulison/CustomermindIQ-sub005/internal/transport/http/middleware"
)

// SupportHandler exposes the caller's support entitlements. Live chat is a
// premium channel, so its route carries the premium guard.
type SupportHandler struct {
	logger *zap.Logger
}

func NewSupportHandler(logger *zap.Logger) *SupportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SupportHandler{logger: logger}
}

// RegisterRoutes mounts the support endpoints; premium gates the chat route.
func (h *SupportHandler) RegisterRoutes(r gin.IRouter, premium gin.HandlerFunc) {
	r.GET("/level", h.Level)
	r.GET("/chat", premium, h.Chat)
}

// Level returns the support service level for the caller's tier.
func (h *SupportHandler) Level(c *gin.Context) {
	claims, ok := middleware.SessionClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	c.JSON(http.StatusOK, newSupportSummary(domain.SupportLevelFor(claims.Tier)))
}

// SupportChatResponse tells a premium client which chat queue to join.
type SupportChatResponse struct {
	Queue         string `json:"queue"`
	FirstResponse string `json:"first_response"`
}

// Chat returns live chat access details. Only reachable on premium tiers.
func (h *SupportHandler) Chat(c *gin.Context) {
	claims, ok := middleware.SessionClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	level := domain.SupportLevelFor(claims.Tier)
	c.JSON(http.StatusOK, SupportChatResponse{
		Queue:         string(level.Tier),
		FirstResponse: level.FirstResponse.String(),
	})
}
