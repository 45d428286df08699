package usecase

import (
	"fmt"

	"github.com/jimrulison/CustomermindIQ-sub005/internal/core/domain"
)

// Requirement describes what a protected operation demands of a session.
// Zero value allows any authenticated session.
type Requirement struct {
	MinRole domain.Role
	Premium bool
}

// Authorize checks session claims against a requirement. It is a pure
// function of the claims; no store access, so a stale-but-unexpired token
// keeps the access it was issued with.
func Authorize(claims *SessionClaims, req Requirement) error {
	if claims == nil {
		return &AuthorizationError{Reason: "missing session"}
	}
	if !claims.Role.Valid() || !claims.Tier.Valid() {
		return &AuthorizationError{Reason: "malformed session claims"}
	}

	if req.MinRole != "" && !claims.Role.AtLeast(req.MinRole) {
		return &AuthorizationError{
			Reason: fmt.Sprintf("requires role %s or higher", req.MinRole),
		}
	}

	if req.Premium && !claims.Tier.Premium() {
		return &AuthorizationError{Reason: "requires a premium subscription"}
	}

	return nil
}
