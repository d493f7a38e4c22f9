// internal/app/features/auth/token.go
package auth

import (
	"net/http"
	"time"

	"github.com/dalemusser/trainhub/internal/app/system/gates"
	"github.com/dalemusser/trainhub/internal/app/system/httpjson"
)

type tokenResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ServeToken handles POST /api/v1/auth/token.
// Issues a bearer JWT for the signed-in user, so API clients can log
// in once with the cookie flow and then work token-only. The token
// carries identity, not authorization: roles are re-read from the
// database on every token request.
func (h *Handler) ServeToken(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}

	token, err := h.Tokens.Issue(res.UserID.Hex(), res.Name, res.Roles)
	if err != nil {
		httpjson.Internal(w, h.Log, "issue api token", err)
		return
	}

	h.AuditLog.TokenIssued(r.Context(), r, res.UserID)

	httpjson.Respond(w, http.StatusOK, tokenResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: time.Now().UTC().Add(h.Tokens.TTL()),
	})
}
