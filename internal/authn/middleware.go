package authn

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/planwise-crm/planwise-crm/internal/platform/httpx"
)

// Gate authenticates requests from bearer credentials. It is stateless:
// verification is cryptographic only and consults no store.
type Gate struct {
	Tokens *TokenManager
	Logger *slog.Logger
}

// Require verifies the bearer credential and attaches the principal to the
// request context. When allowedRoles is non-empty the principal's role must
// match one of them, compared case-insensitively.
func (g Gate) Require(allowedRoles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := bearerToken(r)
			if tokenString == "" {
				httpx.Error(w, http.StatusUnauthorized, httpx.CodeAuthRequired, "authentication required")
				return
			}
			principal, err := g.Tokens.Verify(tokenString)
			if err != nil {
				if g.Logger != nil && errors.Is(err, ErrExpiredCredentials) {
					g.Logger.Info("expired credential", slog.String("path", r.URL.Path))
				}
				httpx.Error(w, http.StatusBadRequest, httpx.CodeTokenInvalid, "invalid or expired token")
				return
			}
			if len(allowedRoles) > 0 && !roleAllowed(principal.Role, allowedRoles) {
				httpx.Error(w, http.StatusForbidden, httpx.CodeRoleNotAllowed, "role not permitted for this endpoint")
				return
			}
			ctx := ContextWithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func roleAllowed(role string, allowed []string) bool {
	for _, a := range allowed {
		if strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(role)) {
			return true
		}
	}
	return false
}
