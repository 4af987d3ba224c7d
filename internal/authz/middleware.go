package authz

import (
	"log/slog"
	"net/http"

	"github.com/planwise-crm/planwise-crm/internal/authn"
	"github.com/planwise-crm/planwise-crm/internal/platform/httpx"
)

// DecisionRecorder receives authorization outcomes for metrics.
type DecisionRecorder interface {
	AuthzDecision(permission, outcome string)
}

// Middleware enforces the static policy table for HTTP handlers.
type Middleware struct {
	Policy   *Policy
	Logger   *slog.Logger
	Recorder DecisionRecorder
}

// Require builds an interceptor that checks the caller's role for the given
// permission token and, on success, installs a response transform that masks
// the resource's configured fields before the payload is written. The
// transform composes with any previously installed one and runs exactly
// once per request.
func (m Middleware) Require(token, resource string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := authn.PrincipalFromContext(r.Context())
			if principal == nil {
				m.record(token, "unauthenticated")
				httpx.Error(w, http.StatusUnauthorized, httpx.CodeAuthRequired, "authentication required")
				return
			}

			// The super-role bypasses the table; the table itself stays
			// authoritative for every other role.
			if principal.Role == m.Policy.SuperRole() {
				m.record(token, "allow")
				next.ServeHTTP(w, r)
				return
			}

			if !m.Policy.KnownRole(principal.Role) {
				m.record(token, "role_invalid")
				httpx.Error(w, http.StatusForbidden, httpx.CodeRoleInvalid, "role has no policy entry")
				return
			}

			if !m.Policy.HasPermission(principal.Role, token) {
				if m.Logger != nil {
					m.Logger.Warn("permission denied",
						slog.String("principal", principal.ID),
						slog.String("role", principal.Role),
						slog.String("permission", token),
						slog.String("path", r.URL.Path))
				}
				m.record(token, "deny")
				httpx.Error(w, http.StatusForbidden, httpx.CodePermDenied, "permission denied")
				return
			}

			m.record(token, "allow")

			if rule, ok := m.Policy.MaskRuleFor(principal.Role, resource); ok {
				principalID := principal.ID
				ctx := httpx.WithTransform(r.Context(), func(data any) any {
					return Mask(data, rule, principalID)
				})
				r = r.WithContext(ctx)
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) record(permission, outcome string) {
	if m.Recorder != nil {
		m.Recorder.AuthzDecision(permission, outcome)
	}
}
