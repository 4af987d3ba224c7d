package authz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/planwise-crm/planwise-crm/internal/authn"
	"github.com/planwise-crm/planwise-crm/internal/platform/httpx"
	"github.com/planwise-crm/planwise-crm/internal/shared"
)

// Action is a coarse capability granted by an access rule.
type Action string

// Actions an access rule may grant per role.
const (
	ActionRead   Action = "Read"
	ActionWrite  Action = "Write"
	ActionDelete Action = "Delete"
)

// FeatureRule is the dynamic middleware's view of a persisted access rule:
// role-column name to granted actions.
type FeatureRule struct {
	RoleActions map[string][]Action
}

// RuleSource fetches the rule for a feature. Implementations return
// shared.ErrNotFound when no rule exists for the feature name.
type RuleSource interface {
	FeatureRule(ctx context.Context, feature string) (*FeatureRule, error)
}

// roleColumns translates principal role names to access-rule columns.
// Roles absent from this table cannot be granted anything dynamically.
var roleColumns = map[string]string{
	RoleAdmin:       "admin",
	RoleLeadPlanner: "leadPlanner",
	RoleAssistant:   "assistant",
}

// RoleColumn returns the access-rule column for a role name.
func RoleColumn(role string) (string, bool) {
	column, ok := roleColumns[role]
	return column, ok
}

// DynamicMiddleware enforces admin-configurable, feature-scoped permissions
// read from the access-rule store on every request. Unlike the static path
// it installs no masking hook.
type DynamicMiddleware struct {
	Rules    RuleSource
	Logger   *slog.Logger
	Recorder DecisionRecorder

	// FailOpen allows requests for features with no configured rule. This
	// preserves the legacy default and is off unless explicitly enabled.
	FailOpen bool
}

// RequireFeature builds an interceptor that checks the caller's role for the
// given action on the named feature.
func (m DynamicMiddleware) RequireFeature(feature string, action Action) func(http.Handler) http.Handler {
	metricKey := feature + ":" + string(action)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := authn.PrincipalFromContext(r.Context())
			if principal == nil {
				m.record(metricKey, "unauthenticated")
				httpx.Error(w, http.StatusUnauthorized, httpx.CodeAuthRequired, "authentication required")
				return
			}

			rule, err := m.Rules.FeatureRule(r.Context(), feature)
			if err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					if m.FailOpen {
						if m.Logger != nil {
							m.Logger.Warn("no access rule for feature, allowing (fail-open)",
								slog.String("feature", feature))
						}
						m.record(metricKey, "allow_fail_open")
						next.ServeHTTP(w, r)
						return
					}
					m.record(metricKey, "deny")
					httpx.Error(w, http.StatusForbidden, httpx.CodePermDenied,
						fmt.Sprintf("no access rule configured for feature %q", feature))
					return
				}
				if m.Logger != nil {
					m.Logger.Error("access rule lookup", slog.Any("error", err), slog.String("feature", feature))
				}
				m.record(metricKey, "error")
				httpx.Error(w, http.StatusInternalServerError, httpx.CodeInternal, "internal security error")
				return
			}

			column, ok := RoleColumn(principal.Role)
			if !ok {
				m.record(metricKey, "role_invalid")
				httpx.Error(w, http.StatusForbidden, httpx.CodeRoleInvalid,
					fmt.Sprintf("role %q has no dynamic permission mapping", principal.Role))
				return
			}

			if !containsAction(rule.RoleActions[column], action) {
				if m.Logger != nil {
					m.Logger.Warn("dynamic permission denied",
						slog.String("principal", principal.ID),
						slog.String("role", principal.Role),
						slog.String("action", string(action)),
						slog.String("feature", feature))
				}
				m.record(metricKey, "deny")
				httpx.Error(w, http.StatusForbidden, httpx.CodePermDenied,
					fmt.Sprintf("role %q is not granted %s on feature %q", principal.Role, action, feature))
				return
			}

			m.record(metricKey, "allow")
			next.ServeHTTP(w, r)
		})
	}
}

func containsAction(actions []Action, action Action) bool {
	for _, a := range actions {
		if a == action {
			return true
		}
	}
	return false
}

func (m DynamicMiddleware) record(permission, outcome string) {
	if m.Recorder != nil {
		m.Recorder.AuthzDecision(permission, outcome)
	}
}
