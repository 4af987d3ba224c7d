package accessrules

import (
	"time"

	"github.com/planwise-crm/planwise-crm/internal/authz"
)

// AccessRule is a persisted, administrator-editable permission record for
// the dynamic authorization path. FeatureName is unique.
type AccessRule struct {
	ID                   string         `json:"id"`
	FeatureName          string         `json:"feature_name"`
	Module               string         `json:"module"`
	Admin                []authz.Action `json:"admin"`
	LeadPlanner          []authz.Action `json:"lead_planner"`
	Assistant            []authz.Action `json:"assistant"`
	AvailablePermissions []authz.Action `json:"available_permissions"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
}

// FeatureRule converts the record into the middleware's role-column view.
func (r *AccessRule) FeatureRule() *authz.FeatureRule {
	return &authz.FeatureRule{
		RoleActions: map[string][]authz.Action{
			"admin":       r.Admin,
			"leadPlanner": r.LeadPlanner,
			"assistant":   r.Assistant,
		},
	}
}

var allActions = []authz.Action{authz.ActionRead, authz.ActionWrite, authz.ActionDelete}

// DefaultRules lists the critical features that are always backfilled at
// startup and restored by the reset operation.
func DefaultRules() []AccessRule {
	readOnly := []authz.Action{authz.ActionRead}
	readWrite := []authz.Action{authz.ActionRead, authz.ActionWrite}
	return []AccessRule{
		{FeatureName: "Leads", Module: "crm", Admin: allActions, LeadPlanner: readWrite, Assistant: readOnly, AvailablePermissions: allActions},
		{FeatureName: "Contacts", Module: "crm", Admin: allActions, LeadPlanner: readWrite, Assistant: readOnly, AvailablePermissions: allActions},
		{FeatureName: "Invoices", Module: "billing", Admin: allActions, LeadPlanner: readWrite, Assistant: nil, AvailablePermissions: allActions},
		{FeatureName: "Inventory", Module: "operations", Admin: allActions, LeadPlanner: readWrite, Assistant: readOnly, AvailablePermissions: allActions},
		{FeatureName: "Events", Module: "planning", Admin: allActions, LeadPlanner: readWrite, Assistant: readWrite, AvailablePermissions: allActions},
		{FeatureName: "Pipeline", Module: "crm", Admin: allActions, LeadPlanner: readWrite, Assistant: readOnly, AvailablePermissions: allActions},
		{FeatureName: "Documents", Module: "crm", Admin: allActions, LeadPlanner: readWrite, Assistant: readOnly, AvailablePermissions: allActions},
	}
}

// ValidAction reports whether the action token is one of Read/Write/Delete.
func ValidAction(a authz.Action) bool {
	for _, known := range allActions {
		if a == known {
			return true
		}
	}
	return false
}
