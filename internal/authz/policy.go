package authz

// Role names attached to authenticated principals. The static policy table
// covers this fixed set; the dynamic access-rule path tolerates arbitrary
// role names as long as a rule column maps to them.
const (
	RoleAdmin       = "Admin"
	RoleLeadPlanner = "Lead Planner"
	RolePlanner     = "Planner"
	RoleAssistant   = "Assistant"
)

// Permission tokens, grouped by resource. Tokens are opaque identifiers
// compared for exact set membership only; they are never parsed. Adding a
// capability means adding a token here and wiring it into the policy table.
const (
	PermLeadsView   = "leads:view"
	PermLeadsManage = "leads:manage"

	PermContactsView   = "contacts:view"
	PermContactsManage = "contacts:manage"

	PermInvoicesView   = "invoices:view"
	PermInvoicesManage = "invoices:manage"

	PermEventsView   = "events:view"
	PermEventsManage = "events:manage"

	PermAccessRulesManage = "accessrules:manage"
)

// Resource names used for mask configuration lookups.
const (
	ResourceLeads    = "leads"
	ResourceContacts = "contacts"
	ResourceInvoices = "invoices"
	ResourceEvents   = "events"
)

// MaskRule configures response masking for one resource. OwnerField names
// the record field whose value identifies the assigned owner; records owned
// by the caller are exempt from masking.
type MaskRule struct {
	Fields     []string
	OwnerField string
}

// DefaultOwnerField is used when a MaskRule does not name one.
const DefaultOwnerField = "assignedTo"

type rolePolicy struct {
	granted map[string]struct{}
	masks   map[string]MaskRule
}

// Policy is the static permission table. It is built once at process start
// and never mutated, so concurrent reads need no synchronization. The
// super-role bypass is a property of the middleware, not of this table: the
// table stays authoritative and auditable.
type Policy struct {
	roles     map[string]rolePolicy
	superRole string
}

// RoleGrant describes one role's entry when building a Policy.
type RoleGrant struct {
	Tokens []string
	Masks  map[string]MaskRule
}

// NewPolicy builds an immutable Policy from role grants.
func NewPolicy(superRole string, grants map[string]RoleGrant) *Policy {
	roles := make(map[string]rolePolicy, len(grants))
	for role, grant := range grants {
		granted := make(map[string]struct{}, len(grant.Tokens))
		for _, token := range grant.Tokens {
			granted[token] = struct{}{}
		}
		masks := make(map[string]MaskRule, len(grant.Masks))
		for resource, rule := range grant.Masks {
			if rule.OwnerField == "" {
				rule.OwnerField = DefaultOwnerField
			}
			masks[resource] = rule
		}
		roles[role] = rolePolicy{granted: granted, masks: masks}
	}
	return &Policy{roles: roles, superRole: superRole}
}

// NewDefaultPolicy returns the deployment's standard policy table.
func NewDefaultPolicy() *Policy {
	return NewPolicy(RoleAdmin, map[string]RoleGrant{
		RoleAdmin: {
			Tokens: []string{
				PermLeadsView, PermLeadsManage,
				PermContactsView, PermContactsManage,
				PermInvoicesView, PermInvoicesManage,
				PermEventsView, PermEventsManage,
				PermAccessRulesManage,
			},
		},
		RoleLeadPlanner: {
			Tokens: []string{
				PermLeadsView, PermLeadsManage,
				PermContactsView, PermContactsManage,
				PermInvoicesView, PermInvoicesManage,
				PermEventsView, PermEventsManage,
			},
		},
		RolePlanner: {
			Tokens: []string{
				PermLeadsView,
				PermContactsView, PermContactsManage,
				PermInvoicesView,
				PermEventsView, PermEventsManage,
			},
			Masks: map[string]MaskRule{
				ResourceLeads: {Fields: []string{"value"}},
			},
		},
		RoleAssistant: {
			Tokens: []string{
				PermLeadsView,
				PermContactsView,
				PermEventsView,
			},
			Masks: map[string]MaskRule{
				ResourceLeads:    {Fields: []string{"value", "email", "phone"}},
				ResourceContacts: {Fields: []string{"email", "phone"}},
			},
		},
	})
}

// SuperRole returns the role that bypasses permission checks.
func (p *Policy) SuperRole() string {
	return p.superRole
}

// KnownRole reports whether the role has a policy entry.
func (p *Policy) KnownRole(role string) bool {
	_, ok := p.roles[role]
	return ok
}

// HasPermission reports whether the role is granted the token. A role with
// no policy entry has zero permissions.
func (p *Policy) HasPermission(role, token string) bool {
	entry, ok := p.roles[role]
	if !ok {
		return false
	}
	_, granted := entry.granted[token]
	return granted
}

// MaskRuleFor returns the mask configuration for a role and resource. The
// second return value is false when no masking is configured.
func (p *Policy) MaskRuleFor(role, resource string) (MaskRule, bool) {
	entry, ok := p.roles[role]
	if !ok {
		return MaskRule{}, false
	}
	rule, ok := entry.masks[resource]
	if !ok || len(rule.Fields) == 0 {
		return MaskRule{}, false
	}
	return rule, true
}
