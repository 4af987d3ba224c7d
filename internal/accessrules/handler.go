package accessrules

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/planwise-crm/planwise-crm/internal/authn"
	"github.com/planwise-crm/planwise-crm/internal/authz"
	"github.com/planwise-crm/planwise-crm/internal/platform/httpx"
	"github.com/planwise-crm/planwise-crm/internal/shared"
)

// Handler exposes the access-rule management API. All routes are guarded by
// the accessrules:manage token, which only the super-role holds.
type Handler struct {
	logger  *slog.Logger
	service *Service
	audit   *shared.AuditLogger
	authz   authz.Middleware
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, audit *shared.AuditLogger, authz authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, audit: audit, authz: authz}
}

// MountRoutes registers management routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(authz.PermAccessRulesManage, ""))
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
		r.Post("/reset", h.reset)
	})
}

type ruleRequest struct {
	FeatureName          string         `json:"feature_name"`
	Module               string         `json:"module"`
	Admin                []authz.Action `json:"admin"`
	LeadPlanner          []authz.Action `json:"lead_planner"`
	Assistant            []authz.Action `json:"assistant"`
	AvailablePermissions []authz.Action `json:"available_permissions"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	rules, err := h.service.List(r.Context())
	if err != nil {
		h.fail(w, r, "list access rules", err)
		return
	}
	if rules == nil {
		rules = []AccessRule{}
	}
	httpx.JSON(w, http.StatusOK, rules)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req ruleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, httpx.CodeValidation, "malformed request body")
		return
	}
	created, err := h.service.Create(r.Context(), AccessRule{
		FeatureName:          req.FeatureName,
		Module:               req.Module,
		Admin:                req.Admin,
		LeadPlanner:          req.LeadPlanner,
		Assistant:            req.Assistant,
		AvailablePermissions: req.AvailablePermissions,
	})
	if err != nil {
		h.fail(w, r, "create access rule", err)
		return
	}
	h.recordAudit(r, "access_rule.create", created.ID, created.FeatureName)
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req ruleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, httpx.CodeValidation, "malformed request body")
		return
	}
	updated, err := h.service.Update(r.Context(), AccessRule{
		ID:                   chi.URLParam(r, "id"),
		FeatureName:          req.FeatureName,
		Module:               req.Module,
		Admin:                req.Admin,
		LeadPlanner:          req.LeadPlanner,
		Assistant:            req.Assistant,
		AvailablePermissions: req.AvailablePermissions,
	})
	if err != nil {
		h.fail(w, r, "update access rule", err)
		return
	}
	h.recordAudit(r, "access_rule.update", updated.ID, updated.FeatureName)
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.fail(w, r, "delete access rule", err)
		return
	}
	h.recordAudit(r, "access_rule.delete", id, "")
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) reset(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Reset(r.Context()); err != nil {
		h.fail(w, r, "reset access rules", err)
		return
	}
	h.recordAudit(r, "access_rule.reset", "all", "")
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.Error(w, http.StatusNotFound, httpx.CodeNotFound, "access rule not found")
	case isValidationError(err):
		httpx.Error(w, http.StatusBadRequest, httpx.CodeValidation, err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, httpx.CodeInternal, "internal security error")
	}
}

func isValidationError(err error) bool {
	var validationErr *ruleValidationError
	return errors.As(err, &validationErr)
}

func (h *Handler) recordAudit(r *http.Request, action, entityID, feature string) {
	if h.audit == nil {
		return
	}
	principal := authn.PrincipalFromContext(r.Context())
	actorID := ""
	if principal != nil {
		actorID = principal.ID
	}
	meta := map[string]any{}
	if feature != "" {
		meta["feature"] = feature
	}
	if err := h.audit.Record(r.Context(), shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "access_rule",
		EntityID: entityID,
		Meta:     meta,
	}); err != nil {
		h.logger.Warn("audit record", slog.Any("error", err))
	}
}
