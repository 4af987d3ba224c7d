package leads

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/planwise-crm/planwise-crm/internal/authz"
	"github.com/planwise-crm/planwise-crm/internal/platform/httpx"
	"github.com/planwise-crm/planwise-crm/internal/shared"
)

// Handler wires HTTP endpoints for leads. List and detail responses pass
// through httpx.Respond so the masking transform installed by the
// authorization middleware applies.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	authz     authz.Middleware
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, authz authz.Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		authz:     authz,
		validator: validator.New(),
	}
}

// MountRoutes registers lead routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(authz.PermLeadsView, authz.ResourceLeads))
		r.Get("/", h.list)
		r.Get("/{id}", h.show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(authz.PermLeadsManage, authz.ResourceLeads))
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

type listResponse struct {
	Leads  []Lead `json:"leads"`
	Total  int    `json:"total"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	req := ListLeadsRequest{
		Status:     r.URL.Query().Get("status"),
		AssignedTo: r.URL.Query().Get("assigned_to"),
		Limit:      50,
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			req.Limit = parsed
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			req.Offset = parsed
		}
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, httpx.CodeValidation, "invalid list filters")
		return
	}

	results, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list leads", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, httpx.CodeInternal, "internal security error")
		return
	}
	if results == nil {
		results = []Lead{}
	}
	httpx.Respond(w, r, http.StatusOK, listResponse{Leads: results, Total: total, Limit: req.Limit, Offset: req.Offset})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	lead, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "get lead", err)
		return
	}
	httpx.Respond(w, r, http.StatusOK, lead)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateLeadRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, httpx.CodeValidation, "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, httpx.CodeValidation, err.Error())
		return
	}
	lead, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.fail(w, "create lead", err)
		return
	}
	httpx.Respond(w, r, http.StatusCreated, lead)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req UpdateLeadRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, httpx.CodeValidation, "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, httpx.CodeValidation, err.Error())
		return
	}
	lead, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.fail(w, "update lead", err)
		return
	}
	httpx.Respond(w, r, http.StatusOK, lead)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "delete lead", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, shared.ErrNotFound) {
		httpx.Error(w, http.StatusNotFound, httpx.CodeNotFound, "lead not found")
		return
	}
	h.logger.Error(op, slog.Any("error", err))
	httpx.Error(w, http.StatusInternalServerError, httpx.CodeInternal, "internal security error")
}
