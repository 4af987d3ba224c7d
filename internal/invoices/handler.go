package invoices

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/planwise-crm/planwise-crm/internal/authz"
	"github.com/planwise-crm/planwise-crm/internal/platform/httpx"
	"github.com/planwise-crm/planwise-crm/internal/shared"
)

// Handler wires HTTP endpoints for invoices. Routes are guarded by the
// dynamic (admin-configurable) authorization path rather than the static
// policy table, so operators can adjust access without a deploy.
type Handler struct {
	logger    *slog.Logger
	repo      Repository
	dynamic   authz.DynamicMiddleware
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, repo Repository, dynamic authz.DynamicMiddleware) *Handler {
	return &Handler{
		logger:    logger,
		repo:      repo,
		dynamic:   dynamic,
		validator: validator.New(),
	}
}

// MountRoutes registers invoice routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.dynamic.RequireFeature(FeatureName, authz.ActionRead))
		r.Get("/", h.list)
		r.Get("/{id}", h.show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.dynamic.RequireFeature(FeatureName, authz.ActionWrite))
		r.Post("/", h.create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.dynamic.RequireFeature(FeatureName, authz.ActionDelete))
		r.Delete("/{id}", h.delete)
	})
}

type createInvoiceRequest struct {
	Number       string     `json:"number" validate:"required,max=50"`
	CustomerName string     `json:"customer_name" validate:"required,max=200"`
	LeadID       string     `json:"lead_id" validate:"omitempty,uuid4"`
	Amount       float64    `json:"amount" validate:"gte=0"`
	Status       string     `json:"status" validate:"omitempty,oneof=draft sent paid overdue"`
	DueDate      *time.Time `json:"due_date,omitempty"`
}

type listResponse struct {
	Invoices []Invoice `json:"invoices"`
	Total    int       `json:"total"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	limit := 50
	offset := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	results, total, err := h.repo.List(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("list invoices", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, httpx.CodeInternal, "internal security error")
		return
	}
	if results == nil {
		results = []Invoice{}
	}
	httpx.Respond(w, r, http.StatusOK, listResponse{Invoices: results, Total: total})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	invoice, err := h.repo.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "get invoice", err)
		return
	}
	httpx.Respond(w, r, http.StatusOK, invoice)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createInvoiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, httpx.CodeValidation, "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, httpx.CodeValidation, err.Error())
		return
	}
	invoice, err := h.repo.Create(r.Context(), Invoice{
		Number:       req.Number,
		CustomerName: req.CustomerName,
		LeadID:       req.LeadID,
		Amount:       req.Amount,
		Status:       req.Status,
		DueDate:      req.DueDate,
	})
	if err != nil {
		h.fail(w, "create invoice", err)
		return
	}
	httpx.Respond(w, r, http.StatusCreated, invoice)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "delete invoice", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, shared.ErrNotFound) {
		httpx.Error(w, http.StatusNotFound, httpx.CodeNotFound, "invoice not found")
		return
	}
	h.logger.Error(op, slog.Any("error", err))
	httpx.Error(w, http.StatusInternalServerError, httpx.CodeInternal, "internal security error")
}
