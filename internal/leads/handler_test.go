package leads

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/planwise-crm/planwise-crm/internal/authn"
	"github.com/planwise-crm/planwise-crm/internal/authz"
	"github.com/planwise-crm/planwise-crm/internal/shared"
)

type memoryRepository struct {
	leads map[string]*Lead
}

func newMemoryRepository(seed ...Lead) *memoryRepository {
	repo := &memoryRepository{leads: map[string]*Lead{}}
	for i := range seed {
		lead := seed[i]
		repo.leads[lead.ID] = &lead
	}
	return repo
}

func (m *memoryRepository) Get(ctx context.Context, id string) (*Lead, error) {
	lead, ok := m.leads[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *lead
	return &copied, nil
}

func (m *memoryRepository) List(ctx context.Context, req ListLeadsRequest) ([]Lead, int, error) {
	var out []Lead
	for _, lead := range m.leads {
		if req.Status != "" && lead.Status != req.Status {
			continue
		}
		if req.AssignedTo != "" && lead.AssignedTo != req.AssignedTo {
			continue
		}
		out = append(out, *lead)
	}
	return out, len(out), nil
}

func (m *memoryRepository) Create(ctx context.Context, lead Lead) (*Lead, error) {
	lead.ID = "lead-created"
	m.leads[lead.ID] = &lead
	copied := lead
	return &copied, nil
}

func (m *memoryRepository) Update(ctx context.Context, lead Lead) (*Lead, error) {
	if _, ok := m.leads[lead.ID]; !ok {
		return nil, shared.ErrNotFound
	}
	m.leads[lead.ID] = &lead
	copied := lead
	return &copied, nil
}

func (m *memoryRepository) Delete(ctx context.Context, id string) error {
	if _, ok := m.leads[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.leads, id)
	return nil
}

func newTestRouter(repo Repository) chi.Router {
	handler := NewHandler(slog.Default(), NewService(repo), authz.Middleware{Policy: authz.NewDefaultPolicy()})
	r := chi.NewRouter()
	r.Route("/leads", handler.MountRoutes)
	return r
}

func doAs(t *testing.T, router chi.Router, principal *authn.Principal, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if principal != nil {
		req = req.WithContext(authn.ContextWithPrincipal(req.Context(), principal))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func seedLead(id, assignedTo string) Lead {
	return Lead{
		ID:         id,
		Name:       "Summer Gala",
		Company:    "Brightside Events",
		Email:      "gala@brightside.example",
		Phone:      "+1-555-0101",
		Value:      42000,
		Status:     StatusNew,
		AssignedTo: assignedTo,
	}
}

func TestListRequiresAuthentication(t *testing.T) {
	router := newTestRouter(newMemoryRepository())
	rec := doAs(t, router, nil, http.MethodGet, "/leads", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAssistantCannotCreate(t *testing.T) {
	router := newTestRouter(newMemoryRepository())
	principal := &authn.Principal{ID: "assistant-1", Role: "Assistant"}
	rec := doAs(t, router, principal, http.MethodPost, "/leads", `{"name":"New Lead"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestAssistantListIsMaskedExceptOwnRecords(t *testing.T) {
	router := newTestRouter(newMemoryRepository(
		seedLead("lead-1", "assistant-1"),
		seedLead("lead-2", "planner-9"),
	))
	principal := &authn.Principal{ID: "assistant-1", Role: "Assistant"}
	rec := doAs(t, router, principal, http.MethodGet, "/leads", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		Leads []map[string]any `json:"leads"`
		Total int              `json:"total"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Total != 2 || len(body.Leads) != 2 {
		t.Fatalf("expected both leads, got %+v", body)
	}
	for _, lead := range body.Leads {
		switch lead["assignedTo"] {
		case "assistant-1":
			if lead["value"] != float64(42000) {
				t.Fatalf("expected own lead unmasked, got %v", lead["value"])
			}
		default:
			if lead["value"] != authz.MaskedNumeric {
				t.Fatalf("expected foreign lead value masked, got %v", lead["value"])
			}
			if lead["email"] != authz.MaskedEmail {
				t.Fatalf("expected foreign lead email masked, got %v", lead["email"])
			}
			if lead["phone"] != authz.MaskedPhone {
				t.Fatalf("expected foreign lead phone masked, got %v", lead["phone"])
			}
		}
	}
}

func TestPlannerSeesValueMaskedButContactsVisible(t *testing.T) {
	router := newTestRouter(newMemoryRepository(seedLead("lead-1", "planner-9")))
	principal := &authn.Principal{ID: "planner-1", Role: "Planner"}
	rec := doAs(t, router, principal, http.MethodGet, "/leads/lead-1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var lead map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&lead); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if lead["value"] != authz.MaskedNumeric {
		t.Fatalf("expected value masked for Planner, got %v", lead["value"])
	}
	if lead["email"] != "gala@brightside.example" {
		t.Fatalf("expected email visible for Planner, got %v", lead["email"])
	}
}

func TestAdminSeesEverything(t *testing.T) {
	router := newTestRouter(newMemoryRepository(seedLead("lead-1", "planner-9")))
	principal := &authn.Principal{ID: "admin-1", Role: "Admin"}
	rec := doAs(t, router, principal, http.MethodGet, "/leads/lead-1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var lead map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&lead); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if lead["value"] != float64(42000) || lead["email"] != "gala@brightside.example" {
		t.Fatalf("expected unmasked record for Admin, got %v", lead)
	}
}

func TestCreateValidatesBody(t *testing.T) {
	router := newTestRouter(newMemoryRepository())
	principal := &authn.Principal{ID: "planner-1", Role: "Lead Planner"}

	rec := doAs(t, router, principal, http.MethodPost, "/leads", `{"name":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing name, got %d", rec.Code)
	}

	rec = doAs(t, router, principal, http.MethodPost, "/leads", `{"name":"Winter Expo","value":1500}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestShowNotFound(t *testing.T) {
	router := newTestRouter(newMemoryRepository())
	principal := &authn.Principal{ID: "admin-1", Role: "Admin"}
	rec := doAs(t, router, principal, http.MethodGet, "/leads/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestDeleteRequiresManagePermission(t *testing.T) {
	router := newTestRouter(newMemoryRepository(seedLead("lead-1", "planner-9")))

	assistant := &authn.Principal{ID: "assistant-1", Role: "Assistant"}
	rec := doAs(t, router, assistant, http.MethodDelete, "/leads/lead-1", "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for Assistant delete, got %d", rec.Code)
	}

	planner := &authn.Principal{ID: "planner-1", Role: "Lead Planner"}
	rec = doAs(t, router, planner, http.MethodDelete, "/leads/lead-1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for Lead Planner delete, got %d", rec.Code)
	}
}
