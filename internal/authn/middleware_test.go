package authn

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/planwise-crm/planwise-crm/internal/platform/httpx"
)

func gateRequest(t *testing.T, gate Gate, authorization string, allowedRoles ...string) (*httptest.ResponseRecorder, *Principal) {
	t.Helper()
	var seen *Principal
	handler := gate.Require(allowedRoles...)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodGet, "/leads", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, seen
}

func gateErrorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body httpx.ErrorBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Code
}

func TestGateMissingHeader(t *testing.T) {
	manager, _ := NewTokenManager(testSecret, time.Hour)
	gate := Gate{Tokens: manager}

	rec, _ := gateRequest(t, gate, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if code := gateErrorCode(t, rec); code != httpx.CodeAuthRequired {
		t.Fatalf("expected %s, got %s", httpx.CodeAuthRequired, code)
	}
}

func TestGateMalformedHeader(t *testing.T) {
	manager, _ := NewTokenManager(testSecret, time.Hour)
	gate := Gate{Tokens: manager}

	rec, _ := gateRequest(t, gate, "Basic dXNlcjpwYXNz")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for non-bearer scheme, got %d", rec.Code)
	}
}

func TestGateExpiredToken(t *testing.T) {
	issuer, _ := NewTokenManager(testSecret, -time.Minute)
	verifier, _ := NewTokenManager(testSecret, time.Hour)
	token, err := issuer.Issue(Principal{ID: "user-1", Role: "Planner"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	gate := Gate{Tokens: verifier}
	rec, _ := gateRequest(t, gate, "Bearer "+token)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for expired token, got %d", rec.Code)
	}
	if code := gateErrorCode(t, rec); code != httpx.CodeTokenInvalid {
		t.Fatalf("expected %s, got %s", httpx.CodeTokenInvalid, code)
	}
}

func TestGateAttachesPrincipal(t *testing.T) {
	manager, _ := NewTokenManager(testSecret, time.Hour)
	token, err := manager.Issue(Principal{ID: "user-1", Role: "Planner", Email: "piper@planwise.local"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	gate := Gate{Tokens: manager}
	rec, principal := gateRequest(t, gate, "Bearer "+token)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if principal == nil || principal.ID != "user-1" || principal.Role != "Planner" {
		t.Fatalf("expected principal attached, got %+v", principal)
	}
}

func TestGateRoleRestriction(t *testing.T) {
	manager, _ := NewTokenManager(testSecret, time.Hour)
	token, err := manager.Issue(Principal{ID: "user-1", Role: "Assistant"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	gate := Gate{Tokens: manager}

	rec, _ := gateRequest(t, gate, "Bearer "+token, "Admin", "Lead Planner")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for disallowed role, got %d", rec.Code)
	}
	if code := gateErrorCode(t, rec); code != httpx.CodeRoleNotAllowed {
		t.Fatalf("expected %s, got %s", httpx.CodeRoleNotAllowed, code)
	}

	rec, _ = gateRequest(t, gate, "Bearer "+token, "assistant")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected case-insensitive role match, got %d", rec.Code)
	}
}

func TestGateLowercaseBearerScheme(t *testing.T) {
	manager, _ := NewTokenManager(testSecret, time.Hour)
	token, err := manager.Issue(Principal{ID: "user-1", Role: "Planner"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	gate := Gate{Tokens: manager}

	rec, _ := gateRequest(t, gate, "bearer "+token)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected lowercase scheme accepted, got %d", rec.Code)
	}
}
