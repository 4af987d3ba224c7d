package authn

import (
	"errors"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	manager, err := NewTokenManager(testSecret, time.Hour)
	if err != nil {
		t.Fatalf("new token manager: %v", err)
	}

	issued := Principal{ID: "user-1", Role: "Planner", Email: "piper@planwise.local", Name: "Piper Planner"}
	token, err := manager.Issue(issued)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	got, err := manager.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got.ID != issued.ID || got.Role != issued.Role || got.Email != issued.Email || got.Name != issued.Name {
		t.Fatalf("principal mismatch: %+v", got)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	manager, err := NewTokenManager(testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("new token manager: %v", err)
	}
	token, err := manager.Issue(Principal{ID: "user-1", Role: "Planner"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	_, err = manager.Verify(token)
	if !errors.Is(err, ErrExpiredCredentials) {
		t.Fatalf("expected ErrExpiredCredentials, got %v", err)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer, _ := NewTokenManager(testSecret, time.Hour)
	verifier, _ := NewTokenManager("another-secret-another-secret-32", time.Hour)

	token, err := issuer.Issue(Principal{ID: "user-1", Role: "Planner"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	_, err = verifier.Verify(token)
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	manager, _ := NewTokenManager(testSecret, time.Hour)
	_, err := manager.Verify("not-a-token")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestNewTokenManagerRequiresSecret(t *testing.T) {
	if _, err := NewTokenManager("", time.Hour); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}
