package token

import (
	"errors"
	"testing"
	"time"
)

func TestIssueAndVerify(t *testing.T) {
	svc := NewService("test-secret", time.Hour)

	tokenString, err := svc.Issue("alice@example.com", "user")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := svc.Verify(tokenString)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Email != "alice@example.com" {
		t.Errorf("email = %q, want alice@example.com", claims.Email)
	}
	if claims.Role != "user" {
		t.Errorf("role = %q, want user", claims.Role)
	}
	if claims.ExpiresAt == nil || time.Until(claims.ExpiresAt.Time) > time.Hour {
		t.Errorf("expiry should be at most one hour out, got %v", claims.ExpiresAt)
	}
}

func TestVerifyExpired(t *testing.T) {
	svc := NewService("test-secret", -time.Minute)

	tokenString, err := svc.Issue("alice@example.com", "user")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := svc.Verify(tokenString); !errors.Is(err, ErrExpired) {
		t.Errorf("verify expired token: got %v, want ErrExpired", err)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	issuer := NewService("secret-a", time.Hour)
	verifier := NewService("secret-b", time.Hour)

	tokenString, err := issuer.Issue("alice@example.com", "admin")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := verifier.Verify(tokenString); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("verify forged token: got %v, want ErrInvalidSignature", err)
	}
}

func TestVerifyMalformed(t *testing.T) {
	svc := NewService("test-secret", time.Hour)

	for _, garbage := range []string{"", "not-a-token", "a.b", "a.b.c.d"} {
		if _, err := svc.Verify(garbage); !errors.Is(err, ErrMalformed) {
			t.Errorf("Verify(%q): got %v, want ErrMalformed", garbage, err)
		}
	}
}
