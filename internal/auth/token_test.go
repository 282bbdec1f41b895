package auth

import (
	"errors"
	"testing"
	"time"
)

func TestIssuer_IssueAndVerify(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)

	token, err := issuer.Issue(42)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if token == "" {
		t.Fatal("Issue returned empty token")
	}

	userID, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if userID != 42 {
		t.Errorf("Verify user id: got %d, want 42", userID)
	}
}

func TestIssuer_VerifyExpired(t *testing.T) {
	issuer := NewIssuer("test-secret", -time.Minute)

	token, err := issuer.Issue(1)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := issuer.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for expired token, got: %v", err)
	}
}

func TestIssuer_VerifyWrongSecret(t *testing.T) {
	token, err := NewIssuer("secret-one", time.Hour).Issue(7)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := NewIssuer("secret-two", time.Hour).Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for wrong secret, got: %v", err)
	}
}

func TestIssuer_VerifyMalformed(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)

	for _, tok := range []string{"", "garbage", "a.b.c"} {
		if _, err := issuer.Verify(tok); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("token %q: expected ErrInvalidToken, got: %v", tok, err)
		}
	}
}

func TestIssuer_DifferentSecretsCoexist(t *testing.T) {
	a := NewIssuer("secret-a", time.Hour)
	b := NewIssuer("secret-b", time.Hour)

	tokenA, err := a.Issue(1)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := a.Verify(tokenA); err != nil {
		t.Errorf("issuer a should verify its own token: %v", err)
	}
	if _, err := b.Verify(tokenA); err == nil {
		t.Error("issuer b verified a token signed by issuer a")
	}
}
