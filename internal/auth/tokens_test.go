package auth

import (
	"errors"
	"testing"
	"time"
)

func testIssuer(now func() time.Time) *TokenIssuer {
	return NewTokenIssuer(TokenConfig{
		AccessSecret:  []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	}, now)
}

func TestIssueAndVerifyAccess(t *testing.T) {
	issuer := testIssuer(nil)

	token, expiresAt, err := issuer.IssueAccess("user-1")
	if err != nil {
		t.Fatalf("issue access: %v", err)
	}
	if token == "" {
		t.Fatal("expected a signed token")
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatalf("expected a future expiry, got %v", expiresAt)
	}

	userID, err := issuer.VerifyAccess(token)
	if err != nil {
		t.Fatalf("verify access: %v", err)
	}
	if userID != "user-1" {
		t.Fatalf("expected subject user-1, got %q", userID)
	}
}

func TestVerifyRejectsWrongTokenClass(t *testing.T) {
	issuer := testIssuer(nil)

	refresh, _, err := issuer.IssueRefresh("user-1")
	if err != nil {
		t.Fatalf("issue refresh: %v", err)
	}

	if _, err := issuer.VerifyAccess(refresh); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for refresh token on access path, got %v", err)
	}

	access, _, err := issuer.IssueAccess("user-1")
	if err != nil {
		t.Fatalf("issue access: %v", err)
	}

	if _, err := issuer.VerifyRefresh(access); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for access token on refresh path, got %v", err)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	current := time.Now().UTC()
	issuer := testIssuer(func() time.Time { return current })

	token, _, err := issuer.IssueAccess("user-1")
	if err != nil {
		t.Fatalf("issue access: %v", err)
	}

	current = current.Add(16 * time.Minute)

	if _, err := issuer.VerifyAccess(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after expiry, got %v", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	issuer := testIssuer(nil)

	for _, token := range []string{"", "   ", "not.a.jwt", "aaaa.bbbb.cccc"} {
		if _, err := issuer.VerifyAccess(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken for %q, got %v", token, err)
		}
	}
}

func TestIssueRejectsEmptyUserID(t *testing.T) {
	issuer := testIssuer(nil)

	if _, _, err := issuer.IssueAccess("   "); err == nil {
		t.Fatal("expected an error for a blank user id")
	}
}

func TestConsecutiveRefreshTokensDiffer(t *testing.T) {
	fixed := time.Now().UTC()
	issuer := testIssuer(func() time.Time { return fixed })

	first, _, err := issuer.IssueRefresh("user-1")
	if err != nil {
		t.Fatalf("issue refresh: %v", err)
	}
	second, _, err := issuer.IssueRefresh("user-1")
	if err != nil {
		t.Fatalf("issue refresh: %v", err)
	}

	if first == second {
		t.Fatal("expected distinct refresh tokens within the same clock tick")
	}
}
