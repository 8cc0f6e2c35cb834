package auth

import (
	"testing"
	"time"

	"github.com/spec-kit/service-desk/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	user := &domain.User{ID: 42, Role: domain.RoleAgent}

	raw, expires, err := tm.GenerateToken(user)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if !expires.After(time.Now()) {
		t.Errorf("expires = %v, want future", expires)
	}

	claims, err := tm.ParseToken(raw)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.UserID != 42 || claims.Role != domain.RoleAgent {
		t.Errorf("claims = %+v", claims)
	}
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	raw, _, err := NewTokenManager("one", time.Hour).GenerateToken(&domain.User{ID: 1, Role: domain.RoleAdmin})
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := NewTokenManager("two", time.Hour).ParseToken(raw); err == nil {
		t.Fatal("ParseToken accepted a token signed with another secret")
	}
}

func TestTokenExpires(t *testing.T) {
	tm := NewTokenManager("secret", time.Minute)
	issued := time.Now()
	tm.now = func() time.Time { return issued }
	raw, _, err := tm.GenerateToken(&domain.User{ID: 1, Role: domain.RoleAdmin})
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	tm.now = func() time.Time { return issued.Add(2 * time.Minute) }
	if _, err := tm.ParseToken(raw); err == nil {
		t.Fatal("ParseToken accepted an expired token")
	}
}
