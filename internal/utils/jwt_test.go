package utils

import (
	"testing"
	"time"
)

func init() {
	SetJWTSecret("test-secret-key-for-testing")
}

func TestGenerateToken(t *testing.T) {
	token, err := GenerateToken(1, "alice@example.com", 168)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	if token == "" {
		t.Error("GenerateToken() returned empty token")
	}

	if len(token) < 50 {
		t.Errorf("token seems too short: %d chars", len(token))
	}
}

func TestGenerateToken_DifferentTokens(t *testing.T) {
	token1, _ := GenerateToken(1, "alice@example.com", 168)
	token2, _ := GenerateToken(2, "bob@example.com", 168)

	if token1 == token2 {
		t.Error("different users should produce different tokens")
	}
}

func TestParseToken(t *testing.T) {
	userID := uint(42)
	email := "carol@example.com"

	token, _ := GenerateToken(userID, email, 168)

	claims, err := ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}

	if claims.UserID != userID {
		t.Errorf("UserID = %d, expected %d", claims.UserID, userID)
	}
	if claims.Email != email {
		t.Errorf("Email = %q, expected %q", claims.Email, email)
	}
}

func TestParseToken_InvalidToken(t *testing.T) {
	invalidTokens := []string{
		"",
		"invalid",
		"not.a.token",
		"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.invalid.signature",
	}

	for _, token := range invalidTokens {
		_, err := ParseToken(token)
		if err == nil {
			t.Errorf("ParseToken(%q) should return error", token)
		}
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	SetJWTSecret("original-secret")
	token, _ := GenerateToken(1, "user@example.com", 168)

	SetJWTSecret("different-secret")
	_, err := ParseToken(token)

	SetJWTSecret("test-secret-key-for-testing")

	if err == nil {
		t.Error("ParseToken should fail with wrong secret")
	}
}

func TestGenerateToken_DefaultExpiry(t *testing.T) {
	// Zero hours falls back to the 7-day default.
	token, _ := GenerateToken(1, "user@example.com", 0)
	claims, err := ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}

	expectedExpiry := time.Now().Add(168 * time.Hour)
	diff := claims.ExpiresAt.Time.Sub(expectedExpiry)
	if diff < -time.Minute || diff > time.Minute {
		t.Errorf("default expiry off by %v, expected ~7 days", diff)
	}
}

func TestGenerateToken_Expiration(t *testing.T) {
	token, _ := GenerateToken(1, "user@example.com", 1)
	claims, _ := ParseToken(token)

	expiresAt := claims.ExpiresAt.Time
	now := time.Now()

	if expiresAt.Before(now) {
		t.Error("token should not be expired immediately")
	}

	expectedExpiry := now.Add(1 * time.Hour)
	diff := expiresAt.Sub(expectedExpiry)
	if diff < -time.Minute || diff > time.Minute {
		t.Errorf("expiry off by %v, expected ~1 hour", diff)
	}
}
