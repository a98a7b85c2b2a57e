package services

import (
	"net/http"
	"strings"
	"testing"

	"github.com/openkanban/taskboard/internal/config"
	"github.com/openkanban/taskboard/internal/utils"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	return NewAuthService(newTestDB(t), &config.JWTConfig{Secret: "x", ExpireHour: 168})
}

func TestSignup_Validation(t *testing.T) {
	svc := newAuthService(t)

	cases := []struct {
		name string
		req  SignupRequest
	}{
		{"short name", SignupRequest{Name: " a ", Email: "a@b.co", Password: "secret1"}},
		{"bad email", SignupRequest{Name: "Alice", Email: "not-an-email", Password: "secret1"}},
		{"short password", SignupRequest{Name: "Alice", Email: "a@b.co", Password: "12345"}},
		{"bad photo", SignupRequest{Name: "Alice", Email: "a@b.co", Password: "secret1", UserPhoto: "https://x.com/pic.gif"}},
	}

	for _, tc := range cases {
		if _, err := svc.Signup(&tc.req); err == nil {
			t.Errorf("%s: expected error", tc.name)
		} else {
			assertAppError(t, err, http.StatusBadRequest)
		}
	}
}

func TestSignup_DefaultAvatarAndDuplicate(t *testing.T) {
	svc := newAuthService(t)

	user, err := svc.Signup(&SignupRequest{Name: "  Alice  ", Email: "alice@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
	if user.Name != "Alice" {
		t.Errorf("name = %q, expected trimmed", user.Name)
	}
	if !strings.Contains(user.UserPhoto, "username=Alice") {
		t.Errorf("expected generated avatar URL, got %q", user.UserPhoto)
	}
	if user.PasswordHash == "secret1" || user.PasswordHash == "" {
		t.Error("password must be stored hashed")
	}

	_, err = svc.Signup(&SignupRequest{Name: "Other", Email: "alice@example.com", Password: "secret1"})
	assertAppError(t, err, http.StatusBadRequest)
}

func TestLogin(t *testing.T) {
	svc := newAuthService(t)

	if _, err := svc.Signup(&SignupRequest{Name: "Alice", Email: "alice@example.com", Password: "secret1"}); err != nil {
		t.Fatalf("Signup failed: %v", err)
	}

	resp, err := svc.Login(&LoginRequest{Email: "alice@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if resp.Token == "" || resp.User == nil {
		t.Fatal("expected token and user in response")
	}

	claims, err := utils.ParseToken(resp.Token)
	if err != nil {
		t.Fatalf("issued token does not parse: %v", err)
	}
	if claims.UserID != resp.User.ID || claims.Email != "alice@example.com" {
		t.Errorf("claims = %d/%q", claims.UserID, claims.Email)
	}

	// wrong password and unknown account fail identically
	_, err = svc.Login(&LoginRequest{Email: "alice@example.com", Password: "wrong"})
	assertAppError(t, err, http.StatusUnauthorized)

	_, err = svc.Login(&LoginRequest{Email: "nobody@example.com", Password: "secret1"})
	assertAppError(t, err, http.StatusUnauthorized)
}

func TestSearchUsers(t *testing.T) {
	svc := newAuthService(t)

	for _, name := range []string{"Alice Johnson", "Bob Alison", "Carol"} {
		email := strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com"
		if _, err := svc.Signup(&SignupRequest{Name: name, Email: email, Password: "secret1"}); err != nil {
			t.Fatalf("Signup failed: %v", err)
		}
	}

	users, err := svc.Search("ALI")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("expected 2 matches for %q, got %d", "ALI", len(users))
	}

	count, err := svc.Count()
	if err != nil || count != 3 {
		t.Errorf("Count = %d, err=%v", count, err)
	}
}

func TestIsEmailShaped(t *testing.T) {
	valid := []string{"a@b.co", "first.last@company.io"}
	invalid := []string{"", "plain", "missing@tld", "@no.user"}

	for _, s := range valid {
		if !IsEmailShaped(s) {
			t.Errorf("IsEmailShaped(%q) = false", s)
		}
	}
	for _, s := range invalid {
		if IsEmailShaped(s) {
			t.Errorf("IsEmailShaped(%q) = true", s)
		}
	}
}
