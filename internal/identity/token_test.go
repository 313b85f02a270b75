package identity

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signTestToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return signed
}

func TestTokenSubject(t *testing.T) {
	idToken := signTestToken(t, jwt.MapClaims{"sub": "uid-123"})

	sub, err := TokenSubject(idToken)
	if err != nil {
		t.Fatalf("TokenSubject() error = %v", err)
	}
	if sub != "uid-123" {
		t.Errorf("TokenSubject() = %q, want %q", sub, "uid-123")
	}
}

func TestTokenSubject_Missing(t *testing.T) {
	idToken := signTestToken(t, jwt.MapClaims{"aud": "grandline"})

	if _, err := TokenSubject(idToken); err == nil {
		t.Error("TokenSubject() error = nil, want error for missing sub claim")
	}
}

func TestTokenSubject_Malformed(t *testing.T) {
	if _, err := TokenSubject("not-a-jwt"); err == nil {
		t.Error("TokenSubject() error = nil, want parse error")
	}
}

func TestTokenExpiresAt(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	idToken := signTestToken(t, jwt.MapClaims{"sub": "uid-123", "exp": exp.Unix()})

	got, err := TokenExpiresAt(idToken)
	if err != nil {
		t.Fatalf("TokenExpiresAt() error = %v", err)
	}
	if !got.Equal(exp) {
		t.Errorf("TokenExpiresAt() = %v, want %v", got, exp)
	}
}

func TestTokenExpiresAt_NoClaim(t *testing.T) {
	idToken := signTestToken(t, jwt.MapClaims{"sub": "uid-123"})

	got, err := TokenExpiresAt(idToken)
	if err != nil {
		t.Fatalf("TokenExpiresAt() error = %v", err)
	}
	if !got.IsZero() {
		t.Errorf("TokenExpiresAt() = %v, want zero time", got)
	}
}
