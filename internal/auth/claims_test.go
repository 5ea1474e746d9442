package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func mintToken(t *testing.T, role string) string {
	t.Helper()
	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: "u-1",
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte("remote-side-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestDecodeTokenWithoutSecret(t *testing.T) {
	claims, err := DecodeToken(mintToken(t, "admin"))
	if err != nil {
		t.Fatalf("expected decode to succeed without the signing secret: %v", err)
	}
	if claims.UserID != "u-1" || claims.Role != "admin" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestRequireAdmin(t *testing.T) {
	if _, err := RequireAdmin(mintToken(t, "admin")); err != nil {
		t.Fatalf("expected admin token to pass: %v", err)
	}
	if _, err := RequireAdmin(mintToken(t, "user")); !errors.Is(err, ErrNotAdmin) {
		t.Fatalf("expected ErrNotAdmin for non-admin role, got %v", err)
	}
	if _, err := RequireAdmin("not-a-jwt"); err == nil {
		t.Fatalf("expected garbage token to fail decode")
	}
}
