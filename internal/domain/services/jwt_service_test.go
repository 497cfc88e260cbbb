package services

import (
	"testing"

	"visitpulse-http-service/internal/infrastructure/config"
)

func TestJWTRoundTrip(t *testing.T) {
	svc := NewJWTService(&config.Config{JWTSecretKey: "test-secret"})

	token, err := svc.GenerateToken(42, "secretary")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	claims, err := svc.ExtractClaims(token)
	if err != nil {
		t.Fatalf("ExtractClaims failed: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("expected user id 42, got %d", claims.UserID)
	}
	if claims.Role != "secretary" {
		t.Errorf("expected role secretary, got %q", claims.Role)
	}
}

func TestJWTInvalidToken(t *testing.T) {
	svc := NewJWTService(&config.Config{JWTSecretKey: "test-secret"})

	if _, err := svc.ExtractClaims("not-a-token"); err == nil {
		t.Fatal("expected error for malformed token")
	}

	// 换密钥签出的令牌应当被拒绝
	other := NewJWTService(&config.Config{JWTSecretKey: "other-secret"})
	token, err := other.GenerateToken(1, "visitor")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if _, err := svc.ExtractClaims(token); err == nil {
		t.Fatal("expected error for token signed with a different key")
	}
}
