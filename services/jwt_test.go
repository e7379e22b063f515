package services

import (
	"testing"
	"time"
)

func newTestJWTService() *JWTService {
	return &JWTService{
		AccessTokenDuration: time.Hour,
		jwtSecretKey:        "test-secret",
	}
}

func TestJWTRoundTrip(t *testing.T) {
	t.Parallel()

	svc := newTestJWTService()

	pair, err := svc.GenerateTokenPair("user-123")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	if pair.AccessToken == "" {
		t.Fatal("empty access token")
	}
	if pair.ExpiresIn != 3600 {
		t.Fatalf("expected 3600s expiry, got %d", pair.ExpiresIn)
	}

	userID, err := svc.VerifyJWTToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("failed to verify token: %v", err)
	}
	if userID != "user-123" {
		t.Fatalf("expected user-123, got %q", userID)
	}
}

func TestJWTRejectsWrongKey(t *testing.T) {
	t.Parallel()

	svc := newTestJWTService()
	token, err := svc.ToJWT("user-123")
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	other := &JWTService{
		AccessTokenDuration: time.Hour,
		jwtSecretKey:        "different-secret",
	}
	if _, err := other.VerifyJWTToken(token); err == nil {
		t.Fatal("token signed with another key should not verify")
	}
}

func TestExtractTokenFromHeader(t *testing.T) {
	t.Parallel()

	svc := newTestJWTService()

	token, err := svc.ExtractTokenFromHeader("Bearer abc123")
	if err != nil || token != "abc123" {
		t.Fatalf("expected abc123, got %q (%v)", token, err)
	}

	if _, err := svc.ExtractTokenFromHeader(""); err == nil {
		t.Fatal("missing header should fail")
	}
	if _, err := svc.ExtractTokenFromHeader("Basic abc123"); err == nil {
		t.Fatal("non-bearer header should fail")
	}
}
