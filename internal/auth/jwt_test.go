package auth

import (
	"testing"
	"time"
)

func TestStaffTokenRoundTrip(t *testing.T) {
	secret := "test-secret"
	token, err := GenerateStaffToken("brigade-road", "ninecafe", secret, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := VerifyAccessToken(token, secret)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if claims.Location != "brigade-road" || claims.Username != "ninecafe" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	secret := "test-secret"
	token, err := GenerateStaffToken("brigade-road", "ninecafe", secret, -time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := VerifyAccessToken(token, secret); err == nil {
		t.Fatalf("expected expired token to fail")
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := GenerateStaffToken("brigade-road", "ninecafe", "secret-a", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := VerifyAccessToken(token, "secret-b"); err == nil {
		t.Fatalf("expected signature mismatch to fail")
	}
}

func TestParseBearerToken(t *testing.T) {
	if got := ParseBearerToken("Bearer abc.def.ghi"); got != "abc.def.ghi" {
		t.Fatalf("unexpected token %q", got)
	}
	if got := ParseBearerToken("abc.def.ghi"); got != "" {
		t.Fatalf("expected empty for missing scheme, got %q", got)
	}
	if got := ParseBearerToken(""); got != "" {
		t.Fatalf("expected empty for empty header, got %q", got)
	}
}
