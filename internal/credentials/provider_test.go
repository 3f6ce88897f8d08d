package credentials

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func TestStatic_OpaqueToken(t *testing.T) {
	cred, err := NewStatic("  abc123\n").Credential(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cred.Token != "abc123" || cred.UserID != "" || !cred.ExpiresAt.IsZero() {
		t.Fatalf("unexpected credential: %+v", cred)
	}
}

func TestStatic_Empty(t *testing.T) {
	if _, err := NewStatic("").Credential(context.Background()); !errors.Is(err, ErrNoCredential) {
		t.Fatalf("expected ErrNoCredential, got %v", err)
	}
}

func TestStatic_JWTClaims(t *testing.T) {
	now := time.Date(2025, 9, 15, 12, 0, 0, 0, time.UTC)
	exp := now.Add(time.Hour)

	tests := []struct {
		name   string
		claims jwt.MapClaims
		wantID string
	}{
		{"subject", jwt.MapClaims{"sub": "user-1", "exp": exp.Unix()}, "user-1"},
		{"userId", jwt.MapClaims{"userId": "u-2", "exp": exp.Unix()}, "u-2"},
		{"numeric id", jwt.MapClaims{"id": 42, "exp": exp.Unix()}, "42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Static{Token: signed(t, tt.claims), now: func() time.Time { return now }}
			cred, err := s.Credential(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cred.UserID != tt.wantID {
				t.Errorf("UserID = %q, want %q", cred.UserID, tt.wantID)
			}
			if !cred.ExpiresAt.Equal(exp.Truncate(time.Second)) {
				t.Errorf("ExpiresAt = %v, want %v", cred.ExpiresAt, exp)
			}
		})
	}
}

func TestStatic_Expired(t *testing.T) {
	now := time.Date(2025, 9, 15, 12, 0, 0, 0, time.UTC)
	tok := signed(t, jwt.MapClaims{"sub": "u", "exp": now.Add(-time.Minute).Unix()})
	s := &Static{Token: tok, now: func() time.Time { return now }}
	if _, err := s.Credential(context.Background()); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestFile_ReadsEveryCall(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	f := NewFile(path)

	if _, err := f.Credential(context.Background()); !errors.Is(err, ErrNoCredential) {
		t.Fatalf("missing file: expected ErrNoCredential, got %v", err)
	}

	if err := os.WriteFile(path, []byte("first"), 0o600); err != nil {
		t.Fatal(err)
	}
	cred, err := f.Credential(context.Background())
	if err != nil || cred.Token != "first" {
		t.Fatalf("got %+v, %v", cred, err)
	}

	if err := os.WriteFile(path, []byte("Bearer second\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cred, err = f.Credential(context.Background())
	if err != nil || cred.Token != "second" {
		t.Fatalf("rotated token not picked up: %+v, %v", cred, err)
	}
}
