// Package credentials supplies the bearer token and user id used to call the
// remote API. Tokens are looked up per request so rotation needs no restart.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNoCredential = errors.New("no credential available")
	ErrExpired      = errors.New("credential expired")
)

// Credential is what an authenticated request needs.
type Credential struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}

// Provider resolves the current credential.
type Provider interface {
	Credential(ctx context.Context) (Credential, error)
}

// Static serves a fixed token.
type Static struct {
	Token string
	now   func() time.Time
}

func NewStatic(token string) *Static {
	return &Static{Token: token, now: time.Now}
}

func (s *Static) Credential(ctx context.Context) (Credential, error) {
	now := time.Now
	if s.now != nil {
		now = s.now
	}
	return fromToken(s.Token, now())
}

// File reads the token from disk on every call.
type File struct {
	Path string
	now  func() time.Time
}

func NewFile(path string) *File {
	return &File{Path: path, now: time.Now}
}

func (f *File) Credential(ctx context.Context) (Credential, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Credential{}, ErrNoCredential
		}
		return Credential{}, fmt.Errorf("read token file: %w", err)
	}
	now := time.Now
	if f.now != nil {
		now = f.now
	}
	return fromToken(string(data), now())
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context) (Credential, error)

func (fn ProviderFunc) Credential(ctx context.Context) (Credential, error) {
	return fn(ctx)
}

func fromToken(raw string, now time.Time) (Credential, error) {
	token := strings.TrimSpace(raw)
	token = strings.TrimPrefix(token, "Bearer ")
	if token == "" {
		return Credential{}, ErrNoCredential
	}

	cred := Credential{Token: token}
	claims, ok := decodeClaims(token)
	if !ok {
		// Opaque tokens carry no metadata.
		return cred, nil
	}

	cred.UserID = userID(claims)
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		cred.ExpiresAt = exp.Time
		if !now.Before(exp.Time) {
			return Credential{}, fmt.Errorf("token expired at %s: %w", exp.Time.Format(time.RFC3339), ErrExpired)
		}
	}
	return cred, nil
}

// decodeClaims reads JWT claims without verifying the signature; the server
// does that.
func decodeClaims(token string) (jwt.MapClaims, bool) {
	if strings.Count(token, ".") != 2 {
		return nil, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, false
	}
	return claims, true
}

func userID(claims jwt.MapClaims) string {
	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		return sub
	}
	for _, key := range []string{"userId", "id"} {
		switch v := claims[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}
