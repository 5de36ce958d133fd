// Package auth provides the token-consuming capability the core services
// require from the Auth collaborator: local HMAC verification of bearer
// tokens plus a best-effort revoked-token check.
package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/gdbank/gdb/internal/common"
	"github.com/gdbank/gdb/internal/models"
)

// RevocationSource answers whether a token id has been revoked. The Auth
// collaborator owns the registry; the core only consults it.
type RevocationSource interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// NoopRevocations never revokes. Used when no registry is configured.
type NoopRevocations struct{}

func (NoopRevocations) IsRevoked(context.Context, string) (bool, error) { return false, nil }

// MemoryRevocations is an in-process registry, used by tests and by the dev
// deployment profile.
type MemoryRevocations struct {
	mu      sync.RWMutex
	revoked map[string]struct{}
}

func NewMemoryRevocations() *MemoryRevocations {
	return &MemoryRevocations{revoked: make(map[string]struct{})}
}

func (m *MemoryRevocations) Revoke(jti string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[jti] = struct{}{}
}

func (m *MemoryRevocations) IsRevoked(_ context.Context, jti string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.revoked[jti]
	return ok, nil
}

// Verifier validates bearer tokens locally (shared HMAC secret) and consults
// the revocation source through a short-TTL read-through cache.
type Verifier struct {
	secret []byte
	source RevocationSource
	cache  *lru.LRU[string, bool]
}

// NewVerifier builds a Verifier. ttl bounds how stale a cached revocation
// answer may be; a token revoked upstream is refused within ttl at worst.
func NewVerifier(secret string, source RevocationSource, ttl time.Duration) *Verifier {
	if source == nil {
		source = NoopRevocations{}
	}
	return &Verifier{
		secret: []byte(secret),
		source: source,
		cache:  lru.NewLRU[string, bool](4096, nil, ttl),
	}
}

// Verify parses and validates the token, returning the caller principal.
// Expired, malformed, wrongly-signed, role-less, and revoked tokens all fail
// with CodeUnauthorized.
func (v *Verifier) Verify(ctx context.Context, tokenString string) (*common.Principal, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, models.NewError(models.CodeUnauthorized, "invalid or expired token")
	}

	sub, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	jti, _ := claims["jti"].(string)
	if sub == "" || jti == "" || !common.ValidRole(role) {
		return nil, models.NewError(models.CodeUnauthorized, "invalid token claims")
	}

	revoked, err := v.isRevoked(ctx, jti)
	if err != nil {
		// Best-effort registry: an unreachable registry does not lock every
		// caller out, but the failure is not cached.
		revoked = false
	}
	if revoked {
		return nil, models.NewError(models.CodeUnauthorized, "token has been revoked")
	}

	return &common.Principal{Subject: sub, Role: role, TokenID: jti}, nil
}

func (v *Verifier) isRevoked(ctx context.Context, jti string) (bool, error) {
	if revoked, ok := v.cache.Get(jti); ok {
		return revoked, nil
	}
	revoked, err := v.source.IsRevoked(ctx, jti)
	if err != nil {
		return false, err
	}
	v.cache.Add(jti, revoked)
	return revoked, nil
}

// Mint signs a bearer token carrying {sub, role, jti, iat, exp}. The core
// only verifies tokens; minting lives here for the Auth collaborator and the
// test suites.
func Mint(secret, subject, role string, ttl time.Duration) (string, error) {
	if !common.ValidRole(role) {
		return "", fmt.Errorf("unknown role %q", role)
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"jti":  uuid.New().String(),
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// MintWithID is Mint with a caller-chosen jti, so tests can revoke the token
// they just minted.
func MintWithID(secret, subject, role, jti string, ttl time.Duration) (string, error) {
	if !common.ValidRole(role) {
		return "", fmt.Errorf("unknown role %q", role)
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"jti":  jti,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
