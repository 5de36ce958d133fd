package common

import (
	"context"
)

// Role values carried in bearer tokens.
const (
	RoleAdmin    = "ADMIN"
	RoleTeller   = "TELLER"
	RoleCustomer = "CUSTOMER"
)

// ValidRole reports whether r is a recognized role label.
func ValidRole(r string) bool {
	switch r {
	case RoleAdmin, RoleTeller, RoleCustomer:
		return true
	}
	return false
}

// Principal is the authenticated caller extracted from a verified bearer
// token. Subject is the user identity; TokenID is the token's jti.
type Principal struct {
	Subject string
	Role    string
	TokenID string
}

// IsStaff reports whether the principal holds a back-office role.
func (p *Principal) IsStaff() bool {
	return p.Role == RoleAdmin || p.Role == RoleTeller
}

type contextKey int

const principalKey contextKey = iota

// WithPrincipal stores the authenticated principal in the request context.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext retrieves the Principal from context, or nil if the
// request was not authenticated.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey).(*Principal)
	return p
}
