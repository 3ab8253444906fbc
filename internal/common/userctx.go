package common

import (
	"context"
)

// Roles carried in bearer tokens.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// UserContext identifies the caller of a request. It is populated from the
// bearer token by the server middleware; absent means anonymous.
type UserContext struct {
	AccountID string
	Role      string
}

// IsAdmin reports whether the caller may run admin operations.
func (uc *UserContext) IsAdmin() bool {
	return uc != nil && uc.Role == RoleAdmin
}

// CanAccess reports whether the caller may read or act on accountID.
// Admins may access every account.
func (uc *UserContext) CanAccess(accountID string) bool {
	if uc == nil {
		return false
	}
	return uc.IsAdmin() || (accountID != "" && uc.AccountID == accountID)
}

type contextKey int

const userContextKey contextKey = iota

// WithUserContext stores a UserContext in the request context.
func WithUserContext(ctx context.Context, uc *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, uc)
}

// UserContextFromContext retrieves the UserContext from context, or nil if absent.
func UserContextFromContext(ctx context.Context) *UserContext {
	uc, _ := ctx.Value(userContextKey).(*UserContext)
	return uc
}

// ResolveAccountID returns the caller's account ID, or "" when anonymous.
func ResolveAccountID(ctx context.Context) string {
	if uc := UserContextFromContext(ctx); uc != nil {
		return uc.AccountID
	}
	return ""
}
