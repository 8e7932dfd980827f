// Package context carries request-scoped identity and trace values.
package context

import "context"

// UserContext is the identity triple supplied by the authentication layer,
// plus a display name for audit trails. The core trusts it as given and
// scopes every read and write by TenantID.
type UserContext struct {
	UserID   string
	TenantID string
	Username string
	Role     string
}

// Actor names the caller in ledger and audit records.
func (u *UserContext) Actor() string {
	if u == nil {
		return ""
	}
	return u.UserID
}

type userKey struct{}

func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// GetUser returns the caller, or nil for background work.
func GetUser(ctx context.Context) *UserContext {
	u, _ := ctx.Value(userKey{}).(*UserContext)
	return u
}

func GetUserID(ctx context.Context) string {
	return GetUser(ctx).Actor()
}

// GetTenantID returns the raw tenant claim. Use tenant.GetTenantID for the
// parsed id once the tenant gate has run.
func GetTenantID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.TenantID
	}
	return ""
}
