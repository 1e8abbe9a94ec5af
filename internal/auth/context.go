// Package auth carries the identity of an authorised dashboard request.
package auth

import "context"

type contextKey struct{}

// Dashboard is the access granted by a dashboard token: read-only access to
// one family.
type Dashboard struct {
	FamilyID int64
	TokenID  string
}

func WithDashboard(ctx context.Context, d Dashboard) context.Context {
	return context.WithValue(ctx, contextKey{}, d)
}

func FromContext(ctx context.Context) (Dashboard, bool) {
	d, ok := ctx.Value(contextKey{}).(Dashboard)
	return d, ok
}

// FamilyID returns the authorised family, or 0 outside an authorised request.
func FamilyID(ctx context.Context) int64 {
	d, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return d.FamilyID
}
