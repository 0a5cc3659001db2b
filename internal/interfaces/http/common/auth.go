package common

import "context"

type contextKey string

const principalContextKey contextKey = "principal"

// Auth schemes accepted on the webhook.
const (
	SchemeBasic  = "basic"
	SchemeBearer = "bearer"
)

// Principal is the authenticated webhook caller.
type Principal struct {
	Subject string `json:"subject"`
	Issuer  string `json:"issuer,omitempty"`
	Scheme  string `json:"scheme"`
}

// ContextWithPrincipal stores the authenticated caller into context.
func ContextWithPrincipal(ctx context.Context, principal Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// PrincipalFromContext extracts the authenticated caller from context.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(Principal)
	return principal, ok
}
