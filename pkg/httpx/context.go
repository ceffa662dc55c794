package httpx

import (
	"context"

	"github.com/teamlapse/socialauth/pkg/authtoken"
)

type ctxKey string

const CtxKeyPrincipal ctxKey = "principal"

// ContextWithPrincipal installs the authenticated caller for the remainder
// of request processing. The value is scoped to this request's context and
// never shared across requests.
func ContextWithPrincipal(ctx context.Context, p authtoken.Principal) context.Context {
	return context.WithValue(ctx, CtxKeyPrincipal, p)
}

// PrincipalFromContext returns the authenticated caller, if any.
func PrincipalFromContext(ctx context.Context) (authtoken.Principal, bool) {
	p, ok := ctx.Value(CtxKeyPrincipal).(authtoken.Principal)
	return p, ok
}
