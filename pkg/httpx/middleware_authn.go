package httpx

import (
	"net/http"
	"strings"

	"github.com/teamlapse/socialauth/pkg/authtoken"
	"github.com/teamlapse/socialauth/pkg/slogx"
)

// The "Bearer " prefix is matched case-sensitively; anything else counts
// as no token presented.
const bearerPrefix = "Bearer "

// BearerMiddleware extracts the bearer token from the Authorization header
// and, when it validates, installs the derived principal into the request
// context. Missing, malformed and invalid tokens are all treated the same
// way: the request continues anonymously. Authorization decisions belong
// downstream; this layer never writes an error response.
func BearerMiddleware(provider *authtoken.Provider) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			authz := r.Header.Get("Authorization")
			if !strings.HasPrefix(authz, bearerPrefix) {
				next.ServeHTTP(w, r)
				return
			}

			token := provider.ConvertToken(authz[len(bearerPrefix):])
			principal, err := provider.Authentication(token)
			if err != nil {
				slogx.FromContext(ctx).Debug("bearer token rejected", "err", err)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(ctx, principal)))
		})
	}
}

// RequirePrincipal rejects anonymous requests with 401. Pair it with
// BearerMiddleware on endpoints that need an authenticated caller.
func RequirePrincipal() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := PrincipalFromContext(r.Context()); !ok {
				writeBearerError(w, "missing or invalid bearer token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole rejects callers whose principal does not carry the role.
func RequireRole(role string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				writeBearerError(w, "missing or invalid bearer token")
				return
			}
			if !p.HasRole(role) {
				w.Header().Set("WWW-Authenticate", `Bearer error="insufficient_scope", scope="`+role+`"`)
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte("insufficient_scope"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RFC 6750-compliant error response for bearer auth.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	w.WriteHeader(http.StatusUnauthorized)
}
