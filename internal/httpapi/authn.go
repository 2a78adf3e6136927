package httpapi

import (
	"net/http"
	"strings"

	"missio.app/internal/auth"
)

const (
	authHeader   = "Authorization"
	bearerPrefix = "Bearer "
)

var publicPaths = map[string]bool{
	"/v1/auth/register": true,
	"/v1/auth/login":    true,
	"/v1/auth/refresh":  true,
	"/healthz":          true,
	"/readyz":           true,
	"/metrics":          true,
	"/v1/info":          true,
}

func isPublicPath(path string) bool { return publicPaths[path] }

// withAuth resolves the bearer token to a principal and attaches it to
// the request context. Public paths skip authentication entirely.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := extractBearerToken(r.Header.Get(authHeader))
		if !ok {
			respondError(w, http.StatusUnauthorized, "missing or malformed bearer token")
			return
		}
		user, claims, err := a.auth.Authenticate(r.Context(), token)
		if err != nil {
			writeError(w, err)
			return
		}
		ctx := auth.ContextWithPrincipal(r.Context(), auth.Principal{User: user, Claims: claims})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractBearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	return token, token != ""
}
