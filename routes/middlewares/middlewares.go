package middlewares

import (
	"net/http"

	"github.com/go-chi/jwtauth/v5"

	"github.com/ezza-forms/backend/httpx"
	"github.com/ezza-forms/backend/log"
)

// RequireRole gates a route on the role claim of the session token. Must be
// mounted below the jwtauth verifier.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, claims, err := jwtauth.FromContext(r.Context())
			if err != nil {
				httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "auth.claims")
				return
			}

			role, _ := claims["role"].(string)
			for _, allowed := range roles {
				if role == allowed {
					next.ServeHTTP(w, r)
					return
				}
			}

			httpx.LogStatus(w, http.StatusForbidden, log.DebugLevel, "auth.role")
		})
	}
}
