package middleware

import (
	"net/http"
	"strings"

	"github.com/dukerupert/babycare/internal/auth"
	"github.com/dukerupert/babycare/internal/invite"
)

// DashboardToken returns the token from the "token" query parameter or a
// bearer Authorization header.
func DashboardToken(r *http.Request) string {
	if t := r.URL.Query().Get("token"); t != "" {
		return t
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

// RequireDashboard validates the dashboard token and populates the family the
// request may read. Missing, expired and foreign-audience tokens get 401.
func RequireDashboard(tokens *invite.Signer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := DashboardToken(r)
			if token == "" {
				unauthorized(w, "missing token")
				return
			}
			claims, err := tokens.ParseDashboard(token)
			if err != nil {
				unauthorized(w, "invalid or expired token")
				return
			}
			ctx := auth.WithDashboard(r.Context(), auth.Dashboard{FamilyID: claims.FamilyID, TokenID: claims.JWTID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"` + msg + `"}`))
}
