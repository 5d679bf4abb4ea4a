package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/fdg312/fithub/internal/userctx"
	log "github.com/sirupsen/logrus"
)

// Middleware middleware для проверки авторизации
type Middleware struct {
	service *Service
}

func NewMiddleware(service *Service) *Middleware {
	return &Middleware{service: service}
}

// RequireAuth middleware для защиты эндпоинтов
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		if header == "" {
			if token := tokenFromQuery(r); token != "" {
				header = "Bearer " + token
			}
		}

		claims, err := m.authenticateHeader(header)
		if err != nil {
			writeErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
			return
		}

		ctx := userctx.WithUserID(r.Context(), claims.Subject)
		ctx = userctx.WithRole(ctx, claims.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin must run after RequireAuth. The role is read from storage
// so a demotion takes effect before the token expires.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := userctx.GetUserID(r.Context()); !ok {
			writeErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
			return
		}

		role, err := m.service.CurrentRole(r.Context())
		switch {
		case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrUserNotFound):
			writeErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
			return
		case err != nil:
			log.WithError(err).Error("load caller role")
			writeErrorResponse(w, http.StatusInternalServerError, "internal_error", "internal server error")
			return
		}
		if role != RoleAdmin {
			writeErrorResponse(w, http.StatusForbidden, "forbidden", "admin role required")
			return
		}

		next.ServeHTTP(w, r.WithContext(userctx.WithRole(r.Context(), role)))
	})
}

func (m *Middleware) authenticateHeader(authHeader string) (*Claims, error) {
	parts := strings.SplitN(strings.TrimSpace(authHeader), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, ErrInvalidToken
	}
	return m.service.VerifyJWT(strings.TrimSpace(parts[1]))
}

// SSE clients cannot set headers, so the stream endpoint also accepts ?access_token=.
func tokenFromQuery(r *http.Request) string {
	if r.URL.Path != "/v1/notifications/stream" {
		return ""
	}
	return r.URL.Query().Get("access_token")
}

func isPublicPath(path string) bool {
	if path == "/healthz" || path == "/metrics" {
		return true
	}
	return strings.HasPrefix(path, "/v1/auth/") && path != "/v1/auth/me"
}
