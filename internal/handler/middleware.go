package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/fazenda-socios/portal-bfa-go/internal/domain"
	"github.com/fazenda-socios/portal-bfa-go/internal/service"

	"go.uber.org/zap"
)

type contextKey string

const viewerKey contextKey = "viewer"

// AuthMiddleware validates the Bearer token against the session service and puts the
// resolved Viewer in the request context.
func AuthMiddleware(sessions *service.SessionService, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn("auth: missing token",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "Token de autenticação não fornecido")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				logger.Warn("auth: invalid token format",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "Formato de token inválido")
				return
			}

			viewer, err := sessions.Authenticate(r.Context(), parts[1])
			if err != nil {
				handleServiceError(w, err, logger)
				return
			}

			ctx := context.WithValue(r.Context(), viewerKey, *viewer)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ViewerFromContext returns the Viewer set by AuthMiddleware.
func ViewerFromContext(ctx context.Context) domain.Viewer {
	v, _ := ctx.Value(viewerKey).(domain.Viewer)
	return v
}

// RequireApproved lets through admins and approved users only.
func RequireApproved(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			v := ViewerFromContext(r.Context())
			if v.Gate() != domain.GateActive {
				handleServiceError(w, &domain.ErrPendingApproval{UserID: v.UserID}, logger)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func RequireAdmin(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !ViewerFromContext(r.Context()).IsAdmin {
				handleServiceError(w, &domain.ErrForbidden{Action: r.Method + " " + r.URL.Path}, logger)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePage rejects viewers whose menu does not include page.
func RequirePage(page domain.Page, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !ViewerFromContext(r.Context()).CanAccess(page) {
				handleServiceError(w, &domain.ErrForbidden{Action: "acessar " + string(page)}, logger)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
