package middleware

import (
	"net/http"
	"strings"

	"stadium-ticketing/internal/data/repository"
	"stadium-ticketing/internal/domain"
	"stadium-ticketing/pkg/utils"

	"go.uber.org/zap"
)

// JWTAuth verifies the bearer token, confirms the user still exists and
// stores a domain.Identity in the request context.
func JWTAuth(secret string, userRepo repository.UserRepository, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				utils.ResponseUnauthorized(w, "Missing authorization token")
				return
			}

			raw, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || strings.TrimSpace(raw) == "" {
				utils.ResponseUnauthorized(w, "Invalid token format. Use: Bearer <token>")
				return
			}

			claims, err := utils.ParseAccessToken(secret, strings.TrimSpace(raw))
			if err != nil {
				utils.ResponseUnauthorized(w, "Invalid or expired token")
				return
			}

			user, err := userRepo.FindByID(r.Context(), claims.UserID)
			if err != nil {
				logger.Error("Failed to load token user",
					zap.Int64("user_id", claims.UserID),
					zap.Error(err))
				utils.ResponseInternalError(w, "Internal server error")
				return
			}
			if user == nil {
				logger.Warn("Token for unknown user", zap.Int64("user_id", claims.UserID))
				utils.ResponseUnauthorized(w, "Invalid or expired token")
				return
			}

			// role is read from the store so demotions apply before token expiry
			ctx := utils.SetIdentity(r.Context(), domain.Identity{UserID: user.ID, Role: user.Role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Admin rejects callers without the admin role. Must run after JWTAuth.
func Admin(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := utils.IdentityFromContext(r.Context())
			if !ok {
				utils.ResponseUnauthorized(w, "Authentication required")
				return
			}

			if !id.IsAdmin() {
				logger.Warn("Admin check: non-admin access attempt",
					zap.Int64("user_id", id.UserID),
					zap.String("path", r.URL.Path))
				utils.ResponseForbidden(w, "Admin access required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
