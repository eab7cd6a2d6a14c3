package middleware

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/benvon/activity-coach/internal/database"
	"github.com/benvon/activity-coach/internal/request"
)

// Auth creates authentication middleware that resolves opaque bearer
// session tokens. Token issuance lives outside this service; a presented
// token is looked up, checked for expiry, and mapped to its user.
func Auth(db *database.DB) func(http.Handler) http.Handler {
	sessionRepo := database.NewSessionRepository(db)
	userRepo := database.NewUserRepository(db)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondError(w, http.StatusUnauthorized, "Missing Authorization header")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				respondError(w, http.StatusUnauthorized, "Invalid Authorization header format")
				return
			}

			ctx := r.Context()
			session, err := sessionRepo.GetByToken(ctx, parts[1])
			if err != nil {
				respondError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			if session.IsExpired() {
				// Best-effort cleanup of the dead row.
				if err := sessionRepo.Delete(ctx, session.Token); err != nil {
					log.Printf("Failed to delete expired session: %v", err)
				}
				respondError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			user, err := userRepo.GetByID(ctx, session.UserID)
			if err != nil {
				log.Printf("Database error while fetching session user: %v", err)
				respondError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(request.WithUser(ctx, user)))
		})
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success": false,
		"error":   message,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Failed to encode error response: %v", err)
	}
}
