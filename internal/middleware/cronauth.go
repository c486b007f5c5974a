package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/falconhq/falcon/internal/auth"
)

// CronAuth guards scheduler-only endpoints with a bearer token verified
// against an Argon2id PHC hash. The token itself is never stored.
func CronAuth(tokenHash string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				unauthorized(w)
				return
			}

			valid, err := auth.VerifyToken(token, tokenHash)
			if err != nil {
				logger.Error("cron token verification failed",
					"request_id", GetRequestID(r.Context()),
					"error", err,
				)
				unauthorized(w)
				return
			}
			if !valid {
				logger.Warn("cron trigger rejected: bad token",
					"request_id", GetRequestID(r.Context()),
					"remote_addr", r.RemoteAddr,
				)
				unauthorized(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
}
