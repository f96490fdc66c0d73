package auth

import (
	"net/http"
	"strings"

	logger "github.com/sirupsen/logrus"

	"papertrader/src/security"
)

// RequireAPIToken builds the bearer-token middleware for the trading routes.
// The expected token is configured as a bcrypt hash, so the plaintext never
// lives in the environment. An empty hash runs the API open.
func RequireAPIToken() func(http.Handler) http.Handler {
	config := security.GetConfig()

	if config.APITokenHash == "" {
		logger.Warn("API_TOKEN_HASH not set, trading routes are unauthenticated")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if config.APITokenHash == "" {
				next.ServeHTTP(w, r.WithContext(WithAuthenticated(r.Context())))
				return
			}

			header := r.Header.Get("Authorization")
			token := strings.TrimPrefix(header, "Bearer ")
			if header == "" || token == header {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if err := security.VerifyToken(config.APITokenHash, token); err != nil {
				logger.Warn("rejected request with invalid API token")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAuthenticated(r.Context())))
		})
	}
}
