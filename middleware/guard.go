package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	authgate "github.com/MrEthical07/authgate"
)

type identityContextKey struct{}

// IdentityFromContext returns the identity injected by [Guard] for the
// current request.
func IdentityFromContext(ctx context.Context) (*authgate.Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(*authgate.Identity)
	return id, ok
}

// Guard enforces a valid bearer access token on every wrapped request.
// Verification failures map to 401, a wrong token kind or dead session to
// 403, and backend outages to 503.
func Guard(engine *authgate.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			identity, err := engine.ValidateAccess(r.Context(), token)
			if err != nil {
				switch {
				case errors.Is(err, authgate.ErrForbidden):
					http.Error(w, "forbidden", http.StatusForbidden)
				case errors.Is(err, authgate.ErrServiceUnavailable):
					http.Error(w, "service unavailable", http.StatusServiceUnavailable)
				default:
					http.Error(w, "unauthorized", http.StatusUnauthorized)
				}
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey{}, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
