package api

import (
	"net/http"
	"strings"

	"github.com/kalambet/studybot/internal/notify"
)

// RelayAuth requires a valid relay token on every request. A nil signer
// disables the check.
func RelayAuth(signer *notify.Signer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if signer == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			const prefix = "Bearer "
			if !strings.HasPrefix(auth, prefix) || signer.Verify(auth[len(prefix):]) != nil {
				httpError(w, http.StatusUnauthorized, "authentication_error", "invalid or missing relay token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
