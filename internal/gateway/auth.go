package gateway

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// requireAuth guards operational endpoints such as /metrics. Credentials
// are compared in constant time.
func requireAuth(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.allows(r) {
				if cfg.BasicUser != "" {
					w.Header().Set("WWW-Authenticate", `Basic realm="newsclaw"`)
				}
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (a AuthConfig) allows(r *http.Request) bool {
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok && a.BearerToken != "" {
		return secureEqual(token, a.BearerToken)
	}
	if user, pass, ok := r.BasicAuth(); ok && a.BasicUser != "" && a.BasicPass != "" {
		// Evaluate both so timing does not reveal which one failed.
		userOK := secureEqual(user, a.BasicUser)
		passOK := secureEqual(pass, a.BasicPass)
		return userOK && passOK
	}
	return false
}

func secureEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
