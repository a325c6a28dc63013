package httpx

import (
	"crypto/subtle"
	"net/http"
)

// BasicAuthMiddleware gates privileged routes behind a single static
// credential pair. Comparison is constant-time on both fields.
func BasicAuthMiddleware(login, password string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok {
				writeBasicError(w)
				return
			}

			userOK := subtle.ConstantTimeCompare([]byte(user), []byte(login)) == 1
			passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(password)) == 1
			if !userOK || !passOK {
				writeBasicError(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeBasicError(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="restricted"`)
	w.WriteHeader(http.StatusUnauthorized)
}
