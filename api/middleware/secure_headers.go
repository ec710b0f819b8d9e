package middleware

import "net/http"

var secureHeaders = map[string]string{
	"X-Content-Type-Options":     "nosniff",
	"X-Frame-Options":            "SAMEORIGIN",
	"Referrer-Policy":            "no-referrer",
	"X-XSS-Protection":           "0",
	"Cross-Origin-Opener-Policy": "same-origin",
}

func SecureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		for k, v := range secureHeaders {
			h.Set(k, v)
		}
		next.ServeHTTP(w, r)
	})
}
