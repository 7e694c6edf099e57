package middleware

import (
	"net/http"
	"strings"
)

const (
	corsAllowMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
	corsAllowHeaders = "Authorization, Content-Type, Accept, X-Request-ID"
	corsMaxAge       = "86400"
)

// corsPolicy is the set of origins a browser may call the API from.
type corsPolicy struct {
	exact     map[string]struct{}
	anyOrigin bool
}

func newCORSPolicy(origins []string) corsPolicy {
	p := corsPolicy{exact: make(map[string]struct{}, len(origins))}
	for _, o := range origins {
		o = strings.TrimSuffix(strings.TrimSpace(o), "/")
		switch o {
		case "":
		case "*":
			p.anyOrigin = true
		default:
			p.exact[o] = struct{}{}
		}
	}
	return p
}

// match reports whether origin is allowed and whether it may send credentials.
// Origins admitted only by the "*" entry never get credentials.
func (p corsPolicy) match(origin string) (allowed, credentials bool) {
	if origin == "" {
		return false, false
	}
	if _, ok := p.exact[origin]; ok {
		return true, true
	}
	return p.anyOrigin, false
}

// CORS returns a handler that adds CORS headers for allowed origins and
// responds to OPTIONS preflight requests with 204. A "*" entry allows any origin.
func CORS(allowedOrigins []string, next http.Handler) http.Handler {
	policy := newCORSPolicy(allowedOrigins)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Origin")
		origin := r.Header.Get("Origin")
		ok, credentials := policy.match(origin)

		if r.Method == http.MethodOptions {
			if ok {
				setOriginHeaders(w.Header(), origin, credentials)
				w.Header().Set("Access-Control-Allow-Methods", corsAllowMethods)
				w.Header().Set("Access-Control-Allow-Headers", corsAllowHeaders)
				w.Header().Set("Access-Control-Max-Age", corsMaxAge)
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}

		if ok {
			next.ServeHTTP(&corsResponseWriter{ResponseWriter: w, origin: origin, credentials: credentials}, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func setOriginHeaders(h http.Header, origin string, credentials bool) {
	h.Set("Access-Control-Allow-Origin", origin)
	if credentials {
		h.Set("Access-Control-Allow-Credentials", "true")
	}
}

// corsResponseWriter adds CORS headers to the response for an allowed origin.
type corsResponseWriter struct {
	http.ResponseWriter
	origin      string
	credentials bool
	wrote       bool
}

func (w *corsResponseWriter) WriteHeader(code int) {
	if !w.wrote {
		w.wrote = true
		setOriginHeaders(w.ResponseWriter.Header(), w.origin, w.credentials)
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *corsResponseWriter) Write(b []byte) (int, error) {
	if !w.wrote {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}
