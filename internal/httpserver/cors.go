package httpserver

import (
	"net/http"
	"strings"

	"github.com/fdg312/fithub/internal/config"
)

const (
	corsAllowMethods  = "GET,POST,PUT,PATCH,DELETE,OPTIONS"
	corsAllowHeaders  = "Authorization,Content-Type"
	corsExposeHeaders = "Content-Disposition,X-Report-Id"
	corsMaxAge        = "600"
)

// corsPolicy matches request origins against CORS_ALLOWED_ORIGINS.
// An entry like "https://*.fithub.app" admits any subdomain of fithub.app
// over https.
type corsPolicy struct {
	exact    map[string]bool
	suffixes []struct{ scheme, domain string }
}

func newCORSPolicy(origins []string) *corsPolicy {
	p := &corsPolicy{exact: make(map[string]bool, len(origins))}
	for _, o := range origins {
		o = strings.TrimSpace(o)
		scheme, host, ok := strings.Cut(o, "://*.")
		if ok && host != "" {
			p.suffixes = append(p.suffixes, struct{ scheme, domain string }{scheme + "://", "." + host})
			continue
		}
		if o != "" {
			p.exact[o] = true
		}
	}
	return p
}

func (p *corsPolicy) allows(origin string) bool {
	if origin == "" {
		return false
	}
	if p.exact[origin] {
		return true
	}
	for _, s := range p.suffixes {
		host, ok := strings.CutPrefix(origin, s.scheme)
		if ok && strings.HasSuffix(host, s.domain) && len(host) > len(s.domain) {
			return true
		}
	}
	return false
}

// CORS adds CORS headers for allowed origins and answers preflights.
// Preflights from unknown origins get 204 without CORS headers, so the
// browser blocks the actual request.
func CORS(cfg *config.Config) func(next http.Handler) http.Handler {
	policy := newCORSPolicy(cfg.CORSAllowedOrigins)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			allowed := policy.allows(origin)

			if allowed {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
				h.Set("Access-Control-Expose-Headers", corsExposeHeaders)
				if cfg.CORSAllowCredentials {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
			}

			if r.Method == http.MethodOptions && origin != "" {
				if allowed {
					h := w.Header()
					h.Set("Access-Control-Allow-Methods", corsAllowMethods)
					h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
					h.Set("Access-Control-Max-Age", corsMaxAge)
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
