package httpserver

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fdg312/fithub/internal/config"
	"github.com/fdg312/fithub/internal/metrics"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	bucketAPI  = "api"
	bucketAuth = "auth"

	pruneEvery = 1000
)

// credentialPaths get their own bucket so password guessing is throttled
// well below the general API rate.
var credentialPaths = map[string]bool{
	"/v1/auth/login":    true,
	"/v1/auth/register": true,
}

// visitorLimiters holds one token bucket per client IP.
type visitorLimiters struct {
	mu         sync.Mutex
	limiters   map[string]*rate.Limiter
	limit      rate.Limit
	burst      int
	retryAfter string
	seen       atomic.Int64
}

func newVisitorLimiters(limit rate.Limit, burst int) *visitorLimiters {
	retry := 1
	if limit > 0 && limit < 1 {
		retry = int(1/float64(limit) + 0.5)
	}
	return &visitorLimiters{
		limiters:   make(map[string]*rate.Limiter),
		limit:      limit,
		burst:      burst,
		retryAfter: strconv.Itoa(retry),
	}
}

func (v *visitorLimiters) allow(ip string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	limiter, ok := v.limiters[ip]
	if !ok {
		limiter = rate.NewLimiter(v.limit, v.burst)
		v.limiters[ip] = limiter
	}
	if v.seen.Add(1)%pruneEvery == 0 {
		v.pruneIdle()
	}
	return limiter.Allow()
}

// pruneIdle drops clients whose bucket has refilled. Caller holds mu.
func (v *visitorLimiters) pruneIdle() {
	for ip, limiter := range v.limiters {
		if limiter.Tokens() >= float64(v.burst) {
			delete(v.limiters, ip)
		}
	}
}

// RateLimit enforces per-IP token buckets. POSTs to the credential
// endpoints draw from a bucket of AuthRateLimitPerMinute; every other
// request uses RateLimitRPS/RateLimitBurst. A non-positive setting
// disables its bucket.
func RateLimit(cfg *config.Config, m *metrics.Manager) func(next http.Handler) http.Handler {
	var api, auth *visitorLimiters
	if cfg.RateLimitRPS > 0 {
		burst := cfg.RateLimitBurst
		if burst <= 0 {
			burst = cfg.RateLimitRPS
		}
		api = newVisitorLimiters(rate.Limit(cfg.RateLimitRPS), burst)
	}
	if n := cfg.AuthRateLimitPerMinute; n > 0 {
		auth = newVisitorLimiters(rate.Every(time.Minute/time.Duration(n)), n)
	}

	return func(next http.Handler) http.Handler {
		if api == nil && auth == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bucket, limiters := bucketAPI, api
			if r.Method == http.MethodPost && credentialPaths[r.URL.Path] {
				bucket, limiters = bucketAuth, auth
			}
			if limiters == nil {
				next.ServeHTTP(w, r)
				return
			}

			ip := extractIP(r)
			if !limiters.allow(ip) {
				log.WithFields(log.Fields{"ip": ip, "path": r.URL.Path, "bucket": bucket}).Debug("rate limit exceeded")
				if m != nil {
					m.CounterRateLimited.WithLabelValues(bucket).Inc()
				}
				writeRateLimited(w, limiters.retryAfter)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeRateLimited(w http.ResponseWriter, retryAfter string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", retryAfter)
	w.WriteHeader(http.StatusTooManyRequests)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{
			"code":    "rate_limited",
			"message": "Too many requests",
		},
	})
}

func extractIP(r *http.Request) string {
	// first hop of X-Forwarded-For when behind a proxy
	if xff := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
