package server

import (
	"encoding/json"
	"mime"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jrsteele09/go-auth-proxy/oauth2"
	"github.com/jrsteele09/go-auth-proxy/registration"
)

const (
	maxRegistrationBody = 64 << 10
	limiterIdleTimeout  = 10 * time.Minute
)

// Register implements RFC 7591 dynamic client registration.
func (s *Server) Register() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Pragma", "no-cache")

		if s.limiter != nil && !s.limiter.allow(remoteIP(r)) {
			s.metrics.register.WithLabelValues(outcomeRejected).Inc()
			w.Header().Set("Retry-After", "60")
			writeJSONError(w, oauth2.ErrCodeTemporarilyUnavailable, "too many registration requests", http.StatusTooManyRequests)
			return
		}

		mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mediaType != "application/json" {
			s.metrics.register.WithLabelValues(outcomeRejected).Inc()
			writeJSONError(w, oauth2.ErrCodeInvalidClientMetadata, "request body must be application/json", http.StatusBadRequest)
			return
		}

		var req registration.Request
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRegistrationBody)).Decode(&req); err != nil {
			s.metrics.register.WithLabelValues(outcomeRejected).Inc()
			writeJSONError(w, oauth2.ErrCodeInvalidClientMetadata, "malformed client metadata", http.StatusBadRequest)
			return
		}

		resp, err := s.registrar.Register(r.Context(), &req)
		s.metrics.register.WithLabelValues(outcomeOf(err)).Inc()
		if err != nil {
			writeOAuthError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, resp)
	}
}

// ipRateLimiter keeps a token bucket per remote address.
type ipRateLimiter struct {
	lock     sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*limiterEntry
	nowTime  func() time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newIPRateLimiter(perMinute int) *ipRateLimiter {
	return &ipRateLimiter{
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
		limiters: make(map[string]*limiterEntry),
		nowTime:  time.Now,
	}
}

func (l *ipRateLimiter) allow(ip string) bool {
	l.lock.Lock()
	defer l.lock.Unlock()

	now := l.nowTime()
	entry, ok := l.limiters[ip]
	if !ok {
		l.pruneLocked(now)
		entry = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[ip] = entry
	}
	entry.lastSeen = now
	allowed := entry.limiter.AllowN(now, 1)
	if !allowed {
		log.Warn().Str("remote_ip", ip).Msg("registration rate limit exceeded")
	}
	return allowed
}

func (l *ipRateLimiter) pruneLocked(now time.Time) {
	for ip, entry := range l.limiters {
		if now.Sub(entry.lastSeen) > limiterIdleTimeout {
			delete(l.limiters, ip)
		}
	}
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
