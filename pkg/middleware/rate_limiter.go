package middleware

import (
	"log"
	"net"
	"net/http"
	"sync"
	"time"
)

type RateLimiter struct {
	mu       sync.Mutex
	limit    int
	window   time.Duration
	requests map[string]*bucket
	now      func() time.Time
}

type bucket struct {
	count   int
	started time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	limiter := &RateLimiter{
		limit:    limit,
		window:   window,
		requests: make(map[string]*bucket),
		now:      time.Now,
	}

	go limiter.cleanup()

	return limiter
}

func (r *RateLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		r.mu.Lock()
		now := r.now()
		for key, b := range r.requests {
			if now.Sub(b.started) > r.window {
				delete(r.requests, key)
			}
		}
		r.mu.Unlock()
	}
}

// Allow counts one request for key inside a fixed window.
func (r *RateLimiter) Allow(key string) bool {
	if r.limit <= 0 {
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	b, ok := r.requests[key]
	if !ok || now.Sub(b.started) > r.window {
		r.requests[key] = &bucket{count: 1, started: now}
		return true
	}
	if b.count >= r.limit {
		return false
	}
	b.count++
	return true
}

func (r *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ip := clientIP(req)
		if !r.Allow(ip) {
			log.Printf("RateLimiter: limit exceeded for %s %s", ip, req.URL.Path)
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, req)
	})
}

// clientIP strips the port; chi's RealIP middleware has already rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
