package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Generous enough for a client polling tasks, friends and summaries at once;
// tight enough to blunt credential stuffing against the auth routes.
const (
	requestsPerSecond = 10
	requestBurst      = 40
	clientIdleTTL     = 3 * time.Minute
)

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

var (
	clients   = make(map[string]*client)
	clientsMu sync.Mutex
)

func RateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.Header.Get("X-Forwarded-For")
		if ip == "" {
			ip, _, _ = net.SplitHostPort(r.RemoteAddr)
		}

		if !limiterFor(ip).Allow() {
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func limiterFor(ip string) *rate.Limiter {
	clientsMu.Lock()
	defer clientsMu.Unlock()

	c, ok := clients[ip]
	if !ok {
		limiter := rate.NewLimiter(requestsPerSecond, requestBurst)
		clients[ip] = &client{limiter, time.Now()}
		return limiter
	}

	c.lastSeen = time.Now()
	return c.limiter
}

// CleanupClients evicts idle entries from the client map. Run it in its own
// goroutine.
func CleanupClients() {
	for {
		time.Sleep(time.Minute)
		clientsMu.Lock()
		for ip, c := range clients {
			if time.Since(c.lastSeen) > clientIdleTTL {
				delete(clients, ip)
			}
		}
		clientsMu.Unlock()
	}
}
