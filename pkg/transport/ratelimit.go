package transport

import (
	"net"
	"net/http"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/raywall/fast-service-mock/pkg/exchange"
)

// maxLimiters limita a memória usada por endereços distintos.
const maxLimiters = 10000

// RateLimiter mantém um token bucket por endereço de cliente.
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
	log      zerolog.Logger
}

func NewRateLimiter(rps float64, burst int, log zerolog.Logger) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(rps),
		burst:    burst,
		log:      log,
	}
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, exists := rl.limiters[key]
	if !exists {
		if len(rl.limiters) >= maxLimiters {
			rl.limiters = make(map[string]*rate.Limiter)
		}
		limiter = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters[key] = limiter
	}
	return limiter
}

// Allow consome um token do cliente.
func (rl *RateLimiter) Allow(client string) bool {
	return rl.getLimiter(client).Allow()
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientAddress(r.RemoteAddr)
		if !rl.Allow(key) {
			rl.log.Warn().Str("client", key).Str("method", r.Method).Str("path", r.URL.Path).Msg("Limite de requisições excedido")
			writeResponse(w, tooManyRequests())
			return
		}
		next.ServeHTTP(w, r)
	})
}

func tooManyRequests() *exchange.Response {
	return exchange.JSON(http.StatusTooManyRequests, exchange.ErrorBody("Too Many Requests"))
}

// clientAddress remove a porta de "host:porta".
func clientAddress(remote string) string {
	host, _, err := net.SplitHostPort(remote)
	if err != nil {
		return remote
	}
	return host
}
