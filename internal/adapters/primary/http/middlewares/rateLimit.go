package middlewares

import (
	"sync"
	"time"

	"log/slog"

	"github.com/admin/photo-apps/studio-api/internal/adapters/primary/http/httperr"
	"github.com/admin/photo-apps/studio-api/internal/domain"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitConfig квота запросов на один клиентский IP
type RateLimitConfig struct {
	PerMinute int `envconfig:"PER_MINUTE" default:"20"`
	Burst     int `envconfig:"BURST" default:"5"`
}

const (
	limiterStaleAfter = 10 * time.Minute
	limiterSweepSize  = 10000 // при этом размере карты лениво выкидываем протухшие записи
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter process-wide лимитер: token bucket на каждый клиентский IP
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter
	rps     rate.Limit
	burst   int
	log     *slog.Logger
}

// NewRateLimiter создаёт лимитер с квотой из конфига
func NewRateLimiter(cfg RateLimitConfig, log *slog.Logger) *RateLimiter {
	perMinute := cfg.PerMinute
	if perMinute <= 0 {
		perMinute = 20
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 5
	}

	return &RateLimiter{
		clients: make(map[string]*clientLimiter),
		rps:     rate.Limit(float64(perMinute) / 60.0),
		burst:   burst,
		log:     log,
	}
}

// Handler возвращает gin middleware, режущий запросы сверх квоты
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP()) {
			rl.log.Warn("rate limit exceeded",
				"client_ip", c.ClientIP(),
				"path", c.Request.URL.Path,
			)
			httperr.AbortWith(c, domain.CodeRateLimited, "too many requests")
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	client, ok := rl.clients[clientIP]
	if !ok {
		client = &clientLimiter{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.clients[clientIP] = client
	}
	client.lastSeen = time.Now()

	if len(rl.clients) > limiterSweepSize {
		rl.sweep()
	}

	return client.limiter.Allow()
}

// sweep выкидывает давно не заходившие IP, вызывается под mu
func (rl *RateLimiter) sweep() {
	cutoff := time.Now().Add(-limiterStaleAfter)
	for ip, client := range rl.clients {
		if client.lastSeen.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}
