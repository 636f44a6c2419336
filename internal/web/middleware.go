package web

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/MohammedGhazal09/portfolio/internal/apperr"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ipHasher turns client IPs into short salted hashes so logs and rate
// limits never hold raw addresses. The salt lives only for the process.
type ipHasher struct {
	salt string
}

func newIPHasher() (*ipHasher, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("generate ip salt: %w", err)
	}
	return &ipHasher{salt: hex.EncodeToString(b)}, nil
}

func (h *ipHasher) hash(ip string) string {
	sum := sha256.Sum256([]byte(ip + h.salt))
	return hex.EncodeToString(sum[:])[:16]
}

func untracked(path string) bool {
	for _, prefix := range []string{"/static/", "/images/", "/favicon", "/health"} {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// requestLogger logs page requests with hashed client addresses. Asset
// requests are skipped and visitors sending DNT are logged without any
// client identifier.
func requestLogger(logger *zap.Logger, hasher *ipHasher) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if untracked(path) {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if c.GetHeader("DNT") != "1" {
			fields = append(fields,
				zap.String("client", hasher.hash(c.ClientIP())),
				zap.String("user_agent", c.Request.UserAgent()),
			)
		}
		logger.Info("request", fields...)
	}
}

// rateLimiter allows requests per window for each hashed client address.
func rateLimiter(requests int, window time.Duration, hasher *ipHasher, onLimit func(*gin.Context)) gin.HandlerFunc {
	type client struct {
		limiter  *rate.Limiter
		lastSeen time.Time
	}

	var (
		clients = make(map[string]*client)
		mu      sync.Mutex
		swept   = time.Now()
	)

	if requests <= 0 {
		requests = 1
	}

	return func(c *gin.Context) {
		key := hasher.hash(c.ClientIP())
		now := time.Now()

		mu.Lock()
		if now.Sub(swept) > 5*time.Minute {
			for k, cl := range clients {
				if now.Sub(cl.lastSeen) > 2*window {
					delete(clients, k)
				}
			}
			swept = now
		}
		cl, ok := clients[key]
		if !ok {
			cl = &client{limiter: rate.NewLimiter(rate.Every(window/time.Duration(requests)), requests)}
			clients[key] = cl
		}
		cl.lastSeen = now
		mu.Unlock()

		if !cl.limiter.Allow() {
			onLimit(c)
			return
		}
		c.Next()
	}
}

// securityHeaders sets the headers every response carries. Accept-CH asks
// browsers for their colour scheme preference on later requests.
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "SAMEORIGIN")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Accept-CH", "Sec-CH-Prefers-Color-Scheme")
		h.Add("Vary", "Sec-CH-Prefers-Color-Scheme")
		c.Next()
	}
}

func (s *Server) recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		s.fail(c, apperr.Internal("Something went wrong. Please try again later.", fmt.Errorf("panic: %v", recovered)))
	})
}

func (s *Server) tooManyRequests(c *gin.Context) {
	c.Header("Retry-After", fmt.Sprintf("%.0f", s.rateWindow.Seconds()))
	s.fail(c, apperr.TooManyRequests("Too many messages. Please wait a moment and try again."))
}
