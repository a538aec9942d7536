package http

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/Ashisharjun12/devfinder-final/internal/apperr"
	"github.com/Ashisharjun12/devfinder-final/internal/log"
	"github.com/Ashisharjun12/devfinder-final/internal/metrics"
	"github.com/Ashisharjun12/devfinder-final/internal/project"
	"github.com/Ashisharjun12/devfinder-final/internal/ratelimit"
	"github.com/Ashisharjun12/devfinder-final/internal/security"
)

const (
	requestIDKey = "X-Request-ID"
	principalKey = "principal"
)

// RequestID reuses an incoming X-Request-ID or mints one, and echoes it back.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDKey))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDKey, id)
		c.Request = c.Request.WithContext(log.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		log.Ctx(c.Request.Context()).Info("http",
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetString(requestIDKey)),
		)
	}
}

func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		metrics.InFlight.Inc()
		start := time.Now()
		c.Next()
		metrics.InFlight.Dec()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RequestsTotal.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.ReqDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// sessionToken prefers the bearer header over the session cookie.
func sessionToken(c *gin.Context, cookie string) string {
	h := c.GetHeader("Authorization")
	if strings.HasPrefix(strings.ToLower(h), "bearer ") {
		return strings.TrimSpace(h[len("Bearer "):])
	}
	if v, err := c.Cookie(cookie); err == nil {
		return v
	}
	return ""
}

// RequireAuth resolves the session to a project.Principal or aborts with 401.
func RequireAuth(secret, cookie string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := sessionToken(c, cookie)
		if tok == "" {
			writeError(c, apperr.Unauthenticated("unauthorized"))
			return
		}
		claims, err := security.ParseSession(secret, tok)
		if err != nil {
			writeError(c, apperr.Unauthenticated("invalid session"))
			return
		}
		uid, err := primitive.ObjectIDFromHex(claims.UID)
		if err != nil {
			writeError(c, apperr.Unauthenticated("invalid session"))
			return
		}
		c.Set("uid", claims.UID)
		c.Set("email", claims.Email)
		c.Set(principalKey, project.Principal{UID: uid, Email: claims.Email})
		c.Next()
	}
}

func ClientIP(c *gin.Context) string {
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	host, _, err := net.SplitHostPort(ip)
	if err == nil && host != "" {
		return host
	}
	return ip
}

// RateLimit keys by user when authenticated, else by client IP. Limiter errors let
// the request through.
func RateLimit(l ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil {
			c.Next()
			return
		}
		key := "ip:" + ClientIP(c)
		if uid := c.GetString("uid"); uid != "" {
			key = "uid:" + uid
		}
		ok, err := l.Allow(c.Request.Context(), key)
		if err != nil {
			log.Ctx(c.Request.Context()).Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !ok {
			metrics.RateLimited.Inc()
			c.Header("Retry-After", "60")
			writeError(c, apperr.RateLimited("too many requests"))
			return
		}
		c.Next()
	}
}
