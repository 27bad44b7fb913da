package api

import (
	"errors"
	"fmt"
	"net/http"
	"ptcoach/pt-server/internal/auth"
	"ptcoach/pt-server/internal/metrics"
	"ptcoach/pt-server/internal/ratelimit"
	"ptcoach/pt-server/internal/service"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis_rate/v9"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Constants for context keys
const (
	ContextUserIDKey    = "userID"
	ContextRequestIDKey = "requestID"
)

const requestIDHeader = "X-Request-ID"

// AuthMiddleware verifies the bearer token and resolves the caller's account,
// creating it on first contact.
func AuthMiddleware(verifier auth.Verifier, userService service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header is missing")
			return
		}

		// Expecting "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
			return
		}

		identity, err := verifier.Verify(parts[1])
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				abortWithError(c, http.StatusUnauthorized, "Token has expired")
			} else {
				abortWithError(c, http.StatusUnauthorized, fmt.Sprintf("Invalid token: %v", err))
			}
			return
		}

		user, err := userService.GetOrCreate(c.Request.Context(), identity.Subject, identity.Email)
		if err != nil {
			if errors.Is(err, service.ErrIdentityInvalid) {
				abortWithError(c, http.StatusUnauthorized, err.Error())
				return
			}
			log.Errorf("resolving user for subject '%s': %v", identity.Subject, err)
			abortWithError(c, http.StatusInternalServerError, "Failed to resolve user")
			return
		}

		c.Set(ContextUserIDKey, user.ID)
		c.Next()
	}
}

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

// getUserIDFromContext returns the account id set by AuthMiddleware.
func getUserIDFromContext(c *gin.Context) (primitive.ObjectID, error) {
	idRaw, exists := c.Get(ContextUserIDKey)
	if !exists {
		return primitive.NilObjectID, errors.New("user ID not found in context")
	}
	id, ok := idRaw.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("invalid user ID type in context")
	}
	return id, nil
}

// RequestID keeps an incoming X-Request-ID or assigns a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ContextRequestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func LogRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		begin := time.Now()
		c.Next()

		fields := log.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency":    time.Since(begin).String(),
			"request_id": c.GetString(ContextRequestIDKey),
		}
		if userID, err := getUserIDFromContext(c); err == nil {
			fields["user_id"] = userID.Hex()
		}
		entry := log.WithFields(fields)
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Errorf(" ====> request failed: %s", c.Errors.String())
			return
		}
		entry.Debugln(" ====> request")
	}
}

func RequestMetrics(metricsManager *metrics.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		metricsManager.GaugeRequests.Inc()
		defer metricsManager.GaugeRequests.Dec()

		begin := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		metricsManager.HistogramRequestDuration.With(prometheus.Labels{
			"route":       route,
			"method":      c.Request.Method,
			"status_code": status,
		}).Observe(time.Since(begin).Seconds())
		metricsManager.CounterRequests.With(prometheus.Labels{
			"method": c.Request.Method,
			"status": status,
		}).Inc()
	}
}

func PanicRecovery(metricsManager *metrics.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Errorf("http: panic serving %s: %v\n%s", c.Request.URL.Path, r, debug.Stack())
				if metricsManager != nil {
					metricsManager.CounterHandleRequestPanic.Inc()
				}
				abortWithError(c, http.StatusInternalServerError, "Internal server error")
			}
		}()

		// handler call
		c.Next()
	}
}

// RateLimit allows each user allowedPerMin requests per minute within scope.
// A nil limiter disables the check. Must run AFTER AuthMiddleware.
func RateLimit(limiter ratelimit.RequestRateLimiter, scope string, allowedPerMin int, metricsManager *metrics.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || allowedPerMin <= 0 {
			c.Next()
			return
		}
		userID, err := getUserIDFromContext(c)
		if err != nil {
			abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
			return
		}

		res, err := limiter.Allow(c.Request.Context(), ratelimit.UserKey(scope, userID.Hex()), redis_rate.PerMinute(allowedPerMin))
		if err != nil {
			log.Errorf("rate limit check for %s: %v", userID.Hex(), err)
			abortWithError(c, http.StatusInternalServerError, "rate limit internal error")
			return
		}
		if res.Allowed > 0 {
			c.Next()
			return
		}

		if metricsManager != nil {
			metricsManager.CounterRateLimitedRequests.Inc()
		}
		retryAfter := int(res.RetryAfter.Seconds()) + 1
		c.Header("Retry-After", strconv.Itoa(retryAfter))
		abortWithError(c, http.StatusTooManyRequests, fmt.Sprintf("Rate limit exceeded, retry after %d seconds", retryAfter))
	}
}
