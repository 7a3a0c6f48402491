// Package ginutil carries the shared response vocabulary and rate-limit gate
// used by every route handler.
package ginutil

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RateLimiter is satisfied by both the in-memory and Redis limiters.
type RateLimiter interface {
	AllowNamed(bucket, key string) (bool, error)
}

// Named rate-limit buckets.
const (
	RLScoreSubmit   = "score_submit"
	RLProfileUpdate = "profile_update"
	RLMessageSend   = "message_send"
)

// AllowNamed gates a request on the named bucket, keyed by the authenticated
// user when present and the client IP otherwise. A limiter error fails open:
// rate limiting protects capacity and must never take the API down with it.
func AllowNamed(c *gin.Context, rl RateLimiter, bucket string) bool {
	if rl == nil {
		return true
	}
	key := c.ClientIP()
	if uid, ok := c.Get("auth.user_id"); ok {
		if s, ok := uid.(string); ok && s != "" {
			key = s
		}
	}
	ok, err := rl.AllowNamed(bucket, key)
	if err != nil {
		return true
	}
	return ok
}

func BadRequest(c *gin.Context, code string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": code})
}

// Unauthorized is the single client-facing shape for every rejected token.
// The rejection reason stays in the logs.
func Unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}

func NotFound(c *gin.Context, code string) {
	c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": code})
}

func ServerErr(c *gin.Context, code string) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": code})
}

func TooMany(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate_limited"})
}
