package middleware

import (
	"log"
	"net/http"

	"dreambid/internal/ratelimit"

	"github.com/gin-gonic/gin"
)

// RateLimit rejects clients that exceed limiter's per-IP budget
func RateLimit(limiter *ratelimit.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		client := c.ClientIP()
		if !limiter.AllowRequest(client) {
			log.Printf("RateLimit: limit exceeded for client %s on %s %s", client, c.Request.Method, c.FullPath())
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}
		c.Next()
	}
}
