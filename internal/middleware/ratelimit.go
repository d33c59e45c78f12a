package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-user-api/internal/dto"
	"golang.org/x/time/rate"
)

const msgTooManyRequests = "Too many requests"

// RateLimit admits at most rps requests per second across the process with
// bursts up to burst. A non-positive rps disables limiting.
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.Envelope{Message: msgTooManyRequests})
			return
		}
		c.Next()
	}
}
