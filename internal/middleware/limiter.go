package middleware

import (
	"strings"
	"time"

	"github.com/karkow/idea-board/pkg/app"
	"github.com/karkow/idea-board/pkg/code"

	"github.com/gin-gonic/gin"
	"github.com/juju/ratelimit"
)

// BucketRule rate-limits every path containing Key.
type BucketRule struct {
	Key          string
	FillInterval time.Duration
	Capacity     int64
	Quantum      int64
}

// RateLimiter applies token buckets to matching request paths.
func RateLimiter(rules ...BucketRule) gin.HandlerFunc {
	type limiter struct {
		key    string
		bucket *ratelimit.Bucket
	}
	limiters := make([]limiter, 0, len(rules))
	for _, r := range rules {
		limiters = append(limiters, limiter{
			key:    r.Key,
			bucket: ratelimit.NewBucketWithQuantum(r.FillInterval, r.Capacity, r.Quantum),
		})
	}

	return func(c *gin.Context) {
		for _, l := range limiters {
			if !strings.Contains(c.Request.URL.Path, l.key) {
				continue
			}
			if l.bucket.TakeAvailable(1) == 0 {
				app.NewResponse(c).ToResponse(code.ErrorTooManyRequests)
				c.Abort()
				return
			}
		}
		c.Next()
	}
}
