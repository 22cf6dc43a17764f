package mcpserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/focusmcp/focusmcp/pkg/logger"
)

// rateLimit bounds MCP requests per client IP. A non-positive limit disables it.
func rateLimit(perMinute int, log logger.Logger) gin.HandlerFunc {
	if perMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	rate := limiter.Rate{Period: time.Minute, Limit: int64(perMinute)}
	store := memory.NewStoreWithOptions(limiter.StoreOptions{
		Prefix:          "focusmcp:ratelimit:",
		CleanUpInterval: time.Minute,
	})
	return mgin.NewMiddleware(limiter.New(store, rate),
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			log.Warn("MCP rate limit exceeded", "client_ip", c.ClientIP(), "limit_per_minute", perMinute)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
		}),
	)
}
