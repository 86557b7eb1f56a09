package ratelimit

import (
	"strconv"
	"time"

	"CareLink/pkg/back"
	"CareLink/pkg/redis"
	"CareLink/pkg/xerr"
	"CareLink/pkg/zlog"

	"github.com/gin-gonic/gin"
)

// Limit 固定窗口限流，按 ip+路由计数。登录注册这类接口用小额度挡爆破。
// redis 不可用时直接放行,限流是保护不是功能。
func Limit(max int64, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !redis.IsConnected() {
			c.Next()
			return
		}

		key := "ratelimit:" + c.ClientIP() + ":" + c.FullPath()
		ctx := c.Request.Context()

		count, err := redis.Incr(ctx, key)
		if err != nil {
			zlog.Warn("rate limit incr failed: " + err.Error())
			c.Next()
			return
		}
		if count == 1 {
			if _, err := redis.Expire(ctx, key, window); err != nil {
				zlog.Warn("rate limit expire failed: " + err.Error())
			}
		}
		if count > max {
			ttl, _ := redis.TTL(ctx, key)
			if ttl > 0 {
				c.Header("Retry-After", strconv.Itoa(int(ttl.Seconds())))
			}
			back.Error(c, xerr.TooManyRequests, "Too many attempts, try again later")
			c.Abort()
			return
		}
		c.Next()
	}
}
