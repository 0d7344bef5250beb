package middleware

import (
    "math"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/shrimpsizemoose/trekker/logger"

    "github.com/iliyamo/annotation-tracker/internal/config"
)

// takeToken refills the bucket in whole intervals, then takes one token.
// It returns {allowed, remaining, retry_after_ms}.
var takeToken = redis.NewScript(`
    local now, cap, refill, every, ttl =
        tonumber(ARGV[1]), tonumber(ARGV[2]), tonumber(ARGV[3]), tonumber(ARGV[4]), tonumber(ARGV[5])
    if every < 1 then every = 1 end
    local s = redis.call('HMGET', KEYS[1], 'tokens', 'at')
    local tokens, at = tonumber(s[1]) or cap, tonumber(s[2]) or now
    local n = math.floor(math.max(0, now - at) / every)
    if n > 0 then
        tokens = math.min(cap, tokens + n * refill)
        at = at + n * every
    end
    local allowed, wait = 0, 0
    if tokens > 0 then
        allowed, tokens = 1, tokens - 1
    else
        wait = math.max(0, every - (now - at))
    end
    redis.call('HSET', KEYS[1], 'tokens', tokens, 'at', at)
    redis.call('EXPIRE', KEYS[1], ttl)
    return { allowed, tokens, wait }
`)

// NewTokenBucket limits each annotator's writes on a route with a token
// bucket kept in Redis. Clients over the limit get 429 with Retry-After.
// Redis failures let the request through.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := rateKey(cfg.Prefix, c)
            res, err := takeToken.Run(c.Request().Context(), rdb, []string{key},
                time.Now().UnixMilli(), cfg.Capacity, cfg.RefillTokens,
                cfg.RefillInterval.Milliseconds(), int64(cfg.TTL/time.Second)).Int64Slice()
            if err != nil || len(res) != 3 {
                logger.Error.Printf("ratelimit: key=%s: %v", key, err)
                return next(c)
            }

            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(res[1], 10))
            if res[0] == 1 {
                return next(c)
            }
            secs := int(math.Ceil(float64(res[2]) / 1000))
            h.Set("Retry-After", strconv.Itoa(secs))
            if cfg.Debug {
                logger.Debug.Printf("ratelimit: block key=%s retry=%dms", key, res[2])
            }
            return c.JSON(http.StatusTooManyRequests, echo.Map{
                "error":       "rate limit exceeded",
                "retry_after": secs,
            })
        }
    }
}

// rateKey is prefix:user:route. Requests without a token fall back to
// the client IP.
func rateKey(prefix string, c echo.Context) string {
    who := currentUserID(c)
    if who == "anon" {
        who = "ip-" + c.RealIP()
    }
    return prefix + ":" + who + ":" + c.Request().Method + " " + c.Path()
}
