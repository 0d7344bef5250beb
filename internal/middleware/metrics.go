package middleware

import (
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/annotation-tracker/internal/metrics"
)

// RequestMetrics observes every request in the api_request_duration
// histogram, labelled by route template rather than raw path.
func RequestMetrics() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            if err != nil {
                c.Error(err)
            }
            path := c.Path()
            if path == "" {
                path = "unmatched"
            }
            metrics.APIRequestDuration.WithLabelValues(
                path,
                c.Request().Method,
                strconv.Itoa(c.Response().Status),
            ).Observe(time.Since(start).Seconds())
            return nil
        }
    }
}
