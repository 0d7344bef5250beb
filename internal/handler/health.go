package handler

import (
    "context"
    "net/http"

    "github.com/labstack/echo/v4"
)

// Pinger is satisfied by *sqlx.DB.
type Pinger interface {
    PingContext(ctx context.Context) error
}

// Health returns a liveness handler for load balancers. With a non-nil
// db it also checks that storage answers, reporting 503 when it does not.
func Health(db Pinger) echo.HandlerFunc {
    return func(c echo.Context) error {
        if db != nil {
            ctx, cancel := requestContext(c)
            defer cancel()
            if err := db.PingContext(ctx); err != nil {
                return c.String(http.StatusServiceUnavailable, "storage unavailable")
            }
        }
        return c.String(http.StatusOK, "ok")
    }
}
