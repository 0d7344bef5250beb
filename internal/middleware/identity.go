package middleware

import (
    "strconv"

    "github.com/labstack/echo/v4"
)

// currentUserID renders the authenticated annotator id for cache and
// rate-limit keys, or "anon" on public routes.
func currentUserID(c echo.Context) string {
    switch v := c.Get(CtxUserID).(type) {
    case int64:
        if v > 0 {
            return strconv.FormatInt(v, 10)
        }
    case string:
        if v != "" {
            return v
        }
    }
    return "anon"
}
