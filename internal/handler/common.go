package handler // handler defines the HTTP handlers of the annotation API

import (
    "context"
    "errors"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/shrimpsizemoose/trekker/logger"

    "github.com/iliyamo/annotation-tracker/internal/middleware"
    "github.com/iliyamo/annotation-tracker/internal/repository"
    "github.com/iliyamo/annotation-tracker/internal/service"
)

// requestTimeout bounds the storage work of a single request.
const requestTimeout = 5 * time.Second

func requestContext(c echo.Context) (context.Context, context.CancelFunc) {
    return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// getUserID extracts the annotator id stored by JWTAuth.
func getUserID(c echo.Context) (int64, error) {
    switch t := c.Get(middleware.CtxUserID).(type) {
    case int64:
        if t > 0 {
            return t, nil
        }
    case int:
        if t > 0 {
            return int64(t), nil
        }
    case float64:
        if t > 0 {
            return int64(t), nil
        }
    case string:
        if n, err := strconv.ParseInt(t, 10, 64); err == nil && n > 0 {
            return n, nil
        }
    }
    return 0, errors.New("invalid user_id in context")
}

// actor builds the lifecycle caller from the token claims.
func actor(c echo.Context) (service.Actor, error) {
    id, err := getUserID(c)
    if err != nil {
        return service.Actor{}, err
    }
    email, _ := c.Get(middleware.CtxEmail).(string)
    role, _ := c.Get(middleware.CtxRole).(string)
    return service.Actor{ID: id, Email: email, Role: role}, nil
}

func unauthorized(c echo.Context) error {
    return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
}

// fail maps a service error onto a status code. Unclassified errors are
// logged and answered with fallback, without the underlying detail.
func fail(c echo.Context, err error, fallback string) error {
    switch {
    case errors.Is(err, repository.ErrInvalidArgument):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    case errors.Is(err, repository.ErrForbidden):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    case errors.Is(err, repository.ErrNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
    case errors.Is(err, repository.ErrEmailExists):
        return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
    case errors.Is(err, repository.ErrNameExists):
        return c.JSON(http.StatusConflict, echo.Map{"error": "name already exists"})
    case errors.Is(err, repository.ErrConflict):
        return c.JSON(http.StatusConflict, echo.Map{"error": "already exists"})
    case errors.Is(err, repository.ErrUnavailable):
        logger.Error.Printf("%s %s: %v", c.Request().Method, c.Path(), err)
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "storage unavailable"})
    }
    logger.Error.Printf("%s %s: %v", c.Request().Method, c.Path(), err)
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": fallback})
}

// decode binds the body into dst and runs its validate tags. It returns
// a client-facing message when the body is rejected, or "".
func decode(c echo.Context, dst interface{}) string {
    if err := c.Bind(dst); err != nil {
        return "invalid request body"
    }
    if err := c.Validate(dst); err != nil {
        return middleware.ValidationMessage(err)
    }
    return ""
}

func badRequest(c echo.Context, msg string) error {
    return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}
