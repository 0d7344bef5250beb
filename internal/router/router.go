package router // package router registers the HTTP routes of the annotation API

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/annotation-tracker/internal/handler"
	"github.com/iliyamo/annotation-tracker/internal/middleware"
)

// APIPrefix is where every application route is mounted.
const APIPrefix = "/api"

// New returns an Echo instance with the shared middleware chain and the
// validator installed.
func New() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = middleware.NewValidator()
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(middleware.RequestMetrics())
	return e
}

// RegisterRoutes registers the unauthenticated operational endpoints:
// the health check and the Prometheus scrape target.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health(db))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}
