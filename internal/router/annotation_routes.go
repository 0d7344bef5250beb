package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/annotation-tracker/internal/config"
	"github.com/iliyamo/annotation-tracker/internal/handler"
	"github.com/iliyamo/annotation-tracker/internal/middleware"
	"github.com/iliyamo/annotation-tracker/internal/model"
)

// Limits groups the Redis-backed middleware settings. A nil Redis
// client disables both.
type Limits struct {
	Redis     *redis.Client
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
}

// RegisterAnnotations registers /api/annotation. Every route requires a
// valid token; the bulk delete also requires the admin role.
func RegisterAnnotations(e *echo.Echo, h *handler.AnnotationHandler, jwtSecret string, lim Limits) {
	g := e.Group(APIPrefix+"/annotation", middleware.JWTAuth(jwtSecret))
	limit := middleware.NewTokenBucket(lim.RateLimit, lim.Redis)

	g.GET("/export", h.Export)
	g.GET("/Allannotation", h.ListMine)
	g.GET("/pending", h.Pending)
	g.GET("/stats", h.Dashboard, middleware.NewRedisCache(lim.Cache, lim.Redis))
	g.GET("/mycount", h.MyCount)
	g.GET("/assigned/:annotatorId", h.Assigned)

	g.POST("/Addannotation", h.Submit, limit)
	g.POST("/skip", h.Skip, limit)
	g.PUT("/rebortAnnotation/:id", h.Update, limit)
	g.DELETE("/rebortAnnotationDelete/:id", h.Delete, limit)
	g.DELETE("/deleteAll", h.DeleteAll, middleware.RequireRole(model.RoleAdmin))
}

// RegisterProgress registers the progress cursor under /api/progress and
// the task list under /api/data.
func RegisterProgress(e *echo.Echo, h *handler.ProgressHandler, jwtSecret string) {
	auth := middleware.JWTAuth(jwtSecret)

	p := e.Group(APIPrefix+"/progress", auth)
	p.POST("", h.Save)
	p.GET("", h.Get)

	e.GET(APIPrefix+"/data/annotation", h.ListTasks)
	e.POST(APIPrefix+"/data/annotation", h.ImportTasks, auth, middleware.RequireRole(model.RoleAdmin))
}
