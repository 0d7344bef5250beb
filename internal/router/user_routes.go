package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/annotation-tracker/internal/handler"
	"github.com/iliyamo/annotation-tracker/internal/middleware"
	"github.com/iliyamo/annotation-tracker/internal/model"
)

// RegisterAuth registers /api/users. Registration and login are public;
// password changes need a token and account administration needs the
// admin role.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, lim Limits) {
	g := e.Group(APIPrefix + "/users")
	limit := middleware.NewTokenBucket(lim.RateLimit, lim.Redis)

	g.POST("/addUsers", a.Register, limit)
	g.POST("/login", a.Login, limit)

	auth := middleware.JWTAuth(jwtSecret)
	g.POST("/change-password", a.ChangePassword, auth)

	admin := middleware.RequireRole(model.RoleAdmin)
	g.GET("/usersAll", a.List, auth, admin)
	g.PUT("/:id/role", a.SetRole, auth, admin)
	g.DELETE("/:id", a.Delete, auth, admin)
}
