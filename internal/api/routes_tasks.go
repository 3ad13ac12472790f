package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/taskhub/internal/auth"
	"github.com/charlesng35/taskhub/internal/handlers"
	"github.com/charlesng35/taskhub/internal/middleware"
)

func registerTaskRoutes(group *gin.RouterGroup, handler *handlers.TaskHandler, jwtService *auth.JWTService) {
	tasks := group.Group("/tasks")
	tasks.Use(middleware.RequireAuth(jwtService))

	tasks.GET("", handler.List)
	tasks.POST("", handler.Create)
	tasks.GET("/:id", handler.Get)
	tasks.PUT("/:id", handler.Update)
	tasks.DELETE("/:id", handler.Delete)
}
