package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/taskhub/internal/auth"
	"github.com/charlesng35/taskhub/internal/handlers"
	"github.com/charlesng35/taskhub/internal/middleware"
)

func registerAuthRoutes(group *gin.RouterGroup, handler *handlers.AuthHandler, jwtService *auth.JWTService, limiter *middleware.RateLimiter) {
	authGroup := group.Group("/auth")

	authGroup.POST("/register", limiter.Middleware(), handler.Register)
	authGroup.POST("/login", limiter.Middleware(), handler.Login)
	authGroup.GET("/me", middleware.RequireAuth(jwtService), handler.Me)
}
