package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/taskhub/internal/auth"
	"github.com/charlesng35/taskhub/internal/handlers"
	"github.com/charlesng35/taskhub/internal/middleware"
)

func registerTeamRoutes(group *gin.RouterGroup, handler *handlers.TeamHandler, jwtService *auth.JWTService) {
	teams := group.Group("/teams")
	teams.Use(middleware.RequireAuth(jwtService))

	teams.GET("", handler.List)
	teams.POST("", handler.Create)
	teams.GET("/:id", handler.Get)
	teams.PATCH("/:id", handler.Update)
	teams.GET("/:id/members", handler.ListMembers)
	teams.POST("/:id/members", handler.AddMember)
	teams.DELETE("/:id/members/:userID", handler.RemoveMember)
}
