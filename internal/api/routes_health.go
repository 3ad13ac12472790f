package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/taskhub/internal/handlers"
)

func registerHealthRoutes(router *gin.Engine, handler *handlers.HealthHandler) {
	router.GET("/health", handler.Health)
}
