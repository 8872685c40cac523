package routes

import (
	"github.com/gin-gonic/gin"

	"gelift/internal/controllers"
)

func PublicRoutes(r *gin.Engine, ctl *controllers.Controller) {
	events := r.Group("/events")
	{
		events.GET("/", ctl.PublicEvents)
		events.GET("/:id", ctl.PublicEvent)
		events.GET("/:id/map", ctl.EventMap)
		events.GET("/:id/challenges", ctl.PublicChallenges)
	}
}
