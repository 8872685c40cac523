package routes

import (
	"github.com/gin-gonic/gin"

	"gelift/internal/controllers"
)

// WebSocketRoutes authenticate through the query string, browsers cannot set
// headers on the upgrade request.
func WebSocketRoutes(r *gin.Engine, ctl *controllers.Controller) {
	ws := r.Group("/ws")
	{
		ws.GET("/team", ctl.TeamSocket)
		ws.GET("/map", ctl.MapSocket)
	}
}
