package routes

import (
	"github.com/gin-gonic/gin"

	"gelift/internal/controllers"
	"gelift/internal/middleware"
	"gelift/internal/models"
)

// TeamRoutes are the participant endpoints. All of them work on the active event.
func TeamRoutes(r *gin.Engine, ctl *controllers.Controller) {
	api := r.Group("/api")
	api.Use(ctl.Auth.RequireAuth(), middleware.ActiveEvent(ctl.Events))
	{
		api.GET("/events/active/", ctl.ActiveEvent)
		api.POST("/event/emergency/", ctl.Auth.RequireRole(models.RoleStaff), ctl.SetEmergencyContact)

		api.GET("/teams/", ctl.ListTeams)
		api.GET("/teams/my/", ctl.MyTeam)
		api.GET("/teams/my/route/", ctl.MyRoute)
		api.POST("/teams/my/start/", ctl.StartTimer)
		api.POST("/teams/my/stop/", ctl.StopTimer)
		api.POST("/teams/my/location/", ctl.SubmitLocation)

		api.GET("/scoreboard/", ctl.Scoreboard)

		api.GET("/challenges/", ctl.ListChallenges)
		api.POST("/challenges/submit/", ctl.SubmitChallenge)
		api.POST("/challenges/delete/", ctl.DeleteSubmission)
	}

	review := api.Group("/admin/challenges", ctl.Auth.RequireRole(models.RoleStaff))
	{
		review.GET("/", ctl.PendingSubmissions)
		review.POST("/accept/", ctl.AcceptSubmission)
		review.POST("/reject/", ctl.RejectSubmission)
	}
}
