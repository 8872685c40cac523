package routes

import (
	"github.com/gin-gonic/gin"

	"gelift/internal/controllers"
	"gelift/internal/models"
)

// AdminRoutes manage events, teams, users and challenges. Staff may run an
// event; changing its structure takes a superuser.
func AdminRoutes(r *gin.Engine, ctl *controllers.Controller) {
	admin := r.Group("/api/admin")
	admin.Use(ctl.Auth.RequireRole(models.RoleStaff))
	{
		admin.GET("/users/", ctl.ListUsers)
		admin.POST("/users/", ctl.CreateUser)
		admin.DELETE("/users/:id", ctl.DeleteUser)

		admin.GET("/events/", ctl.ListEvents)
		admin.GET("/events/:id", ctl.GetEvent)
		admin.PUT("/events/:id/winner", ctl.SetWinner)
		admin.DELETE("/events/:id/winner", ctl.ClearWinner)

		admin.GET("/events/:id/teams", ctl.EventTeams)
		admin.POST("/events/:id/teams", ctl.CreateTeam)
		admin.DELETE("/teams/:id", ctl.DeleteTeam)
		admin.POST("/teams/:id/members", ctl.AddMember)
		admin.DELETE("/teams/:id/members/:user_id", ctl.RemoveMember)
		admin.POST("/teams/:id/members/move", ctl.MoveMember)
		admin.POST("/teams/:id/disqualify", ctl.DisqualifyTeam())
		admin.DELETE("/teams/:id/disqualify", ctl.RequalifyTeam())

		admin.GET("/events/:id/challenges", ctl.EventChallenges)
		admin.POST("/events/:id/challenges", ctl.CreateChallenge)
		admin.PATCH("/challenges/:id", ctl.UpdateChallenge)
		admin.DELETE("/challenges/:id", ctl.DeleteChallenge)
	}

	super := admin.Group("", ctl.Auth.RequireRole(models.RoleSuperuser))
	{
		super.POST("/users/:id/staff", ctl.PromoteUser())
		super.DELETE("/users/:id/staff", ctl.DemoteUser())

		super.POST("/events/", ctl.CreateEvent)
		super.PATCH("/events/:id", ctl.UpdateEvent)
		super.DELETE("/events/:id", ctl.DeleteEvent)
		super.POST("/events/:id/activate", ctl.ActivateEvent)
		super.POST("/events/:id/deactivate", ctl.DeactivateEvent)
		super.PATCH("/events/:id/endpoints/:which", ctl.UpdateEndpoint)

		super.POST("/events/:id/sub-locations", ctl.AddSubLocation)
		super.PUT("/events/:id/sub-locations/order", ctl.ReorderSubLocations)
		super.PATCH("/sub-locations/:id", ctl.UpdateSubLocation)
		super.DELETE("/sub-locations/:id", ctl.DeleteSubLocation)

		super.POST("/locations/", ctl.AddLocation)
	}
}
