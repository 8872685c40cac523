package routes

import (
	"github.com/gin-gonic/gin"

	"gelift/internal/controllers"
)

func AuthRoutes(r *gin.Engine, ctl *controllers.Controller) {
	user := r.Group("/api/user")
	{
		user.POST("/login/", ctl.LoginUser)
		user.POST("/password_reset", ctl.PasswordReset)
		user.POST("/password_reset/confirm", ctl.PasswordResetConfirm)
	}

	authed := user.Group("", ctl.Auth.RequireAuth())
	{
		authed.GET("/", ctl.Profile)
		authed.GET("/logout/", ctl.LogoutUser)
		authed.POST("/single/", ctl.SingleUser)
		authed.POST("/edit/", ctl.EditUser)
	}
}
