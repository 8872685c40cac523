package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"gelift/internal/middleware"
	"gelift/internal/services"
)

func (ctl *Controller) LoginUser(c *gin.Context) {
	var body struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}

	user, err := ctl.Users.Authenticate(c.Request.Context(), body.Email, body.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := ctl.Auth.GenerateToken(user)
	if err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("could not generate token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// LogoutUser revokes the token the request was made with.
func (ctl *Controller) LogoutUser(c *gin.Context) {
	if claims := middleware.CurrentClaims(c); claims != nil {
		ctl.Auth.Revoke(claims)
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (ctl *Controller) Profile(c *gin.Context) {
	user, err := ctl.Users.Get(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (ctl *Controller) SingleUser(c *gin.Context) {
	var body struct {
		ID uint `json:"id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	user, err := ctl.Users.Public(c.Request.Context(), body.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

type editUserInput struct {
	Phone                *string `json:"phone"`
	OldPassword          string  `json:"old_password"`
	NewPassword          string  `json:"new_password"`
	PasswordConfirmation string  `json:"password_confirmation"`
	FirstLogin           bool    `json:"first_login"`
}

// EditUser changes the phone number, the password, or both.
func (ctl *Controller) EditUser(c *gin.Context) {
	var input editUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	ctx := c.Request.Context()
	userID := middleware.UserID(c)

	if input.Phone == nil && input.NewPassword == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to change"})
		return
	}
	if input.Phone != nil {
		if err := ctl.Users.UpdatePhone(ctx, userID, *input.Phone); err != nil {
			respondError(c, err)
			return
		}
	}
	if input.NewPassword != "" {
		err := ctl.Users.ChangePassword(ctx, userID, services.PasswordChange{
			Old:          input.OldPassword,
			New:          input.NewPassword,
			Confirmation: input.PasswordConfirmation,
			FirstLogin:   input.FirstLogin,
		})
		if err != nil {
			respondError(c, err)
			return
		}
	}

	user, err := ctl.Users.Get(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// PasswordReset mails a reset link. The response does not reveal whether the
// address is known.
func (ctl *Controller) PasswordReset(c *gin.Context) {
	var body struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	if err := ctl.Users.RequestPasswordReset(c.Request.Context(), body.Email); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "if the address is registered, a reset link has been sent"})
}

func (ctl *Controller) PasswordResetConfirm(c *gin.Context) {
	var body struct {
		Token       string `json:"token" binding:"required"`
		NewPassword string `json:"new_password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	if err := ctl.Users.ResetPassword(c.Request.Context(), body.Token, body.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}
