package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gelift/internal/middleware"
)

// ListChallenges shows the active event's challenges with the caller's team status.
func (ctl *Controller) ListChallenges(c *gin.Context) {
	team, ok := ctl.myTeam(c)
	if !ok {
		return
	}
	challenges, err := ctl.Challenges.ForTeam(c.Request.Context(), team.EventID, team.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, challenges)
}

type submitChallengeInput struct {
	ChallengeID   uint     `form:"challenge_id" json:"challenge_id" binding:"required"`
	Latitude      *float64 `form:"latitude" json:"latitude" binding:"required"`
	Longitude     *float64 `form:"longitude" json:"longitude" binding:"required"`
	Base64Picture string   `form:"base64_picture" json:"base64_picture"`
}

// SubmitChallenge accepts a multipart "picture" or a base64_picture field.
func (ctl *Controller) SubmitChallenge(c *gin.Context) {
	if ctl.MaxUpload > 0 {
		// base64 inflates by a third
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, ctl.MaxUpload*2)
	}
	var input submitChallengeInput
	if err := c.ShouldBind(&input); err != nil {
		badRequest(c, err)
		return
	}
	team, ok := ctl.myTeam(c)
	if !ok {
		return
	}
	picture, err := ctl.readUpload(c, "picture", input.Base64Picture)
	if err != nil {
		badRequest(c, err)
		return
	}

	sub, err := ctl.Challenges.Submit(c.Request.Context(), team, input.ChallengeID, *input.Latitude, *input.Longitude, picture)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":           sub.ID,
		"challenge_id": sub.ChallengeID,
		"picture":      ctl.Store.URL(sub.Picture),
	})
}

// DeleteSubmission withdraws the caller's team submission for a challenge.
func (ctl *Controller) DeleteSubmission(c *gin.Context) {
	var body struct {
		ChallengeID uint `json:"challenge_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	team, ok := ctl.myTeam(c)
	if !ok {
		return
	}
	if err := ctl.Challenges.Withdraw(c.Request.Context(), team.ID, body.ChallengeID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "submission deleted"})
}

// PendingSubmissions lists the active event's submissions awaiting review.
func (ctl *Controller) PendingSubmissions(c *gin.Context) {
	subs, err := ctl.Challenges.Pending(c.Request.Context(), middleware.Event(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, subs)
}

type reviewInput struct {
	ID uint `json:"id" binding:"required"`
}

func (ctl *Controller) AcceptSubmission(c *gin.Context) {
	var body reviewInput
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	if err := ctl.Challenges.Accept(c.Request.Context(), body.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "submission accepted"})
}

func (ctl *Controller) RejectSubmission(c *gin.Context) {
	var body reviewInput
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	if err := ctl.Challenges.Reject(c.Request.Context(), body.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "submission rejected"})
}
