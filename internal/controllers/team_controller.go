package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gelift/internal/middleware"
	"gelift/internal/models"
	"gelift/internal/scoring"
	"gelift/internal/services"
)

type coordinatesInput struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

type stopInput struct {
	coordinatesInput
	LocationID *int64 `json:"location_id" binding:"required"`
}

func breadcrumbJSON(b models.TeamLocation) services.RoutePoint {
	p := services.RoutePoint{ID: b.ID, Datetime: b.Datetime}
	if b.Location != nil {
		p.Latitude, p.Longitude = b.Location.Latitude, b.Location.Longitude
	}
	return p
}

func (ctl *Controller) ActiveEvent(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.Event(c))
}

func (ctl *Controller) SetEmergencyContact(c *gin.Context) {
	var body struct {
		EmergencyContact string `json:"emergency_contact" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	ev := middleware.Event(c)
	if err := ctl.Events.SetEmergencyContact(c.Request.Context(), ev.ID, body.EmergencyContact); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"emergency_contact": body.EmergencyContact})
}

func (ctl *Controller) ListTeams(c *gin.Context) {
	teams, err := ctl.Teams.List(c.Request.Context(), middleware.Event(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, teams)
}

func (ctl *Controller) MyTeam(c *gin.Context) {
	team, err := ctl.Teams.Mine(c.Request.Context(), middleware.Event(c).ID, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, team)
}

func (ctl *Controller) StartTimer(c *gin.Context) {
	var input coordinatesInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	team, ok := ctl.myTeam(c)
	if !ok {
		return
	}

	crumb, err := ctl.Timer.Start(c.Request.Context(), team.ID, middleware.UserID(c), *input.Latitude, *input.Longitude)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"timer_started": true,
		"segment":       crumb.Segment,
		"location":      breadcrumbJSON(crumb),
	})
}

func (ctl *Controller) StopTimer(c *gin.Context) {
	var input stopInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	team, ok := ctl.myTeam(c)
	if !ok {
		return
	}

	res, err := ctl.Timer.Stop(c.Request.Context(), team.ID, middleware.UserID(c), *input.Latitude, *input.Longitude, *input.LocationID)
	if err != nil {
		respondError(c, err)
		return
	}
	var score interface{}
	if res.Score != nil {
		score = scoring.FormatHHMM(res.Score.Time)
	}
	c.JSON(http.StatusOK, gin.H{
		"timer_started": false,
		"segment":       res.Breadcrumb.Segment,
		"location":      breadcrumbJSON(res.Breadcrumb),
		"score":         score,
	})
}

func (ctl *Controller) SubmitLocation(c *gin.Context) {
	var input coordinatesInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	team, ok := ctl.myTeam(c)
	if !ok {
		return
	}

	crumb, err := ctl.Timer.SubmitLocation(c.Request.Context(), team.ID, middleware.UserID(c), *input.Latitude, *input.Longitude)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"segment":  crumb.Segment,
		"location": breadcrumbJSON(crumb),
	})
}

func (ctl *Controller) MyRoute(c *gin.Context) {
	team, ok := ctl.myTeam(c)
	if !ok {
		return
	}
	route, err := ctl.Timer.Route(c.Request.Context(), team.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, route)
}

// Scoreboard lists one entry per team in team order. Ranking is left to the
// client.
func (ctl *Controller) Scoreboard(c *gin.Context) {
	entries, err := ctl.Scoreboard.Build(c.Request.Context(), middleware.Event(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}
