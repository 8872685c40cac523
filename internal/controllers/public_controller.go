package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"gelift/internal/apperr"
	"gelift/internal/models"
)

// visible reports whether spectators may see the event: the active one, or
// any that already started.
func visible(ev models.Event, now time.Time) bool {
	return ev.IsActive || !ev.StartDate.After(now)
}

func (ctl *Controller) publicEvent(c *gin.Context) (models.Event, bool) {
	id, ok := idParam(c, "id")
	if !ok {
		return models.Event{}, false
	}
	ev, err := ctl.Events.Get(c.Request.Context(), id)
	if err == nil && !visible(ev, time.Now()) {
		err = apperr.New(apperr.NotFound, "event not found")
	}
	if err != nil {
		respondError(c, err)
		return ev, false
	}
	return ev, true
}

func (ctl *Controller) PublicEvents(c *gin.Context) {
	events, err := ctl.Events.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	now := time.Now()
	out := make([]models.Event, 0, len(events))
	for _, ev := range events {
		if visible(ev, now) {
			out = append(out, ev)
		}
	}
	c.JSON(http.StatusOK, out)
}

// PublicEvent renders an event with its ranked scoreboard and winner.
func (ctl *Controller) PublicEvent(c *gin.Context) {
	ev, ok := ctl.publicEvent(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	legs, err := ctl.Scoreboard.Legs(ctx, ev)
	if err != nil {
		respondError(c, err)
		return
	}
	entries, err := ctl.Scoreboard.Ranked(ctx, ev)
	if err != nil {
		respondError(c, err)
		return
	}
	winner, err := ctl.Events.Winner(ctx, ev.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	legNames := make([]string, len(legs))
	for i, l := range legs {
		legNames[i] = l.Name
	}
	resp := gin.H{
		"event":      ev,
		"legs":       legNames,
		"scoreboard": entries,
		"winner":     nil,
	}
	if winner != nil {
		names := []string{}
		for _, m := range winner.Members {
			if m.User != nil {
				names = append(names, m.User.FirstName+" "+m.User.LastName)
			}
		}
		w := gin.H{"team_id": winner.ID, "members": names, "photo": nil}
		if ev.WinnerPhoto != "" {
			w["photo"] = ctl.Store.URL(ev.WinnerPhoto)
		}
		resp["winner"] = w
	}
	c.JSON(http.StatusOK, resp)
}

func (ctl *Controller) PublicChallenges(c *gin.Context) {
	ev, ok := ctl.publicEvent(c)
	if !ok {
		return
	}
	challenges, err := ctl.Challenges.ForEvent(c.Request.Context(), ev.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, challenges)
}

// EventMap serves the teams' routes as a GeoJSON FeatureCollection.
func (ctl *Controller) EventMap(c *gin.Context) {
	ev, ok := ctl.publicEvent(c)
	if !ok {
		return
	}
	data, err := ctl.Maps.EventMapJSON(c.Request.Context(), ev)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/geo+json", data)
}
