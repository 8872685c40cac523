package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"gelift/internal/apperr"
	"gelift/internal/models"
)

const ctxEvent = "active_event"

// EventSource resolves the currently active event.
type EventSource interface {
	Active(ctx context.Context) (models.Event, error)
}

// ActiveEvent loads the active event once per request. Requests fail with
// 404 when no event is active.
func ActiveEvent(events EventSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		ev, err := events.Active(c.Request.Context())
		if err != nil {
			c.AbortWithStatusJSON(apperr.HTTPStatus(err), gin.H{"error": apperr.Message(err)})
			return
		}
		c.Set(ctxEvent, ev)
		c.Next()
	}
}

// Event returns the event resolved by ActiveEvent.
func Event(c *gin.Context) models.Event {
	ev, _ := c.MustGet(ctxEvent).(models.Event)
	return ev
}
