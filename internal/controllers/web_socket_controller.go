package controllers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"gelift/internal/notify"
)

// upgrader configures the WebSocket connection. The mobile app sends no
// Origin header, so every origin is accepted.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// drain blocks until the client goes away. Subscribers only receive.
func drain(conn *websocket.Conn, fields logrus.Fields) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithFields(fields).Info("WebSocket closed.")
			} else {
				logrus.WithError(err).WithFields(fields).Warn("Error reading WebSocket message.")
			}
			return
		}
		logrus.WithFields(fields).Debug("Client sent unexpected message. Ignoring.")
	}
}

// TeamSocket pushes timer changes made by teammates.
// @Router /ws/team [get]
// @Param token query string true "JWT token for authentication"
func (ctl *Controller) TeamSocket(c *gin.Context) {
	claims, err := ctl.Auth.ValidateToken(c.Query("token"))
	if err != nil {
		logrus.WithError(err).Warn("WebSocket connection attempt with invalid token.")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	ev, err := ctl.Events.Active(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	team, err := ctl.Teams.ForUser(c.Request.Context(), ev.ID, claims.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Error("Failed to upgrade WebSocket connection.")
		return
	}
	defer conn.Close()

	// The hub owns all writes once the connection is registered.
	if err := conn.WriteJSON(gin.H{"type": "timer", "team_id": team.ID, "timer_started": team.TimerStarted}); err != nil {
		return
	}

	channel := notify.TeamChannel(team.ID)
	ctl.Hub.Register(channel, claims.UserID, conn)
	defer ctl.Hub.Unregister(channel, conn)

	drain(conn, logrus.Fields{
		"team_id":  team.ID,
		"user_id":  claims.UserID,
		"conn_ptr": fmt.Sprintf("%p", conn),
	})
}

// MapSocket streams new breadcrumbs of an event to spectators.
// @Router /ws/map [get]
// @Param event_id query integer true "Event to follow"
func (ctl *Controller) MapSocket(c *gin.Context) {
	eventID, err := strconv.ParseUint(c.Query("event_id"), 10, 64)
	if err != nil || eventID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event_id"})
		return
	}
	c.AddParam("id", strconv.FormatUint(eventID, 10))
	ev, ok := ctl.publicEvent(c)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Error("Failed to upgrade WebSocket connection.")
		return
	}
	defer conn.Close()

	channel := notify.EventChannel(ev.ID)
	ctl.Hub.Register(channel, 0, conn)
	defer ctl.Hub.Unregister(channel, conn)

	drain(conn, logrus.Fields{
		"event_id": ev.ID,
		"conn_ptr": fmt.Sprintf("%p", conn),
	})
}
