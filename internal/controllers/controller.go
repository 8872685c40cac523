// Package controllers holds the gin handlers of the mobile API, the admin API
// and the public spectator pages.
package controllers

import (
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"gelift/internal/apperr"
	"gelift/internal/middleware"
	"gelift/internal/models"
	"gelift/internal/notify"
	"gelift/internal/services"
	"gelift/internal/storage"
)

// Controller bundles the services every handler needs.
type Controller struct {
	Users      *services.UserService
	Events     *services.EventService
	Teams      *services.TeamService
	Timer      *services.TimerService
	Scoreboard *services.ScoreboardService
	Challenges *services.ChallengeService
	Maps       *services.MapService
	Auth       *middleware.Auth
	Hub        *notify.Hub
	Store      storage.Store
	MaxUpload  int64
}

func respondError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	entry := logrus.WithError(err).WithFields(logrus.Fields{
		"path":   c.FullPath(),
		"status": status,
	})
	if status >= http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Debug("request rejected")
	}
	c.AbortWithStatusJSON(status, gin.H{"error": apperr.Message(err)})
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(id), true
}

// myTeam resolves the caller's team in the active event.
func (ctl *Controller) myTeam(c *gin.Context) (models.Team, bool) {
	team, err := ctl.Teams.ForUser(c.Request.Context(), middleware.Event(c).ID, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return team, false
	}
	return team, true
}

// readUpload returns the multipart file field, or decodes the base64 fallback.
func (ctl *Controller) readUpload(c *gin.Context, field, base64Value string) ([]byte, error) {
	if fh, err := c.FormFile(field); err == nil {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		limit := ctl.MaxUpload
		if limit <= 0 {
			limit = fh.Size
		}
		return io.ReadAll(io.LimitReader(f, limit+1))
	}
	if base64Value == "" {
		return nil, errors.New(field + " is required")
	}
	if i := strings.Index(base64Value, ","); strings.HasPrefix(base64Value, "data:") && i >= 0 {
		base64Value = base64Value[i+1:]
	}
	data, err := base64.StdEncoding.DecodeString(base64Value)
	if err != nil {
		return nil, errors.New("invalid base64 " + field)
	}
	return data, nil
}
