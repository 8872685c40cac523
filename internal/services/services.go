// Package services implements the rally operations on top of GORM.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"gelift/internal/apperr"
	"gelift/internal/models"
	"gelift/internal/storage"
)

// TrackPoint is a breadcrumb as published to live map subscribers.
type TrackPoint struct {
	EventID   uint      `json:"event_id"`
	TeamID    uint      `json:"team_id"`
	Segment   int       `json:"segment"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Datetime  time.Time `json:"datetime"`
}

// Notifier receives best-effort push events after a transaction commits.
type Notifier interface {
	TimerChanged(teamID, byUserID uint, started bool)
	BreadcrumbAdded(p TrackPoint)
}

type nopNotifier struct{}

func (nopNotifier) TimerChanged(uint, uint, bool) {}
func (nopNotifier) BreadcrumbAdded(TrackPoint)    {}

// Mailer delivers plain-text mail.
type Mailer interface {
	Send(to, subject, body string) error
}

func validateCoordinates(lat, lon float64) error {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return apperr.Newf(apperr.Validation, "coordinates out of range: %f,%f", lat, lon)
	}
	return nil
}

func createLocation(tx *gorm.DB, lat, lon float64) (models.Location, error) {
	loc := models.Location{Latitude: lat, Longitude: lon}
	if err := tx.Create(&loc).Error; err != nil {
		return loc, apperr.FromDB(err, "location")
	}
	return loc, nil
}

func loadTeam(tx *gorm.DB, teamID uint) (models.Team, error) {
	var team models.Team
	if err := tx.First(&team, teamID).Error; err != nil {
		return team, apperr.FromDB(err, "team")
	}
	return team, nil
}

// removePictures deletes stored files after the owning rows are gone.
func removePictures(ctx context.Context, store storage.Store, names []string) {
	if store == nil {
		return
	}
	for _, name := range names {
		if name == "" {
			continue
		}
		if err := store.Delete(ctx, name); err != nil && !errors.Is(err, storage.ErrNotFound) {
			logrus.WithError(err).WithField("picture", name).Warn("failed to delete picture")
		}
	}
}
