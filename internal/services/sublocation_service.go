package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"gelift/internal/apperr"
	"gelift/internal/models"
)

// AddSubLocation appends a waypoint after the current last one.
func (s *EventService) AddSubLocation(ctx context.Context, eventID uint, city string, lat, lon float64) (models.SubLocation, error) {
	if err := validateCoordinates(lat, lon); err != nil {
		return models.SubLocation{}, err
	}
	var sub models.SubLocation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ev models.Event
		if err := tx.Select("id").First(&ev, eventID).Error; err != nil {
			return apperr.FromDB(err, "event")
		}
		var maxOrder int
		if err := tx.Model(&models.SubLocation{}).
			Where("event_id = ?", eventID).
			Select("COALESCE(MAX(sort_order), 0)").
			Scan(&maxOrder).Error; err != nil {
			return apperr.FromDB(err, "sub-destination")
		}
		loc, err := createLocation(tx, lat, lon)
		if err != nil {
			return err
		}
		sub = models.SubLocation{
			EventID:    eventID,
			LocationID: loc.ID,
			Location:   &loc,
			City:       strings.TrimSpace(city),
			Order:      maxOrder + 1,
		}
		return apperr.FromDB(tx.Omit("Location").Create(&sub).Error, "sub-destination")
	})
	return sub, err
}

func (s *EventService) subLocation(tx *gorm.DB, id uint) (models.SubLocation, error) {
	var sub models.SubLocation
	if err := tx.First(&sub, id).Error; err != nil {
		return sub, apperr.FromDB(err, "sub-destination")
	}
	return sub, nil
}

// MoveSubLocation points the waypoint at a new Location row.
func (s *EventService) MoveSubLocation(ctx context.Context, id uint, lat, lon float64) error {
	if err := validateCoordinates(lat, lon); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub, err := s.subLocation(tx, id)
		if err != nil {
			return err
		}
		loc, err := createLocation(tx, lat, lon)
		if err != nil {
			return err
		}
		return apperr.FromDB(tx.Model(&sub).Update("location_id", loc.ID).Error, "sub-destination")
	})
}

func (s *EventService) RenameSubLocation(ctx context.Context, id uint, city string) error {
	city = strings.TrimSpace(city)
	if city == "" {
		return apperr.New(apperr.Validation, "city is required")
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub, err := s.subLocation(tx, id)
		if err != nil {
			return err
		}
		return apperr.FromDB(tx.Model(&sub).Update("city", city).Error, "sub-destination")
	})
}

// ReorderSubLocations assigns order index+1 to each id. ids must list every
// sub-destination of the event exactly once.
func (s *EventService) ReorderSubLocations(ctx context.Context, eventID uint, ids []uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current []uint
		if err := tx.Model(&models.SubLocation{}).Where("event_id = ?", eventID).Pluck("id", &current).Error; err != nil {
			return apperr.FromDB(err, "sub-destination")
		}
		if len(current) != len(ids) {
			return apperr.Newf(apperr.Validation, "expected %d sub-destinations, got %d", len(current), len(ids))
		}
		known := make(map[uint]bool, len(current))
		for _, id := range current {
			known[id] = true
		}
		for _, id := range ids {
			if !known[id] {
				return apperr.Newf(apperr.Validation, "sub-destination %d is not part of event %d or listed twice", id, eventID)
			}
			delete(known, id)
		}
		for i, id := range ids {
			if err := tx.Model(&models.SubLocation{}).Where("id = ?", id).Update("sort_order", i+1).Error; err != nil {
				return apperr.FromDB(err, "sub-destination")
			}
		}
		return nil
	})
}

// DeleteSubLocation removes a waypoint and closes the gap in the ordering.
func (s *EventService) DeleteSubLocation(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub, err := s.subLocation(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Delete(&sub).Error; err != nil {
			return apperr.FromDB(err, "sub-destination")
		}
		return apperr.FromDB(tx.Model(&models.SubLocation{}).
			Where("event_id = ? AND sort_order > ?", sub.EventID, sub.Order).
			Update("sort_order", gorm.Expr("sort_order - 1")).Error, "sub-destination")
	})
}
