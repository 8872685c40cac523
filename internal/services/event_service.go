package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"gelift/internal/apperr"
	"gelift/internal/models"
	"gelift/internal/storage"
)

type EventService struct {
	db    *gorm.DB
	store storage.Store
}

func NewEventService(db *gorm.DB, store storage.Store) *EventService {
	return &EventService{db: db, store: store}
}

func withRoute(db *gorm.DB) *gorm.DB {
	return db.Preload("StartLocation").
		Preload("EndLocation").
		Preload("SubLocations", func(tx *gorm.DB) *gorm.DB { return tx.Order("sort_order asc") }).
		Preload("SubLocations.Location")
}

// Active returns the single active event.
func (s *EventService) Active(ctx context.Context) (models.Event, error) {
	var ev models.Event
	err := withRoute(s.db.WithContext(ctx)).Where("is_active = ?", true).Take(&ev).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ev, apperr.New(apperr.NotFound, "no active event")
	}
	if err != nil {
		return ev, apperr.FromDB(err, "event")
	}
	return ev, nil
}

func (s *EventService) Get(ctx context.Context, id uint) (models.Event, error) {
	var ev models.Event
	if err := withRoute(s.db.WithContext(ctx)).First(&ev, id).Error; err != nil {
		return ev, apperr.FromDB(err, "event")
	}
	return ev, nil
}

// List returns all events, newest first.
func (s *EventService) List(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	if err := s.db.WithContext(ctx).Order("start_date desc").Order("id desc").Find(&events).Error; err != nil {
		return nil, apperr.FromDB(err, "event")
	}
	return events, nil
}

type EventInput struct {
	Title            string
	StartDate        time.Time
	EndDate          time.Time
	StartCity        string
	EndCity          string
	StartLatitude    float64
	StartLongitude   float64
	EndLatitude      float64
	EndLongitude     float64
	EmergencyContact string
}

func (in EventInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return apperr.New(apperr.Validation, "title is required")
	}
	if !in.EndDate.IsZero() && in.EndDate.Before(in.StartDate) {
		return apperr.New(apperr.Validation, "end date precedes start date")
	}
	if err := validateCoordinates(in.StartLatitude, in.StartLongitude); err != nil {
		return err
	}
	return validateCoordinates(in.EndLatitude, in.EndLongitude)
}

// Create stores a new, inactive event.
func (s *EventService) Create(ctx context.Context, in EventInput) (models.Event, error) {
	if err := in.validate(); err != nil {
		return models.Event{}, err
	}
	ev := models.Event{
		Title:            in.Title,
		StartDate:        in.StartDate,
		EndDate:          in.EndDate,
		StartCity:        in.StartCity,
		EndCity:          in.EndCity,
		EmergencyContact: in.EmergencyContact,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		start, err := createLocation(tx, in.StartLatitude, in.StartLongitude)
		if err != nil {
			return err
		}
		end, err := createLocation(tx, in.EndLatitude, in.EndLongitude)
		if err != nil {
			return err
		}
		ev.StartLocationID, ev.EndLocationID = start.ID, end.ID
		if err := tx.Create(&ev).Error; err != nil {
			return apperr.FromDB(err, "event")
		}
		return nil
	})
	if err != nil {
		return models.Event{}, err
	}
	logrus.WithFields(logrus.Fields{"event_id": ev.ID, "title": ev.Title}).Info("event created")
	return s.Get(ctx, ev.ID)
}

type EventUpdate struct {
	Title            *string
	StartDate        *time.Time
	EndDate          *time.Time
	StartCity        *string
	EndCity          *string
	EmergencyContact *string
}

func (s *EventService) Update(ctx context.Context, id uint, in EventUpdate) (models.Event, error) {
	updates := map[string]interface{}{}
	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return models.Event{}, apperr.New(apperr.Validation, "title is required")
		}
		updates["title"] = *in.Title
	}
	if in.StartDate != nil {
		updates["start_date"] = *in.StartDate
	}
	if in.EndDate != nil {
		updates["end_date"] = *in.EndDate
	}
	if in.StartCity != nil {
		updates["start_city"] = *in.StartCity
	}
	if in.EndCity != nil {
		updates["end_city"] = *in.EndCity
	}
	if in.EmergencyContact != nil {
		updates["emergency_contact"] = *in.EmergencyContact
	}
	if err := s.update(ctx, id, updates); err != nil {
		return models.Event{}, err
	}
	return s.Get(ctx, id)
}

func (s *EventService) update(ctx context.Context, id uint, updates map[string]interface{}) error {
	if len(updates) == 0 {
		_, err := s.Get(ctx, id)
		return err
	}
	res := s.db.WithContext(ctx).Model(&models.Event{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return apperr.FromDB(res.Error, "event")
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.NotFound, "event not found")
	}
	return nil
}

// SetEmergencyContact changes the number shown to participants.
func (s *EventService) SetEmergencyContact(ctx context.Context, id uint, contact string) error {
	contact = strings.TrimSpace(contact)
	if contact == "" {
		return apperr.New(apperr.Validation, "emergency contact is required")
	}
	return s.update(ctx, id, map[string]interface{}{"emergency_contact": contact})
}

// SetActive makes id the only active event.
func (s *EventService) SetActive(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ev models.Event
		if err := tx.Select("id").First(&ev, id).Error; err != nil {
			return apperr.FromDB(err, "event")
		}
		if err := tx.Model(&models.Event{}).
			Where("id <> ? AND is_active = ?", id, true).
			Update("is_active", false).Error; err != nil {
			return apperr.FromDB(err, "event")
		}
		if err := tx.Model(&models.Event{}).Where("id = ?", id).Update("is_active", true).Error; err != nil {
			return apperr.FromDB(err, "event")
		}
		logrus.WithField("event_id", id).Info("event activated")
		return nil
	})
}

func (s *EventService) SetInactive(ctx context.Context, id uint) error {
	return s.update(ctx, id, map[string]interface{}{"is_active": false})
}

// Endpoint selects the start or end of an event route.
type Endpoint string

const (
	StartPoint Endpoint = "start"
	EndPoint   Endpoint = "end"
)

// MoveEndpoint points the event's start or end at a new Location row.
func (s *EventService) MoveEndpoint(ctx context.Context, id uint, which Endpoint, lat, lon float64) error {
	column := ""
	switch which {
	case StartPoint:
		column = "start_location_id"
	case EndPoint:
		column = "end_location_id"
	default:
		return apperr.Newf(apperr.Validation, "unknown endpoint %q", which)
	}
	if err := validateCoordinates(lat, lon); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		loc, err := createLocation(tx, lat, lon)
		if err != nil {
			return err
		}
		res := tx.Model(&models.Event{}).Where("id = ?", id).Update(column, loc.ID)
		if res.Error != nil {
			return apperr.FromDB(res.Error, "event")
		}
		if res.RowsAffected == 0 {
			return apperr.New(apperr.NotFound, "event not found")
		}
		return nil
	})
}

// RenameEndpoint changes the city name of the start or end.
func (s *EventService) RenameEndpoint(ctx context.Context, id uint, which Endpoint, city string) error {
	city = strings.TrimSpace(city)
	if city == "" {
		return apperr.New(apperr.Validation, "city is required")
	}
	switch which {
	case StartPoint:
		return s.update(ctx, id, map[string]interface{}{"start_city": city})
	case EndPoint:
		return s.update(ctx, id, map[string]interface{}{"end_city": city})
	}
	return apperr.Newf(apperr.Validation, "unknown endpoint %q", which)
}

// SetWinner marks teamID as the event's only winner. photo, when non-empty,
// replaces the winner photo.
func (s *EventService) SetWinner(ctx context.Context, eventID, teamID uint, photo string) error {
	var oldPhoto string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ev models.Event
		if err := tx.First(&ev, eventID).Error; err != nil {
			return apperr.FromDB(err, "event")
		}
		team, err := loadTeam(tx, teamID)
		if err != nil {
			return err
		}
		if team.EventID != eventID {
			return apperr.New(apperr.Validation, "team does not belong to this event")
		}
		if err := tx.Model(&models.Team{}).Where("event_id = ?", eventID).Update("is_winner", false).Error; err != nil {
			return apperr.FromDB(err, "team")
		}
		if err := tx.Model(&models.Team{}).Where("id = ?", teamID).Update("is_winner", true).Error; err != nil {
			return apperr.FromDB(err, "team")
		}
		if photo != "" {
			oldPhoto = ev.WinnerPhoto
			if err := tx.Model(&ev).Update("winner_photo", photo).Error; err != nil {
				return apperr.FromDB(err, "event")
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	removePictures(ctx, s.store, []string{oldPhoto})
	logrus.WithFields(logrus.Fields{"event_id": eventID, "team_id": teamID}).Info("winner set")
	return nil
}

// ClearWinner removes the winner flag and the winner photo.
func (s *EventService) ClearWinner(ctx context.Context, eventID uint) error {
	var photo string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ev models.Event
		if err := tx.First(&ev, eventID).Error; err != nil {
			return apperr.FromDB(err, "event")
		}
		photo = ev.WinnerPhoto
		if err := tx.Model(&models.Team{}).Where("event_id = ?", eventID).Update("is_winner", false).Error; err != nil {
			return apperr.FromDB(err, "team")
		}
		return apperr.FromDB(tx.Model(&ev).Update("winner_photo", "").Error, "event")
	})
	if err != nil {
		return err
	}
	removePictures(ctx, s.store, []string{photo})
	return nil
}

// Winner returns the winning team of an event, if any.
func (s *EventService) Winner(ctx context.Context, eventID uint) (*models.Team, error) {
	var team models.Team
	err := s.db.WithContext(ctx).
		Preload("Members.User").
		Where("event_id = ? AND is_winner = ?", eventID, true).
		Take(&team).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.FromDB(err, "team")
	}
	return &team, nil
}

// Delete removes the event and everything recorded for it.
func (s *EventService) Delete(ctx context.Context, id uint) error {
	var pictures []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ev models.Event
		if err := tx.First(&ev, id).Error; err != nil {
			return apperr.FromDB(err, "event")
		}

		var teamIDs, challengeIDs []uint
		if err := tx.Model(&models.Team{}).Where("event_id = ?", id).Pluck("id", &teamIDs).Error; err != nil {
			return apperr.FromDB(err, "team")
		}
		if err := tx.Model(&models.Challenge{}).Where("event_id = ?", id).Pluck("id", &challengeIDs).Error; err != nil {
			return apperr.FromDB(err, "challenge")
		}

		submissions := tx.Model(&models.TeamChallenge{}).
			Where("team_id IN ? OR challenge_id IN ?", nonEmpty(teamIDs), nonEmpty(challengeIDs))
		if err := submissions.Pluck("picture", &pictures).Error; err != nil {
			return apperr.FromDB(err, "challenge submission")
		}
		pictures = append(pictures, ev.WinnerPhoto)

		steps := []struct {
			model interface{}
			query string
			arg   interface{}
		}{
			{&models.Score{}, "team_id IN ?", nonEmpty(teamIDs)},
			{&models.TeamLocation{}, "team_id IN ?", nonEmpty(teamIDs)},
			{&models.TeamChallenge{}, "team_id IN ?", nonEmpty(teamIDs)},
			{&models.TeamChallenge{}, "challenge_id IN ?", nonEmpty(challengeIDs)},
			{&models.Challenge{}, "event_id = ?", id},
			{&models.SubLocation{}, "event_id = ?", id},
			{&models.UserTeam{}, "team_id IN ?", nonEmpty(teamIDs)},
			{&models.Team{}, "event_id = ?", id},
		}
		for _, st := range steps {
			if err := tx.Where(st.query, st.arg).Delete(st.model).Error; err != nil {
				return apperr.FromDB(err, "event data")
			}
		}
		if err := tx.Delete(&ev).Error; err != nil {
			return apperr.FromDB(err, "event")
		}
		return nil
	})
	if err != nil {
		return err
	}
	removePictures(ctx, s.store, pictures)
	logrus.WithField("event_id", id).Info("event deleted")
	return nil
}

// nonEmpty keeps IN clauses valid for empty id lists.
func nonEmpty(ids []uint) []uint {
	if len(ids) == 0 {
		return []uint{0}
	}
	return ids
}

// AddLocation stores a free-standing coordinate pair.
func (s *EventService) AddLocation(ctx context.Context, lat, lon float64) (models.Location, error) {
	if err := validateCoordinates(lat, lon); err != nil {
		return models.Location{}, err
	}
	return createLocation(s.db.WithContext(ctx), lat, lon)
}
