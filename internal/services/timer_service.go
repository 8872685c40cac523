package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"gelift/internal/apperr"
	"gelift/internal/metrics"
	"gelift/internal/models"
	"gelift/internal/timer"
)

var errNoBreadcrumb = apperr.New(apperr.PreconditionFailed, "no location recorded for this team yet")

// TimerService drives the per-team stopwatch and breadcrumb log.
// Every transition runs in one transaction under the team's lock.
type TimerService struct {
	db       *gorm.DB
	locks    *timer.Locks
	notifier Notifier
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewTimerService(db *gorm.DB, notifier Notifier, m *metrics.Metrics) *TimerService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &TimerService{
		db:       db,
		locks:    timer.NewLocks(),
		notifier: notifier,
		metrics:  m,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source.
func (s *TimerService) SetClock(now func() time.Time) {
	s.now = now
}

// StopResult reports what a stop recorded.
type StopResult struct {
	Breadcrumb models.TeamLocation
	Score      *models.Score
}

// Start opens a new segment at the given position.
func (s *TimerService) Start(ctx context.Context, teamID, userID uint, lat, lon float64) (models.TeamLocation, error) {
	if err := validateCoordinates(lat, lon); err != nil {
		return models.TeamLocation{}, err
	}

	unlock := s.locks.Lock(teamID)
	defer unlock()

	var (
		crumb models.TeamLocation
		team  models.Team
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if team, err = loadTeam(tx, teamID); err != nil {
			return err
		}
		next, err := timer.FromFlag(team.TimerStarted).Start()
		if err != nil {
			return err
		}

		segment := 1
		last, found, err := lastBreadcrumb(tx, teamID)
		if err != nil {
			return err
		}
		if found {
			segment = last.Segment + 1
		}

		if crumb, err = appendAt(tx, teamID, segment, lat, lon, s.now()); err != nil {
			return err
		}
		return setTimer(tx, teamID, next)
	})
	s.metrics.TimerTransition(metrics.ActionStart, err)
	if err != nil {
		return models.TeamLocation{}, err
	}

	logrus.WithFields(logrus.Fields{
		"team_id": teamID,
		"user_id": userID,
		"segment": crumb.Segment,
	}).Info("team timer started")
	s.metrics.BreadcrumbAppended()
	s.notifier.TimerChanged(teamID, userID, true)
	s.notifier.BreadcrumbAdded(trackPoint(team.EventID, crumb))
	return crumb, nil
}

// Stop closes the current segment. A real locationID marks arrival at a
// waypoint and records a leg score; timer.NoWaypoint stops anywhere.
func (s *TimerService) Stop(ctx context.Context, teamID, userID uint, lat, lon float64, locationID int64) (StopResult, error) {
	if err := validateCoordinates(lat, lon); err != nil {
		return StopResult{}, err
	}

	unlock := s.locks.Lock(teamID)
	defer unlock()

	var (
		res  StopResult
		team models.Team
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if team, err = loadTeam(tx, teamID); err != nil {
			return err
		}
		next, err := timer.FromFlag(team.TimerStarted).Stop()
		if err != nil {
			return err
		}

		last, found, err := lastBreadcrumb(tx, teamID)
		if err != nil {
			return err
		}
		if !found {
			return errNoBreadcrumb
		}

		if locationID == timer.NoWaypoint {
			if res.Breadcrumb, err = appendAt(tx, teamID, last.Segment, lat, lon, s.now()); err != nil {
				return err
			}
			return setTimer(tx, teamID, next)
		}

		var waypoint models.Location
		if err := tx.First(&waypoint, locationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.Newf(apperr.PreconditionFailed, "location %d does not exist", locationID)
			}
			return apperr.FromDB(err, "location")
		}

		res.Breadcrumb = models.TeamLocation{
			TeamID:     teamID,
			LocationID: waypoint.ID,
			Location:   &waypoint,
			Segment:    last.Segment,
			Datetime:   s.now(),
		}
		if err := tx.Omit("Location").Create(&res.Breadcrumb).Error; err != nil {
			return apperr.FromDB(err, "team location")
		}

		if res.Score, err = recordLeg(tx, team, waypoint.ID); err != nil {
			return err
		}
		return setTimer(tx, teamID, next)
	})
	s.metrics.TimerTransition(metrics.ActionStop, err)
	if err != nil {
		return StopResult{}, err
	}

	fields := logrus.Fields{"team_id": teamID, "user_id": userID, "segment": res.Breadcrumb.Segment}
	if res.Score != nil {
		fields["score"] = res.Score.Time.String()
		s.metrics.ScoreRecorded()
	}
	logrus.WithFields(fields).Info("team timer stopped")
	s.metrics.BreadcrumbAppended()
	s.notifier.TimerChanged(teamID, userID, false)
	s.notifier.BreadcrumbAdded(trackPoint(team.EventID, res.Breadcrumb))
	return res, nil
}

// SubmitLocation appends a breadcrumb to the running segment.
func (s *TimerService) SubmitLocation(ctx context.Context, teamID, userID uint, lat, lon float64) (models.TeamLocation, error) {
	if err := validateCoordinates(lat, lon); err != nil {
		return models.TeamLocation{}, err
	}

	unlock := s.locks.Lock(teamID)
	defer unlock()

	var (
		crumb models.TeamLocation
		team  models.Team
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if team, err = loadTeam(tx, teamID); err != nil {
			return err
		}
		if err := timer.FromFlag(team.TimerStarted).Track(); err != nil {
			return err
		}
		last, found, err := lastBreadcrumb(tx, teamID)
		if err != nil {
			return err
		}
		if !found {
			return errNoBreadcrumb
		}
		crumb, err = appendAt(tx, teamID, last.Segment, lat, lon, s.now())
		return err
	})
	if err != nil {
		return models.TeamLocation{}, err
	}

	logrus.WithFields(logrus.Fields{"team_id": teamID, "user_id": userID, "segment": crumb.Segment}).Debug("breadcrumb recorded")
	s.metrics.BreadcrumbAppended()
	s.notifier.BreadcrumbAdded(trackPoint(team.EventID, crumb))
	return crumb, nil
}

type RoutePoint struct {
	ID        uint      `json:"id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Datetime  time.Time `json:"datetime"`
}

type SegmentRoute struct {
	Segment   int          `json:"segment"`
	Locations []RoutePoint `json:"locations"`
}

// Route returns the team's breadcrumbs grouped by segment in time order.
func (s *TimerService) Route(ctx context.Context, teamID uint) ([]SegmentRoute, error) {
	var crumbs []models.TeamLocation
	err := s.db.WithContext(ctx).
		Preload("Location").
		Where("team_id = ?", teamID).
		Order("segment asc").Order("datetime asc").Order("id asc").
		Find(&crumbs).Error
	if err != nil {
		return nil, apperr.FromDB(err, "route")
	}
	return groupBySegment(crumbs), nil
}

func groupBySegment(crumbs []models.TeamLocation) []SegmentRoute {
	routes := []SegmentRoute{}
	for _, c := range crumbs {
		if len(routes) == 0 || routes[len(routes)-1].Segment != c.Segment {
			routes = append(routes, SegmentRoute{Segment: c.Segment, Locations: []RoutePoint{}})
		}
		p := RoutePoint{ID: c.LocationID, Datetime: c.Datetime}
		if c.Location != nil {
			p.Latitude, p.Longitude = c.Location.Latitude, c.Location.Longitude
		}
		cur := &routes[len(routes)-1]
		cur.Locations = append(cur.Locations, p)
	}
	return routes
}

// lastBreadcrumb is the newest TeamLocation by datetime, ties broken by id.
func lastBreadcrumb(tx *gorm.DB, teamID uint) (models.TeamLocation, bool, error) {
	var last models.TeamLocation
	err := tx.Where("team_id = ?", teamID).
		Order("datetime desc").Order("id desc").
		Take(&last).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return last, false, nil
	}
	if err != nil {
		return last, false, apperr.FromDB(err, "team location")
	}
	return last, true, nil
}

func appendAt(tx *gorm.DB, teamID uint, segment int, lat, lon float64, at time.Time) (models.TeamLocation, error) {
	loc, err := createLocation(tx, lat, lon)
	if err != nil {
		return models.TeamLocation{}, err
	}
	crumb := models.TeamLocation{
		TeamID:     teamID,
		LocationID: loc.ID,
		Location:   &loc,
		Segment:    segment,
		Datetime:   at,
	}
	if err := tx.Omit("Location").Create(&crumb).Error; err != nil {
		return crumb, apperr.FromDB(err, "team location")
	}
	return crumb, nil
}

// setTimer flips timer_started only if it still holds the opposite value.
func setTimer(tx *gorm.DB, teamID uint, next timer.State) error {
	res := tx.Model(&models.Team{}).
		Where("id = ? AND timer_started = ?", teamID, !next.Running()).
		Update("timer_started", next.Running())
	if res.Error != nil {
		return apperr.FromDB(res.Error, "team")
	}
	if res.RowsAffected == 0 {
		if next.Running() {
			return timer.ErrAlreadyRunning
		}
		return timer.ErrNotRunning
	}
	return nil
}

func trackPoint(eventID uint, c models.TeamLocation) TrackPoint {
	p := TrackPoint{EventID: eventID, TeamID: c.TeamID, Segment: c.Segment, Datetime: c.Datetime}
	if c.Location != nil {
		p.Latitude, p.Longitude = c.Location.Latitude, c.Location.Longitude
	}
	return p
}
