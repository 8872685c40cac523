package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"gelift/internal/apperr"
	"gelift/internal/models"
	"gelift/internal/scoring"
)

type ScoreboardService struct {
	db *gorm.DB
}

func NewScoreboardService(db *gorm.DB) *ScoreboardService {
	return &ScoreboardService{db: db}
}

// Legs returns the scoreboard columns of an event.
func (s *ScoreboardService) Legs(ctx context.Context, event models.Event) ([]scoring.LegSpec, error) {
	var subs []models.SubLocation
	if err := s.db.WithContext(ctx).
		Where("event_id = ?", event.ID).
		Order("sort_order asc").
		Find(&subs).Error; err != nil {
		return nil, apperr.FromDB(err, "sub-destination")
	}
	waypoints := make([]scoring.Waypoint, len(subs))
	for i, sub := range subs {
		waypoints[i] = scoring.Waypoint{LocationID: sub.LocationID, City: sub.City}
	}
	return scoring.BuildLegs(
		scoring.Waypoint{LocationID: event.StartLocationID, City: event.StartCity},
		waypoints,
		scoring.Waypoint{LocationID: event.EndLocationID, City: event.EndCity},
	), nil
}

// Build returns one entry per team of the event, in team id order.
func (s *ScoreboardService) Build(ctx context.Context, event models.Event) ([]scoring.Entry, error) {
	legs, err := s.Legs(ctx, event)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	var teams []models.Team
	if err := db.Preload("Members", func(tx *gorm.DB) *gorm.DB { return tx.Order("id asc") }).
		Preload("Members.User").
		Where("event_id = ?", event.ID).
		Order("id asc").
		Find(&teams).Error; err != nil {
		return nil, apperr.FromDB(err, "team")
	}
	if len(teams) == 0 {
		return []scoring.Entry{}, nil
	}

	ids := make([]uint, len(teams))
	results := make(map[uint]*scoring.TeamResult, len(teams))
	for i, t := range teams {
		ids[i] = t.ID
		r := &scoring.TeamResult{
			TeamID:         t.ID,
			IsDisqualified: t.IsDisqualified,
			Scores:         map[uint]time.Duration{},
			Members:        []string{},
		}
		for _, m := range t.Members {
			if m.User != nil {
				r.Members = append(r.Members, m.User.FirstName)
			}
		}
		results[t.ID] = r
	}

	var scores []models.Score
	if err := db.Where("team_id IN ?", ids).Order("id asc").Find(&scores).Error; err != nil {
		return nil, apperr.FromDB(err, "score")
	}
	for _, sc := range scores {
		r := results[sc.TeamID]
		if _, seen := r.Scores[sc.EndLocationID]; !seen {
			r.Scores[sc.EndLocationID] = sc.Time
		}
	}

	var crumbs []struct {
		TeamID   uint
		Segment  int
		Datetime time.Time
	}
	if err := db.Model(&models.TeamLocation{}).
		Select("team_id", "segment", "datetime").
		Where("team_id IN ?", ids).
		Scan(&crumbs).Error; err != nil {
		return nil, apperr.FromDB(err, "team location")
	}
	for _, c := range crumbs {
		r := results[c.TeamID]
		r.Crumbs = append(r.Crumbs, scoring.Breadcrumb{Segment: c.Segment, Datetime: c.Datetime})
	}

	var rewards []struct {
		TeamID uint
		Reward int64
	}
	if err := db.Table("team_challenges").
		Select("team_challenges.team_id AS team_id, challenges.reward_ns AS reward").
		Joins("JOIN challenges ON challenges.id = team_challenges.challenge_id").
		Where("team_challenges.team_id IN ? AND team_challenges.is_accepted = ?", ids, true).
		Scan(&rewards).Error; err != nil {
		return nil, apperr.FromDB(err, "challenge")
	}
	for _, rw := range rewards {
		r := results[rw.TeamID]
		r.Rewards = append(r.Rewards, time.Duration(rw.Reward))
	}

	entries := make([]scoring.Entry, 0, len(teams))
	for _, t := range teams {
		entries = append(entries, scoring.NewEntry(legs, *results[t.ID]))
	}
	return entries, nil
}

// Ranked is Build sorted by disqualification, then final time.
func (s *ScoreboardService) Ranked(ctx context.Context, event models.Event) ([]scoring.Entry, error) {
	entries, err := s.Build(ctx, event)
	if err != nil {
		return nil, err
	}
	scoring.Rank(entries)
	return entries, nil
}
