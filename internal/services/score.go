package services

import (
	"time"

	"gorm.io/gorm"

	"gelift/internal/apperr"
	"gelift/internal/models"
	"gelift/internal/scoring"
)

// recordLeg persists the score of the leg ending at endLocationID. It is a
// no-op when the team already has a score there or the leg time is zero.
func recordLeg(tx *gorm.DB, team models.Team, endLocationID uint) (*models.Score, error) {
	var existing int64
	if err := tx.Model(&models.Score{}).
		Where("team_id = ? AND end_location_id = ?", team.ID, endLocationID).
		Count(&existing).Error; err != nil {
		return nil, apperr.FromDB(err, "score")
	}
	if existing > 0 {
		return nil, nil
	}

	crumbs, err := teamBreadcrumbs(tx, team.ID)
	if err != nil {
		return nil, err
	}

	var priors []models.Score
	if err := tx.Where("team_id = ?", team.ID).Order("id asc").Find(&priors).Error; err != nil {
		return nil, apperr.FromDB(err, "score")
	}
	prior := make([]scoring.PriorScore, 0, len(priors))
	for _, p := range priors {
		prior = append(prior, scoring.PriorScore{ID: p.ID, EndLocationID: p.EndLocationID, Time: p.Time})
	}

	var event models.Event
	if err := tx.Select("id", "start_location_id").First(&event, team.EventID).Error; err != nil {
		return nil, apperr.FromDB(err, "event")
	}

	leg, ok := scoring.NextLeg(crumbs, prior, event.StartLocationID, endLocationID)
	if !ok {
		return nil, nil
	}

	score := models.Score{
		TeamID:          team.ID,
		StartLocationID: leg.StartLocationID,
		EndLocationID:   leg.EndLocationID,
		Time:            leg.Time,
	}
	if err := tx.Create(&score).Error; err != nil {
		return nil, apperr.FromDB(err, "score")
	}
	return &score, nil
}

func teamBreadcrumbs(tx *gorm.DB, teamID uint) ([]scoring.Breadcrumb, error) {
	var rows []struct {
		Segment  int
		Datetime time.Time
	}
	if err := tx.Model(&models.TeamLocation{}).
		Select("segment", "datetime").
		Where("team_id = ?", teamID).
		Scan(&rows).Error; err != nil {
		return nil, apperr.FromDB(err, "team location")
	}
	crumbs := make([]scoring.Breadcrumb, len(rows))
	for i, r := range rows {
		crumbs[i] = scoring.Breadcrumb{Segment: r.Segment, Datetime: r.Datetime}
	}
	return crumbs, nil
}
