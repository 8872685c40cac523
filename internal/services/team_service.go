package services

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"gelift/internal/apperr"
	"gelift/internal/models"
	"gelift/internal/storage"
)

type TeamService struct {
	db    *gorm.DB
	store storage.Store
}

func NewTeamService(db *gorm.DB, store storage.Store) *TeamService {
	return &TeamService{db: db, store: store}
}

// TeamSummary is a team with its members and last known position.
type TeamSummary struct {
	ID             uint             `json:"id"`
	EventID        uint             `json:"event_id"`
	IsDisqualified bool             `json:"is_disqualified"`
	IsWinner       bool             `json:"is_winner"`
	TimerStarted   bool             `json:"timer_started"`
	Members        []PublicUser     `json:"members"`
	LastLocation   *models.Location `json:"last_location"`
}

// ForUser returns the team the user belongs to in the event.
func (s *TeamService) ForUser(ctx context.Context, eventID, userID uint) (models.Team, error) {
	var team models.Team
	err := s.db.WithContext(ctx).
		Select("teams.*").
		Joins("JOIN user_teams ON user_teams.team_id = teams.id").
		Where("teams.event_id = ? AND user_teams.user_id = ?", eventID, userID).
		Take(&team).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return team, apperr.New(apperr.NotFound, "you are not part of a team in the active event")
	}
	if err != nil {
		return team, apperr.FromDB(err, "team")
	}
	return team, nil
}

func (s *TeamService) List(ctx context.Context, eventID uint) ([]TeamSummary, error) {
	var teams []models.Team
	if err := s.withMembers(ctx).Where("event_id = ?", eventID).Order("id asc").Find(&teams).Error; err != nil {
		return nil, apperr.FromDB(err, "team")
	}
	out := make([]TeamSummary, 0, len(teams))
	for _, t := range teams {
		sum, err := s.summarize(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, nil
}

// Mine is the summary of the user's own team.
func (s *TeamService) Mine(ctx context.Context, eventID, userID uint) (TeamSummary, error) {
	team, err := s.ForUser(ctx, eventID, userID)
	if err != nil {
		return TeamSummary{}, err
	}
	return s.Summary(ctx, team.ID)
}

func (s *TeamService) Summary(ctx context.Context, teamID uint) (TeamSummary, error) {
	var team models.Team
	if err := s.withMembers(ctx).First(&team, teamID).Error; err != nil {
		return TeamSummary{}, apperr.FromDB(err, "team")
	}
	return s.summarize(ctx, team)
}

func (s *TeamService) withMembers(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Preload("Members", func(tx *gorm.DB) *gorm.DB { return tx.Order("id asc") }).
		Preload("Members.User")
}

func (s *TeamService) summarize(ctx context.Context, t models.Team) (TeamSummary, error) {
	sum := TeamSummary{
		ID:             t.ID,
		EventID:        t.EventID,
		IsDisqualified: t.IsDisqualified,
		IsWinner:       t.IsWinner,
		TimerStarted:   t.TimerStarted,
		Members:        []PublicUser{},
	}
	for _, m := range t.Members {
		if m.User != nil {
			sum.Members = append(sum.Members, publicUser(*m.User))
		}
	}

	last, found, err := lastBreadcrumb(s.db.WithContext(ctx), t.ID)
	if err != nil {
		return sum, err
	}
	if found {
		var loc models.Location
		if err := s.db.WithContext(ctx).First(&loc, last.LocationID).Error; err != nil {
			return sum, apperr.FromDB(err, "location")
		}
		sum.LastLocation = &loc
	}
	return sum, nil
}

func (s *TeamService) Create(ctx context.Context, eventID uint) (models.Team, error) {
	team := models.Team{EventID: eventID}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ev models.Event
		if err := tx.Select("id").First(&ev, eventID).Error; err != nil {
			return apperr.FromDB(err, "event")
		}
		return apperr.FromDB(tx.Create(&team).Error, "team")
	})
	return team, err
}

// Delete removes the team and everything recorded for it.
func (s *TeamService) Delete(ctx context.Context, teamID uint) error {
	var pictures []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		team, err := loadTeam(tx, teamID)
		if err != nil {
			return err
		}
		if err := tx.Model(&models.TeamChallenge{}).Where("team_id = ?", teamID).Pluck("picture", &pictures).Error; err != nil {
			return apperr.FromDB(err, "challenge submission")
		}
		for _, model := range []interface{}{&models.Score{}, &models.TeamLocation{}, &models.TeamChallenge{}, &models.UserTeam{}} {
			if err := tx.Where("team_id = ?", teamID).Delete(model).Error; err != nil {
				return apperr.FromDB(err, "team data")
			}
		}
		return apperr.FromDB(tx.Delete(&team).Error, "team")
	})
	if err != nil {
		return err
	}
	removePictures(ctx, s.store, pictures)
	logrus.WithField("team_id", teamID).Info("team deleted")
	return nil
}

// checkJoin enforces the team size limit and one team per user per event.
func checkJoin(tx *gorm.DB, team models.Team, userID uint) error {
	var members int64
	if err := tx.Model(&models.UserTeam{}).Where("team_id = ?", team.ID).Count(&members).Error; err != nil {
		return apperr.FromDB(err, "team membership")
	}
	if members >= models.MaxTeamMembers {
		return apperr.Newf(apperr.Forbidden, "a team has at most %d members", models.MaxTeamMembers)
	}

	var elsewhere int64
	if err := tx.Model(&models.UserTeam{}).
		Joins("JOIN teams ON teams.id = user_teams.team_id").
		Where("teams.event_id = ? AND user_teams.user_id = ?", team.EventID, userID).
		Count(&elsewhere).Error; err != nil {
		return apperr.FromDB(err, "team membership")
	}
	if elsewhere > 0 {
		return apperr.New(apperr.Duplicate, "user is already in a team for this event")
	}
	return nil
}

func (s *TeamService) AddMember(ctx context.Context, teamID, userID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		team, err := loadTeam(tx, teamID)
		if err != nil {
			return err
		}
		var user models.User
		if err := tx.Select("id").First(&user, userID).Error; err != nil {
			return apperr.FromDB(err, "user")
		}
		if err := checkJoin(tx, team, userID); err != nil {
			return err
		}
		return apperr.FromDB(tx.Create(&models.UserTeam{TeamID: teamID, UserID: userID}).Error, "team membership")
	})
}

func (s *TeamService) RemoveMember(ctx context.Context, teamID, userID uint) error {
	res := s.db.WithContext(ctx).Where("team_id = ? AND user_id = ?", teamID, userID).Delete(&models.UserTeam{})
	if res.Error != nil {
		return apperr.FromDB(res.Error, "team membership")
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.NotFound, "user is not a member of this team")
	}
	return nil
}

// MoveMember transfers a user between two teams of the same event.
func (s *TeamService) MoveMember(ctx context.Context, userID, fromTeamID, toTeamID uint) error {
	if fromTeamID == toTeamID {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		from, err := loadTeam(tx, fromTeamID)
		if err != nil {
			return err
		}
		to, err := loadTeam(tx, toTeamID)
		if err != nil {
			return err
		}
		if from.EventID != to.EventID {
			return apperr.New(apperr.Validation, "teams belong to different events")
		}
		var membership models.UserTeam
		if err := tx.Where("team_id = ? AND user_id = ?", fromTeamID, userID).Take(&membership).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.New(apperr.NotFound, "user is not a member of this team")
			}
			return apperr.FromDB(err, "team membership")
		}
		if err := tx.Delete(&membership).Error; err != nil {
			return apperr.FromDB(err, "team membership")
		}
		if err := checkJoin(tx, to, userID); err != nil {
			return err
		}
		return apperr.FromDB(tx.Create(&models.UserTeam{TeamID: toTeamID, UserID: userID}).Error, "team membership")
	})
}

func (s *TeamService) SetDisqualified(ctx context.Context, teamID uint, disqualified bool) error {
	res := s.db.WithContext(ctx).Model(&models.Team{}).Where("id = ?", teamID).Update("is_disqualified", disqualified)
	if res.Error != nil {
		return apperr.FromDB(res.Error, "team")
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.NotFound, "team not found")
	}
	logrus.WithFields(logrus.Fields{"team_id": teamID, "disqualified": disqualified}).Info("team qualification changed")
	return nil
}
