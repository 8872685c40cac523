package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"gelift/internal/apperr"
	"gelift/internal/metrics"
	"gelift/internal/models"
	"gelift/internal/scoring"
	"gelift/internal/storage"
)

// Submission states reported to participants.
const (
	StatusOpen        = "open"
	StatusUnderReview = "under_review"
	StatusAccepted    = "accepted"
)

type ChallengeService struct {
	db       *gorm.DB
	store    storage.Store
	metrics  *metrics.Metrics
	maxBytes int64
}

func NewChallengeService(db *gorm.DB, store storage.Store, m *metrics.Metrics, maxUploadBytes int64) *ChallengeService {
	return &ChallengeService{db: db, store: store, metrics: m, maxBytes: maxUploadBytes}
}

type ChallengeView struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Reward      string `json:"reward"`
	Status      string `json:"status,omitempty"`
}

func challengeView(c models.Challenge) ChallengeView {
	return ChallengeView{ID: c.ID, Title: c.Title, Description: c.Description, Reward: scoring.FormatHHMM(c.Reward)}
}

func (s *ChallengeService) list(ctx context.Context, eventID uint) ([]models.Challenge, error) {
	var challenges []models.Challenge
	if err := s.db.WithContext(ctx).Where("event_id = ?", eventID).Order("id asc").Find(&challenges).Error; err != nil {
		return nil, apperr.FromDB(err, "challenge")
	}
	return challenges, nil
}

// ForEvent lists the challenges of an event without team status.
func (s *ChallengeService) ForEvent(ctx context.Context, eventID uint) ([]ChallengeView, error) {
	challenges, err := s.list(ctx, eventID)
	if err != nil {
		return nil, err
	}
	out := make([]ChallengeView, len(challenges))
	for i, c := range challenges {
		out[i] = challengeView(c)
	}
	return out, nil
}

// ForTeam lists the event's challenges with the team's submission status.
func (s *ChallengeService) ForTeam(ctx context.Context, eventID, teamID uint) ([]ChallengeView, error) {
	challenges, err := s.list(ctx, eventID)
	if err != nil {
		return nil, err
	}
	var subs []models.TeamChallenge
	if err := s.db.WithContext(ctx).Where("team_id = ?", teamID).Find(&subs).Error; err != nil {
		return nil, apperr.FromDB(err, "challenge submission")
	}
	byChallenge := make(map[uint]models.TeamChallenge, len(subs))
	for _, sub := range subs {
		byChallenge[sub.ChallengeID] = sub
	}

	out := make([]ChallengeView, len(challenges))
	for i, c := range challenges {
		v := challengeView(c)
		v.Status = StatusOpen
		if sub, ok := byChallenge[c.ID]; ok {
			v.Status = StatusUnderReview
			if sub.IsAccepted {
				v.Status = StatusAccepted
			}
		}
		out[i] = v
	}
	return out, nil
}

// Submit stores a picture for a challenge. One submission per team and challenge.
func (s *ChallengeService) Submit(ctx context.Context, team models.Team, challengeID uint, lat, lon float64, picture []byte) (models.TeamChallenge, error) {
	if err := validateCoordinates(lat, lon); err != nil {
		return models.TeamChallenge{}, err
	}
	var ch models.Challenge
	if err := s.db.WithContext(ctx).Where("id = ? AND event_id = ?", challengeID, team.EventID).Take(&ch).Error; err != nil {
		return models.TeamChallenge{}, apperr.FromDB(err, "challenge")
	}
	if err := s.ensureNotSubmitted(ctx, team.ID, challengeID); err != nil {
		return models.TeamChallenge{}, err
	}

	pic, err := storage.NewPicture("challenges", picture, s.maxBytes)
	if err != nil {
		return models.TeamChallenge{}, apperr.Wrap(apperr.Validation, err, "invalid picture")
	}
	if err := storage.Put(ctx, s.store, pic); err != nil {
		return models.TeamChallenge{}, apperr.Wrap(apperr.Internal, err, "could not store picture")
	}

	sub := models.TeamChallenge{TeamID: team.ID, ChallengeID: challengeID, Picture: pic.Name}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		loc, err := createLocation(tx, lat, lon)
		if err != nil {
			return err
		}
		sub.LocationID = loc.ID
		if err := tx.Create(&sub).Error; err != nil {
			if apperr.Is(apperr.FromDB(err, "submission"), apperr.Duplicate) {
				return errAlreadySubmitted
			}
			return apperr.FromDB(err, "challenge submission")
		}
		return nil
	})
	if err != nil {
		removePictures(ctx, s.store, []string{pic.Name})
		return models.TeamChallenge{}, err
	}
	logrus.WithFields(logrus.Fields{"team_id": team.ID, "challenge_id": challengeID}).Info("challenge submitted")
	return sub, nil
}

var errAlreadySubmitted = apperr.New(apperr.Forbidden, "challenge already submitted")

func (s *ChallengeService) ensureNotSubmitted(ctx context.Context, teamID, challengeID uint) error {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.TeamChallenge{}).
		Where("team_id = ? AND challenge_id = ?", teamID, challengeID).
		Count(&n).Error; err != nil {
		return apperr.FromDB(err, "challenge submission")
	}
	if n > 0 {
		return errAlreadySubmitted
	}
	return nil
}

// Withdraw deletes a submission that has not been accepted yet.
func (s *ChallengeService) Withdraw(ctx context.Context, teamID, challengeID uint) error {
	var sub models.TeamChallenge
	err := s.db.WithContext(ctx).Where("team_id = ? AND challenge_id = ?", teamID, challengeID).Take(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.New(apperr.NotFound, "no submission for this challenge")
	}
	if err != nil {
		return apperr.FromDB(err, "challenge submission")
	}
	if sub.IsAccepted {
		return apperr.New(apperr.Forbidden, "accepted submissions cannot be withdrawn")
	}
	if err := s.db.WithContext(ctx).Delete(&sub).Error; err != nil {
		return apperr.FromDB(err, "challenge submission")
	}
	removePictures(ctx, s.store, []string{sub.Picture})
	return nil
}

type PendingSubmission struct {
	ID          uint    `json:"id"`
	TeamID      uint    `json:"team_id"`
	ChallengeID uint    `json:"challenge_id"`
	Challenge   string  `json:"challenge"`
	Reward      string  `json:"reward"`
	Picture     string  `json:"picture"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// Pending lists submissions of the event awaiting review.
func (s *ChallengeService) Pending(ctx context.Context, eventID uint) ([]PendingSubmission, error) {
	var subs []models.TeamChallenge
	err := s.db.WithContext(ctx).
		Preload("Challenge").
		Preload("Location").
		Select("team_challenges.*").
		Joins("JOIN challenges ON challenges.id = team_challenges.challenge_id").
		Where("challenges.event_id = ? AND team_challenges.is_accepted = ?", eventID, false).
		Order("team_challenges.id asc").
		Find(&subs).Error
	if err != nil {
		return nil, apperr.FromDB(err, "challenge submission")
	}
	out := make([]PendingSubmission, 0, len(subs))
	for _, sub := range subs {
		p := PendingSubmission{
			ID:          sub.ID,
			TeamID:      sub.TeamID,
			ChallengeID: sub.ChallengeID,
			Picture:     s.store.URL(sub.Picture),
		}
		if sub.Challenge != nil {
			p.Challenge = sub.Challenge.Title
			p.Reward = scoring.FormatHHMM(sub.Challenge.Reward)
		}
		if sub.Location != nil {
			p.Latitude, p.Longitude = sub.Location.Latitude, sub.Location.Longitude
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *ChallengeService) submission(ctx context.Context, id uint) (models.TeamChallenge, error) {
	var sub models.TeamChallenge
	if err := s.db.WithContext(ctx).First(&sub, id).Error; err != nil {
		return sub, apperr.FromDB(err, "challenge submission")
	}
	return sub, nil
}

// Accept grants the challenge reward to the submitting team.
func (s *ChallengeService) Accept(ctx context.Context, id uint) error {
	sub, err := s.submission(ctx, id)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Model(&sub).Update("is_accepted", true).Error; err != nil {
		return apperr.FromDB(err, "challenge submission")
	}
	s.metrics.ChallengeReviewed(true)
	logrus.WithFields(logrus.Fields{"submission_id": id, "team_id": sub.TeamID}).Info("challenge accepted")
	return nil
}

// Reject deletes a pending submission and its picture.
func (s *ChallengeService) Reject(ctx context.Context, id uint) error {
	sub, err := s.submission(ctx, id)
	if err != nil {
		return err
	}
	if sub.IsAccepted {
		return apperr.New(apperr.Forbidden, "submission was already accepted")
	}
	if err := s.db.WithContext(ctx).Delete(&sub).Error; err != nil {
		return apperr.FromDB(err, "challenge submission")
	}
	removePictures(ctx, s.store, []string{sub.Picture})
	s.metrics.ChallengeReviewed(false)
	logrus.WithFields(logrus.Fields{"submission_id": id, "team_id": sub.TeamID}).Info("challenge rejected")
	return nil
}

type ChallengeInput struct {
	Title       string
	Description string
	Reward      time.Duration
}

func (in ChallengeInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return apperr.New(apperr.Validation, "title is required")
	}
	if in.Reward < 0 {
		return apperr.New(apperr.Validation, "reward cannot be negative")
	}
	return nil
}

func (s *ChallengeService) Create(ctx context.Context, eventID uint, in ChallengeInput) (models.Challenge, error) {
	if err := in.validate(); err != nil {
		return models.Challenge{}, err
	}
	ch := models.Challenge{EventID: eventID, Title: strings.TrimSpace(in.Title), Description: in.Description, Reward: in.Reward}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ev models.Event
		if err := tx.Select("id").First(&ev, eventID).Error; err != nil {
			return apperr.FromDB(err, "event")
		}
		return apperr.FromDB(tx.Create(&ch).Error, "challenge")
	})
	return ch, err
}

func (s *ChallengeService) Update(ctx context.Context, id uint, in ChallengeInput) (models.Challenge, error) {
	if err := in.validate(); err != nil {
		return models.Challenge{}, err
	}
	var ch models.Challenge
	if err := s.db.WithContext(ctx).First(&ch, id).Error; err != nil {
		return ch, apperr.FromDB(err, "challenge")
	}
	err := s.db.WithContext(ctx).Model(&ch).Updates(map[string]interface{}{
		"title":       strings.TrimSpace(in.Title),
		"description": in.Description,
		"reward_ns":   in.Reward,
	}).Error
	if err != nil {
		return ch, apperr.FromDB(err, "challenge")
	}
	ch.Title, ch.Description, ch.Reward = strings.TrimSpace(in.Title), in.Description, in.Reward
	return ch, nil
}

// Delete removes a challenge with all of its submissions.
func (s *ChallengeService) Delete(ctx context.Context, id uint) error {
	var pictures []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ch models.Challenge
		if err := tx.First(&ch, id).Error; err != nil {
			return apperr.FromDB(err, "challenge")
		}
		if err := tx.Model(&models.TeamChallenge{}).Where("challenge_id = ?", id).Pluck("picture", &pictures).Error; err != nil {
			return apperr.FromDB(err, "challenge submission")
		}
		if err := tx.Where("challenge_id = ?", id).Delete(&models.TeamChallenge{}).Error; err != nil {
			return apperr.FromDB(err, "challenge submission")
		}
		return apperr.FromDB(tx.Delete(&ch).Error, "challenge")
	})
	if err != nil {
		return err
	}
	removePictures(ctx, s.store, pictures)
	return nil
}
