package models

import "time"

type Challenge struct {
	ID          uint          `json:"id" gorm:"primaryKey"`
	EventID     uint          `json:"event_id" gorm:"index;not null"`
	Title       string        `json:"title" gorm:"not null"`
	Description string        `json:"description"`
	Reward      time.Duration `json:"reward" gorm:"column:reward_ns;not null"`
}

type TeamChallenge struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	ChallengeID uint       `json:"challenge_id" gorm:"uniqueIndex:idx_team_challenge,priority:2;not null"`
	Challenge   *Challenge `json:"challenge,omitempty" gorm:"foreignKey:ChallengeID"`
	TeamID      uint       `json:"team_id" gorm:"uniqueIndex:idx_team_challenge,priority:1;not null"`
	IsAccepted  bool       `json:"is_accepted"`
	LocationID  uint       `json:"location_id"`
	Location    *Location  `json:"location,omitempty" gorm:"foreignKey:LocationID"`
	Picture     string     `json:"picture"`
}

// All lists every persisted model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{}, &Location{}, &Event{}, &SubLocation{}, &Team{}, &UserTeam{},
		&TeamLocation{}, &Score{}, &Challenge{}, &TeamChallenge{},
	}
}
