package models

type Team struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	EventID        uint       `json:"event_id" gorm:"index;not null"`
	IsDisqualified bool       `json:"is_disqualified"`
	IsWinner       bool       `json:"is_winner"`
	TimerStarted   bool       `json:"timer_started"`
	Members        []UserTeam `json:"members,omitempty" gorm:"foreignKey:TeamID"`
}

const MaxTeamMembers = 3
