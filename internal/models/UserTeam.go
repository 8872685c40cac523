package models

type UserTeam struct {
	ID     uint  `json:"id" gorm:"primaryKey"`
	TeamID uint  `json:"team_id" gorm:"index;not null"`
	UserID uint  `json:"user_id" gorm:"index;not null"`
	User   *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
