package models

import "time"

const (
	RoleSuperuser   = "superuser"
	RoleStaff       = "staff"
	RoleParticipant = "participant"
)

type User struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Email       string     `json:"email" gorm:"uniqueIndex;not null"`
	Phone       string     `json:"phone"`
	Password    string     `json:"-" gorm:"not null"`
	IsStaff     bool       `json:"is_staff"`
	IsSuperuser bool       `json:"is_superuser"`
	FirstLogin  bool       `json:"first_login" gorm:"default:true"`
	LastLogin   *time.Time `json:"last_login"`
	CreatedAt   time.Time  `json:"-"`
	UpdatedAt   time.Time  `json:"-"`
}

// Role is the access level carried in API tokens.
func (u User) Role() string {
	switch {
	case u.IsSuperuser:
		return RoleSuperuser
	case u.IsStaff:
		return RoleStaff
	default:
		return RoleParticipant
	}
}
