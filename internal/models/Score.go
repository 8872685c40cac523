package models

import "time"

// Score is the elapsed travel time of one completed leg.
type Score struct {
	ID              uint          `json:"id" gorm:"primaryKey"`
	TeamID          uint          `json:"team_id" gorm:"index;not null"`
	StartLocationID uint          `json:"start_location_id" gorm:"not null"`
	EndLocationID   uint          `json:"end_location_id" gorm:"index;not null"`
	Time            time.Duration `json:"time" gorm:"column:time_ns;not null"`
}
