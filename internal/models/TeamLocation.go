package models

import "time"

// TeamLocation is one GPS breadcrumb. Rows are append-only; Segment grows by one
// every time the team restarts its timer.
type TeamLocation struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	TeamID     uint      `json:"team_id" gorm:"index:idx_team_segment,priority:1;not null"`
	LocationID uint      `json:"location_id" gorm:"not null"`
	Location   *Location `json:"location,omitempty" gorm:"foreignKey:LocationID"`
	Segment    int       `json:"segment" gorm:"index:idx_team_segment,priority:2;not null"`
	Datetime   time.Time `json:"datetime" gorm:"not null"`
}
