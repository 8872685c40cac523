package models

import "time"

type Event struct {
	ID               uint          `json:"id" gorm:"primaryKey"`
	Title            string        `json:"title" gorm:"not null"`
	StartDate        time.Time     `json:"start_date"`
	EndDate          time.Time     `json:"end_date"`
	StartCity        string        `json:"start_city"`
	EndCity          string        `json:"end_city"`
	StartLocationID  uint          `json:"start_location_id"`
	StartLocation    *Location     `json:"start_location,omitempty" gorm:"foreignKey:StartLocationID"`
	EndLocationID    uint          `json:"end_location_id"`
	EndLocation      *Location     `json:"end_location,omitempty" gorm:"foreignKey:EndLocationID"`
	WinnerPhoto      string        `json:"winner_photo"`
	IsActive         bool          `json:"is_active" gorm:"index"`
	EmergencyContact string        `json:"emergency_contact"`
	SubLocations     []SubLocation `json:"sub_locations,omitempty" gorm:"foreignKey:EventID"`
	CreatedAt        time.Time     `json:"-"`
	UpdatedAt        time.Time     `json:"-"`
}
