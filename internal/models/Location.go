package models

// Location is an immutable coordinate pair. Moving a waypoint creates a new row.
type Location struct {
	ID        uint    `json:"id" gorm:"primaryKey"`
	Latitude  float64 `json:"latitude" gorm:"not null"`
	Longitude float64 `json:"longitude" gorm:"not null"`
}
