package models

// SubLocation is an intermediate waypoint. Order is dense and 1-based within an event.
type SubLocation struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	EventID    uint      `json:"event_id" gorm:"index;not null"`
	LocationID uint      `json:"location_id" gorm:"not null"`
	Location   *Location `json:"location,omitempty" gorm:"foreignKey:LocationID"`
	City       string    `json:"city"`
	Order      int       `json:"order" gorm:"column:sort_order;not null"`
}
