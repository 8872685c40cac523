// Package testdb opens migrated in-memory databases and seeds fixtures for tests.
package testdb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"gelift/internal/config"
	"gelift/internal/models"
)

// New returns a fresh SQLite in-memory database with the full schema.
// A single connection keeps every query on the same in-memory database.
func New(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, config.Migrate(db))
	return db
}

// Base is the reference instant fixtures are built around.
var Base = time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

func Location(t testing.TB, db *gorm.DB, lat, lon float64) models.Location {
	t.Helper()
	loc := models.Location{Latitude: lat, Longitude: lon}
	require.NoError(t, db.Create(&loc).Error)
	return loc
}

// Event creates an active event from (0,0) Eindhoven to (1,1) Amsterdam.
func Event(t testing.TB, db *gorm.DB) models.Event {
	t.Helper()
	start := Location(t, db, 0, 0)
	end := Location(t, db, 1, 1)
	ev := models.Event{
		Title:           "lifTUe",
		StartDate:       Base,
		EndDate:         Base.Add(12 * time.Hour),
		StartCity:       "Eindhoven",
		EndCity:         "Amsterdam",
		StartLocationID: start.ID,
		EndLocationID:   end.ID,
		IsActive:        true,
	}
	require.NoError(t, db.Create(&ev).Error)
	return ev
}

func SubLocation(t testing.TB, db *gorm.DB, eventID uint, city string, order int, lat, lon float64) models.SubLocation {
	t.Helper()
	loc := Location(t, db, lat, lon)
	sub := models.SubLocation{EventID: eventID, LocationID: loc.ID, City: city, Order: order}
	require.NoError(t, db.Create(&sub).Error)
	return sub
}

func User(t testing.TB, db *gorm.DB, first, email string) models.User {
	t.Helper()
	u := models.User{FirstName: first, LastName: "Tester", Email: email, Password: "x", FirstLogin: true}
	require.NoError(t, db.Create(&u).Error)
	return u
}

// Team creates a team for eventID with the given members.
func Team(t testing.TB, db *gorm.DB, eventID uint, members ...models.User) models.Team {
	t.Helper()
	team := models.Team{EventID: eventID}
	require.NoError(t, db.Create(&team).Error)
	for _, m := range members {
		require.NoError(t, db.Create(&models.UserTeam{TeamID: team.ID, UserID: m.ID}).Error)
	}
	return team
}

// Breadcrumb appends a TeamLocation at Base+offset.
func Breadcrumb(t testing.TB, db *gorm.DB, teamID uint, segment int, offset time.Duration) models.TeamLocation {
	t.Helper()
	loc := Location(t, db, 0.5, 0.5)
	tl := models.TeamLocation{TeamID: teamID, LocationID: loc.ID, Segment: segment, Datetime: Base.Add(offset)}
	require.NoError(t, db.Create(&tl).Error)
	return tl
}

func Challenge(t testing.TB, db *gorm.DB, eventID uint, title string, reward time.Duration) models.Challenge {
	t.Helper()
	ch := models.Challenge{EventID: eventID, Title: title, Description: title, Reward: reward}
	require.NoError(t, db.Create(&ch).Error)
	return ch
}

func Submission(t testing.TB, db *gorm.DB, teamID, challengeID uint, accepted bool) models.TeamChallenge {
	t.Helper()
	loc := Location(t, db, 0.2, 0.2)
	tc := models.TeamChallenge{TeamID: teamID, ChallengeID: challengeID, IsAccepted: accepted, LocationID: loc.ID, Picture: "p.jpg"}
	require.NoError(t, db.Create(&tc).Error)
	return tc
}
