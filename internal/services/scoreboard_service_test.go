package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gelift/internal/models"
	"gelift/internal/scoring"
	"gelift/internal/testdb"
)

func TestScoreboardScenario(t *testing.T) {
	db := testdb.New(t)
	ctx := context.Background()
	ev := testdb.Event(t, db)
	utrecht := testdb.SubLocation(t, db, ev.ID, "Utrecht", 1, 2, 2)
	ada := testdb.User(t, db, "Ada", "ada@example.com")
	bob := testdb.User(t, db, "Bob", "bob@example.com")
	team := testdb.Team(t, db, ev.ID, ada, bob)

	testdb.Breadcrumb(t, db, team.ID, 1, 0)
	testdb.Breadcrumb(t, db, team.ID, 1, 30*time.Minute)
	testdb.Breadcrumb(t, db, team.ID, 2, 40*time.Minute)
	testdb.Breadcrumb(t, db, team.ID, 2, 100*time.Minute)
	require.NoError(t, db.Create(&models.Score{TeamID: team.ID, StartLocationID: ev.StartLocationID, EndLocationID: utrecht.LocationID, Time: 30 * time.Minute}).Error)
	require.NoError(t, db.Create(&models.Score{TeamID: team.ID, StartLocationID: utrecht.LocationID, EndLocationID: ev.EndLocationID, Time: time.Hour}).Error)

	photo := testdb.Challenge(t, db, ev.ID, "Group photo", 15*time.Minute)
	pending := testdb.Challenge(t, db, ev.ID, "Selfie", 20*time.Minute)
	testdb.Submission(t, db, team.ID, photo.ID, true)
	testdb.Submission(t, db, team.ID, pending.ID, false)

	entries, err := NewScoreboardService(db).Build(ctx, ev)

	require.NoError(t, err)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, team.ID, e.TeamID)
	assert.Equal(t, []string{"Ada", "Bob"}, e.Members)
	assert.Equal(t, []scoring.LegTime{
		{Order: 1, Name: "Eindhoven-Utrecht", Time: "00:30"},
		{Order: 2, Name: "Utrecht-Amsterdam", Time: "01:00"},
	}, e.Segments)
	assert.Equal(t, "01:30", e.TravelTime)
	assert.Equal(t, "00:15", e.BonusTime)
	assert.Equal(t, "01:15", e.FinalTime)
	assert.False(t, e.IsDisqualified)
}

func TestScoreboardTeamWithoutBreadcrumbs(t *testing.T) {
	db := testdb.New(t)
	ev := testdb.Event(t, db)
	testdb.SubLocation(t, db, ev.ID, "Utrecht", 1, 2, 2)
	testdb.Team(t, db, ev.ID)

	entries, err := NewScoreboardService(db).Build(context.Background(), ev)

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "00:00", entries[0].TravelTime)
	assert.Equal(t, "00:00", entries[0].FinalTime)
	assert.Equal(t, []string{}, entries[0].Members)
	for _, leg := range entries[0].Segments {
		assert.Equal(t, scoring.NotAvailable, leg.Time)
	}
}

func TestScoreboardNoTeams(t *testing.T) {
	db := testdb.New(t)
	ev := testdb.Event(t, db)

	entries, err := NewScoreboardService(db).Build(context.Background(), ev)

	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestScoreboardRanked(t *testing.T) {
	db := testdb.New(t)
	ev := testdb.Event(t, db)
	slow := testdb.Team(t, db, ev.ID)
	fast := testdb.Team(t, db, ev.ID)
	cheat := testdb.Team(t, db, ev.ID)
	require.NoError(t, db.Model(&cheat).Update("is_disqualified", true).Error)

	testdb.Breadcrumb(t, db, slow.ID, 1, 0)
	testdb.Breadcrumb(t, db, slow.ID, 1, 2*time.Hour)
	testdb.Breadcrumb(t, db, fast.ID, 1, 0)
	testdb.Breadcrumb(t, db, fast.ID, 1, time.Hour)
	testdb.Breadcrumb(t, db, cheat.ID, 1, 0)
	testdb.Breadcrumb(t, db, cheat.ID, 1, time.Minute)

	entries, err := NewScoreboardService(db).Ranked(context.Background(), ev)

	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, []uint{fast.ID, slow.ID, cheat.ID}, []uint{entries[0].TeamID, entries[1].TeamID, entries[2].TeamID})
	assert.Equal(t, []scoring.LegTime{{Order: 1, Name: "Eindhoven-Amsterdam", Time: scoring.NotAvailable}}, entries[0].Segments)
}

func TestScoreboardAfterTimerRun(t *testing.T) {
	f := newTimerFixture(t)
	ctx := context.Background()

	f.clock.set(testdb.Base)
	_, err := f.svc.Start(ctx, f.team.ID, f.user.ID, 0, 0)
	require.NoError(t, err)
	f.clock.set(testdb.Base.Add(45 * time.Minute))
	_, err = f.svc.Stop(ctx, f.team.ID, f.user.ID, 1, 1, int64(f.event.EndLocationID))
	require.NoError(t, err)

	entries, err := NewScoreboardService(f.db).Build(ctx, f.event)

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "00:45", entries[0].Segments[0].Time)
	assert.Equal(t, "00:45", entries[0].TravelTime)
}
