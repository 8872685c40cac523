package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gelift/internal/apperr"
	"gelift/internal/models"
	"gelift/internal/testdb"
)

func TestEventCreateAndActivate(t *testing.T) {
	db := testdb.New(t)
	ctx := context.Background()
	svc := NewEventService(db, newMemStore())

	old := testdb.Event(t, db)
	ev, err := svc.Create(ctx, EventInput{
		Title:          "lifTUe 2025",
		StartDate:      testdb.Base,
		EndDate:        testdb.Base.Add(8 * time.Hour),
		StartCity:      "Eindhoven",
		EndCity:        "Maastricht",
		StartLatitude:  51.44,
		StartLongitude: 5.47,
		EndLatitude:    50.85,
		EndLongitude:   5.69,
	})
	require.NoError(t, err)
	assert.False(t, ev.IsActive)
	require.NotNil(t, ev.StartLocation)
	assert.InDelta(t, 51.44, ev.StartLocation.Latitude, 1e-9)

	require.NoError(t, svc.SetActive(ctx, ev.ID))

	active, err := svc.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, ev.ID, active.ID)

	var count int64
	db.Model(&models.Event{}).Where("is_active = ?", true).Count(&count)
	assert.Equal(t, int64(1), count)

	reloaded, err := svc.Get(ctx, old.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.IsActive)

	require.NoError(t, svc.SetInactive(ctx, ev.ID))
	_, err = svc.Active(ctx)
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestEventCreateValidates(t *testing.T) {
	svc := NewEventService(testdb.New(t), nil)

	_, err := svc.Create(context.Background(), EventInput{Title: " "})
	assert.True(t, apperr.Is(err, apperr.Validation))

	_, err = svc.Create(context.Background(), EventInput{Title: "x", StartLatitude: 100})
	assert.True(t, apperr.Is(err, apperr.Validation))
}

func TestSetActiveUnknownEvent(t *testing.T) {
	svc := NewEventService(testdb.New(t), nil)

	err := svc.SetActive(context.Background(), 42)

	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestEventUpdateAndEndpoints(t *testing.T) {
	db := testdb.New(t)
	ctx := context.Background()
	svc := NewEventService(db, nil)
	ev := testdb.Event(t, db)

	title := "Renamed"
	updated, err := svc.Update(ctx, ev.ID, EventUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)

	require.NoError(t, svc.MoveEndpoint(ctx, ev.ID, EndPoint, 52.37, 4.9))
	require.NoError(t, svc.RenameEndpoint(ctx, ev.ID, StartPoint, "Veldhoven"))
	require.NoError(t, svc.SetEmergencyContact(ctx, ev.ID, "+31612345678"))

	moved, err := svc.Get(ctx, ev.ID)
	require.NoError(t, err)
	assert.NotEqual(t, ev.EndLocationID, moved.EndLocationID, "moving creates a new location row")
	assert.InDelta(t, 52.37, moved.EndLocation.Latitude, 1e-9)
	assert.Equal(t, "Veldhoven", moved.StartCity)
	assert.Equal(t, "+31612345678", moved.EmergencyContact)

	var original models.Location
	require.NoError(t, db.First(&original, ev.EndLocationID).Error)
	assert.InDelta(t, 1.0, original.Latitude, 1e-9)

	assert.True(t, apperr.Is(svc.MoveEndpoint(ctx, ev.ID, "middle", 0, 0), apperr.Validation))
	assert.True(t, apperr.Is(svc.SetEmergencyContact(ctx, 999, "112"), apperr.NotFound))
}

func TestSubLocationOrdering(t *testing.T) {
	db := testdb.New(t)
	ctx := context.Background()
	svc := NewEventService(db, nil)
	ev := testdb.Event(t, db)

	a, err := svc.AddSubLocation(ctx, ev.ID, "Den Bosch", 51.69, 5.3)
	require.NoError(t, err)
	b, err := svc.AddSubLocation(ctx, ev.ID, "Utrecht", 52.09, 5.12)
	require.NoError(t, err)
	c, err := svc.AddSubLocation(ctx, ev.ID, "Amersfoort", 52.15, 5.38)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, []int{a.Order, b.Order, c.Order})

	order := func() []uint {
		got, err := svc.Get(ctx, ev.ID)
		require.NoError(t, err)
		var ids []uint
		for _, s := range got.SubLocations {
			ids = append(ids, s.ID)
		}
		return ids
	}

	require.NoError(t, svc.ReorderSubLocations(ctx, ev.ID, []uint{c.ID, a.ID, b.ID}))
	assert.Equal(t, []uint{c.ID, a.ID, b.ID}, order())

	err = svc.ReorderSubLocations(ctx, ev.ID, []uint{c.ID, c.ID, b.ID})
	assert.True(t, apperr.Is(err, apperr.Validation))

	require.NoError(t, svc.DeleteSubLocation(ctx, a.ID))
	assert.Equal(t, []uint{c.ID, b.ID}, order())

	var subs []models.SubLocation
	require.NoError(t, db.Where("event_id = ?", ev.ID).Order("sort_order").Find(&subs).Error)
	assert.Equal(t, 1, subs[0].Order)
	assert.Equal(t, 2, subs[1].Order)

	require.NoError(t, svc.RenameSubLocation(ctx, b.ID, "Utrecht Centraal"))
	require.NoError(t, svc.MoveSubLocation(ctx, b.ID, 52.08, 5.11))
	var moved models.SubLocation
	require.NoError(t, db.First(&moved, b.ID).Error)
	assert.Equal(t, "Utrecht Centraal", moved.City)
	assert.NotEqual(t, b.LocationID, moved.LocationID)
}

func TestWinnerIsExclusive(t *testing.T) {
	db := testdb.New(t)
	ctx := context.Background()
	store := newMemStore()
	svc := NewEventService(db, store)
	ev := testdb.Event(t, db)
	first := testdb.Team(t, db, ev.ID, testdb.User(t, db, "Ada", "ada@example.com"))
	second := testdb.Team(t, db, ev.ID)
	require.NoError(t, store.Save(ctx, "winners/a.png", pngBytes, "image/png"))

	require.NoError(t, svc.SetWinner(ctx, ev.ID, first.ID, "winners/a.png"))
	require.NoError(t, svc.SetWinner(ctx, ev.ID, second.ID, ""))

	var winners int64
	db.Model(&models.Team{}).Where("event_id = ? AND is_winner = ?", ev.ID, true).Count(&winners)
	assert.Equal(t, int64(1), winners)
	w, err := svc.Winner(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, w.ID)

	require.NoError(t, svc.ClearWinner(ctx, ev.ID))
	w, err = svc.Winner(ctx, ev.ID)
	require.NoError(t, err)
	assert.Nil(t, w)
	assert.False(t, store.has("winners/a.png"))

	other := testdb.Event(t, db)
	stranger := testdb.Team(t, db, other.ID)
	assert.True(t, apperr.Is(svc.SetWinner(ctx, ev.ID, stranger.ID, ""), apperr.Validation))
}

func TestEventDeleteCascades(t *testing.T) {
	db := testdb.New(t)
	ctx := context.Background()
	store := newMemStore()
	svc := NewEventService(db, store)

	ev := testdb.Event(t, db)
	sub := testdb.SubLocation(t, db, ev.ID, "Utrecht", 1, 2, 2)
	u := testdb.User(t, db, "Ada", "ada@example.com")
	team := testdb.Team(t, db, ev.ID, u)
	testdb.Breadcrumb(t, db, team.ID, 1, 0)
	require.NoError(t, db.Create(&models.Score{TeamID: team.ID, StartLocationID: ev.StartLocationID, EndLocationID: sub.LocationID, Time: time.Minute}).Error)
	ch := testdb.Challenge(t, db, ev.ID, "Photo", time.Minute)
	tc := testdb.Submission(t, db, team.ID, ch.ID, false)
	require.NoError(t, store.Save(ctx, tc.Picture, pngBytes, "image/png"))

	keep := testdb.Event(t, db)
	keepTeam := testdb.Team(t, db, keep.ID)
	testdb.Breadcrumb(t, db, keepTeam.ID, 1, 0)

	require.NoError(t, svc.Delete(ctx, ev.ID))

	count := func(model interface{}) int64 {
		var n int64
		require.NoError(t, db.Model(model).Count(&n).Error)
		return n
	}
	assert.Zero(t, count(&models.Score{}))
	assert.Equal(t, int64(1), count(&models.TeamLocation{}), "other event untouched")
	assert.Zero(t, count(&models.TeamChallenge{}))
	assert.Zero(t, count(&models.Challenge{}))
	assert.Zero(t, count(&models.SubLocation{}))
	assert.Zero(t, count(&models.UserTeam{}))
	assert.Equal(t, int64(1), count(&models.Team{}))
	assert.Equal(t, int64(1), count(&models.Event{}))
	assert.Equal(t, int64(1), count(&models.User{}), "users survive")
	assert.False(t, store.has(tc.Picture))

	assert.True(t, apperr.Is(svc.Delete(ctx, ev.ID), apperr.NotFound))
}

func TestAddLocation(t *testing.T) {
	svc := NewEventService(testdb.New(t), nil)

	loc, err := svc.AddLocation(context.Background(), 52.09, 5.12)
	require.NoError(t, err)
	assert.NotZero(t, loc.ID)

	_, err = svc.AddLocation(context.Background(), 0, 200)
	assert.True(t, apperr.Is(err, apperr.Validation))
}
