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

func TestTeamMembershipRules(t *testing.T) {
	db := testdb.New(t)
	ctx := context.Background()
	svc := NewTeamService(db, nil)
	ev := testdb.Event(t, db)

	team, err := svc.Create(ctx, ev.ID)
	require.NoError(t, err)
	other, err := svc.Create(ctx, ev.ID)
	require.NoError(t, err)

	var users []models.User
	for _, name := range []string{"Ada", "Bob", "Cy", "Di"} {
		users = append(users, testdb.User(t, db, name, name+"@example.com"))
	}
	for _, u := range users[:3] {
		require.NoError(t, svc.AddMember(ctx, team.ID, u.ID))
	}

	err = svc.AddMember(ctx, team.ID, users[3].ID)
	assert.True(t, apperr.Is(err, apperr.Forbidden), "fourth member rejected")

	err = svc.AddMember(ctx, other.ID, users[0].ID)
	assert.True(t, apperr.Is(err, apperr.Duplicate), "one team per event")

	require.NoError(t, svc.MoveMember(ctx, users[0].ID, team.ID, other.ID))
	got, err := svc.ForUser(ctx, ev.ID, users[0].ID)
	require.NoError(t, err)
	assert.Equal(t, other.ID, got.ID)

	require.NoError(t, svc.RemoveMember(ctx, other.ID, users[0].ID))
	_, err = svc.ForUser(ctx, ev.ID, users[0].ID)
	assert.True(t, apperr.Is(err, apperr.NotFound))
	assert.True(t, apperr.Is(svc.RemoveMember(ctx, other.ID, users[0].ID), apperr.NotFound))

	assert.True(t, apperr.Is(svc.AddMember(ctx, team.ID, 9999), apperr.NotFound))
}

func TestMoveMemberIntoFullTeam(t *testing.T) {
	db := testdb.New(t)
	ctx := context.Background()
	svc := NewTeamService(db, nil)
	ev := testdb.Event(t, db)
	full := testdb.Team(t, db, ev.ID,
		testdb.User(t, db, "A", "a@example.com"),
		testdb.User(t, db, "B", "b@example.com"),
		testdb.User(t, db, "C", "c@example.com"))
	mover := testdb.User(t, db, "D", "d@example.com")
	from := testdb.Team(t, db, ev.ID, mover)

	err := svc.MoveMember(ctx, mover.ID, from.ID, full.ID)

	assert.True(t, apperr.Is(err, apperr.Forbidden))
	got, err := svc.ForUser(ctx, ev.ID, mover.ID)
	require.NoError(t, err)
	assert.Equal(t, from.ID, got.ID, "failed move is rolled back")
}

func TestTeamSummaries(t *testing.T) {
	db := testdb.New(t)
	ctx := context.Background()
	svc := NewTeamService(db, nil)
	ev := testdb.Event(t, db)
	ada := testdb.User(t, db, "Ada", "ada@example.com")
	team := testdb.Team(t, db, ev.ID, ada)
	testdb.Team(t, db, ev.ID)
	testdb.Breadcrumb(t, db, team.ID, 1, 0)
	latest := testdb.Breadcrumb(t, db, team.ID, 1, time.Minute)

	list, err := svc.List(ctx, ev.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.NotNil(t, list[0].LastLocation)
	assert.Equal(t, latest.LocationID, list[0].LastLocation.ID)
	assert.Nil(t, list[1].LastLocation)
	assert.Empty(t, list[1].Members)

	mine, err := svc.Mine(ctx, ev.ID, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, team.ID, mine.ID)
	require.Len(t, mine.Members, 1)
	assert.Equal(t, "Ada", mine.Members[0].FirstName)
}

func TestTeamDeleteCascades(t *testing.T) {
	db := testdb.New(t)
	ctx := context.Background()
	store := newMemStore()
	svc := NewTeamService(db, store)
	ev := testdb.Event(t, db)
	team := testdb.Team(t, db, ev.ID, testdb.User(t, db, "Ada", "ada@example.com"))
	testdb.Breadcrumb(t, db, team.ID, 1, 0)
	require.NoError(t, db.Create(&models.Score{TeamID: team.ID, StartLocationID: 1, EndLocationID: 2, Time: time.Minute}).Error)
	ch := testdb.Challenge(t, db, ev.ID, "Photo", time.Minute)
	tc := testdb.Submission(t, db, team.ID, ch.ID, true)
	require.NoError(t, store.Save(ctx, tc.Picture, pngBytes, "image/png"))

	require.NoError(t, svc.Delete(ctx, team.ID))

	for _, model := range []interface{}{&models.Team{}, &models.UserTeam{}, &models.TeamLocation{}, &models.Score{}, &models.TeamChallenge{}} {
		var n int64
		require.NoError(t, db.Model(model).Count(&n).Error)
		assert.Zero(t, n)
	}
	assert.False(t, store.has(tc.Picture))
	var challenges int64
	db.Model(&models.Challenge{}).Count(&challenges)
	assert.Equal(t, int64(1), challenges)
}

func TestDisqualify(t *testing.T) {
	db := testdb.New(t)
	ctx := context.Background()
	svc := NewTeamService(db, nil)
	ev := testdb.Event(t, db)
	team := testdb.Team(t, db, ev.ID)

	require.NoError(t, svc.SetDisqualified(ctx, team.ID, true))
	sum, err := svc.Summary(ctx, team.ID)
	require.NoError(t, err)
	assert.True(t, sum.IsDisqualified)

	require.NoError(t, svc.SetDisqualified(ctx, team.ID, false))
	assert.True(t, apperr.Is(svc.SetDisqualified(ctx, 404, true), apperr.NotFound))
}
