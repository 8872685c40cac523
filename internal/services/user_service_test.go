package services

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"gelift/internal/apperr"
	"gelift/internal/models"
	"gelift/internal/testdb"
)

type fakeTokens struct{}

func (fakeTokens) IssueReset(id uint) (string, error) { return "reset-" + strconv.Itoa(int(id)), nil }

func (fakeTokens) ParseReset(token string) (uint, error) {
	id, err := strconv.Atoi(strings.TrimPrefix(token, "reset-"))
	if err != nil || !strings.HasPrefix(token, "reset-") {
		return 0, errors.New("bad token")
	}
	return uint(id), nil
}

func newUserService(t *testing.T) (*UserService, *fakeMailer) {
	mailer := &fakeMailer{}
	return NewUserService(testdb.New(t), mailer, fakeTokens{}, "https://gelift.example/"), mailer
}

var passwordLine = regexp.MustCompile(`Password: (\S+)`)

func TestCreateMailsGeneratedPassword(t *testing.T) {
	svc, mailer := newUserService(t)
	ctx := context.Background()

	u, err := svc.Create(ctx, NewUser{FirstName: "Ada", LastName: "Lovelace", Email: " Ada@Example.com "})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.True(t, u.FirstLogin)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "ada@example.com", mailer.sent[0].to)
	m := passwordLine.FindStringSubmatch(mailer.sent[0].body)
	require.Len(t, m, 2)
	assert.Len(t, m[1], generatedPasswordLength)

	logged, err := svc.Authenticate(ctx, "ADA@example.com", m[1])
	require.NoError(t, err)
	assert.Equal(t, u.ID, logged.ID)
	assert.NotNil(t, logged.LastLogin)

	_, err = svc.Create(ctx, NewUser{FirstName: "Dup", Email: "ada@example.com"})
	assert.True(t, apperr.Is(err, apperr.Duplicate))
}

func TestAuthenticateRejectsBadCredentials(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, svc.db.Create(&models.User{FirstName: "Bob", Email: "bob@example.com", Password: string(hash)}).Error)

	_, err = svc.Authenticate(ctx, "bob@example.com", "wrong")
	assert.True(t, apperr.Is(err, apperr.Unauthorized))
	_, err = svc.Authenticate(ctx, "nobody@example.com", "x")
	assert.True(t, apperr.Is(err, apperr.Unauthorized))
}

func TestPhoneAndPasswordChange(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte("old-password"), bcrypt.MinCost)
	require.NoError(t, err)
	u := models.User{FirstName: "Cy", Email: "cy@example.com", Password: string(hash), FirstLogin: true}
	require.NoError(t, svc.db.Create(&u).Error)

	assert.True(t, apperr.Is(svc.UpdatePhone(ctx, u.ID, "12ab"), apperr.Validation))
	require.NoError(t, svc.UpdatePhone(ctx, u.ID, "+31612345678"))

	err = svc.ChangePassword(ctx, u.ID, PasswordChange{Old: "nope", New: "new-password", Confirmation: "new-password"})
	assert.True(t, apperr.Is(err, apperr.Validation))
	err = svc.ChangePassword(ctx, u.ID, PasswordChange{Old: "old-password", New: "new-password", Confirmation: "other"})
	assert.True(t, apperr.Is(err, apperr.Validation))
	err = svc.ChangePassword(ctx, u.ID, PasswordChange{Old: "old-password", New: "short", Confirmation: "short"})
	assert.True(t, apperr.Is(err, apperr.Validation))

	require.NoError(t, svc.ChangePassword(ctx, u.ID, PasswordChange{Old: "old-password", New: "new-password", Confirmation: "new-password", FirstLogin: true}))

	got, err := svc.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "+31612345678", got.Phone)
	assert.False(t, got.FirstLogin)
	_, err = svc.Authenticate(ctx, "cy@example.com", "new-password")
	assert.NoError(t, err)
}

func TestPasswordReset(t *testing.T) {
	svc, mailer := newUserService(t)
	ctx := context.Background()
	u := models.User{FirstName: "Di", Email: "di@example.com", Password: "x"}
	require.NoError(t, svc.db.Create(&u).Error)

	require.NoError(t, svc.RequestPasswordReset(ctx, "unknown@example.com"))
	assert.Empty(t, mailer.sent)

	require.NoError(t, svc.RequestPasswordReset(ctx, "di@example.com"))
	require.Len(t, mailer.sent, 1)
	assert.Contains(t, mailer.sent[0].body, "https://gelift.example/reset-password?token=reset-"+strconv.Itoa(int(u.ID)))

	assert.True(t, apperr.Is(svc.ResetPassword(ctx, "garbage", "long-enough"), apperr.Validation))
	require.NoError(t, svc.ResetPassword(ctx, "reset-"+strconv.Itoa(int(u.ID)), "brand-new-pw"))
	_, err := svc.Authenticate(ctx, "di@example.com", "brand-new-pw")
	assert.NoError(t, err)
}

func TestStaffAndDelete(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()
	ev := testdb.Event(t, svc.db)
	u := testdb.User(t, svc.db, "Eve", "eve@example.com")
	testdb.Team(t, svc.db, ev.ID, u)
	testdb.User(t, svc.db, "Al", "al@example.com")

	require.NoError(t, svc.SetStaff(ctx, u.ID, true))
	staff, err := svc.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, staff, 1)
	assert.Equal(t, u.ID, staff[0].ID)

	all, err := svc.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pub, err := svc.Public(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Eve", pub.FirstName)

	require.NoError(t, svc.Delete(ctx, u.ID))
	var memberships int64
	svc.db.Model(&models.UserTeam{}).Count(&memberships)
	assert.Zero(t, memberships)
	assert.True(t, apperr.Is(svc.Delete(ctx, u.ID), apperr.NotFound))
}

func TestGeneratePassword(t *testing.T) {
	pw, err := generatePassword(12)
	require.NoError(t, err)
	assert.Len(t, pw, 12)
	for _, r := range pw {
		assert.Contains(t, passwordAlphabet, string(r))
	}
}
