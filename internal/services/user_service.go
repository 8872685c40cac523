package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"gelift/internal/apperr"
	"gelift/internal/models"
)

var phonePattern = regexp.MustCompile(`^\+?1?\d{9,15}$`)

const (
	generatedPasswordLength = 8
	minPasswordLength       = 8
	passwordAlphabet        = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

var errInvalidCredentials = apperr.New(apperr.Unauthorized, "invalid email or password")

// ResetTokens issues and checks password reset tokens.
type ResetTokens interface {
	IssueReset(userID uint) (string, error)
	ParseReset(token string) (uint, error)
}

// PublicUser is the profile other participants may see.
type PublicUser struct {
	ID        uint   `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

func publicUser(u models.User) PublicUser {
	return PublicUser{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Email: u.Email, Phone: u.Phone}
}

type UserService struct {
	db        *gorm.DB
	mailer    Mailer
	tokens    ResetTokens
	publicURL string
	now       func() time.Time
}

func NewUserService(db *gorm.DB, mailer Mailer, tokens ResetTokens, publicURL string) *UserService {
	return &UserService{
		db:        db,
		mailer:    mailer,
		tokens:    tokens,
		publicURL: strings.TrimRight(publicURL, "/"),
		now:       time.Now,
	}
}

func hashPassword(pw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, err, "could not hash password")
	}
	return string(hash), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Authenticate checks the credentials and records the login time.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return user, errInvalidCredentials
	}
	if err != nil {
		return user, apperr.FromDB(err, "user")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return user, errInvalidCredentials
	}

	now := s.now()
	user.LastLogin = &now
	if err := s.db.WithContext(ctx).Model(&user).Update("last_login", now).Error; err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Warn("failed to record last login")
	}
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return user, apperr.FromDB(err, "user")
	}
	return user, nil
}

func (s *UserService) Public(ctx context.Context, id uint) (PublicUser, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return PublicUser{}, err
	}
	return publicUser(u), nil
}

// List returns users ordered by name. staffOnly limits it to administrators.
func (s *UserService) List(ctx context.Context, staffOnly bool) ([]models.User, error) {
	q := s.db.WithContext(ctx).Order("first_name asc").Order("last_name asc").Order("id asc")
	if staffOnly {
		q = q.Where("is_staff = ? OR is_superuser = ?", true, true)
	}
	var users []models.User
	if err := q.Find(&users).Error; err != nil {
		return nil, apperr.FromDB(err, "user")
	}
	return users, nil
}

func (s *UserService) UpdatePhone(ctx context.Context, id uint, phone string) error {
	phone = strings.TrimSpace(phone)
	if !phonePattern.MatchString(phone) {
		return apperr.New(apperr.Validation, "phone number must be 9 to 15 digits, optionally prefixed with +")
	}
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("phone", phone)
	if res.Error != nil {
		return apperr.FromDB(res.Error, "user")
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.NotFound, "user not found")
	}
	return nil
}

type PasswordChange struct {
	Old          string
	New          string
	Confirmation string
	// FirstLogin clears the first-login flag once the password is changed.
	FirstLogin bool
}

func (s *UserService) ChangePassword(ctx context.Context, id uint, in PasswordChange) error {
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Old)) != nil {
		return apperr.New(apperr.Validation, "current password is incorrect")
	}
	if in.New != in.Confirmation {
		return apperr.New(apperr.Validation, "passwords do not match")
	}
	if len(in.New) < minPasswordLength {
		return apperr.Newf(apperr.Validation, "password must be at least %d characters", minPasswordLength)
	}
	hash, err := hashPassword(in.New)
	if err != nil {
		return err
	}
	updates := map[string]interface{}{"password": hash}
	if in.FirstLogin {
		updates["first_login"] = false
	}
	return apperr.FromDB(s.db.WithContext(ctx).Model(&user).Updates(updates).Error, "user")
}

type NewUser struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	IsStaff   bool
}

// Create registers an account with a generated password and mails it.
func (s *UserService) Create(ctx context.Context, in NewUser) (models.User, error) {
	email := normalizeEmail(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return models.User{}, apperr.New(apperr.Validation, "a valid email is required")
	}
	if in.Phone != "" && !phonePattern.MatchString(in.Phone) {
		return models.User{}, apperr.New(apperr.Validation, "invalid phone number")
	}

	password, err := generatePassword(generatedPasswordLength)
	if err != nil {
		return models.User{}, apperr.Wrap(apperr.Internal, err, "could not generate password")
	}
	hash, err := hashPassword(password)
	if err != nil {
		return models.User{}, err
	}

	user := models.User{
		FirstName:  strings.TrimSpace(in.FirstName),
		LastName:   strings.TrimSpace(in.LastName),
		Email:      email,
		Phone:      in.Phone,
		Password:   hash,
		IsStaff:    in.IsStaff,
		FirstLogin: true,
	}
	var taken int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&taken).Error; err != nil {
		return models.User{}, apperr.FromDB(err, "user")
	}
	if taken > 0 {
		return models.User{}, apperr.New(apperr.Duplicate, "email already in use")
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return models.User{}, apperr.FromDB(err, "user")
	}

	body := fmt.Sprintf(
		"Hi %s,\n\nAn account was created for you on lifTUe.\n\nEmail: %s\nPassword: %s\n\nPlease change your password after logging in.\n",
		user.FirstName, user.Email, password,
	)
	s.mail(user.Email, "Your lifTUe account", body)
	logrus.WithFields(logrus.Fields{"user_id": user.ID, "staff": user.IsStaff}).Info("user created")
	return user, nil
}

// Delete removes the user and their team memberships.
func (s *UserService) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.UserTeam{}).Error; err != nil {
			return apperr.FromDB(err, "team membership")
		}
		res := tx.Delete(&models.User{}, id)
		if res.Error != nil {
			return apperr.FromDB(res.Error, "user")
		}
		if res.RowsAffected == 0 {
			return apperr.New(apperr.NotFound, "user not found")
		}
		return nil
	})
}

func (s *UserService) SetStaff(ctx context.Context, id uint, staff bool) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("is_staff", staff)
	if res.Error != nil {
		return apperr.FromDB(res.Error, "user")
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.NotFound, "user not found")
	}
	return nil
}

// RequestPasswordReset mails a reset link. Unknown addresses are ignored.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) error {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		logrus.Debug("password reset requested for unknown address")
		return nil
	}
	if err != nil {
		return apperr.FromDB(err, "user")
	}

	token, err := s.tokens.IssueReset(user.ID)
	if err != nil {
		return apperr.Wrap(apperr.Internal, err, "could not issue reset token")
	}
	link := fmt.Sprintf("%s/reset-password?token=%s", s.publicURL, url.QueryEscape(token))
	s.mail(user.Email, "Reset your lifTUe password",
		fmt.Sprintf("Hi %s,\n\nUse the link below to choose a new password:\n\n%s\n\nIf you did not ask for this you can ignore this mail.\n", user.FirstName, link))
	return nil
}

// ResetPassword sets a new password for the holder of a reset token.
func (s *UserService) ResetPassword(ctx context.Context, token, password string) error {
	id, err := s.tokens.ParseReset(token)
	if err != nil {
		return apperr.Wrap(apperr.Validation, err, "invalid or expired reset token")
	}
	if len(password) < minPasswordLength {
		return apperr.Newf(apperr.Validation, "password must be at least %d characters", minPasswordLength)
	}
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{"password": hash, "first_login": false})
	if res.Error != nil {
		return apperr.FromDB(res.Error, "user")
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.NotFound, "user not found")
	}
	return nil
}

func (s *UserService) mail(to, subject, body string) {
	if s.mailer == nil {
		return
	}
	if err := s.mailer.Send(to, subject, body); err != nil {
		logrus.WithError(err).WithField("subject", subject).Warn("failed to send mail")
	}
}

func generatePassword(n int) (string, error) {
	max := big.NewInt(int64(len(passwordAlphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = passwordAlphabet[idx.Int64()]
	}
	return string(b), nil
}
