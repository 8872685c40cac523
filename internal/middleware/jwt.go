package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"gelift/internal/models"
)

const (
	purposeAccess = "access"
	purposeReset  = "password_reset"

	resetTokenTTL = time.Hour

	ctxUserID = "user_id"
	ctxRole   = "role"
	ctxClaims = "claims"
)

// Claims is the payload of every token the server issues.
type Claims struct {
	UserID  uint   `json:"user_id"`
	Role    string `json:"role"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// Auth signs and verifies HS256 tokens and remembers revoked ones until they expire.
type Auth struct {
	secret  []byte
	ttl     time.Duration
	revoked *cache.Cache
	now     func() time.Time
}

func NewAuth(secret string, ttl time.Duration) *Auth {
	return &Auth{
		secret:  []byte(secret),
		ttl:     ttl,
		revoked: cache.New(ttl, 10*time.Minute),
		now:     time.Now,
	}
}

func (a *Auth) sign(c Claims, ttl time.Duration) (string, error) {
	now := a.now()
	c.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return token.SignedString(a.secret)
}

// GenerateToken issues an API token for user.
func (a *Auth) GenerateToken(user models.User) (string, error) {
	return a.sign(Claims{UserID: user.ID, Role: user.Role(), Purpose: purposeAccess}, a.ttl)
}

// ValidateToken parses an API token and rejects revoked ones.
func (a *Auth) ValidateToken(tokenStr string) (*Claims, error) {
	claims, err := a.parse(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != purposeAccess {
		return nil, errors.New("not an access token")
	}
	if _, revoked := a.revoked.Get(claims.ID); revoked {
		return nil, errors.New("token revoked")
	}
	return claims, nil
}

func (a *Auth) parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// Revoke blocks the token until its natural expiry.
func (a *Auth) Revoke(claims *Claims) {
	ttl := cache.DefaultExpiration
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Time.Sub(a.now())
		if ttl <= 0 {
			return
		}
	}
	a.revoked.Set(claims.ID, struct{}{}, ttl)
}

// IssueReset creates a short-lived password reset token.
func (a *Auth) IssueReset(userID uint) (string, error) {
	return a.sign(Claims{UserID: userID, Purpose: purposeReset}, resetTokenTTL)
}

// ParseReset returns the user a reset token was issued for.
func (a *Auth) ParseReset(tokenStr string) (uint, error) {
	claims, err := a.parse(tokenStr)
	if err != nil {
		return 0, err
	}
	if claims.Purpose != purposeReset {
		return 0, errors.New("not a reset token")
	}
	if _, used := a.revoked.Get(claims.ID); used {
		return 0, errors.New("reset token already used")
	}
	a.revoked.Set(claims.ID, struct{}{}, resetTokenTTL)
	return claims.UserID, nil
}

func bearer(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	for _, prefix := range []string{"Bearer ", "Token "} {
		if strings.HasPrefix(authHeader, prefix) {
			return strings.TrimPrefix(authHeader, prefix)
		}
	}
	return ""
}

// authenticate stores the token's claims in the context, or aborts with 401.
func (a *Auth) authenticate(c *gin.Context) bool {
	if _, done := c.Get(ctxClaims); done {
		return true
	}
	tokenString := bearer(c)
	if tokenString == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
		return false
	}

	claims, err := a.ValidateToken(tokenString)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return false
	}

	// Store claims in context for downstream handlers
	c.Set(ctxUserID, claims.UserID)
	c.Set(ctxRole, claims.Role)
	c.Set(ctxClaims, claims)
	return true
}

// RequireAuth ensures a valid JWT is present
func (a *Auth) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.authenticate(c) {
			return
		}
		c.Next()
	}
}

var roleRank = map[string]int{
	models.RoleParticipant: 0,
	models.RoleStaff:       1,
	models.RoleSuperuser:   2,
}

// RequireRole ensures the JWT is valid and carries at least minRole.
func (a *Auth) RequireRole(minRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.authenticate(c) {
			return
		}
		if roleRank[c.GetString(ctxRole)] < roleRank[minRole] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated user's id.
func UserID(c *gin.Context) uint {
	return c.GetUint(ctxUserID)
}

// CurrentClaims returns the parsed token of the request.
func CurrentClaims(c *gin.Context) *Claims {
	v, ok := c.Get(ctxClaims)
	if !ok {
		return nil
	}
	claims, _ := v.(*Claims)
	return claims
}
