package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gelift/internal/apperr"
	"gelift/internal/models"
)

func init() { gin.SetMode(gin.TestMode) }

func TestTokenRoundTrip(t *testing.T) {
	a := NewAuth("secret", time.Hour)
	token, err := a.GenerateToken(models.User{ID: 7, IsStaff: true})
	require.NoError(t, err)

	claims, err := a.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, models.RoleStaff, claims.Role)
	assert.NotEmpty(t, claims.ID)

	_, err = NewAuth("other", time.Hour).ValidateToken(token)
	assert.Error(t, err)

	a.Revoke(claims)
	_, err = a.ValidateToken(token)
	assert.Error(t, err)
}

func TestExpiredToken(t *testing.T) {
	a := NewAuth("secret", time.Minute)
	a.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := a.GenerateToken(models.User{ID: 1})
	require.NoError(t, err)

	a.now = time.Now
	_, err = a.ValidateToken(token)
	assert.Error(t, err)
}

func TestResetTokens(t *testing.T) {
	a := NewAuth("secret", time.Hour)
	reset, err := a.IssueReset(9)
	require.NoError(t, err)

	_, err = a.ValidateToken(reset)
	assert.Error(t, err, "reset tokens are not API tokens")

	id, err := a.ParseReset(reset)
	require.NoError(t, err)
	assert.Equal(t, uint(9), id)

	_, err = a.ParseReset(reset)
	assert.Error(t, err, "single use")

	access, err := a.GenerateToken(models.User{ID: 9})
	require.NoError(t, err)
	_, err = a.ParseReset(access)
	assert.Error(t, err)
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRequireRole(t *testing.T) {
	a := NewAuth("secret", time.Hour)
	r := gin.New()
	r.GET("/me", a.RequireAuth(), func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"id": UserID(c)}) })
	r.GET("/admin", a.RequireRole(models.RoleStaff), func(c *gin.Context) { c.Status(http.StatusOK) })

	participant, _ := a.GenerateToken(models.User{ID: 1})
	super, _ := a.GenerateToken(models.User{ID: 2, IsSuperuser: true})

	req := func(path, token string) *http.Request {
		rq := httptest.NewRequest(http.MethodGet, path, nil)
		if token != "" {
			rq.Header.Set("Authorization", "Bearer "+token)
		}
		return rq
	}

	assert.Equal(t, http.StatusUnauthorized, serve(r, req("/me", "")).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, req("/me", "garbage")).Code)
	w := serve(r, req("/me", participant))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":1}`, w.Body.String())

	assert.Equal(t, http.StatusForbidden, serve(r, req("/admin", participant)).Code)
	assert.Equal(t, http.StatusOK, serve(r, req("/admin", super)).Code)
}

type stubEvents struct {
	ev  models.Event
	err error
}

func (s stubEvents) Active(context.Context) (models.Event, error) { return s.ev, s.err }

func TestActiveEvent(t *testing.T) {
	handler := func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"event": Event(c).ID}) }

	r := gin.New()
	r.GET("/x", ActiveEvent(stubEvents{ev: models.Event{ID: 3}}), handler)
	w := serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.JSONEq(t, `{"event":3}`, w.Body.String())

	r = gin.New()
	r.GET("/x", ActiveEvent(stubEvents{err: apperr.New(apperr.NotFound, "no active event")}), handler)
	w = serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"no active event"}`, w.Body.String())
}

func TestCORS(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := EnableCORS(ok, []string{"https://gelift.example"})

	pre := httptest.NewRequest(http.MethodOptions, "/", nil)
	pre.Header.Set("Origin", "https://gelift.example")
	w := serve(h, pre)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://gelift.example", w.Header().Get("Access-Control-Allow-Origin"))

	other := httptest.NewRequest(http.MethodGet, "/", nil)
	other.Header.Set("Origin", "https://evil.example")
	w = serve(h, other)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
