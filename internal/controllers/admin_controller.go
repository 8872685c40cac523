package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"gelift/internal/apperr"
	"gelift/internal/middleware"
	"gelift/internal/models"
	"gelift/internal/scoring"
	"gelift/internal/services"
	"gelift/internal/storage"
)

// Users

func (ctl *Controller) ListUsers(c *gin.Context) {
	users, err := ctl.Users.List(c.Request.Context(), c.Query("staff") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

type createUserInput struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name"`
	Email     string `json:"email" binding:"required,email"`
	Phone     string `json:"phone"`
	IsStaff   bool   `json:"is_staff"`
}

// CreateUser registers a participant, or an administrator when is_staff is
// set by a superuser.
func (ctl *Controller) CreateUser(c *gin.Context) {
	var input createUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	if input.IsStaff && middleware.CurrentClaims(c).Role != models.RoleSuperuser {
		c.JSON(http.StatusForbidden, gin.H{"error": "only superusers can add administrators"})
		return
	}
	user, err := ctl.Users.Create(c.Request.Context(), services.NewUser{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Phone:     input.Phone,
		IsStaff:   input.IsStaff,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (ctl *Controller) DeleteUser(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if id == middleware.UserID(c) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "you cannot delete yourself"})
		return
	}
	if err := ctl.Users.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (ctl *Controller) setStaff(staff bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		if err := ctl.Users.SetStaff(c.Request.Context(), id, staff); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id, "is_staff": staff})
	}
}

func (ctl *Controller) PromoteUser() gin.HandlerFunc { return ctl.setStaff(true) }
func (ctl *Controller) DemoteUser() gin.HandlerFunc  { return ctl.setStaff(false) }

// Events

func (ctl *Controller) ListEvents(c *gin.Context) {
	events, err := ctl.Events.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

func (ctl *Controller) GetEvent(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	ev, err := ctl.Events.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ev)
}

type eventInput struct {
	Title            string    `json:"title" binding:"required"`
	StartDate        time.Time `json:"start_date" binding:"required"`
	EndDate          time.Time `json:"end_date"`
	StartCity        string    `json:"start_city" binding:"required"`
	EndCity          string    `json:"end_city" binding:"required"`
	StartLatitude    float64   `json:"start_latitude"`
	StartLongitude   float64   `json:"start_longitude"`
	EndLatitude      float64   `json:"end_latitude"`
	EndLongitude     float64   `json:"end_longitude"`
	EmergencyContact string    `json:"emergency_contact"`
}

func (ctl *Controller) CreateEvent(c *gin.Context) {
	var input eventInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	ev, err := ctl.Events.Create(c.Request.Context(), services.EventInput(input))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ev)
}

type eventUpdateInput struct {
	Title            *string    `json:"title"`
	StartDate        *time.Time `json:"start_date"`
	EndDate          *time.Time `json:"end_date"`
	StartCity        *string    `json:"start_city"`
	EndCity          *string    `json:"end_city"`
	EmergencyContact *string    `json:"emergency_contact"`
}

func (ctl *Controller) UpdateEvent(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input eventUpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	ev, err := ctl.Events.Update(c.Request.Context(), id, services.EventUpdate(input))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ev)
}

func (ctl *Controller) DeleteEvent(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := ctl.Events.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (ctl *Controller) ActivateEvent(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := ctl.Events.SetActive(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "is_active": true})
}

func (ctl *Controller) DeactivateEvent(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := ctl.Events.SetInactive(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "is_active": false})
}

type waypointInput struct {
	City      *string  `json:"city"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (in waypointInput) hasCoordinates() (bool, error) {
	if (in.Latitude == nil) != (in.Longitude == nil) {
		return false, apperr.New(apperr.Validation, "latitude and longitude go together")
	}
	return in.Latitude != nil, nil
}

// UpdateEndpoint changes the city and/or coordinates of the start or end.
func (ctl *Controller) UpdateEndpoint(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	which := services.Endpoint(c.Param("which"))
	var input waypointInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	move, err := input.hasCoordinates()
	if err != nil {
		respondError(c, err)
		return
	}
	ctx := c.Request.Context()
	if input.City != nil {
		if err := ctl.Events.RenameEndpoint(ctx, id, which, *input.City); err != nil {
			respondError(c, err)
			return
		}
	}
	if move {
		if err := ctl.Events.MoveEndpoint(ctx, id, which, *input.Latitude, *input.Longitude); err != nil {
			respondError(c, err)
			return
		}
	}
	ev, err := ctl.Events.Get(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ev)
}

// SetWinner takes team_id and an optional "photo" upload.
func (ctl *Controller) SetWinner(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input struct {
		TeamID uint `form:"team_id" json:"team_id" binding:"required"`
	}
	if err := c.ShouldBind(&input); err != nil {
		badRequest(c, err)
		return
	}
	ctx := c.Request.Context()

	photo := ""
	if _, err := c.FormFile("photo"); err == nil {
		data, err := ctl.readUpload(c, "photo", "")
		if err != nil {
			badRequest(c, err)
			return
		}
		pic, err := storage.NewPicture("winners", data, ctl.MaxUpload)
		if err != nil {
			respondError(c, apperr.Wrap(apperr.Validation, err, "invalid photo"))
			return
		}
		if err := storage.Put(ctx, ctl.Store, pic); err != nil {
			respondError(c, apperr.Wrap(apperr.Internal, err, "could not store photo"))
			return
		}
		photo = pic.Name
	}

	if err := ctl.Events.SetWinner(ctx, id, input.TeamID, photo); err != nil {
		if photo != "" {
			_ = ctl.Store.Delete(ctx, photo)
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"event_id": id, "team_id": input.TeamID})
}

func (ctl *Controller) ClearWinner(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := ctl.Events.ClearWinner(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Sub-destinations

func (ctl *Controller) AddSubLocation(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input struct {
		City      string   `json:"city" binding:"required"`
		Latitude  *float64 `json:"latitude" binding:"required"`
		Longitude *float64 `json:"longitude" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	sub, err := ctl.Events.AddSubLocation(c.Request.Context(), id, input.City, *input.Latitude, *input.Longitude)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

func (ctl *Controller) ReorderSubLocations(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input struct {
		IDs []uint `json:"ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	if err := ctl.Events.ReorderSubLocations(c.Request.Context(), id, input.IDs); err != nil {
		respondError(c, err)
		return
	}
	ev, err := ctl.Events.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ev.SubLocations)
}

func (ctl *Controller) UpdateSubLocation(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input waypointInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	move, err := input.hasCoordinates()
	if err != nil {
		respondError(c, err)
		return
	}
	ctx := c.Request.Context()
	if input.City != nil {
		if err := ctl.Events.RenameSubLocation(ctx, id, *input.City); err != nil {
			respondError(c, err)
			return
		}
	}
	if move {
		if err := ctl.Events.MoveSubLocation(ctx, id, *input.Latitude, *input.Longitude); err != nil {
			respondError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

func (ctl *Controller) DeleteSubLocation(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := ctl.Events.DeleteSubLocation(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (ctl *Controller) AddLocation(c *gin.Context) {
	var input coordinatesInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	loc, err := ctl.Events.AddLocation(c.Request.Context(), *input.Latitude, *input.Longitude)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, loc)
}

// Teams

func (ctl *Controller) EventTeams(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	teams, err := ctl.Teams.List(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, teams)
}

func (ctl *Controller) CreateTeam(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	team, err := ctl.Teams.Create(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, team)
}

func (ctl *Controller) DeleteTeam(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := ctl.Teams.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (ctl *Controller) AddMember(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input struct {
		UserID uint `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	if err := ctl.Teams.AddMember(c.Request.Context(), id, input.UserID); err != nil {
		respondError(c, err)
		return
	}
	ctl.teamSummary(c, id)
}

func (ctl *Controller) RemoveMember(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	userID, ok := idParam(c, "user_id")
	if !ok {
		return
	}
	if err := ctl.Teams.RemoveMember(c.Request.Context(), id, userID); err != nil {
		respondError(c, err)
		return
	}
	ctl.teamSummary(c, id)
}

func (ctl *Controller) MoveMember(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input struct {
		UserID   uint `json:"user_id" binding:"required"`
		ToTeamID uint `json:"to_team_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	if err := ctl.Teams.MoveMember(c.Request.Context(), input.UserID, id, input.ToTeamID); err != nil {
		respondError(c, err)
		return
	}
	ctl.teamSummary(c, input.ToTeamID)
}

func (ctl *Controller) setDisqualified(disqualified bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		if err := ctl.Teams.SetDisqualified(c.Request.Context(), id, disqualified); err != nil {
			respondError(c, err)
			return
		}
		ctl.teamSummary(c, id)
	}
}

func (ctl *Controller) DisqualifyTeam() gin.HandlerFunc { return ctl.setDisqualified(true) }
func (ctl *Controller) RequalifyTeam() gin.HandlerFunc  { return ctl.setDisqualified(false) }

func (ctl *Controller) teamSummary(c *gin.Context, id uint) {
	sum, err := ctl.Teams.Summary(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// Challenges

func (ctl *Controller) EventChallenges(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	challenges, err := ctl.Challenges.ForEvent(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, challenges)
}

type challengeInput struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	// Reward is HH:MM.
	Reward string `json:"reward" binding:"required"`
}

func (in challengeInput) toService() (services.ChallengeInput, error) {
	reward, err := scoring.ParseHHMM(in.Reward)
	if err != nil {
		return services.ChallengeInput{}, apperr.Wrap(apperr.Validation, err, "reward must be HH:MM")
	}
	return services.ChallengeInput{Title: in.Title, Description: in.Description, Reward: reward}, nil
}

func challengeJSON(ch models.Challenge) gin.H {
	return gin.H{
		"id":          ch.ID,
		"event_id":    ch.EventID,
		"title":       ch.Title,
		"description": ch.Description,
		"reward":      scoring.FormatHHMM(ch.Reward),
	}
}

func (ctl *Controller) CreateChallenge(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input challengeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	in, err := input.toService()
	if err != nil {
		respondError(c, err)
		return
	}
	ch, err := ctl.Challenges.Create(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, challengeJSON(ch))
}

func (ctl *Controller) UpdateChallenge(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input challengeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	in, err := input.toService()
	if err != nil {
		respondError(c, err)
		return
	}
	ch, err := ctl.Challenges.Update(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, challengeJSON(ch))
}

func (ctl *Controller) DeleteChallenge(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := ctl.Challenges.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
