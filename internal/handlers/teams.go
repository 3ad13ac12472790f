package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/taskhub/internal/middleware"
	"github.com/charlesng35/taskhub/internal/models"
	"github.com/charlesng35/taskhub/internal/services"
	apperrors "github.com/charlesng35/taskhub/pkg/errors"
	"github.com/charlesng35/taskhub/pkg/response"
)

// TeamHandler exposes team and membership endpoints.
type TeamHandler struct {
	teams *services.TeamService
}

// NewTeamHandler constructs a TeamHandler.
func NewTeamHandler(teams *services.TeamService) *TeamHandler {
	return &TeamHandler{teams: teams}
}

type createTeamRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

type updateTeamRequest struct {
	Name        *string        `json:"name"`
	Description *string        `json:"description"`
	Settings    map[string]any `json:"settings"`
}

type addMemberRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"omitempty,oneof=admin member"`
}

// Create registers a new team with the caller as founding admin.
func (h *TeamHandler) Create(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	req, ok := bindAndValidate[createTeamRequest](c)
	if !ok {
		return
	}

	team, err := h.teams.Create(requestContext(c), userID, services.CreateTeamInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, team)
}

// List returns the caller's teams.
func (h *TeamHandler) List(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	teams, err := h.teams.List(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, teams, &response.Meta{Count: len(teams)})
}

// Get returns one team the caller belongs to.
func (h *TeamHandler) Get(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	team, err := h.teams.GetByID(requestContext(c), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, team)
}

// Update changes team metadata. Admins only.
func (h *TeamHandler) Update(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	req, ok := bindAndValidate[updateTeamRequest](c)
	if !ok {
		return
	}

	team, err := h.teams.Update(requestContext(c), userID, c.Param("id"), services.UpdateTeamInput{
		Name:        req.Name,
		Description: req.Description,
		Settings:    req.Settings,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, team)
}

// ListMembers returns a team's memberships in join order.
func (h *TeamHandler) ListMembers(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	members, err := h.teams.ListMembers(requestContext(c), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, members, &response.Meta{Count: len(members)})
}

// AddMember invites an existing user to the team by email.
func (h *TeamHandler) AddMember(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	req, ok := bindAndValidate[addMemberRequest](c)
	if !ok {
		return
	}

	member, err := h.teams.AddMember(requestContext(c), userID, c.Param("id"), req.Email, models.TeamRole(req.Role))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, member)
}

// RemoveMember detaches a user from the team.
func (h *TeamHandler) RemoveMember(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	err := h.teams.RemoveMember(requestContext(c), userID, c.Param("id"), c.Param("userID"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"removed": true})
}
