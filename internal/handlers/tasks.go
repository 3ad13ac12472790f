package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/taskhub/internal/middleware"
	"github.com/charlesng35/taskhub/internal/models"
	"github.com/charlesng35/taskhub/internal/services"
	apperrors "github.com/charlesng35/taskhub/pkg/errors"
	"github.com/charlesng35/taskhub/pkg/response"
)

// TaskHandler exposes task endpoints.
type TaskHandler struct {
	tasks *services.TaskService
}

// NewTaskHandler constructs a TaskHandler.
func NewTaskHandler(tasks *services.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

type createTaskRequest struct {
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description"`
	Status      string     `json:"status" validate:"omitempty,oneof=todo in_progress done"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate     *time.Time `json:"due_date"`
	TeamID      string     `json:"team_id" validate:"required"`
	AssignedTo  *string    `json:"assigned_to"`
}

// Create adds a task to one of the caller's teams.
func (h *TaskHandler) Create(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	req, ok := bindAndValidate[createTaskRequest](c)
	if !ok {
		return
	}

	task, err := h.tasks.Create(requestContext(c), userID, services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      models.TaskStatus(req.Status),
		Priority:    models.TaskPriority(req.Priority),
		DueDate:     req.DueDate,
		TeamID:      req.TeamID,
		AssignedTo:  req.AssignedTo,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, task)
}

// List returns tasks across the caller's teams, optionally filtered by
// team_id, status and priority query parameters.
func (h *TaskHandler) List(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	filter := services.TaskFilter{
		TeamID:   c.Query("team_id"),
		Status:   models.TaskStatus(c.Query("status")),
		Priority: models.TaskPriority(c.Query("priority")),
	}

	tasks, err := h.tasks.List(requestContext(c), userID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, tasks, &response.Meta{Count: len(tasks)})
}

// Get returns one task visible to the caller.
func (h *TaskHandler) Get(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	task, err := h.tasks.GetByID(requestContext(c), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, task)
}

// Update applies a partial update. The body is decoded into a raw key map
// first so a field that is absent can be told apart from a field explicitly
// set to null.
func (h *TaskHandler) Update(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	var raw map[string]json.RawMessage
	if err := c.ShouldBindJSON(&raw); err != nil {
		response.Error(c, apperrors.NewBadRequest("invalid request payload"))
		return
	}

	patch, err := buildTaskPatch(raw)
	if err != nil {
		response.Error(c, err)
		return
	}

	task, err := h.tasks.Update(requestContext(c), userID, c.Param("id"), patch)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, task)
}

// Delete removes a task the caller is allowed to delete.
func (h *TaskHandler) Delete(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	if err := h.tasks.Delete(requestContext(c), userID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

var jsonNull = []byte("null")

func buildTaskPatch(raw map[string]json.RawMessage) (services.TaskPatch, error) {
	var patch services.TaskPatch

	for key, value := range raw {
		isNull := len(value) == 0 || bytes.Equal(bytes.TrimSpace(value), jsonNull)

		switch key {
		case "title":
			if isNull {
				patch.Title = services.Null[string]()
				continue
			}
			v, err := decodeField[string](key, value)
			if err != nil {
				return patch, err
			}
			patch.Title = services.Some(v)
		case "description":
			if isNull {
				patch.Description = services.Null[string]()
				continue
			}
			v, err := decodeField[string](key, value)
			if err != nil {
				return patch, err
			}
			patch.Description = services.Some(v)
		case "status":
			if isNull {
				patch.Status = services.Null[models.TaskStatus]()
				continue
			}
			v, err := decodeField[models.TaskStatus](key, value)
			if err != nil {
				return patch, err
			}
			patch.Status = services.Some(v)
		case "priority":
			if isNull {
				patch.Priority = services.Null[models.TaskPriority]()
				continue
			}
			v, err := decodeField[models.TaskPriority](key, value)
			if err != nil {
				return patch, err
			}
			patch.Priority = services.Some(v)
		case "due_date":
			if isNull {
				patch.DueDate = services.Null[time.Time]()
				continue
			}
			v, err := decodeField[time.Time](key, value)
			if err != nil {
				return patch, err
			}
			patch.DueDate = services.Some(v)
		case "assigned_to":
			if isNull {
				patch.AssignedTo = services.Null[string]()
				continue
			}
			v, err := decodeField[string](key, value)
			if err != nil {
				return patch, err
			}
			patch.AssignedTo = services.Some(v)
		}
		// Unknown keys are ignored.
	}

	return patch, nil
}

func decodeField[T any](key string, value json.RawMessage) (T, error) {
	var v T
	if err := json.Unmarshal(value, &v); err != nil {
		return v, apperrors.NewBadRequest("invalid value for field " + key)
	}
	return v, nil
}
