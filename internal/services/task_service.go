package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/taskhub/internal/models"
	"github.com/charlesng35/taskhub/internal/permissions"
	apperrors "github.com/charlesng35/taskhub/pkg/errors"
)

// ErrTaskNotFound covers both absent tasks and tasks in teams the caller is
// not a member of.
var ErrTaskNotFound = apperrors.New("TASK_NOT_FOUND", "Task not found", http.StatusNotFound)

// CreateTaskInput captures a new task. Status and Priority fall back to
// their defaults when empty.
type CreateTaskInput struct {
	Title       string
	Description string
	Status      models.TaskStatus
	Priority    models.TaskPriority
	DueDate     *time.Time
	TeamID      string
	AssignedTo  *string
}

// TaskFilter narrows task listings. Zero values mean no filtering.
type TaskFilter struct {
	TeamID   string
	Status   models.TaskStatus
	Priority models.TaskPriority
}

// Optional distinguishes a field absent from a request from a field
// explicitly set, including set to null.
type Optional[T any] struct {
	Valid bool // present in the request
	Value *T   // nil means explicit null
}

// Some wraps a value into a present Optional.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Valid: true, Value: &v}
}

// Null returns a present Optional carrying an explicit null.
func Null[T any]() Optional[T] {
	return Optional[T]{Valid: true}
}

// TaskPatch is a partial update. Absent fields are left untouched; fields
// set to null clear the stored value where the column is nullable.
type TaskPatch struct {
	Title       Optional[string]
	Description Optional[string]
	Status      Optional[models.TaskStatus]
	Priority    Optional[models.TaskPriority]
	DueDate     Optional[time.Time]
	AssignedTo  Optional[string]
}

// TaskService manages tasks. Read access follows team membership: every
// query joins through team_members so a non-member can never observe a task,
// not even its existence.
type TaskService struct {
	db           *gorm.DB
	auditService *AuditService
}

// NewTaskService constructs a TaskService instance.
func NewTaskService(db *gorm.DB, auditService *AuditService) (*TaskService, error) {
	if db == nil {
		return nil, errors.New("task service: db is required")
	}
	return &TaskService{
		db:           db,
		auditService: auditService,
	}, nil
}

// Create adds a task to a team the caller belongs to. Outsiders receive the
// same not-found failure as for a team that does not exist.
func (s *TaskService) Create(ctx context.Context, creatorID string, input CreateTaskInput) (*models.Task, error) {
	ctx = ensureContext(ctx)

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewBadRequest("task title is required")
	}
	if strings.TrimSpace(input.TeamID) == "" {
		return nil, apperrors.NewBadRequest("team id is required")
	}

	status := input.Status
	if status == "" {
		status = models.TaskStatusTodo
	}
	if !status.IsValid() {
		return nil, apperrors.NewBadRequest("status must be todo, in_progress or done")
	}

	priority := input.Priority
	if priority == "" {
		priority = models.TaskPriorityMedium
	}
	if !priority.IsValid() {
		return nil, apperrors.NewBadRequest("priority must be low, medium or high")
	}

	checker, err := permissions.NewChecker(s.db)
	if err != nil {
		return nil, err
	}
	isMember, err := checker.IsMember(ctx, creatorID, input.TeamID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, ErrTeamNotFound
	}

	task := &models.Task{
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Status:      status,
		Priority:    priority,
		DueDate:     input.DueDate,
		TeamID:      input.TeamID,
		CreatedBy:   creatorID,
		AssignedTo:  input.AssignedTo,
	}
	if err := s.db.WithContext(ctx).Create(task).Error; err != nil {
		return nil, fmt.Errorf("task service: create task: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		UserID:   &creatorID,
		Action:   "task.create",
		Resource: task.ID,
		Result:   "success",
		Metadata: map[string]any{"team_id": task.TeamID, "title": task.Title},
	})

	return s.GetByID(ctx, creatorID, task.ID)
}

// List returns tasks across the caller's teams, newest first. Filtering by a
// team the caller does not belong to yields an empty slice rather than an
// error, since the join already excludes those rows.
func (s *TaskService) List(ctx context.Context, userID string, filter TaskFilter) ([]models.Task, error) {
	ctx = ensureContext(ctx)

	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, apperrors.NewBadRequest("status must be todo, in_progress or done")
	}
	if filter.Priority != "" && !filter.Priority.IsValid() {
		return nil, apperrors.NewBadRequest("priority must be low, medium or high")
	}

	query := s.db.WithContext(ctx).
		Joins("JOIN team_members ON team_members.team_id = tasks.team_id").
		Where("team_members.user_id = ?", userID)

	if filter.TeamID != "" {
		query = query.Where("tasks.team_id = ?", filter.TeamID)
	}
	if filter.Status != "" {
		query = query.Where("tasks.status = ?", filter.Status)
	}
	if filter.Priority != "" {
		query = query.Where("tasks.priority = ?", filter.Priority)
	}

	var tasks []models.Task
	err := query.
		Preload("Team").
		Preload("Creator").
		Preload("Assignee").
		Order("tasks.created_at DESC").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("task service: list tasks: %w", err)
	}

	return tasks, nil
}

// GetByID loads a task visible to the caller.
func (s *TaskService) GetByID(ctx context.Context, userID, taskID string) (*models.Task, error) {
	ctx = ensureContext(ctx)

	var task models.Task
	err := s.db.WithContext(ctx).
		Joins("JOIN team_members ON team_members.team_id = tasks.team_id").
		Where("tasks.id = ? AND team_members.user_id = ?", taskID, userID).
		Preload("Team").
		Preload("Creator").
		Preload("Assignee").
		First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("task service: get task: %w", err)
	}

	return &task, nil
}

// Update applies a partial patch to a task. Only fields present in the patch
// change; description, due date and assignee accept explicit nulls, while
// title, status and priority do not.
func (s *TaskService) Update(ctx context.Context, userID, taskID string, patch TaskPatch) (*models.Task, error) {
	ctx = ensureContext(ctx)

	if _, err := s.GetByID(ctx, userID, taskID); err != nil {
		return nil, err
	}

	updates := map[string]any{}

	if patch.Title.Valid {
		if patch.Title.Value == nil {
			return nil, apperrors.NewBadRequest("title cannot be null")
		}
		title := strings.TrimSpace(*patch.Title.Value)
		if title == "" {
			return nil, apperrors.NewBadRequest("task title is required")
		}
		updates["title"] = title
	}
	if patch.Description.Valid {
		if patch.Description.Value == nil {
			updates["description"] = ""
		} else {
			updates["description"] = strings.TrimSpace(*patch.Description.Value)
		}
	}
	if patch.Status.Valid {
		if patch.Status.Value == nil || !patch.Status.Value.IsValid() {
			return nil, apperrors.NewBadRequest("status must be todo, in_progress or done")
		}
		updates["status"] = *patch.Status.Value
	}
	if patch.Priority.Valid {
		if patch.Priority.Value == nil || !patch.Priority.Value.IsValid() {
			return nil, apperrors.NewBadRequest("priority must be low, medium or high")
		}
		updates["priority"] = *patch.Priority.Value
	}
	if patch.DueDate.Valid {
		if patch.DueDate.Value == nil {
			updates["due_date"] = nil
		} else {
			updates["due_date"] = *patch.DueDate.Value
		}
	}
	if patch.AssignedTo.Valid {
		if patch.AssignedTo.Value == nil {
			updates["assigned_to"] = nil
		} else {
			updates["assigned_to"] = *patch.AssignedTo.Value
		}
	}

	if len(updates) == 0 {
		return nil, apperrors.NewBadRequest("no fields provided for update")
	}

	if err := s.db.WithContext(ctx).Model(&models.Task{}).Where("id = ?", taskID).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("task service: update task: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		UserID:   &userID,
		Action:   "task.update",
		Resource: taskID,
		Result:   "success",
	})

	return s.GetByID(ctx, userID, taskID)
}

// Delete removes a task. The task's creator and team admins may delete it;
// other members are refused, and non-members see a not-found failure.
func (s *TaskService) Delete(ctx context.Context, userID, taskID string) error {
	ctx = ensureContext(ctx)

	task, err := s.GetByID(ctx, userID, taskID)
	if err != nil {
		return err
	}

	checker, err := permissions.NewChecker(s.db)
	if err != nil {
		return err
	}
	canDelete, err := checker.CanDeleteTask(ctx, userID, task)
	if err != nil {
		return err
	}
	if !canDelete {
		return apperrors.ErrForbidden
	}

	if err := s.db.WithContext(ctx).Delete(&models.Task{}, "id = ?", taskID).Error; err != nil {
		return fmt.Errorf("task service: delete task: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		UserID:   &userID,
		Action:   "task.delete",
		Resource: taskID,
		Result:   "success",
		Metadata: map[string]any{"team_id": task.TeamID},
	})

	return nil
}
