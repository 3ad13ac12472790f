package models

import "time"

// TaskStatus tracks progress of a task.
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusDone       TaskStatus = "done"
)

// IsValid checks that the status is one of the supported values.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return true
	default:
		return false
	}
}

// TaskPriority ranks task urgency.
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// IsValid checks that the priority is one of the supported values.
func (p TaskPriority) IsValid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	default:
		return false
	}
}

// Task belongs to exactly one team; visibility follows team membership.
type Task struct {
	BaseModel

	Title       string       `gorm:"not null" json:"title"`
	Description string       `json:"description"`
	Status      TaskStatus   `gorm:"not null;default:todo;index" json:"status"`
	Priority    TaskPriority `gorm:"not null;default:medium;index" json:"priority"`
	DueDate     *time.Time   `json:"due_date"`

	TeamID     string  `gorm:"type:uuid;not null;index" json:"team_id"`
	CreatedBy  string  `gorm:"type:uuid;not null" json:"created_by"`
	AssignedTo *string `gorm:"type:uuid" json:"assigned_to"`

	Team     *Team `gorm:"foreignKey:TeamID" json:"team,omitempty"`
	Creator  *User `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	Assignee *User `gorm:"foreignKey:AssignedTo" json:"assignee,omitempty"`
}
