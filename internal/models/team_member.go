package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TeamRole governs elevated team actions such as member management and
// deleting tasks created by others.
type TeamRole string

const (
	RoleAdmin  TeamRole = "admin"
	RoleMember TeamRole = "member"
)

// IsValid checks that the role is one of the supported values.
func (r TeamRole) IsValid() bool {
	switch r {
	case RoleAdmin, RoleMember:
		return true
	default:
		return false
	}
}

// TeamMember links a user to a team with a role. The composite unique index
// guarantees at most one membership row per (team, user) pair.
type TeamMember struct {
	ID       string    `gorm:"primaryKey;type:uuid" json:"id"`
	TeamID   string    `gorm:"type:uuid;not null;uniqueIndex:idx_team_members_team_user" json:"team_id"`
	UserID   string    `gorm:"type:uuid;not null;uniqueIndex:idx_team_members_team_user" json:"user_id"`
	Role     TeamRole  `gorm:"not null;default:member" json:"role"`
	JoinedAt time.Time `json:"joined_at"`

	Team *Team `gorm:"foreignKey:TeamID" json:"-"`
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// BeforeCreate assigns the row identifier and join timestamp.
func (m *TeamMember) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.JoinedAt.IsZero() {
		m.JoinedAt = time.Now().UTC()
	}
	return nil
}
