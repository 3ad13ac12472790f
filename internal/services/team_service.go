package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/charlesng35/taskhub/internal/models"
	"github.com/charlesng35/taskhub/internal/permissions"
	apperrors "github.com/charlesng35/taskhub/pkg/errors"
)

var (
	// ErrTeamNotFound covers both absent teams and teams the caller is not a
	// member of, so existence never leaks to outsiders.
	ErrTeamNotFound = apperrors.New("TEAM_NOT_FOUND", "Team not found", http.StatusNotFound)
	// ErrTeamMemberAlreadyExists signals the user is already a member of the team.
	ErrTeamMemberAlreadyExists = apperrors.New("TEAM_MEMBER_EXISTS", "User is already a team member", http.StatusConflict)
	// ErrTeamMemberNotFound indicates the requested membership does not exist.
	ErrTeamMemberNotFound = apperrors.New("TEAM_MEMBER_NOT_FOUND", "User is not a member of the team", http.StatusNotFound)
	// ErrLastAdmin rejects removals that would leave a team without an admin.
	ErrLastAdmin = apperrors.New("TEAM_LAST_ADMIN", "Cannot remove the last admin", http.StatusConflict)
)

// CreateTeamInput captures new team metadata.
type CreateTeamInput struct {
	Name        string
	Description string
}

// UpdateTeamInput describes mutable team fields. Settings replaces the whole
// stored settings document when present.
type UpdateTeamInput struct {
	Name        *string
	Description *string
	Settings    map[string]any
}

// TeamService handles team lifecycle and membership management. Every
// mutating operation consults the membership checker before touching the
// store, and check-then-write sequences run inside a single transaction.
type TeamService struct {
	db           *gorm.DB
	auditService *AuditService
}

// NewTeamService constructs a TeamService instance.
func NewTeamService(db *gorm.DB, auditService *AuditService) (*TeamService, error) {
	if db == nil {
		return nil, errors.New("team service: db is required")
	}
	return &TeamService{
		db:           db,
		auditService: auditService,
	}, nil
}

// Create registers a new team. The creator becomes its founding admin in the
// same transaction, so a team is never observable without one.
func (s *TeamService) Create(ctx context.Context, creatorID string, input CreateTeamInput) (*models.Team, error) {
	ctx = ensureContext(ctx)

	creatorID = strings.TrimSpace(creatorID)
	if creatorID == "" {
		return nil, apperrors.ErrUnauthorized
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewBadRequest("team name is required")
	}

	team := &models.Team{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		CreatedBy:   creatorID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(team).Error; err != nil {
			return fmt.Errorf("team service: create team: %w", err)
		}

		membership := &models.TeamMember{
			TeamID: team.ID,
			UserID: creatorID,
			Role:   models.RoleAdmin,
		}
		if err := tx.Create(membership).Error; err != nil {
			return fmt.Errorf("team service: create founding membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		UserID:   &creatorID,
		Action:   "team.create",
		Resource: team.ID,
		Result:   "success",
		Metadata: map[string]any{"name": team.Name},
	})

	return team, nil
}

// List returns the teams the user belongs to, newest first, with members
// preloaded. The join through team_members is the authorization boundary.
func (s *TeamService) List(ctx context.Context, userID string) ([]models.Team, error) {
	ctx = ensureContext(ctx)

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return []models.Team{}, nil
	}

	var teams []models.Team
	err := s.db.WithContext(ctx).
		Joins("JOIN team_members ON team_members.team_id = teams.id").
		Where("team_members.user_id = ?", userID).
		Preload("Members.User").
		Preload("Creator").
		Order("teams.created_at DESC").
		Find(&teams).Error
	if err != nil {
		return nil, fmt.Errorf("team service: list teams: %w", err)
	}

	return teams, nil
}

// GetByID loads a team for a member. Non-members receive the same not-found
// failure as for a team that does not exist.
func (s *TeamService) GetByID(ctx context.Context, userID, teamID string) (*models.Team, error) {
	ctx = ensureContext(ctx)

	var team models.Team
	err := s.db.WithContext(ctx).
		Joins("JOIN team_members ON team_members.team_id = teams.id").
		Where("teams.id = ? AND team_members.user_id = ?", teamID, userID).
		Preload("Members.User").
		Preload("Creator").
		First(&team).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTeamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("team service: get team: %w", err)
	}

	return &team, nil
}

// Update modifies team metadata. Only admins may update a team.
func (s *TeamService) Update(ctx context.Context, actorID, teamID string, input UpdateTeamInput) (*models.Team, error) {
	ctx = ensureContext(ctx)

	if _, err := s.GetByID(ctx, actorID, teamID); err != nil {
		return nil, err
	}

	checker, err := permissions.NewChecker(s.db)
	if err != nil {
		return nil, err
	}
	canManage, err := checker.CanManageMembers(ctx, actorID, teamID)
	if err != nil {
		return nil, err
	}
	if !canManage {
		return nil, apperrors.ErrForbidden
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.NewBadRequest("team name must not be empty")
		}
		updates["name"] = name
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}
	if input.Settings != nil {
		encoded, err := json.Marshal(input.Settings)
		if err != nil {
			return nil, apperrors.NewBadRequest("settings must be a JSON object")
		}
		updates["settings"] = datatypes.JSON(encoded)
	}

	if len(updates) == 0 {
		return nil, apperrors.NewBadRequest("no fields provided for update")
	}

	if err := s.db.WithContext(ctx).Model(&models.Team{}).Where("id = ?", teamID).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("team service: update team: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		UserID:   &actorID,
		Action:   "team.update",
		Resource: teamID,
		Result:   "success",
		Metadata: updates,
	})

	return s.GetByID(ctx, actorID, teamID)
}

// ListMembers returns the memberships of a team visible to the caller,
// ordered by join time.
func (s *TeamService) ListMembers(ctx context.Context, userID, teamID string) ([]models.TeamMember, error) {
	ctx = ensureContext(ctx)

	checker, err := permissions.NewChecker(s.db)
	if err != nil {
		return nil, err
	}
	isMember, err := checker.IsMember(ctx, userID, teamID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, ErrTeamNotFound
	}

	var members []models.TeamMember
	err = s.db.WithContext(ctx).
		Where("team_id = ?", teamID).
		Preload("User").
		Order("joined_at ASC").
		Find(&members).Error
	if err != nil {
		return nil, fmt.Errorf("team service: list members: %w", err)
	}

	return members, nil
}

// AddMember attaches the user registered under the given email to a team.
// Only admins may add members. The duplicate check and the insert share one
// transaction so concurrent adds cannot both pass the check.
func (s *TeamService) AddMember(ctx context.Context, actorID, teamID, email string, role models.TeamRole) (*models.TeamMember, error) {
	ctx = ensureContext(ctx)

	if strings.TrimSpace(teamID) == "" {
		return nil, apperrors.NewBadRequest("team id is required")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apperrors.NewBadRequest("email is required")
	}
	if role == "" {
		role = models.RoleMember
	}
	if !role.IsValid() {
		return nil, apperrors.NewBadRequest("role must be admin or member")
	}

	var membership *models.TeamMember
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		checker, err := permissions.NewChecker(tx)
		if err != nil {
			return err
		}

		actorRole, isMember, err := checker.RoleOf(ctx, actorID, teamID)
		if err != nil {
			return err
		}
		if !isMember {
			return ErrTeamNotFound
		}
		if actorRole != models.RoleAdmin {
			return apperrors.ErrForbidden
		}

		var user models.User
		if err := tx.First(&user, "email = ?", email).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("team service: resolve email: %w", err)
		}

		exists, err := checker.IsMember(ctx, user.ID, teamID)
		if err != nil {
			return err
		}
		if exists {
			return ErrTeamMemberAlreadyExists
		}

		membership = &models.TeamMember{
			TeamID: teamID,
			UserID: user.ID,
			Role:   role,
		}
		if err := tx.Create(membership).Error; err != nil {
			if isUniqueConstraintError(err) {
				return ErrTeamMemberAlreadyExists
			}
			return fmt.Errorf("team service: add member: %w", err)
		}

		membership.User = &user
		return nil
	})
	if err != nil {
		return nil, err
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		UserID:   &actorID,
		Action:   "team.add_member",
		Resource: teamID,
		Result:   "success",
		Metadata: map[string]any{"user_id": membership.UserID, "role": string(role)},
	})

	return membership, nil
}

// RemoveMember detaches a user from a team. Admins may remove anyone and any
// member may remove themself, but the last admin can never be removed. The
// decision and the delete share one transaction so two concurrent removals
// cannot both observe a surviving admin.
func (s *TeamService) RemoveMember(ctx context.Context, actorID, teamID, targetID string) error {
	ctx = ensureContext(ctx)

	if strings.TrimSpace(teamID) == "" || strings.TrimSpace(targetID) == "" {
		return apperrors.NewBadRequest("team id and user id are required")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		checker, err := permissions.NewChecker(tx)
		if err != nil {
			return err
		}

		decision, err := checker.CanRemoveMember(ctx, actorID, teamID, targetID)
		if err != nil {
			return err
		}
		if !decision.Allowed {
			switch decision.Reason {
			case permissions.ReasonNotMember:
				return ErrTeamNotFound
			case permissions.ReasonLastAdmin:
				return ErrLastAdmin
			default:
				return apperrors.ErrForbidden
			}
		}

		result := tx.Where("team_id = ? AND user_id = ?", teamID, targetID).Delete(&models.TeamMember{})
		if result.Error != nil {
			return fmt.Errorf("team service: remove member: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrTeamMemberNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		UserID:   &actorID,
		Action:   "team.remove_member",
		Resource: teamID,
		Result:   "success",
		Metadata: map[string]any{"user_id": targetID},
	})

	return nil
}
