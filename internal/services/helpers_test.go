package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/taskhub/internal/database/testutil"
	"github.com/charlesng35/taskhub/internal/models"
	"github.com/charlesng35/taskhub/internal/services"
)

type fixture struct {
	db    *gorm.DB
	users *services.UserService
	teams *services.TeamService
	tasks *services.TaskService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.MustOpenTestDB(t)

	audit, err := services.NewAuditService(db)
	require.NoError(t, err)
	users, err := services.NewUserService(db, audit)
	require.NoError(t, err)
	teams, err := services.NewTeamService(db, audit)
	require.NoError(t, err)
	tasks, err := services.NewTaskService(db, audit)
	require.NoError(t, err)

	return &fixture{db: db, users: users, teams: teams, tasks: tasks}
}

func (f *fixture) mustRegister(t *testing.T, email string) *models.User {
	t.Helper()
	user, err := f.users.Register(context.Background(), services.RegisterInput{
		Email:     email,
		Password:  "s3cret-pass",
		FirstName: "Test",
		LastName:  "User",
	})
	require.NoError(t, err)
	return user
}

func (f *fixture) mustCreateTeam(t *testing.T, creatorID, name string) *models.Team {
	t.Helper()
	team, err := f.teams.Create(context.Background(), creatorID, services.CreateTeamInput{Name: name})
	require.NoError(t, err)
	return team
}

func (f *fixture) mustAddMember(t *testing.T, adminID, teamID, email string, role models.TeamRole) *models.TeamMember {
	t.Helper()
	member, err := f.teams.AddMember(context.Background(), adminID, teamID, email, role)
	require.NoError(t, err)
	return member
}
