package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/taskhub/internal/models"
	"github.com/charlesng35/taskhub/internal/services"
	apperrors "github.com/charlesng35/taskhub/pkg/errors"
)

func TestTeamCreateFoundingAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	creator := f.mustRegister(t, "founder@example.com")
	team := f.mustCreateTeam(t, creator.ID, "Platform")

	require.Equal(t, creator.ID, team.CreatedBy)

	members, err := f.teams.ListMembers(ctx, creator.ID, team.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	require.Equal(t, creator.ID, members[0].UserID)
	require.Equal(t, models.RoleAdmin, members[0].Role)
}

func TestTeamCreateRequiresName(t *testing.T) {
	f := newFixture(t)

	creator := f.mustRegister(t, "founder@example.com")
	_, err := f.teams.Create(context.Background(), creator.ID, services.CreateTeamInput{Name: "   "})
	require.Error(t, err)

	appErr := apperrors.FromError(err)
	require.Equal(t, "BAD_REQUEST", appErr.Code)
}

func TestTeamListOnlyMemberTeams(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := f.mustRegister(t, "alice@example.com")
	bob := f.mustRegister(t, "bob@example.com")

	f.mustCreateTeam(t, alice.ID, "Alice Team")
	bobTeam := f.mustCreateTeam(t, bob.ID, "Bob Team")

	teams, err := f.teams.List(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, teams, 1)
	require.Equal(t, "Alice Team", teams[0].Name)

	f.mustAddMember(t, bob.ID, bobTeam.ID, "alice@example.com", models.RoleMember)

	teams, err = f.teams.List(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, teams, 2)
}

func TestTeamGetHidesExistenceFromOutsiders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.mustRegister(t, "owner@example.com")
	outsider := f.mustRegister(t, "outsider@example.com")
	team := f.mustCreateTeam(t, owner.ID, "Secret")

	_, err := f.teams.GetByID(ctx, outsider.ID, team.ID)
	require.ErrorIs(t, err, services.ErrTeamNotFound)

	_, err = f.teams.GetByID(ctx, owner.ID, "no-such-team")
	require.ErrorIs(t, err, services.ErrTeamNotFound)
}

func TestTeamAddMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin := f.mustRegister(t, "admin@example.com")
	f.mustRegister(t, "new@example.com")
	team := f.mustCreateTeam(t, admin.ID, "Platform")

	member, err := f.teams.AddMember(ctx, admin.ID, team.ID, "New@Example.com", models.RoleMember)
	require.NoError(t, err)
	require.Equal(t, models.RoleMember, member.Role)
	require.NotNil(t, member.User)
	require.Equal(t, "new@example.com", member.User.Email)

	t.Run("duplicate add conflicts", func(t *testing.T) {
		_, err := f.teams.AddMember(ctx, admin.ID, team.ID, "new@example.com", models.RoleMember)
		require.ErrorIs(t, err, services.ErrTeamMemberAlreadyExists)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := f.teams.AddMember(ctx, admin.ID, team.ID, "ghost@example.com", models.RoleMember)
		require.ErrorIs(t, err, services.ErrUserNotFound)
	})

	t.Run("invalid role", func(t *testing.T) {
		f.mustRegister(t, "third@example.com")
		_, err := f.teams.AddMember(ctx, admin.ID, team.ID, "third@example.com", "owner")
		appErr := apperrors.FromError(err)
		require.Equal(t, "BAD_REQUEST", appErr.Code)
	})

	t.Run("empty role defaults to member", func(t *testing.T) {
		f.mustRegister(t, "fourth@example.com")
		m, err := f.teams.AddMember(ctx, admin.ID, team.ID, "fourth@example.com", "")
		require.NoError(t, err)
		require.Equal(t, models.RoleMember, m.Role)
	})
}

func TestTeamAddMemberAuthorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin := f.mustRegister(t, "admin@example.com")
	plain := f.mustRegister(t, "plain@example.com")
	outsider := f.mustRegister(t, "outsider@example.com")
	f.mustRegister(t, "target@example.com")
	team := f.mustCreateTeam(t, admin.ID, "Platform")
	f.mustAddMember(t, admin.ID, team.ID, "plain@example.com", models.RoleMember)

	t.Run("plain member is forbidden", func(t *testing.T) {
		_, err := f.teams.AddMember(ctx, plain.ID, team.ID, "target@example.com", models.RoleMember)
		require.ErrorIs(t, err, apperrors.ErrForbidden)
	})

	t.Run("outsider sees not found", func(t *testing.T) {
		_, err := f.teams.AddMember(ctx, outsider.ID, team.ID, "target@example.com", models.RoleMember)
		require.ErrorIs(t, err, services.ErrTeamNotFound)
	})
}

func TestTeamRemoveMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin := f.mustRegister(t, "admin@example.com")
	member := f.mustRegister(t, "member@example.com")
	team := f.mustCreateTeam(t, admin.ID, "Platform")
	f.mustAddMember(t, admin.ID, team.ID, "member@example.com", models.RoleMember)

	require.NoError(t, f.teams.RemoveMember(ctx, admin.ID, team.ID, member.ID))

	members, err := f.teams.ListMembers(ctx, admin.ID, team.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
}

func TestTeamRemoveMemberSelfLeave(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin := f.mustRegister(t, "admin@example.com")
	member := f.mustRegister(t, "member@example.com")
	team := f.mustCreateTeam(t, admin.ID, "Platform")
	f.mustAddMember(t, admin.ID, team.ID, "member@example.com", models.RoleMember)

	require.NoError(t, f.teams.RemoveMember(ctx, member.ID, team.ID, member.ID))

	_, err := f.teams.GetByID(ctx, member.ID, team.ID)
	require.ErrorIs(t, err, services.ErrTeamNotFound)
}

func TestTeamRemoveMemberLastAdminGuard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin := f.mustRegister(t, "admin@example.com")
	team := f.mustCreateTeam(t, admin.ID, "Platform")

	err := f.teams.RemoveMember(ctx, admin.ID, team.ID, admin.ID)
	require.ErrorIs(t, err, services.ErrLastAdmin)

	// Team still has its admin.
	members, err := f.teams.ListMembers(ctx, admin.ID, team.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
}

func TestTeamRemoveMemberErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin := f.mustRegister(t, "admin@example.com")
	plain := f.mustRegister(t, "plain@example.com")
	outsider := f.mustRegister(t, "outsider@example.com")
	team := f.mustCreateTeam(t, admin.ID, "Platform")
	f.mustAddMember(t, admin.ID, team.ID, "plain@example.com", models.RoleMember)

	t.Run("plain member cannot remove others", func(t *testing.T) {
		err := f.teams.RemoveMember(ctx, plain.ID, team.ID, admin.ID)
		require.ErrorIs(t, err, apperrors.ErrForbidden)
	})

	t.Run("outsider sees not found", func(t *testing.T) {
		err := f.teams.RemoveMember(ctx, outsider.ID, team.ID, plain.ID)
		require.ErrorIs(t, err, services.ErrTeamNotFound)
	})

	t.Run("missing membership", func(t *testing.T) {
		err := f.teams.RemoveMember(ctx, admin.ID, team.ID, outsider.ID)
		require.ErrorIs(t, err, services.ErrTeamMemberNotFound)
	})
}

func TestTeamUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin := f.mustRegister(t, "admin@example.com")
	plain := f.mustRegister(t, "plain@example.com")
	team := f.mustCreateTeam(t, admin.ID, "Old Name")
	f.mustAddMember(t, admin.ID, team.ID, "plain@example.com", models.RoleMember)

	name := "New Name"
	updated, err := f.teams.Update(ctx, admin.ID, team.ID, services.UpdateTeamInput{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "New Name", updated.Name)

	t.Run("plain member is forbidden", func(t *testing.T) {
		_, err := f.teams.Update(ctx, plain.ID, team.ID, services.UpdateTeamInput{Name: &name})
		require.ErrorIs(t, err, apperrors.ErrForbidden)
	})

	t.Run("empty patch rejected", func(t *testing.T) {
		_, err := f.teams.Update(ctx, admin.ID, team.ID, services.UpdateTeamInput{})
		appErr := apperrors.FromError(err)
		require.Equal(t, "BAD_REQUEST", appErr.Code)
	})

	t.Run("outsider sees not found", func(t *testing.T) {
		outsider := f.mustRegister(t, "outsider@example.com")
		_, err := f.teams.Update(ctx, outsider.ID, team.ID, services.UpdateTeamInput{Name: &name})
		require.ErrorIs(t, err, services.ErrTeamNotFound)
	})

	t.Run("settings document replaced", func(t *testing.T) {
		updated, err := f.teams.Update(ctx, admin.ID, team.ID, services.UpdateTeamInput{
			Settings: map[string]any{"default_priority": "high"},
		})
		require.NoError(t, err)
		require.JSONEq(t, `{"default_priority":"high"}`, string(updated.Settings))
	})
}

func TestTeamAdminSuccession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	founder := f.mustRegister(t, "founder@example.com")
	successor := f.mustRegister(t, "successor@example.com")
	team := f.mustCreateTeam(t, founder.ID, "Eng")

	// Leaving is blocked while the founder is the only admin.
	err := f.teams.RemoveMember(ctx, founder.ID, team.ID, founder.ID)
	require.ErrorIs(t, err, services.ErrLastAdmin)

	f.mustAddMember(t, founder.ID, team.ID, "successor@example.com", models.RoleAdmin)

	require.NoError(t, f.teams.RemoveMember(ctx, founder.ID, team.ID, founder.ID))

	members, err := f.teams.ListMembers(ctx, successor.ID, team.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	require.Equal(t, successor.ID, members[0].UserID)
	require.Equal(t, models.RoleAdmin, members[0].Role)
}

func TestTeamListMembersOrderedByJoin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin := f.mustRegister(t, "admin@example.com")
	f.mustRegister(t, "b@example.com")
	f.mustRegister(t, "c@example.com")
	team := f.mustCreateTeam(t, admin.ID, "Platform")
	f.mustAddMember(t, admin.ID, team.ID, "b@example.com", models.RoleMember)
	f.mustAddMember(t, admin.ID, team.ID, "c@example.com", models.RoleMember)

	members, err := f.teams.ListMembers(ctx, admin.ID, team.ID)
	require.NoError(t, err)
	require.Len(t, members, 3)
	require.Equal(t, admin.ID, members[0].UserID, "founding admin joined first")
}
