package services

import (
	"testing"

	"sistema-vacunacion/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRoleService(f *fixture) *RoleService {
	return NewRoleService(f.roles, f.permissions, f.users, f.auditor)
}

func TestAdministratorRoleIsProtected(t *testing.T) {
	f := newFixture(t)
	svc := newRoleService(f)
	admin := f.role(t, domain.RoleAdmin)

	assert.ErrorIs(t, svc.Delete(f.ctx, admin.ID, "root"), ErrProtectedRole)

	_, err := svc.Update(f.ctx, admin.ID, &RoleInput{Name: "Superusuario"}, "root")
	assert.ErrorIs(t, err, ErrProtectedRole)

	_, err = svc.ToggleStatus(f.ctx, admin.ID, "root")
	assert.ErrorIs(t, err, ErrProtectedRole)

	stored := f.role(t, domain.RoleAdmin)
	assert.True(t, stored.IsActive)
	assert.Empty(t, f.auditor.calls())
}

func TestRoleLifecycle(t *testing.T) {
	f := newFixture(t)
	svc := newRoleService(f)

	role, err := svc.Create(f.ctx, &RoleInput{Name: " Tecnólogo "}, "root")
	require.NoError(t, err)
	assert.Equal(t, "Tecnólogo", role.Name)
	assert.True(t, role.IsActive)

	_, err = svc.Create(f.ctx, &RoleInput{Name: "Tecnólogo"}, "root")
	assert.ErrorIs(t, err, ErrRoleNameTaken)

	_, err = svc.Create(f.ctx, &RoleInput{Name: "  "}, "root")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	renamed, err := svc.Update(f.ctx, role.ID, &RoleInput{Name: "Laboratorista"}, "root")
	require.NoError(t, err)
	assert.Equal(t, "Laboratorista", renamed.Name)

	_, err = svc.Update(f.ctx, role.ID, &RoleInput{Name: domain.RoleNurse}, "root")
	assert.ErrorIs(t, err, ErrRoleNameTaken)

	toggled, err := svc.ToggleStatus(f.ctx, role.ID, "root")
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)
	toggled, err = svc.ToggleStatus(f.ctx, role.ID, "root")
	require.NoError(t, err)
	assert.True(t, toggled.IsActive)

	require.NoError(t, svc.Delete(f.ctx, role.ID, "root"))
	_, err = svc.Get(f.ctx, role.ID)
	assert.ErrorIs(t, err, ErrRoleNotFound)
	assert.Len(t, f.auditor.calls(), 5)
}

func TestDeleteAssignedRole(t *testing.T) {
	f := newFixture(t)
	svc := newRoleService(f)
	f.createUser(t, "60000001", domain.RoleNurse)

	err := svc.Delete(f.ctx, f.role(t, domain.RoleNurse).ID, "root")
	assert.ErrorIs(t, err, ErrRoleAssigned)
}

func TestSetPermissions(t *testing.T) {
	f := newFixture(t)
	svc := newRoleService(f)
	nurse := f.role(t, domain.RoleNurse)

	perms, err := svc.ListPermissions(f.ctx)
	require.NoError(t, err)
	require.Len(t, perms, 8)

	var reportsID uint
	for _, p := range perms {
		if p.Name == domain.PermReportsView {
			reportsID = p.ID
		}
	}
	require.NotZero(t, reportsID)

	updated, err := svc.SetPermissions(f.ctx, nurse.ID, &SetPermissionsInput{PermissionIDs: []uint{reportsID, reportsID}}, "root")
	require.NoError(t, err)
	require.Len(t, updated.Permissions, 1)

	stored, err := svc.Get(f.ctx, nurse.ID)
	require.NoError(t, err)
	require.Len(t, stored.Permissions, 1)
	assert.Equal(t, domain.PermReportsView, stored.Permissions[0].Name)

	_, err = svc.SetPermissions(f.ctx, nurse.ID, &SetPermissionsInput{PermissionIDs: []uint{9999}}, "root")
	assert.ErrorIs(t, err, ErrUnknownPermission)
}

func TestInactiveRoleGrantsNothing(t *testing.T) {
	f := newFixture(t)
	svc := newRoleService(f)
	user := f.createUser(t, "60000002", domain.RoleDoctor)

	_, err := svc.ToggleStatus(f.ctx, f.role(t, domain.RoleDoctor).ID, "root")
	require.NoError(t, err)

	perms, err := f.users.PermissionNames(f.ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, perms)

	roles, err := svc.RolesOfUser(f.ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.False(t, roles[0].IsActive)

	_, err = svc.RolesOfUser(f.ctx, 9999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
