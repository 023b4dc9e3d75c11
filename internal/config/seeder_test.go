package config

import (
	"testing"

	"sistema-vacunacion/internal/adapters/persistence/models"
	"sistema-vacunacion/internal/core/domain"
	"sistema-vacunacion/internal/pkg/password"
	"sistema-vacunacion/internal/pkg/testdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestSeederIsIdempotent(t *testing.T) {
	password.SetCost(bcrypt.MinCost)
	db := testdb.New(t)
	admin := AdminSeedConfig{NationalID: "10000000", Password: "admin-secreto", Email: "admin@hospital.test"}

	require.NoError(t, NewSeeder(db, admin).Run())
	require.NoError(t, NewSeeder(db, admin).Run())

	var roles []models.Role
	require.NoError(t, db.Preload("Permissions").Order("name").Find(&roles).Error)
	require.Len(t, roles, 4)

	perms := map[string]int{}
	for _, r := range roles {
		perms[r.Name] = len(r.Permissions)
	}
	assert.Equal(t, 8, perms[domain.RoleAdmin])
	assert.Equal(t, 1, perms[domain.RolePatient])

	var users []models.User
	require.NoError(t, db.Preload("Roles").Find(&users).Error)
	require.Len(t, users, 1)
	assert.Equal(t, "Administrador", users[0].FullName)
	assert.Equal(t, []string{domain.RoleAdmin}, users[0].RoleNames())
	assert.True(t, password.Verify("admin-secreto", users[0].Password))
}

func TestSeederKeepsEditedRoles(t *testing.T) {
	db := testdb.New(t)
	require.NoError(t, NewSeeder(db, AdminSeedConfig{}).Run())

	var nurse models.Role
	require.NoError(t, db.Where("name = ?", domain.RoleNurse).First(&nurse).Error)
	require.NoError(t, db.Model(&nurse).Association("Permissions").Clear())

	require.NoError(t, NewSeeder(db, AdminSeedConfig{}).Run())
	assert.Zero(t, db.Model(&nurse).Association("Permissions").Count())
}
