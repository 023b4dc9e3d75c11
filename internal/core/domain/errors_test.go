package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMissingFields(t *testing.T) {
	assert.NoError(t, MissingFields())

	err := MissingFields("user_id", "dose")
	assert.EqualError(t, err, "Missing required fields: user_id, dose")
	assert.ErrorIs(t, err, ErrInvalidInput)

	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestRequired(t *testing.T) {
	missing := Required(map[string]string{
		"name":  "BCG",
		"lot":   " ",
		"brand": "",
	})
	assert.Equal(t, []string{"brand", "lot"}, missing)
	assert.Empty(t, Required(map[string]string{"name": "x"}))
}

func TestIdentityRoles(t *testing.T) {
	nurse := &Identity{Roles: []string{"enfermero"}}
	assert.True(t, nurse.HasRole(RoleNurse))
	assert.True(t, nurse.IsStaff())
	assert.False(t, nurse.HasRole(RoleAdmin))

	patient := &Identity{Roles: []string{RolePatient}}
	assert.False(t, patient.IsStaff())

	assert.True(t, IsProtectedRole(" administrador "))
	assert.False(t, IsProtectedRole(RoleDoctor))
}
