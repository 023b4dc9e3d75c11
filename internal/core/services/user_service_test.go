package services

import (
	"testing"

	"sistema-vacunacion/internal/core/domain"
	"sistema-vacunacion/internal/pkg/password"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserService(f *fixture) *UserService {
	return NewUserService(f.users, f.roles, f.history, f.auditor)
}

func registerInput(nationalID, email string) *RegisterInput {
	return &RegisterInput{
		UserInput: UserInput{
			FullName:   "Lucía Quispe",
			NationalID: nationalID,
			BirthDate:  "2019-06-15",
			Phone:      "987654321",
			Email:      email,
			WorkArea:   "Pediatría",
			JobTitle:   "Paciente",
		},
		Password: "secreto123",
	}
}

func TestRegisterAssignsPatientRole(t *testing.T) {
	f := newFixture(t)
	svc := newUserService(f)

	user, err := svc.Register(f.ctx, registerInput("50000001", "Lucia@Hospital.test"))
	require.NoError(t, err)
	assert.Equal(t, "lucia@hospital.test", user.Email)
	assert.True(t, user.IsActive)

	stored, err := f.users.GetWithRoles(f.ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{domain.RolePatient}, stored.RoleNames())
	assert.True(t, password.Verify("secreto123", stored.Password))
	require.NotNil(t, stored.BirthDate)
	assert.Equal(t, "2019-06-15", domain.FormatDate(*stored.BirthDate))
	assert.Len(t, f.auditor.calls(), 1)
}

func TestRegisterRejectsDuplicatesAndBadInput(t *testing.T) {
	f := newFixture(t)
	svc := newUserService(f)

	_, err := svc.Register(f.ctx, registerInput("50000002", "a@hospital.test"))
	require.NoError(t, err)

	_, err = svc.Register(f.ctx, registerInput("50000002", "b@hospital.test"))
	assert.ErrorIs(t, err, ErrNationalIDTaken)

	_, err = svc.Register(f.ctx, registerInput("50000003", "A@hospital.test"))
	assert.ErrorIs(t, err, ErrEmailTaken)

	weak := registerInput("50000004", "c@hospital.test")
	weak.Password = "123"
	_, err = svc.Register(f.ctx, weak)
	assert.ErrorIs(t, err, ErrWeakPassword)

	missing := registerInput("", "")
	_, err = svc.Register(f.ctx, missing)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.EqualError(t, err, "Missing required fields: email, national_id")

	badDate := registerInput("50000005", "d@hospital.test")
	badDate.BirthDate = "15/06/2019"
	_, err = svc.Register(f.ctx, badDate)
	assert.ErrorIs(t, err, domain.ErrInvalidDate)
}

func TestUpdateUserKeepsUniqueness(t *testing.T) {
	f := newFixture(t)
	svc := newUserService(f)
	ana := f.createUser(t, "50000010", domain.RolePatient)
	f.createUser(t, "50000011", domain.RolePatient)

	updated, err := svc.Update(f.ctx, ana.ID, &UserInput{
		FullName: "Ana María", NationalID: "50000010", Email: "ana@hospital.test", Phone: "999",
	}, "Admin")
	require.NoError(t, err)
	assert.Equal(t, "Ana María", updated.FullName)
	assert.Equal(t, "ana@hospital.test", updated.Email)

	_, err = svc.Update(f.ctx, ana.ID, &UserInput{FullName: "Ana", NationalID: "50000011", Email: "ana@hospital.test"}, "Admin")
	assert.ErrorIs(t, err, ErrNationalIDTaken)

	_, err = svc.Update(f.ctx, 9999, &UserInput{FullName: "x", NationalID: "1", Email: "x@x"}, "Admin")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSetStatusTogglesOrSets(t *testing.T) {
	f := newFixture(t)
	svc := newUserService(f)
	user := f.createUser(t, "50000020", domain.RolePatient)

	active, err := svc.SetStatus(f.ctx, user.ID, nil, "Admin")
	require.NoError(t, err)
	assert.False(t, active)

	active, err = svc.SetStatus(f.ctx, user.ID, boolPtr(true), "Admin")
	require.NoError(t, err)
	assert.True(t, active)

	active, err = svc.SetStatus(f.ctx, user.ID, boolPtr(true), "Admin")
	require.NoError(t, err)
	assert.True(t, active)

	_, err = svc.SetStatus(f.ctx, 9999, nil, "Admin")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestDeleteUser(t *testing.T) {
	f := newFixture(t)
	svc := newUserService(f)
	admin := f.createUser(t, "50000030", domain.RoleAdmin)
	patient := f.createUser(t, "50000031", domain.RolePatient)
	vaccinated := f.createUser(t, "50000032", domain.RolePatient)
	vaccine := f.createVaccine(t, "BCG", 2, 0)

	_, err := f.doseService(false).ApplyDose(f.ctx, &ApplyDoseInput{
		UserID: vaccinated.ID, VaccineID: vaccine.ID, Dose: "1", ApplicationDate: "2024-01-01",
	})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(f.ctx, admin.ID, admin.ID, "Admin"), ErrCannotDeleteSelf)
	assert.ErrorIs(t, svc.Delete(f.ctx, vaccinated.ID, admin.ID, "Admin"), ErrUserHasHistory)
	assert.ErrorIs(t, svc.Delete(f.ctx, 9999, admin.ID, "Admin"), ErrUserNotFound)

	require.NoError(t, svc.Delete(f.ctx, patient.ID, admin.ID, "Admin"))
	_, err = svc.GetByID(f.ctx, patient.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSetRoles(t *testing.T) {
	f := newFixture(t)
	svc := newUserService(f)
	user := f.createUser(t, "50000040", domain.RolePatient)
	nurse := f.role(t, domain.RoleNurse)
	doctor := f.role(t, domain.RoleDoctor)

	updated, err := svc.SetRoles(f.ctx, user.ID, &SetRolesInput{RoleIDs: []uint{nurse.ID, doctor.ID, nurse.ID}}, "Admin")
	require.NoError(t, err)
	var names []string
	for _, r := range updated.Roles {
		names = append(names, r.Name)
	}
	assert.ElementsMatch(t, []string{domain.RoleNurse, domain.RoleDoctor}, names)

	stored, err := f.users.GetWithRoles(f.ctx, user.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{domain.RoleNurse, domain.RoleDoctor}, stored.RoleNames())

	_, err = svc.SetRoles(f.ctx, user.ID, &SetRolesInput{RoleIDs: []uint{9999}}, "Admin")
	assert.ErrorIs(t, err, ErrUnknownRole)
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	svc := newUserService(f)
	user := f.createUser(t, "50000050", domain.RolePatient)

	err := svc.ChangePassword(f.ctx, user.ID, &ChangePasswordInput{OldPassword: "incorrecta", NewPassword: "nuevaClave9"})
	assert.ErrorIs(t, err, ErrOldPasswordWrong)

	err = svc.ChangePassword(f.ctx, user.ID, &ChangePasswordInput{OldPassword: "secreto123", NewPassword: "corta"})
	assert.ErrorIs(t, err, ErrWeakPassword)

	require.NoError(t, svc.ChangePassword(f.ctx, user.ID, &ChangePasswordInput{OldPassword: "secreto123", NewPassword: "nuevaClave9"}))
	stored, err := f.users.GetByID(f.ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, password.Verify("nuevaClave9", stored.Password))
}
