package services

import (
	"testing"

	"sistema-vacunacion/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppliedVaccineRegister(t *testing.T) {
	f := newFixture(t)
	svc := NewAppliedVaccineService(f.applied, f.users, f.auditor)
	patient := f.createUser(t, "80000001", domain.RolePatient)
	other := f.createUser(t, "80000002", domain.RolePatient)

	created, err := svc.Create(f.ctx, &AppliedVaccineInput{
		UserID:          patient.ID,
		VaccineName:     " Influenza ",
		ApplicationDate: "2024-05-02",
		Dose:            "1",
		Notes:           "Campaña escolar",
	}, "Lic. Rojas")
	require.NoError(t, err)
	assert.Equal(t, "Influenza", created.VaccineName)
	assert.Equal(t, "Usuario 80000001", created.PatientName)
	assert.Equal(t, "2024-05-02", created.ApplicationDate)

	_, err = svc.Create(f.ctx, &AppliedVaccineInput{UserID: other.ID, VaccineName: "Fiebre amarilla", ApplicationDate: "2024-06-15"}, "Lic. Rojas")
	require.NoError(t, err)

	records, total, err := svc.List(f.ctx, AppliedVaccineQuery{From: "2024-05-01", To: "2024-05-02"}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, records, 1)
	assert.Equal(t, created.ID, records[0].ID)

	_, total, err = svc.List(f.ctx, AppliedVaccineQuery{UserID: &other.ID}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	updated, err := svc.Update(f.ctx, created.ID, &AppliedVaccineInput{VaccineName: "Influenza estacional", ApplicationDate: "2024-05-03"}, "Admin")
	require.NoError(t, err)
	assert.Equal(t, patient.ID, updated.UserID)
	assert.Equal(t, "Influenza estacional", updated.VaccineName)
	assert.Equal(t, "", updated.Notes)

	require.NoError(t, svc.Delete(f.ctx, created.ID, "Admin"))
	assert.ErrorIs(t, svc.Delete(f.ctx, created.ID, "Admin"), ErrAppliedVaccineNotFound)
	_, err = svc.Update(f.ctx, created.ID, &AppliedVaccineInput{VaccineName: "x", ApplicationDate: "2024-05-03"}, "Admin")
	assert.ErrorIs(t, err, ErrAppliedVaccineNotFound)

	calls := f.auditor.calls()
	require.Len(t, calls, 4)
	require.NotNil(t, calls[0].Subject)
	assert.Equal(t, patient.ID, *calls[0].Subject)
}

func TestAppliedVaccineValidation(t *testing.T) {
	f := newFixture(t)
	svc := NewAppliedVaccineService(f.applied, f.users, f.auditor)

	_, err := svc.Create(f.ctx, &AppliedVaccineInput{}, "Admin")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.EqualError(t, err, "Missing required fields: user_id, application_date, vaccine_name")

	_, err = svc.Create(f.ctx, &AppliedVaccineInput{UserID: 999, VaccineName: "Influenza", ApplicationDate: "2024-05-02"}, "Admin")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, _, err = svc.List(f.ctx, AppliedVaccineQuery{From: "mayo"}, 0, 10)
	assert.ErrorIs(t, err, domain.ErrInvalidDate)
}
