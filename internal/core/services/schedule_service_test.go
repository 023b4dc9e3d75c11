package services

import (
	"testing"

	"sistema-vacunacion/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleLifecycle(t *testing.T) {
	f := newFixture(t)
	svc := NewScheduleService(f.schedules, f.vaccines, f.auditor)
	bcg := f.createVaccine(t, "BCG", 10, 0)
	polio := f.createVaccine(t, "Polio", 10, 60)

	created, err := svc.Create(f.ctx, &ScheduleInput{VaccineID: bcg.ID, RecommendedAge: " Recién nacido ", DoseType: "Única"}, "Admin")
	require.NoError(t, err)
	assert.Equal(t, "Recién nacido", created.RecommendedAge)
	assert.Equal(t, "BCG", created.ToResponse().VaccineName)

	_, err = svc.Create(f.ctx, &ScheduleInput{VaccineID: polio.ID, RecommendedAge: "2 meses"}, "Admin")
	require.NoError(t, err)

	all, err := svc.List(f.ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onlyPolio, err := svc.List(f.ctx, &polio.ID)
	require.NoError(t, err)
	require.Len(t, onlyPolio, 1)
	assert.Equal(t, "Polio", onlyPolio[0].Vaccine.Name)

	updated, err := svc.Update(f.ctx, created.ID, &ScheduleInput{VaccineID: polio.ID, RecommendedAge: "4 meses", RiskGroup: "Prematuros"}, "Admin")
	require.NoError(t, err)
	assert.Equal(t, polio.ID, updated.VaccineID)
	assert.Equal(t, "Prematuros", updated.RiskGroup)

	require.NoError(t, svc.Delete(f.ctx, created.ID, "Admin"))
	assert.ErrorIs(t, svc.Delete(f.ctx, created.ID, "Admin"), ErrScheduleNotFound)
}

func TestScheduleValidation(t *testing.T) {
	f := newFixture(t)
	svc := NewScheduleService(f.schedules, f.vaccines, f.auditor)

	_, err := svc.Create(f.ctx, &ScheduleInput{}, "Admin")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.EqualError(t, err, "Missing required fields: vaccine_id, recommended_age")

	_, err = svc.Create(f.ctx, &ScheduleInput{VaccineID: 9999, RecommendedAge: "2 meses"}, "Admin")
	assert.ErrorIs(t, err, ErrVaccineNotFound)

	_, err = svc.Update(f.ctx, 9999, &ScheduleInput{VaccineID: 1, RecommendedAge: "2 meses"}, "Admin")
	assert.ErrorIs(t, err, ErrScheduleNotFound)
}
