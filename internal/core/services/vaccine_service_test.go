package services

import (
	"testing"

	"sistema-vacunacion/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVaccineService(f *fixture) *VaccineService {
	return NewVaccineService(f.vaccines, f.history, f.auditor)
}

func vaccineInput(stock int) *VaccineInput {
	return &VaccineInput{
		Name:             "Sarampión",
		Manufacturer:     "Serum Institute",
		RequiredDoses:    intPtr(2),
		IntervalDays:     intPtr(30),
		Lot:              "SR-2024-01",
		LotDate:          "2024-02-01",
		ResponsibleParty: "Q.F. Mendoza",
		StockAvailable:   intPtr(stock),
	}
}

func TestCreateAndUpdateVaccine(t *testing.T) {
	f := newFixture(t)
	svc := newVaccineService(f)

	vaccine, err := svc.Create(f.ctx, vaccineInput(20), "Admin")
	require.NoError(t, err)
	assert.True(t, vaccine.IsActive)
	assert.Equal(t, 20, vaccine.StockAvailable)
	assert.Equal(t, "2024-02-01", domain.FormatDate(vaccine.LotDate))

	in := vaccineInput(0)
	in.Lot = "SR-2024-02"
	updated, err := svc.Update(f.ctx, vaccine.ID, in, "Admin")
	require.NoError(t, err)
	assert.Equal(t, "SR-2024-02", updated.Lot)
	assert.Equal(t, 0, f.stockOf(t, vaccine.ID))

	_, err = svc.Update(f.ctx, 9999, in, "Admin")
	assert.ErrorIs(t, err, ErrVaccineNotFound)
}

func TestCreateVaccineValidation(t *testing.T) {
	f := newFixture(t)
	svc := newVaccineService(f)

	_, err := svc.Create(f.ctx, &VaccineInput{Name: "X"}, "Admin")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.EqualError(t, err, "Missing required fields: lot, lot_date, manufacturer, responsible_party, required_doses, stock_available")

	_, err = svc.Create(f.ctx, vaccineInput(-1), "Admin")
	assert.ErrorIs(t, err, ErrNegativeStock)

	in := vaccineInput(1)
	in.RequiredDoses = intPtr(0)
	_, err = svc.Create(f.ctx, in, "Admin")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	in = vaccineInput(1)
	in.LotDate = "2024/02/01"
	_, err = svc.Create(f.ctx, in, "Admin")
	assert.ErrorIs(t, err, domain.ErrInvalidDate)
}

func TestStockOperations(t *testing.T) {
	f := newFixture(t)
	svc := newVaccineService(f)
	vaccine := f.createVaccine(t, "Tétanos", 1, 0)

	reduced, err := svc.ReduceStock(f.ctx, vaccine.ID, "Lic. Paz")
	require.NoError(t, err)
	assert.Equal(t, 0, reduced.StockAvailable)

	_, err = svc.ReduceStock(f.ctx, vaccine.ID, "Lic. Paz")
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 0, f.stockOf(t, vaccine.ID))

	_, err = svc.SetStock(f.ctx, vaccine.ID, -3, "Admin")
	assert.ErrorIs(t, err, ErrNegativeStock)

	set, err := svc.SetStock(f.ctx, vaccine.ID, 12, "Admin")
	require.NoError(t, err)
	assert.Equal(t, 12, set.StockAvailable)
	assert.Equal(t, 12, f.stockOf(t, vaccine.ID))

	_, err = svc.SetStock(f.ctx, 9999, 1, "Admin")
	assert.ErrorIs(t, err, ErrVaccineNotFound)
}

func TestToggleVaccineAndLowStock(t *testing.T) {
	f := newFixture(t)
	svc := newVaccineService(f)
	low := f.createVaccine(t, "Rabia", 2, 0)
	f.createVaccine(t, "Tifoidea", 50, 0)
	hidden := f.createVaccine(t, "Cólera", 1, 0)

	active, err := svc.ToggleStatus(f.ctx, hidden.ID, "Admin")
	require.NoError(t, err)
	assert.False(t, active)

	vaccines, err := svc.LowStock(f.ctx, 5)
	require.NoError(t, err)
	require.Len(t, vaccines, 1)
	assert.Equal(t, low.ID, vaccines[0].ID)
}

func TestDeleteVaccineInUse(t *testing.T) {
	f := newFixture(t)
	svc := newVaccineService(f)
	patient := f.createUser(t, "40000001", domain.RolePatient)
	used := f.createVaccine(t, "Meningococo", 3, 0)
	unused := f.createVaccine(t, "VPH", 3, 0)

	_, err := f.doseService(false).ApplyDose(f.ctx, &ApplyDoseInput{
		UserID: patient.ID, VaccineID: used.ID, Dose: "1", ApplicationDate: "2024-01-01",
	})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(f.ctx, used.ID, "Admin"), ErrVaccineInUse)
	require.NoError(t, svc.Delete(f.ctx, unused.ID, "Admin"))
	assert.ErrorIs(t, svc.Delete(f.ctx, unused.ID, "Admin"), ErrVaccineNotFound)
}

func TestAppliedToday(t *testing.T) {
	f := newFixture(t)
	svc := newVaccineService(f)
	patient := f.createUser(t, "40000002", domain.RolePatient)
	vaccine := f.createVaccine(t, "Covid-19", 5, 0)
	doses := f.doseService(false)

	today := domain.FormatDate(domain.Today())
	for _, in := range []struct{ dose, date string }{{"1", today}, {"2", "2020-01-01"}} {
		_, err := doses.ApplyDose(f.ctx, &ApplyDoseInput{UserID: patient.ID, VaccineID: vaccine.ID, Dose: in.dose, ApplicationDate: in.date})
		require.NoError(t, err)
	}

	n, err := svc.AppliedToday(f.ctx, vaccine.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = svc.AppliedToday(f.ctx, 9999)
	assert.ErrorIs(t, err, ErrVaccineNotFound)
}
