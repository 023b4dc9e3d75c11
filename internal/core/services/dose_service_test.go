package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"sistema-vacunacion/internal/adapters/persistence/models"
	"sistema-vacunacion/internal/adapters/persistence/repositories"
	"sistema-vacunacion/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDose(t *testing.T) {
	f := newFixture(t)
	patient := f.createUser(t, "70000001", domain.RolePatient)
	vaccine := f.createVaccine(t, "Pentavalente", 5, 60)

	record, err := f.doseService(false).ApplyDose(f.ctx, &ApplyDoseInput{
		UserID:           patient.ID,
		VaccineID:        vaccine.ID,
		Dose:             "refuerzo_1",
		ApplicationDate:  "2024-03-01",
		Route:            "IM",
		Site:             "Muslo izquierdo",
		ResponsibleParty: "Lic. Rojas",
	})
	require.NoError(t, err)

	assert.Equal(t, "7", record.Dose)
	assert.Equal(t, domain.StatusApplied, record.Status)
	assert.Equal(t, "2024-03-01", domain.FormatDate(record.ApplicationDate))
	require.NotNil(t, record.NextDueDate)
	assert.Equal(t, "2024-04-30", domain.FormatDate(*record.NextDueDate))
	assert.Equal(t, vaccine.Lot, record.Lot)
	assert.Equal(t, "Pentavalente", record.Vaccine.Name)
	assert.Equal(t, 4, f.stockOf(t, vaccine.ID))

	var entries []models.AuditEntry
	require.NoError(t, f.db.Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, "Lic. Rojas", entries[0].Actor)
	assert.Contains(t, entries[0].Action, "Pentavalente")
	require.NotNil(t, entries[0].SubjectUserID)
	assert.Equal(t, patient.ID, *entries[0].SubjectUserID)
}

func TestApplyDoseWithoutIntervalHasNoNextDate(t *testing.T) {
	f := newFixture(t)
	patient := f.createUser(t, "70000002", domain.RolePatient)
	vaccine := f.createVaccine(t, "BCG", 2, 0)

	record, err := f.doseService(false).ApplyDose(f.ctx, &ApplyDoseInput{
		UserID: patient.ID, VaccineID: vaccine.ID, Dose: "1", ApplicationDate: "2024-01-15",
	})
	require.NoError(t, err)
	assert.Nil(t, record.NextDueDate)

	var entry models.AuditEntry
	require.NoError(t, f.db.First(&entry).Error)
	assert.Equal(t, domain.SystemActor, entry.Actor)
}

func TestApplyDoseRejectsDuplicate(t *testing.T) {
	f := newFixture(t)
	patient := f.createUser(t, "70000003", domain.RolePatient)
	vaccine := f.createVaccine(t, "Rotavirus", 5, 30)
	svc := f.doseService(false)

	input := &ApplyDoseInput{UserID: patient.ID, VaccineID: vaccine.ID, Dose: "2", ApplicationDate: "2024-02-10"}
	_, err := svc.ApplyDose(f.ctx, input)
	require.NoError(t, err)

	input.ApplicationDate = "2024-05-10"
	_, err = svc.ApplyDose(f.ctx, input)
	require.ErrorIs(t, err, ErrDuplicateDose)

	var dup *DuplicateDoseError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "2", dup.Dose)
	assert.Equal(t, "2024-02-10", dup.Date)

	assert.Equal(t, 4, f.stockOf(t, vaccine.ID))
	assert.Equal(t, int64(1), f.count(t, &models.HistoryRecord{}))
	assert.Equal(t, int64(1), f.count(t, &models.AuditEntry{}))
}

func TestApplyDoseDuplicateReportedBeforeStock(t *testing.T) {
	f := newFixture(t)
	patient := f.createUser(t, "70000004", domain.RolePatient)
	vaccine := f.createVaccine(t, "Neumococo", 1, 0)
	svc := f.doseService(false)

	input := &ApplyDoseInput{UserID: patient.ID, VaccineID: vaccine.ID, Dose: "1", ApplicationDate: "2024-02-10"}
	_, err := svc.ApplyDose(f.ctx, input)
	require.NoError(t, err)
	require.Equal(t, 0, f.stockOf(t, vaccine.ID))

	_, err = svc.ApplyDose(f.ctx, input)
	assert.ErrorIs(t, err, ErrDuplicateDose)
}

func TestApplyDoseStoresSeventhBoosterAs14(t *testing.T) {
	f := newFixture(t)
	patient := f.createUser(t, "70000011", domain.RolePatient)
	vaccine := f.createVaccine(t, "DPT", 2, 0)

	record, err := f.doseService(false).ApplyDose(f.ctx, &ApplyDoseInput{
		UserID: patient.ID, VaccineID: vaccine.ID, Dose: "refuerzo_7", ApplicationDate: "2024-06-01",
	})
	require.NoError(t, err)
	assert.Equal(t, "14", record.Dose)

	stored, err := f.history.ListByUser(f.ctx, patient.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "14", stored[0].Dose)
}

func TestApplyDoseLastUnitScenario(t *testing.T) {
	f := newFixture(t)
	patient := f.createUser(t, "70000012", domain.RolePatient)
	vaccine := f.createVaccine(t, "Influenza", 1, 0)
	svc := f.doseService(false)

	first := &ApplyDoseInput{UserID: patient.ID, VaccineID: vaccine.ID, Dose: "1", ApplicationDate: "2024-03-01"}
	_, err := svc.ApplyDose(f.ctx, first)
	require.NoError(t, err)
	assert.Equal(t, 0, f.stockOf(t, vaccine.ID))

	_, err = svc.ApplyDose(f.ctx, first)
	var dup *DuplicateDoseError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "2024-03-01", dup.Date)

	_, err = svc.ApplyDose(f.ctx, &ApplyDoseInput{UserID: patient.ID, VaccineID: vaccine.ID, Dose: "2", ApplicationDate: "2024-03-01"})
	require.ErrorIs(t, err, ErrInsufficientStock)

	assert.Equal(t, 0, f.stockOf(t, vaccine.ID))
	assert.Equal(t, int64(1), f.count(t, &models.HistoryRecord{}))
	assert.Equal(t, int64(1), f.count(t, &models.AuditEntry{}))
}

func TestApplyDoseInsufficientStock(t *testing.T) {
	f := newFixture(t)
	patient := f.createUser(t, "70000005", domain.RolePatient)
	vaccine := f.createVaccine(t, "Varicela", 0, 0)

	_, err := f.doseService(false).ApplyDose(f.ctx, &ApplyDoseInput{
		UserID: patient.ID, VaccineID: vaccine.ID, Dose: "1", ApplicationDate: "2024-02-10",
	})
	require.ErrorIs(t, err, ErrInsufficientStock)

	assert.Equal(t, 0, f.stockOf(t, vaccine.ID))
	assert.Zero(t, f.count(t, &models.HistoryRecord{}))
	assert.Zero(t, f.count(t, &models.AuditEntry{}))
}

func TestApplyDoseValidation(t *testing.T) {
	f := newFixture(t)
	patient := f.createUser(t, "70000006", domain.RolePatient)
	vaccine := f.createVaccine(t, "SPR", 3, 0)
	svc := f.doseService(false)

	_, err := svc.ApplyDose(f.ctx, &ApplyDoseInput{Dose: "1"})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.EqualError(t, err, "Missing required fields: user_id, vaccine_id, application_date")

	_, err = svc.ApplyDose(f.ctx, &ApplyDoseInput{UserID: patient.ID, VaccineID: vaccine.ID, Dose: "refuerzo_9", ApplicationDate: "2024-01-01"})
	assert.ErrorIs(t, err, domain.ErrInvalidDoseLabel)

	_, err = svc.ApplyDose(f.ctx, &ApplyDoseInput{UserID: patient.ID, VaccineID: vaccine.ID, Dose: "1", ApplicationDate: "01/01/2024"})
	assert.ErrorIs(t, err, domain.ErrInvalidDate)

	_, err = svc.ApplyDose(f.ctx, &ApplyDoseInput{UserID: 9999, VaccineID: vaccine.ID, Dose: "1", ApplicationDate: "2024-01-01"})
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.ApplyDose(f.ctx, &ApplyDoseInput{UserID: patient.ID, VaccineID: 9999, Dose: "1", ApplicationDate: "2024-01-01"})
	assert.ErrorIs(t, err, ErrVaccineNotFound)

	require.NoError(t, f.vaccines.SetActive(f.ctx, vaccine.ID, false))
	_, err = svc.ApplyDose(f.ctx, &ApplyDoseInput{UserID: patient.ID, VaccineID: vaccine.ID, Dose: "1", ApplicationDate: "2024-01-01"})
	assert.ErrorIs(t, err, ErrVaccineNotFound)

	assert.Equal(t, 3, f.stockOf(t, vaccine.ID))
	assert.Zero(t, f.count(t, &models.HistoryRecord{}))
}

func TestApplyDoseLastUnitConcurrently(t *testing.T) {
	f := newFixture(t)
	vaccine := f.createVaccine(t, "Hepatitis B", 1, 0)
	svc := f.doseService(false)

	const callers = 5
	patients := make([]*models.User, callers)
	for i := range patients {
		patients[i] = f.createUser(t, "7100000"+string(rune('0'+i)), domain.RolePatient)
	}

	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.ApplyDose(f.ctx, &ApplyDoseInput{
				UserID: patients[i].ID, VaccineID: vaccine.ID, Dose: "1", ApplicationDate: "2024-06-01",
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrInsufficientStock)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 0, f.stockOf(t, vaccine.ID))
	assert.Equal(t, int64(1), f.count(t, &models.HistoryRecord{}))
}

func TestPatientScheduleScenario(t *testing.T) {
	f := newFixture(t)
	patient := f.createUser(t, "70000007", domain.RolePatient)
	vaccine := f.createVaccine(t, "Polio", 10, 60)
	svc := f.doseService(false)

	for _, in := range []struct{ dose, date string }{
		{"1", "2024-01-05"},
		{"2", "2024-03-05"},
		{"3", "2024-05-05"},
		{"refuerzo_1", "2025-05-05"},
	} {
		_, err := svc.ApplyDose(f.ctx, &ApplyDoseInput{
			UserID: patient.ID, VaccineID: vaccine.ID, Dose: in.dose, ApplicationDate: in.date, ResponsibleParty: "Dr. Salas",
		})
		require.NoError(t, err, in.dose)
	}

	history, err := svc.GetByNationalID(f.ctx, patient.NationalID)
	require.NoError(t, err)
	require.Len(t, history.Records, 4)
	assert.Equal(t, patient.ID, history.User.ID)
	assert.Equal(t, "7", history.Records[0].Dose)
	assert.Equal(t, "2025-05-05", history.Records[0].ApplicationDate)
	assert.Equal(t, "1", history.Records[3].Dose)
	assert.Equal(t, 6, f.stockOf(t, vaccine.ID))

	byID, err := svc.GetByUserID(f.ctx, patient.ID)
	require.NoError(t, err)
	assert.Len(t, byID.Records, 4)

	_, err = svc.GetByNationalID(f.ctx, "00000000")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestListHistoryFilters(t *testing.T) {
	f := newFixture(t)
	ana := f.createUser(t, "70000008", domain.RolePatient)
	luis := f.createUser(t, "70000009", domain.RolePatient)
	vaccine := f.createVaccine(t, "DPT", 10, 0)
	svc := f.doseService(false)

	for _, in := range []struct {
		user uint
		dose string
		date string
	}{
		{ana.ID, "1", "2024-01-10"},
		{ana.ID, "2", "2024-02-10"},
		{luis.ID, "1", "2024-02-20"},
	} {
		_, err := svc.ApplyDose(f.ctx, &ApplyDoseInput{UserID: in.user, VaccineID: vaccine.ID, Dose: in.dose, ApplicationDate: in.date})
		require.NoError(t, err)
	}

	all, total, err := svc.List(f.ctx, repositories.HistoryFilter{}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, "2024-02-20", all[0].ApplicationDate)

	from, _ := domain.ParseDate("2024-02-01")
	feb, total, err := svc.List(f.ctx, repositories.HistoryFilter{From: &from}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, feb, 2)

	anaOnly, total, err := svc.List(f.ctx, repositories.HistoryFilter{UserID: &ana.ID}, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, anaOnly, 1)
}

func TestEditHistoryRecord(t *testing.T) {
	f := newFixture(t)
	patient := f.createUser(t, "70000010", domain.RolePatient)
	vaccine := f.createVaccine(t, "Influenza", 3, 0)
	svc := f.doseService(false)

	record, err := svc.ApplyDose(f.ctx, &ApplyDoseInput{UserID: patient.ID, VaccineID: vaccine.ID, Dose: "1", ApplicationDate: "2024-04-01"})
	require.NoError(t, err)

	edited, err := svc.EditHistoryRecord(f.ctx, record.ID, &EditHistoryInput{
		ApplicationDate: "2024-04-03", ResponsibleParty: "Lic. Vega",
	}, "Lic. Vega")
	require.NoError(t, err)
	assert.Equal(t, "2024-04-03", domain.FormatDate(edited.ApplicationDate))
	assert.Equal(t, "Lic. Vega", edited.ResponsibleParty)
	assert.Equal(t, 2, f.stockOf(t, vaccine.ID))
	assert.Len(t, f.auditor.calls(), 1)

	_, err = svc.EditHistoryRecord(f.ctx, record.ID, &EditHistoryInput{ApplicationDate: "2024-04-03"}, "x")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.EditHistoryRecord(f.ctx, 9999, &EditHistoryInput{ApplicationDate: "2024-04-03", ResponsibleParty: "x"}, "x")
	assert.ErrorIs(t, err, ErrHistoryNotFound)
}

// changedRowsHistory reports zero affected rows for updates that change nothing, as MySQL does
type changedRowsHistory struct {
	repositories.HistoryRepository
}

func (changedRowsHistory) UpdateApplication(context.Context, uint, time.Time, string) (bool, error) {
	return false, nil
}

func TestEditHistoryRecordUnchangedValues(t *testing.T) {
	f := newFixture(t)
	patient := f.createUser(t, "70000013", domain.RolePatient)
	vaccine := f.createVaccine(t, "Sarampión", 3, 0)

	record, err := f.doseService(false).ApplyDose(f.ctx, &ApplyDoseInput{
		UserID: patient.ID, VaccineID: vaccine.ID, Dose: "1", ApplicationDate: "2024-04-01", ResponsibleParty: "Lic. Vega",
	})
	require.NoError(t, err)

	svc := NewDoseService(f.uow, f.users, changedRowsHistory{f.history}, f.auditor, false)
	edited, err := svc.EditHistoryRecord(f.ctx, record.ID, &EditHistoryInput{
		ApplicationDate: "2024-04-01", ResponsibleParty: "Lic. Vega",
	}, "Lic. Vega")
	require.NoError(t, err)
	assert.Equal(t, record.ID, edited.ID)
	assert.Equal(t, "2024-04-01", domain.FormatDate(edited.ApplicationDate))

	_, err = svc.EditHistoryRecord(f.ctx, 9999, &EditHistoryInput{ApplicationDate: "2024-04-01", ResponsibleParty: "x"}, "x")
	assert.ErrorIs(t, err, ErrHistoryNotFound)
}

func TestDeleteHistoryRecordKeepsStock(t *testing.T) {
	f := newFixture(t)
	patient := f.createUser(t, "70000011", domain.RolePatient)
	vaccine := f.createVaccine(t, "Fiebre amarilla", 3, 0)
	svc := f.doseService(false)

	record, err := svc.ApplyDose(f.ctx, &ApplyDoseInput{UserID: patient.ID, VaccineID: vaccine.ID, Dose: "1", ApplicationDate: "2024-04-01"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteHistoryRecord(f.ctx, record.ID, "Admin"))
	assert.Equal(t, 2, f.stockOf(t, vaccine.ID))
	assert.Zero(t, f.count(t, &models.HistoryRecord{}))

	assert.ErrorIs(t, svc.DeleteHistoryRecord(f.ctx, record.ID, "Admin"), ErrHistoryNotFound)
}

func TestDeleteHistoryRecordRestoresStock(t *testing.T) {
	f := newFixture(t)
	patient := f.createUser(t, "70000012", domain.RolePatient)
	vaccine := f.createVaccine(t, "Hepatitis A", 3, 0)
	svc := f.doseService(true)

	record, err := svc.ApplyDose(f.ctx, &ApplyDoseInput{UserID: patient.ID, VaccineID: vaccine.ID, Dose: "1", ApplicationDate: "2024-04-01"})
	require.NoError(t, err)
	require.Equal(t, 2, f.stockOf(t, vaccine.ID))

	require.NoError(t, svc.DeleteHistoryRecord(f.ctx, record.ID, "Admin"))
	assert.Equal(t, 3, f.stockOf(t, vaccine.ID))
	assert.Equal(t, int64(2), f.count(t, &models.AuditEntry{}))

	assert.ErrorIs(t, svc.DeleteHistoryRecord(f.ctx, record.ID, "Admin"), ErrHistoryNotFound)
}
