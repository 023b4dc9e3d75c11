package repositories_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"sistema-vacunacion/internal/adapters/persistence/models"
	"sistema-vacunacion/internal/adapters/persistence/repositories"
	"sistema-vacunacion/internal/config"
	"sistema-vacunacion/internal/core/domain"
	"sistema-vacunacion/internal/core/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

type nopAuditor struct{}

func (nopAuditor) Record(string, string, *uint) {}

// setupPostgres starts PostgreSQL in a container and returns a migrated, seeded connection
func setupPostgres(t *testing.T) *gorm.DB {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("skipping integration test: TEST_INTEGRATION is not set")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"docker.io/postgres:16-alpine",
		postgres.WithDatabase("vacunacion_test"),
		postgres.WithUsername("vacunacion"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	db, err := config.ConnectDatabase(&config.Config{
		AppMode: "prod",
		Database: config.DatabaseConfig{
			Driver:   "postgres",
			Host:     host,
			Port:     port.Port(),
			User:     "vacunacion",
			Password: "test-password",
			DBName:   "vacunacion_test",
			SSLMode:  "disable",
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = config.CloseDatabase() })

	require.NoError(t, models.AutoMigrate(db))
	require.NoError(t, config.NewSeeder(db, config.AdminSeedConfig{}).Run())
	return db
}

func TestConcurrentApplyDoseOnPostgres(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()

	users := repositories.NewUserRepository(db)
	vaccines := repositories.NewVaccineRepository(db)
	history := repositories.NewHistoryRepository(db)
	doses := services.NewDoseService(repositories.NewUnitOfWork(db), users, history, nopAuditor{}, false)

	vaccine := &models.Vaccine{
		Name: "Hexavalente", Manufacturer: "Sanofi", RequiredDoses: 3, IntervalDays: 60,
		Lot: "HX-01", LotDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		ResponsibleParty: "Farmacia", StockAvailable: 3, IsActive: true,
	}
	require.NoError(t, vaccines.Create(ctx, vaccine))

	const patients = 8
	ids := make([]uint, patients)
	for i := range ids {
		user := &models.User{
			FullName:   fmt.Sprintf("Paciente %d", i),
			NationalID: fmt.Sprintf("7000000%d", i),
			Email:      fmt.Sprintf("p%d@hospital.test", i),
			Password:   "x",
			IsActive:   true,
		}
		require.NoError(t, users.Create(ctx, user))
		ids[i] = user.ID
	}

	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		applied    int
		noStock    int
		unexpected []error
	)
	for _, id := range ids {
		wg.Add(1)
		go func(userID uint) {
			defer wg.Done()
			_, err := doses.ApplyDose(ctx, &services.ApplyDoseInput{
				UserID: userID, VaccineID: vaccine.ID, Dose: "1", ApplicationDate: "2024-04-01",
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				applied++
			case errors.Is(err, services.ErrInsufficientStock):
				noStock++
			default:
				unexpected = append(unexpected, err)
			}
		}(id)
	}
	wg.Wait()

	assert.Empty(t, unexpected)
	assert.Equal(t, 3, applied)
	assert.Equal(t, patients-3, noStock)

	stored, err := vaccines.GetByID(ctx, vaccine.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.StockAvailable)

	count, err := history.CountByVaccine(ctx, vaccine.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestDuplicateDoseOnPostgres(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()

	users := repositories.NewUserRepository(db)
	vaccines := repositories.NewVaccineRepository(db)
	history := repositories.NewHistoryRepository(db)
	doses := services.NewDoseService(repositories.NewUnitOfWork(db), users, history, nopAuditor{}, false)

	patient := &models.User{FullName: "Lucía", NationalID: "71111111", Email: "lucia@hospital.test", Password: "x", IsActive: true}
	require.NoError(t, users.Create(ctx, patient))
	vaccine := &models.Vaccine{
		Name: "SPR", Manufacturer: "MSD", RequiredDoses: 2, Lot: "SPR-01",
		LotDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), ResponsibleParty: "Farmacia",
		StockAvailable: 5, IsActive: true,
	}
	require.NoError(t, vaccines.Create(ctx, vaccine))

	input := &services.ApplyDoseInput{UserID: patient.ID, VaccineID: vaccine.ID, Dose: "refuerzo_1", ApplicationDate: "2024-05-10"}
	_, err := doses.ApplyDose(ctx, input)
	require.NoError(t, err)

	_, err = doses.ApplyDose(ctx, input)
	var dup *services.DuplicateDoseError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "2024-05-10", dup.Date)

	stored, err := vaccines.GetByID(ctx, vaccine.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stored.StockAvailable)

	growth, err := services.NewReportService(db, repositories.NewAuditRepository(db)).MonthlyGrowth(ctx)
	require.NoError(t, err)
	assert.Equal(t, []services.MonthCount{{Month: "2024-05", Total: 1}}, growth)

	records, err := history.ListByUser(ctx, patient.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, domain.StatusApplied, records[0].Status)
}
