package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"sistema-vacunacion/internal/adapters/persistence/models"
	"sistema-vacunacion/internal/adapters/persistence/repositories"
	"sistema-vacunacion/internal/config"
	"sistema-vacunacion/internal/pkg/password"
	"sistema-vacunacion/internal/pkg/testdb"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type auditCall struct {
	Action  string
	Actor   string
	Subject *uint
}

// memoryAuditor keeps recorded entries in memory
type memoryAuditor struct {
	mu      sync.Mutex
	entries []auditCall
}

func (a *memoryAuditor) Record(action, actor string, subjectUserID *uint) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, auditCall{Action: action, Actor: actor, Subject: subjectUserID})
}

func (a *memoryAuditor) calls() []auditCall {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]auditCall(nil), a.entries...)
}

// fixture wires every repository over a seeded in-memory database
type fixture struct {
	ctx     context.Context
	db      *gorm.DB
	auditor *memoryAuditor

	users         repositories.UserRepository
	roles         repositories.RoleRepository
	permissions   repositories.PermissionRepository
	refreshTokens repositories.RefreshTokenRepository
	vaccines      repositories.VaccineRepository
	schedules     repositories.ScheduleRepository
	history       repositories.HistoryRepository
	audit         repositories.AuditRepository
	content       repositories.PageContentRepository
	applied       repositories.AppliedVaccineRepository
	uow           repositories.UnitOfWork
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	password.SetCost(bcrypt.MinCost)

	db := testdb.New(t)
	require.NoError(t, config.NewSeeder(db, config.AdminSeedConfig{}).Run())

	return &fixture{
		ctx:           context.Background(),
		db:            db,
		auditor:       &memoryAuditor{},
		users:         repositories.NewUserRepository(db),
		roles:         repositories.NewRoleRepository(db),
		permissions:   repositories.NewPermissionRepository(db),
		refreshTokens: repositories.NewRefreshTokenRepository(db),
		vaccines:      repositories.NewVaccineRepository(db),
		schedules:     repositories.NewScheduleRepository(db),
		history:       repositories.NewHistoryRepository(db),
		audit:         repositories.NewAuditRepository(db),
		content:       repositories.NewPageContentRepository(db),
		applied:       repositories.NewAppliedVaccineRepository(db),
		uow:           repositories.NewUnitOfWork(db),
	}
}

func (f *fixture) role(t *testing.T, name string) *models.Role {
	t.Helper()
	role, err := f.roles.GetByName(f.ctx, name)
	require.NoError(t, err)
	return role
}

// createUser inserts an active user holding the given roles. The password is "secreto123".
func (f *fixture) createUser(t *testing.T, nationalID string, roleNames ...string) *models.User {
	t.Helper()

	hash, err := password.Hash("secreto123")
	require.NoError(t, err)

	user := &models.User{
		FullName:   "Usuario " + nationalID,
		NationalID: nationalID,
		Email:      nationalID + "@hospital.test",
		Password:   hash,
		IsActive:   true,
	}
	for _, name := range roleNames {
		user.Roles = append(user.Roles, *f.role(t, name))
	}
	require.NoError(t, f.users.Create(f.ctx, user))
	return user
}

func (f *fixture) createVaccine(t *testing.T, name string, stock, intervalDays int) *models.Vaccine {
	t.Helper()

	vaccine := &models.Vaccine{
		Name:             name,
		Manufacturer:     "Laboratorio Andino",
		RequiredDoses:    3,
		IntervalDays:     intervalDays,
		Lot:              "L-" + name,
		LotDate:          time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		ResponsibleParty: "Farmacia",
		StockAvailable:   stock,
		IsActive:         true,
	}
	require.NoError(t, f.vaccines.Create(f.ctx, vaccine))
	return vaccine
}

func (f *fixture) stockOf(t *testing.T, vaccineID uint) int {
	t.Helper()
	v, err := f.vaccines.GetByID(f.ctx, vaccineID)
	require.NoError(t, err)
	return v.StockAvailable
}

func (f *fixture) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(model).Count(&n).Error)
	return n
}

func (f *fixture) doseService(restoreStock bool) *DoseService {
	return NewDoseService(f.uow, f.users, f.history, f.auditor, restoreStock)
}

func intPtr(v int) *int { return &v }

func boolPtr(v bool) *bool { return &v }

