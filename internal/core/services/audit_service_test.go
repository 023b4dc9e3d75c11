package services

import (
	"testing"
	"time"

	"sistema-vacunacion/internal/adapters/persistence/models"
	"sistema-vacunacion/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditListFilters(t *testing.T) {
	f := newFixture(t)
	svc := NewAuditService(f.audit)
	patient := f.createUser(t, "90000001", domain.RolePatient)

	entries := []*models.AuditEntry{
		{Action: "Created vaccine BCG", Actor: "Admin", CreatedAt: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)},
		{Action: "Applied dose 1 of BCG", Actor: "Lic. Rojas", SubjectUserID: &patient.ID, CreatedAt: time.Date(2024, 3, 2, 23, 30, 0, 0, time.UTC)},
		{Action: "Deleted schedule #4", Actor: "Admin", CreatedAt: time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)},
	}
	for _, e := range entries {
		require.NoError(t, f.audit.Create(f.ctx, e))
	}

	rows, total, err := svc.List(f.ctx, AuditQuery{}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, "Deleted schedule #4", rows[0].Action)

	rows, total, err = svc.List(f.ctx, AuditQuery{From: "2024-03-01", To: "2024-03-02"}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, rows, 2)

	// the subject's name matches the actor filter too
	rows, _, err = svc.List(f.ctx, AuditQuery{Actor: "usuario 9000"}, 0, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].SubjectName)
	assert.Equal(t, "Usuario 90000001", *rows[0].SubjectName)

	rows, total, err = svc.List(f.ctx, AuditQuery{Action: "bcg"}, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, rows, 1)

	rows, total, err = svc.List(f.ctx, AuditQuery{Actor: "nadie"}, 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NotNil(t, rows)

	_, _, err = svc.List(f.ctx, AuditQuery{To: "ayer"}, 0, 10)
	assert.ErrorIs(t, err, domain.ErrInvalidDate)
}
