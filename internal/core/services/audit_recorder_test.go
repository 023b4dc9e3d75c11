package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"sistema-vacunacion/internal/adapters/persistence/models"
	"sistema-vacunacion/internal/adapters/persistence/repositories"
	"sistema-vacunacion/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyAuditRepo fails its first writes, then stores entries
type flakyAuditRepo struct {
	repositories.AuditRepository

	failures int32
	attempts atomic.Int32
	release  chan struct{}

	mu      sync.Mutex
	entries []*models.AuditEntry
}

func (r *flakyAuditRepo) Create(_ context.Context, entry *models.AuditEntry) error {
	if r.release != nil {
		<-r.release
	}
	if r.attempts.Add(1) <= r.failures {
		return errors.New("database is down")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *flakyAuditRepo) stored() []*models.AuditEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.AuditEntry(nil), r.entries...)
}

func stopRecorder(t *testing.T, r *AuditRecorder) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, r.Stop(ctx))
}

func TestAuditRecorderWritesEntries(t *testing.T) {
	f := newFixture(t)
	recorder := NewAuditRecorder(f.audit, 16, 1)

	subject := uint(7)
	recorder.Record("Updated vaccine BCG", "Admin", nil)
	recorder.Record("Deactivated user 7", "", &subject)
	stopRecorder(t, recorder)

	rows, total, err := f.audit.List(f.ctx, repositories.AuditFilter{}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	actors := []string{rows[0].Actor, rows[1].Actor}
	assert.ElementsMatch(t, []string{"Admin", domain.SystemActor}, actors)
	assert.Zero(t, recorder.Dropped())
}

func TestAuditRecorderRetriesThenDrops(t *testing.T) {
	repo := &flakyAuditRepo{failures: 2}
	recorder := newAuditRecorder(repo, 4, 2, time.Millisecond)
	recorder.Record("first", "Admin", nil)
	stopRecorder(t, recorder)

	require.Len(t, repo.stored(), 1)
	assert.Equal(t, int32(3), repo.attempts.Load())
	assert.Zero(t, recorder.Dropped())

	failing := &flakyAuditRepo{failures: 100}
	recorder = newAuditRecorder(failing, 4, 1, time.Millisecond)
	recorder.Record("lost", "Admin", nil)
	stopRecorder(t, recorder)

	assert.Empty(t, failing.stored())
	assert.Equal(t, int32(2), failing.attempts.Load())
	assert.Equal(t, int64(1), recorder.Dropped())
}

func TestAuditRecorderNeverBlocks(t *testing.T) {
	repo := &flakyAuditRepo{release: make(chan struct{})}
	recorder := newAuditRecorder(repo, 1, 0, time.Millisecond)

	// the worker holds one entry, the queue holds one more, the rest are dropped
	for i := 0; i < 5; i++ {
		recorder.Record("burst", "Admin", nil)
	}
	assert.GreaterOrEqual(t, recorder.Dropped(), int64(3))

	close(repo.release)
	stopRecorder(t, recorder)
	assert.Equal(t, int64(5), recorder.Dropped()+int64(len(repo.stored())))

	before := recorder.Dropped()
	recorder.Record("after stop", "Admin", nil)
	assert.Equal(t, before+1, recorder.Dropped())
}
