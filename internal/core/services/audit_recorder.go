package services

import (
	"context"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"sistema-vacunacion/internal/adapters/persistence/models"
	"sistema-vacunacion/internal/adapters/persistence/repositories"
	"sistema-vacunacion/internal/core/domain"
)

// ============================================================
// Audit Recorder - asynchronous bitácora writer
// ============================================================

const (
	defaultAuditBackoff = 200 * time.Millisecond
	auditWriteTimeout   = 5 * time.Second
)

// AuditRecorder queues audit entries and writes them from a single worker.
// Record never blocks: a full queue drops the entry.
type AuditRecorder struct {
	repo       repositories.AuditRepository
	queue      chan *models.AuditEntry
	maxRetries int
	backoff    time.Duration

	mu      sync.RWMutex
	stopped bool
	done    chan struct{}
	dropped atomic.Int64
}

// NewAuditRecorder creates the recorder and starts its worker
func NewAuditRecorder(repo repositories.AuditRepository, bufferSize, maxRetries int) *AuditRecorder {
	return newAuditRecorder(repo, bufferSize, maxRetries, defaultAuditBackoff)
}

func newAuditRecorder(repo repositories.AuditRepository, bufferSize, maxRetries int, backoff time.Duration) *AuditRecorder {
	if bufferSize < 1 {
		bufferSize = 1
	}
	if maxRetries < 0 {
		maxRetries = 0
	}

	r := &AuditRecorder{
		repo:       repo,
		queue:      make(chan *models.AuditEntry, bufferSize),
		maxRetries: maxRetries,
		backoff:    backoff,
		done:       make(chan struct{}),
	}
	go r.run()
	return r
}

// Record queues an entry. An empty actor is recorded as "System".
func (r *AuditRecorder) Record(action, actor string, subjectUserID *uint) {
	entry := &models.AuditEntry{
		Action:        action,
		Actor:         actorOrSystem(actor),
		SubjectUserID: subjectUserID,
		CreatedAt:     time.Now(),
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.stopped {
		r.drop(entry, "recorder stopped")
		return
	}

	select {
	case r.queue <- entry:
	default:
		r.drop(entry, "queue full")
	}
}

// Stop closes the queue and waits for the worker to drain it
func (r *AuditRecorder) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.stopped {
		r.stopped = true
		close(r.queue)
	}
	r.mu.Unlock()

	select {
	case <-r.done:
		log.Println("🛑 Audit recorder drained")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dropped returns how many entries were lost since start
func (r *AuditRecorder) Dropped() int64 {
	return r.dropped.Load()
}

func (r *AuditRecorder) run() {
	defer close(r.done)
	for entry := range r.queue {
		r.write(entry)
	}
}

// write retries with a linear backoff before giving up on an entry
func (r *AuditRecorder) write(entry *models.AuditEntry) {
	var err error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * r.backoff)
		}

		ctx, cancel := context.WithTimeout(context.Background(), auditWriteTimeout)
		err = r.repo.Create(ctx, entry)
		cancel()
		if err == nil {
			return
		}
	}
	r.drop(entry, err.Error())
}

func (r *AuditRecorder) drop(entry *models.AuditEntry, reason string) {
	r.dropped.Add(1)
	auditDroppedTotal.Inc()
	log.Printf("❌ Audit entry dropped (%s): %q by %s", reason, entry.Action, entry.Actor)
}

func actorOrSystem(actor string) string {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return domain.SystemActor
	}
	return actor
}
