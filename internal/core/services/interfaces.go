package services

import (
	"context"
	"time"
)

// Note: AuditRecorder implementation is in audit_recorder.go
// Note: recovery code stores are in recovery_store.go

// Auditor records audit entries. Implementations must never fail the caller.
type Auditor interface {
	Record(action, actor string, subjectUserID *uint)
}

// Mailer delivers plain-text mail
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// RecoveryCode is a pending password-recovery code. Only the hash of the code is kept.
type RecoveryCode struct {
	Email     string
	CodeHash  string
	ExpiresAt time.Time
	Attempts  int
}

// CodeStore keeps password-recovery codes keyed by email
type CodeStore interface {
	Save(ctx context.Context, code *RecoveryCode) error
	Get(ctx context.Context, email string) (*RecoveryCode, error)
	IncrementAttempts(ctx context.Context, email string) (int, error)
	Delete(ctx context.Context, email string) error
}
