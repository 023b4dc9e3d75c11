package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
)

// ============================================================
// Recovery code stores - in memory or redis
// ============================================================

var ErrCodeNotFound = errors.New("recovery code not found")

// MemoryCodeStore keeps recovery codes in process memory
type MemoryCodeStore struct {
	store map[string]*RecoveryCode // key = email
	mu    sync.RWMutex
}

// NewMemoryCodeStore creates an empty in-memory store
func NewMemoryCodeStore() *MemoryCodeStore {
	return &MemoryCodeStore{store: make(map[string]*RecoveryCode)}
}

func (s *MemoryCodeStore) Save(_ context.Context, code *RecoveryCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *code
	s.store[code.Email] = &stored
	return nil
}

func (s *MemoryCodeStore) Get(_ context.Context, email string) (*RecoveryCode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.store[email]
	if !ok {
		return nil, ErrCodeNotFound
	}
	copied := *entry
	return &copied, nil
}

func (s *MemoryCodeStore) IncrementAttempts(_ context.Context, email string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.store[email]
	if !ok {
		return 0, ErrCodeNotFound
	}
	entry.Attempts++
	return entry.Attempts, nil
}

func (s *MemoryCodeStore) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.store, email)
	return nil
}

// PurgeExpired removes expired codes and returns how many were removed
func (s *MemoryCodeStore) PurgeExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	now := time.Now()
	for key, entry := range s.store {
		if now.After(entry.ExpiresAt) {
			delete(s.store, key)
			removed++
		}
	}
	return removed
}

// RedisCodeStore keeps recovery codes in redis hashes that expire with the code
type RedisCodeStore struct {
	client  *redis.Client
	breaker *gobreaker.CircuitBreaker
}

// NewRedisCodeStore creates a redis backed store guarded by a circuit breaker
func NewRedisCodeStore(client *redis.Client, breaker *gobreaker.CircuitBreaker) *RedisCodeStore {
	return &RedisCodeStore{client: client, breaker: breaker}
}

func recoveryKey(email string) string {
	return "recovery:" + email
}

func (s *RedisCodeStore) Save(ctx context.Context, code *RecoveryCode) error {
	_, err := s.breaker.Execute(func() (interface{}, error) {
		key := recoveryKey(code.Email)
		pipe := s.client.TxPipeline()
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key,
			"code_hash", code.CodeHash,
			"attempts", code.Attempts,
			"expires_at", code.ExpiresAt.Unix(),
		)
		pipe.ExpireAt(ctx, key, code.ExpiresAt)
		_, err := pipe.Exec(ctx)
		return nil, err
	})
	return err
}

func (s *RedisCodeStore) Get(ctx context.Context, email string) (*RecoveryCode, error) {
	result, err := s.breaker.Execute(func() (interface{}, error) {
		return s.client.HGetAll(ctx, recoveryKey(email)).Result()
	})
	if err != nil {
		return nil, err
	}

	fields := result.(map[string]string)
	if len(fields) == 0 {
		return nil, ErrCodeNotFound
	}

	attempts, _ := strconv.Atoi(fields["attempts"])
	expires, err := strconv.ParseInt(fields["expires_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt recovery entry for %s: %w", email, err)
	}

	return &RecoveryCode{
		Email:     email,
		CodeHash:  fields["code_hash"],
		ExpiresAt: time.Unix(expires, 0),
		Attempts:  attempts,
	}, nil
}

func (s *RedisCodeStore) IncrementAttempts(ctx context.Context, email string) (int, error) {
	result, err := s.breaker.Execute(func() (interface{}, error) {
		key := recoveryKey(email)
		exists, err := s.client.Exists(ctx, key).Result()
		if err != nil {
			return int64(0), err
		}
		if exists == 0 {
			// a missing key is not a redis failure
			return int64(-1), nil
		}
		return s.client.HIncrBy(ctx, key, "attempts", 1).Result()
	})
	if err != nil {
		return 0, err
	}
	attempts := result.(int64)
	if attempts < 0 {
		return 0, ErrCodeNotFound
	}
	return int(attempts), nil
}

func (s *RedisCodeStore) Delete(ctx context.Context, email string) error {
	_, err := s.breaker.Execute(func() (interface{}, error) {
		return nil, s.client.Del(ctx, recoveryKey(email)).Err()
	})
	return err
}

// generateRecoveryCode generates a cryptographically secure 6-digit code
func generateRecoveryCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
