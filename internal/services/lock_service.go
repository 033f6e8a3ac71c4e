package services

import (
	"sync"
	"time"

	"github.com/abridged/discord-bot-template-sub000/internal/constants"
)

// LockService enforces at-most-one-in-flight resolution per job key. Locks
// expire after a fixed TTL so the system self-heals if a process dies while
// holding one. The table is in-memory; deployments spanning multiple
// processes need this backed by a shared TTL-capable store instead.
type LockService interface {
	// TryAcquire takes the lock for jobKey+operation without blocking. It
	// returns false if a live lock already exists.
	TryAcquire(jobKey, operation string) bool
	// Release drops the lock. Releasing an absent or expired lock is a no-op
	// returning false.
	Release(jobKey, operation string) bool
	// IsHeld reports whether a live lock exists, evicting it first if its
	// TTL has elapsed.
	IsHeld(jobKey, operation string) bool
}

type lockService struct {
	mu    sync.Mutex
	locks map[string]time.Time
	ttl   time.Duration
	now   func() time.Time
}

// NewLockService creates a lock service with the given TTL. A non-positive
// TTL falls back to the default.
func NewLockService(ttl time.Duration) LockService {
	return NewLockServiceWithClock(ttl, time.Now)
}

// NewLockServiceWithClock injects the clock, for tests that simulate expiry.
func NewLockServiceWithClock(ttl time.Duration, now func() time.Time) LockService {
	if ttl <= 0 {
		ttl = constants.DefaultLockTTL
	}
	return &lockService{
		locks: make(map[string]time.Time),
		ttl:   ttl,
		now:   now,
	}
}

func lockKey(jobKey, operation string) string {
	return jobKey + ":" + operation
}

func (s *lockService) TryAcquire(jobKey, operation string) bool {
	key := lockKey(jobKey, operation)

	s.mu.Lock()
	defer s.mu.Unlock()

	if acquiredAt, ok := s.locks[key]; ok {
		if s.now().Sub(acquiredAt) < s.ttl {
			return false
		}
		// Expired entries are logically absent and silently replaced.
	}

	s.locks[key] = s.now()
	return true
}

func (s *lockService) Release(jobKey, operation string) bool {
	key := lockKey(jobKey, operation)

	s.mu.Lock()
	defer s.mu.Unlock()

	acquiredAt, ok := s.locks[key]
	if !ok {
		return false
	}
	delete(s.locks, key)
	// An expired entry counts as already absent.
	return s.now().Sub(acquiredAt) < s.ttl
}

func (s *lockService) IsHeld(jobKey, operation string) bool {
	key := lockKey(jobKey, operation)

	s.mu.Lock()
	defer s.mu.Unlock()

	acquiredAt, ok := s.locks[key]
	if !ok {
		return false
	}
	if s.now().Sub(acquiredAt) >= s.ttl {
		delete(s.locks, key)
		return false
	}
	return true
}
