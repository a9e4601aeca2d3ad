package oauthstate

import (
	"context"
	"fmt"
	"sync"
	"time"

	domainauth "github.com/target/kb-ui-api/internal/domain/auth"
	"github.com/target/kb-ui-api/internal/ports"
)

const (
	defaultTTL           = 10 * time.Minute
	defaultSweepInterval = time.Minute
)

// MemoryStore is an in-process state store. It is constructed once at
// startup and injected into the auth service; Start launches the expiry
// sweep and Stop tears it down.
//
// Being unreplicated, it does not survive horizontal scale-out behind a
// load balancer and a restart invalidates all in-flight logins (the user
// simply retries). Multi-instance deployments should use RedisStore, which
// gets per-key expiry from the shared store.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]domainauth.StateRecord

	ttl           time.Duration
	sweepInterval time.Duration
	now           func() time.Time

	stopOnce sync.Once
	done     chan struct{}
}

// MemoryStoreOptions configures a MemoryStore. Zero values take defaults
// (10m TTL, 1m sweep, wall clock).
type MemoryStoreOptions struct {
	TTL           time.Duration
	SweepInterval time.Duration
	Now           func() time.Time // test hook
}

// NewMemoryStore creates a MemoryStore. Call Start to begin sweeping.
func NewMemoryStore(opts MemoryStoreOptions) *MemoryStore {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	sweep := opts.SweepInterval
	if sweep <= 0 {
		sweep = defaultSweepInterval
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		records:       make(map[string]domainauth.StateRecord),
		ttl:           ttl,
		sweepInterval: sweep,
		now:           now,
		done:          make(chan struct{}),
	}
}

var _ ports.StateStore = (*MemoryStore)(nil)

// Issue generates a fresh unguessable token and records it.
func (s *MemoryStore) Issue(_ context.Context, in ports.IssueInput) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", fmt.Errorf("generate state token: %w", err)
	}

	rec := domainauth.StateRecord{
		Token:           token,
		IssuedAt:        s.now(),
		OriginSessionID: in.OriginSessionID,
		RedirectTarget:  in.RedirectTarget,
	}

	s.mu.Lock()
	s.records[token] = rec
	s.mu.Unlock()

	return token, nil
}

// Consume looks up and deletes the record in one step under the lock, so a
// token can never validate twice even across concurrent callbacks. Expired
// records are rejected here as well, independent of the sweep.
func (s *MemoryStore) Consume(_ context.Context, token string) (domainauth.StateRecord, error) {
	if token == "" {
		return domainauth.StateRecord{}, domainauth.ErrStateInvalid
	}

	s.mu.Lock()
	rec, ok := s.records[token]
	delete(s.records, token)
	s.mu.Unlock()

	if !ok {
		return domainauth.StateRecord{}, domainauth.ErrStateInvalid
	}
	if s.now().Sub(rec.IssuedAt) > s.ttl {
		return domainauth.StateRecord{}, domainauth.ErrStateInvalid
	}
	return rec, nil
}

// Start launches the background sweep that removes records whose age
// exceeds the TTL.
func (s *MemoryStore) Start() {
	go func() {
		ticker := time.NewTicker(s.sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-s.done:
				return
			}
		}
	}()
}

// Stop terminates the background sweep. Safe to call more than once.
func (s *MemoryStore) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

// Len reports the number of live records. Intended for tests.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func (s *MemoryStore) sweep() {
	cutoff := s.now().Add(-s.ttl)
	s.mu.Lock()
	for token, rec := range s.records {
		if rec.IssuedAt.Before(cutoff) {
			delete(s.records, token)
		}
	}
	s.mu.Unlock()
}
