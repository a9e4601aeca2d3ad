package oauthstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	domainauth "github.com/target/kb-ui-api/internal/domain/auth"
	"github.com/target/kb-ui-api/internal/ports"
)

// RedisStore keeps in-flight login state in Redis with native per-key TTL,
// so every instance behind a load balancer sees the same records and no
// sweep goroutine is needed.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisStore creates a Redis-backed state store. A non-positive ttl
// takes the default (10m).
func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisStore{
		client: client,
		prefix: "oauthstate:",
		ttl:    ttl,
		now:    time.Now,
	}
}

var _ ports.StateStore = (*RedisStore)(nil)

// Issue generates a fresh token and stores its record with the TTL applied
// by Redis itself.
func (s *RedisStore) Issue(ctx context.Context, in ports.IssueInput) (string, error) {
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
	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("marshal state record: %w", err)
	}

	if setErr := s.client.Set(ctx, s.prefix+token, data, s.ttl).Err(); setErr != nil {
		return "", fmt.Errorf("store state record: %w", setErr)
	}
	return token, nil
}

// Consume uses GETDEL so lookup and deletion are one atomic server-side
// operation; a token can never validate twice.
func (s *RedisStore) Consume(ctx context.Context, token string) (domainauth.StateRecord, error) {
	if token == "" {
		return domainauth.StateRecord{}, domainauth.ErrStateInvalid
	}

	data, err := s.client.GetDel(ctx, s.prefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domainauth.StateRecord{}, domainauth.ErrStateInvalid
		}
		return domainauth.StateRecord{}, fmt.Errorf("redis getdel: %w", err)
	}

	var rec domainauth.StateRecord
	if unmarshalErr := json.Unmarshal([]byte(data), &rec); unmarshalErr != nil {
		return domainauth.StateRecord{}, fmt.Errorf("unmarshal state record: %w", unmarshalErr)
	}

	// Redis TTL should have expired the key already; be defensive anyway.
	if s.now().Sub(rec.IssuedAt) > s.ttl {
		return domainauth.StateRecord{}, domainauth.ErrStateInvalid
	}
	return rec, nil
}
