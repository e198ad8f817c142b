// Package drafts keeps in-progress quotation drafts outside the relational
// store. Drafts expire after a configured idle time.
package drafts

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"eventquote_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "quotation:draft:"
	defaultTTL = 24 * time.Hour

	msgDraftNotFound = "draft not found"
)

// RedisStore keeps drafts in Redis. Every save refreshes the expiry.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed draft store.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func draftKey(orgID, draftID uuid.UUID) string {
	return keyPrefix + orgID.String() + ":" + draftID.String()
}

func (s *RedisStore) SaveDraft(ctx context.Context, orgID, draftID uuid.UUID, payload []byte) error {
	if err := s.client.Set(ctx, draftKey(orgID, draftID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set draft: %w", err)
	}
	return nil
}

func (s *RedisStore) LoadDraft(ctx context.Context, orgID, draftID uuid.UUID) ([]byte, error) {
	payload, err := s.client.Get(ctx, draftKey(orgID, draftID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperr.NotFound(msgDraftNotFound)
		}
		return nil, fmt.Errorf("redis get draft: %w", err)
	}
	return payload, nil
}

func (s *RedisStore) DeleteDraft(ctx context.Context, orgID, draftID uuid.UUID) error {
	if err := s.client.Del(ctx, draftKey(orgID, draftID)).Err(); err != nil {
		return fmt.Errorf("redis delete draft: %w", err)
	}
	return nil
}

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

// MemoryStore keeps drafts in process memory. Used when Redis is disabled.
type MemoryStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items map[string]memoryEntry
}

// NewMemoryStore creates an in-process draft store.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &MemoryStore{ttl: ttl, now: time.Now, items: make(map[string]memoryEntry)}
}

func (s *MemoryStore) SaveDraft(_ context.Context, orgID, draftID uuid.UUID, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictExpiredLocked()
	cp := append([]byte(nil), payload...)
	s.items[draftKey(orgID, draftID)] = memoryEntry{payload: cp, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) LoadDraft(_ context.Context, orgID, draftID uuid.UUID) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := draftKey(orgID, draftID)
	entry, ok := s.items[key]
	if !ok || !s.now().Before(entry.expiresAt) {
		delete(s.items, key)
		return nil, apperr.NotFound(msgDraftNotFound)
	}
	return append([]byte(nil), entry.payload...), nil
}

func (s *MemoryStore) DeleteDraft(_ context.Context, orgID, draftID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, draftKey(orgID, draftID))
	return nil
}

func (s *MemoryStore) evictExpiredLocked() {
	now := s.now()
	for key, entry := range s.items {
		if !now.Before(entry.expiresAt) {
			delete(s.items, key)
		}
	}
}
