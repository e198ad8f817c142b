package drafts

import (
	"context"
	"errors"
	"testing"
	"time"

	"eventquote_backend/internal/quotations/service"
	"eventquote_backend/platform/apperr"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	_ service.DraftStore = (*RedisStore)(nil)
	_ service.DraftStore = (*MemoryStore)(nil)
)

func assertNotFound(t *testing.T, err error) {
	t.Helper()
	var domainErr *apperr.Error
	if !errors.As(err, &domainErr) || domainErr.Kind != apperr.KindNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestRedisStoreRoundTripAndExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedisStore(client, time.Hour)
	ctx := context.Background()
	orgID, draftID := uuid.New(), uuid.New()

	if err := store.SaveDraft(ctx, orgID, draftID, []byte(`{"id":"x"}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	payload, err := store.LoadDraft(ctx, orgID, draftID)
	if err != nil || string(payload) != `{"id":"x"}` {
		t.Fatalf("load: %q %v", payload, err)
	}

	_, err = store.LoadDraft(ctx, uuid.New(), draftID)
	assertNotFound(t, err)

	mr.FastForward(2 * time.Hour)
	_, err = store.LoadDraft(ctx, orgID, draftID)
	assertNotFound(t, err)
}

func TestRedisStoreDelete(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedisStore(client, 0)
	ctx := context.Background()
	orgID, draftID := uuid.New(), uuid.New()
	_ = store.SaveDraft(ctx, orgID, draftID, []byte("{}"))

	if ttl := mr.TTL(draftKey(orgID, draftID)); ttl != defaultTTL {
		t.Fatalf("expected default ttl, got %s", ttl)
	}
	if err := store.DeleteDraft(ctx, orgID, draftID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, err := store.LoadDraft(ctx, orgID, draftID)
	assertNotFound(t, err)
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	current := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }

	ctx := context.Background()
	orgID, draftID := uuid.New(), uuid.New()
	_ = store.SaveDraft(ctx, orgID, draftID, []byte("{}"))

	if _, err := store.LoadDraft(ctx, orgID, draftID); err != nil {
		t.Fatalf("load before expiry: %v", err)
	}

	current = current.Add(2 * time.Minute)
	_, err := store.LoadDraft(ctx, orgID, draftID)
	assertNotFound(t, err)
}
