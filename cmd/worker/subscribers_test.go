package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/ghuser/itemregistry/pkg/cache"
	"github.com/ghuser/itemregistry/pkg/logger"
	itemEvents "github.com/ghuser/itemregistry/services/item/domain/events"
)

// recordingCache applies the same rules as cache.ItemCache: an older version
// never replaces a newer one and deleted ids stay deleted.
type recordingCache struct {
	set       map[uuid.UUID]*cache.CachedItem
	deleted   map[uuid.UUID]bool
	setErr    error
	deleteErr error
}

func newRecordingCache() *recordingCache {
	return &recordingCache{
		set:     make(map[uuid.UUID]*cache.CachedItem),
		deleted: make(map[uuid.UUID]bool),
	}
}

func (c *recordingCache) Set(_ context.Context, item *cache.CachedItem) (bool, error) {
	if c.setErr != nil {
		return false, c.setErr
	}
	if c.deleted[item.ID] {
		return false, nil
	}
	if cur, ok := c.set[item.ID]; ok && cur.UpdatedAt.After(item.UpdatedAt) {
		return false, nil
	}
	c.set[item.ID] = item
	return true, nil
}

func (c *recordingCache) MarkDeleted(_ context.Context, id uuid.UUID) error {
	if c.deleteErr != nil {
		return c.deleteErr
	}
	delete(c.set, id)
	c.deleted[id] = true
	return nil
}

func newMsg(t *testing.T, v any) *message.Message {
	t.Helper()
	payload, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return message.NewMessage(watermill.NewUUID(), payload)
}

func TestItemProjector_Created(t *testing.T) {
	rc := newRecordingCache()
	p := &itemProjector{cache: rc, log: logger.Discard()}
	now := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	evt := itemEvents.ItemCreatedEvent{
		EventID:    uuid.New(),
		Version:    1,
		ItemID:     uuid.New(),
		Name:       "Widget",
		Group:      "Primary",
		CreatedAt:  now,
		OccurredAt: now,
	}

	if err := p.handleCreated(context.Background(), newMsg(t, evt)); err != nil {
		t.Fatalf("handleCreated: %v", err)
	}
	got, ok := rc.set[evt.ItemID]
	if !ok {
		t.Fatal("expected cache entry")
	}
	if got.Name != "Widget" || got.Group != "Primary" || !got.CreatedAt.Equal(now) {
		t.Errorf("cached %+v", got)
	}
}

func TestItemProjector_UpdatedOverwrites(t *testing.T) {
	rc := newRecordingCache()
	p := &itemProjector{cache: rc, log: logger.Discard()}
	id := uuid.New()
	created := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	evt := itemEvents.ItemUpdatedEvent{
		EventID:    uuid.New(),
		Version:    1,
		ItemID:     id,
		Name:       "Gadget",
		Group:      "Secondary",
		CreatedAt:  created,
		OccurredAt: created.Add(time.Hour),
	}
	if err := p.handleUpdated(context.Background(), newMsg(t, evt)); err != nil {
		t.Fatalf("handleUpdated: %v", err)
	}
	got := rc.set[id]
	if got == nil || got.Name != "Gadget" || got.Group != "Secondary" {
		t.Fatalf("cached %+v", got)
	}
	if !got.UpdatedAt.Equal(created.Add(time.Hour)) {
		t.Errorf("UpdatedAt = %v", got.UpdatedAt)
	}
}

func TestItemProjector_WarmFailureIsNotRetried(t *testing.T) {
	rc := newRecordingCache()
	rc.setErr = errors.New("redis down")
	p := &itemProjector{cache: rc, log: logger.Discard()}

	evt := itemEvents.ItemCreatedEvent{ItemID: uuid.New(), Name: "W", Group: "Primary"}
	if err := p.handleCreated(context.Background(), newMsg(t, evt)); err != nil {
		t.Fatalf("expected nil error for best-effort warm, got %v", err)
	}
}

func TestItemProjector_Deleted(t *testing.T) {
	rc := newRecordingCache()
	p := &itemProjector{cache: rc, log: logger.Discard()}
	id := uuid.New()

	msg := newMsg(t, itemEvents.ItemDeletedEvent{EventID: uuid.New(), Version: 1, ItemID: id})
	if err := p.handleDeleted(context.Background(), msg); err != nil {
		t.Fatalf("handleDeleted: %v", err)
	}
	if !rc.deleted[id] {
		t.Fatalf("expected %s to be marked deleted", id)
	}

	rc.deleteErr = errors.New("redis down")
	if err := p.handleDeleted(context.Background(), msg); err == nil {
		t.Fatal("expected eviction failure to be returned for retry")
	}
}

func TestItemProjector_OutOfOrderEvents(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	t.Run("created after deleted", func(t *testing.T) {
		rc := newRecordingCache()
		p := &itemProjector{cache: rc, log: logger.Discard()}
		id := uuid.New()

		del := newMsg(t, itemEvents.ItemDeletedEvent{EventID: uuid.New(), Version: 1, ItemID: id})
		if err := p.handleDeleted(ctx, del); err != nil {
			t.Fatalf("handleDeleted: %v", err)
		}
		evt := itemEvents.ItemCreatedEvent{
			EventID: uuid.New(), Version: 1, ItemID: id, Name: "Widget", Group: "Primary",
			CreatedAt: created, OccurredAt: created,
		}
		if err := p.handleCreated(ctx, newMsg(t, evt)); err != nil {
			t.Fatalf("handleCreated: %v", err)
		}
		if got, ok := rc.set[id]; ok {
			t.Fatalf("deleted item was cached again: %+v", got)
		}
	})

	t.Run("created after updated", func(t *testing.T) {
		rc := newRecordingCache()
		p := &itemProjector{cache: rc, log: logger.Discard()}
		id := uuid.New()

		upd := itemEvents.ItemUpdatedEvent{
			EventID: uuid.New(), Version: 1, ItemID: id, Name: "Widget", Group: "Secondary",
			CreatedAt: created, OccurredAt: created.Add(time.Minute),
		}
		if err := p.handleUpdated(ctx, newMsg(t, upd)); err != nil {
			t.Fatalf("handleUpdated: %v", err)
		}
		evt := itemEvents.ItemCreatedEvent{
			EventID: uuid.New(), Version: 1, ItemID: id, Name: "Widget", Group: "Primary",
			CreatedAt: created, OccurredAt: created,
		}
		if err := p.handleCreated(ctx, newMsg(t, evt)); err != nil {
			t.Fatalf("handleCreated: %v", err)
		}
		if got := rc.set[id]; got == nil || got.Group != "Secondary" {
			t.Fatalf("cached %+v, want the updated state", got)
		}
	})
}

func TestItemProjector_BadPayload(t *testing.T) {
	p := &itemProjector{cache: newRecordingCache(), log: logger.Discard()}
	bad := message.NewMessage(watermill.NewUUID(), []byte("{not json"))

	for name, h := range map[string]handlerFunc{
		"created": p.handleCreated,
		"updated": p.handleUpdated,
		"deleted": p.handleDeleted,
	} {
		if err := h(context.Background(), bad); err == nil {
			t.Errorf("%s: expected decode error", name)
		}
	}
}
