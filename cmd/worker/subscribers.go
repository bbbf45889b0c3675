package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/ghuser/itemregistry/pkg/app"
	"github.com/ghuser/itemregistry/pkg/cache"
	"github.com/ghuser/itemregistry/pkg/logger"
	itemEvents "github.com/ghuser/itemregistry/services/item/domain/events"
)

type handlerFunc = func(context.Context, *message.Message) error

// readModel is the part of cache.ItemCache the projections write to.
type readModel interface {
	Set(ctx context.Context, item *cache.CachedItem) (bool, error)
	MarkDeleted(ctx context.Context, id uuid.UUID) error
}

// registerSubscribers wires all domain event handlers.
// Add new topics here as more services publish events.
//
// Each topic has its own subscription, so events for one item can arrive in
// any order across topics. The read model copes: entries are versioned by
// UpdatedAt and deletions are recorded.
func registerSubscribers(ctx context.Context, a *app.Application) error {
	p := &itemProjector{cache: cache.NewItemCache(a.Redis), log: a.Logger}

	handlers := map[string]handlerFunc{
		itemEvents.TopicItemCreated: p.handleCreated,
		itemEvents.TopicItemUpdated: p.handleUpdated,
		itemEvents.TopicItemDeleted: p.handleDeleted,
	}

	topics := make([]string, 0, len(handlers))
	for topic, h := range handlers {
		errCh, err := a.EventBus.Subscribe(ctx, topic, h)
		if err != nil {
			return err
		}

		// Drain subscriber errors in background so the channel never blocks.
		go func() {
			for err := range errCh {
				a.Logger.ErrorContext(ctx, "subscriber error", "topic", topic, "error", err)
			}
		}()
		topics = append(topics, topic)
	}

	a.Logger.Info("event subscribers registered", "topics", topics)
	return nil
}

// itemProjector keeps the Redis item read model in step with item events.
// Handlers must be idempotent: EventBus retries up to 3× on failure.
// OccurredAt of created and updated events is the item's UpdatedAt and is
// used as the cache version.
type itemProjector struct {
	cache readModel
	log   logger.Logger
}

// handleCreated warms the cache so the first GetByID is served from Redis.
// Cache warming is best-effort; a failed write is logged, not retried.
func (p *itemProjector) handleCreated(ctx context.Context, msg *message.Message) error {
	var evt itemEvents.ItemCreatedEvent
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		return fmt.Errorf("decode %s: %w", itemEvents.TopicItemCreated, err)
	}

	p.warm(ctx, itemEvents.TopicItemCreated, &cache.CachedItem{
		ID:        evt.ItemID,
		Name:      evt.Name,
		Group:     evt.Group,
		CreatedAt: evt.CreatedAt,
		UpdatedAt: evt.OccurredAt,
	})
	return nil
}

func (p *itemProjector) handleUpdated(ctx context.Context, msg *message.Message) error {
	var evt itemEvents.ItemUpdatedEvent
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		return fmt.Errorf("decode %s: %w", itemEvents.TopicItemUpdated, err)
	}

	p.warm(ctx, itemEvents.TopicItemUpdated, &cache.CachedItem{
		ID:        evt.ItemID,
		Name:      evt.Name,
		Group:     evt.Group,
		CreatedAt: evt.CreatedAt,
		UpdatedAt: evt.OccurredAt,
	})
	return nil
}

// handleDeleted drops the entry and records the deletion, so a created or
// updated event delivered after it is ignored. Failures are returned so the
// bus retries; a stale entry would keep serving a deleted item.
func (p *itemProjector) handleDeleted(ctx context.Context, msg *message.Message) error {
	var evt itemEvents.ItemDeletedEvent
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		return fmt.Errorf("decode %s: %w", itemEvents.TopicItemDeleted, err)
	}

	if err := p.cache.MarkDeleted(ctx, evt.ItemID); err != nil {
		return fmt.Errorf("evict item %s: %w", evt.ItemID, err)
	}
	p.log.InfoContext(ctx, "cache evicted", "item_id", evt.ItemID)
	return nil
}

func (p *itemProjector) warm(ctx context.Context, topic string, item *cache.CachedItem) {
	stored, err := p.cache.Set(ctx, item)
	if err != nil {
		p.log.WarnContext(ctx, "cache warm failed", "topic", topic, "item_id", item.ID, "error", err)
		return
	}
	if !stored {
		p.log.DebugContext(ctx, "cache warm skipped, newer state cached", "topic", topic, "item_id", item.ID)
		return
	}
	p.log.InfoContext(ctx, "cache warmed", "topic", topic, "item_id", item.ID)
}
