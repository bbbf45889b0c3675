package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	pkgcache "github.com/ghuser/itemregistry/pkg/cache"
	"github.com/ghuser/itemregistry/pkg/logger"
	itemdomain "github.com/ghuser/itemregistry/services/item/domain"
	"github.com/ghuser/itemregistry/services/item/domain/models"
	"github.com/ghuser/itemregistry/services/item/domain/repositories"
	domainsvcs "github.com/ghuser/itemregistry/services/item/domain/services"
)

const instrumentationName = "github.com/ghuser/itemregistry/services/item"

// Default pagination bounds, overridden by WithPageSizes.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// itemReadModel is the subset of pkgcache.ItemCache the service uses.
type itemReadModel interface {
	Get(ctx context.Context, id uuid.UUID) (*pkgcache.CachedItem, error)
	Set(ctx context.Context, item *pkgcache.CachedItem) (bool, error)
	MarkDeleted(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ItemPatchInput carries raw client values for a partial update.
// A nil field is left unchanged.
type ItemPatchInput struct {
	Name  *string
	Group *string
}

// ItemPage is one page of List results.
type ItemPage struct {
	Items    []*models.Item
	Count    int // total items across all pages
	Page     int
	PageSize int
}

// HasNext reports whether a page follows this one.
func (p *ItemPage) HasNext() bool { return p.Page*p.PageSize < p.Count }

// HasPrevious reports whether a page precedes this one.
func (p *ItemPage) HasPrevious() bool { return p.Page > 1 }

// ItemService orchestrates Item writes and reads.
//
// Every write runs: load current record (updates) → parse fields → resolve
// patch → uniqueness pre-check → persist. The store's unique constraint stays
// the final authority; a write it rejects surfaces as a DuplicateItemError.
// Event publishing is handled by the repository layer (outbox pattern).
type ItemService struct {
	repo            repositories.ItemRepository
	unique          *domainsvcs.UniquenessValidator
	cache           itemReadModel
	log             logger.Logger
	tracer          trace.Tracer
	duplicates      metric.Int64Counter
	defaultPageSize int
	maxPageSize     int
}

// Option configures an ItemService.
type Option func(*ItemService)

// WithPageSizes overrides the default and maximum List page sizes.
func WithPageSizes(def, maxSize int) Option {
	return func(s *ItemService) {
		if def > 0 {
			s.defaultPageSize = def
		}
		if maxSize >= s.defaultPageSize {
			s.maxPageSize = maxSize
		}
	}
}

// NewItemService returns an ItemService wired with the given repository and
// cache. itemCache may be nil to disable read-through caching.
func NewItemService(repo repositories.ItemRepository, itemCache *pkgcache.ItemCache, log logger.Logger, opts ...Option) *ItemService {
	s := &ItemService{
		repo:            repo,
		unique:          domainsvcs.NewUniquenessValidator(repo),
		log:             log,
		tracer:          otel.Tracer(instrumentationName),
		defaultPageSize: DefaultPageSize,
		maxPageSize:     MaxPageSize,
	}
	if itemCache != nil {
		s.cache = itemCache
	}

	counter, err := otel.Meter(instrumentationName).Int64Counter(
		"items.duplicate_rejections",
		metric.WithDescription("Writes rejected because the (name, group) pair was taken"),
	)
	if err != nil {
		otel.Handle(err)
		counter, _ = noop.NewMeterProvider().Meter(instrumentationName).Int64Counter("items.duplicate_rejections")
	}
	s.duplicates = counter

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates and persists a new Item. The repository publishes ItemCreatedEvent.
func (s *ItemService) Create(ctx context.Context, name, group string) (item *models.Item, err error) {
	ctx, span := s.tracer.Start(ctx, "ItemService.Create")
	defer func() { endSpan(span, err) }()

	itemName, err := parseName(name)
	if err != nil {
		return nil, err
	}
	itemGroup, err := parseGroup(group)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("item.group", itemGroup.String()))

	item, err = models.NewItem(itemName, itemGroup)
	if err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	if err := domainsvcs.ValidateItem(item); err != nil {
		return nil, fmt.Errorf("validate item: %w", err)
	}

	if err := s.unique.CheckUnique(ctx, itemName, itemGroup, uuid.Nil); err != nil {
		s.countDuplicate(ctx, err)
		return nil, err
	}

	if err := s.repo.Save(ctx, item); err != nil {
		s.countDuplicate(ctx, err)
		return nil, fmt.Errorf("save item: %w", err)
	}

	span.SetAttributes(attribute.String("item.id", item.ID.String()))
	return item, nil
}

// GetByID retrieves an Item using a read-through cache:
//  1. Check Redis first.
//  2. On miss (or cache error), query the store.
//  3. Asynchronously warm the cache with the store result.
//
// The warm may land after a later update or delete of the same item; the
// cache rejects it then because its version is older or the item is marked
// deleted.
func (s *ItemService) GetByID(ctx context.Context, id uuid.UUID) (item *models.Item, err error) {
	ctx, span := s.tracer.Start(ctx, "ItemService.GetByID",
		trace.WithAttributes(attribute.String("item.id", id.String())))
	defer func() { endSpan(span, err) }()

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, id)
		switch {
		case err == nil:
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return fromCached(cached), nil
		case !errors.Is(err, pkgcache.ErrCacheMiss):
			s.log.WarnContext(ctx, "item cache read failed, falling back to store",
				"item_id", id, "error", err)
		}
	}

	item, err = s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}

	if s.cache != nil {
		warm := toCached(item)
		go func() {
			if _, err := s.cache.Set(context.WithoutCancel(ctx), warm); err != nil {
				s.log.WarnContext(ctx, "item cache warm failed", "item_id", warm.ID, "error", err)
			}
		}()
	}

	return item, nil
}

// List returns one page of items, most recently created first, plus the total
// count. page is 1-based; page < 1 is treated as 1. pageSize <= 0 selects the
// default and values above the maximum are clamped. A page past the end
// returns no items and the true count.
func (s *ItemService) List(ctx context.Context, page, pageSize int) (result *ItemPage, err error) {
	ctx, span := s.tracer.Start(ctx, "ItemService.List")
	defer func() { endSpan(span, err) }()

	page, pageSize = s.normalizePage(page, pageSize)
	span.SetAttributes(attribute.Int("page", page), attribute.Int("page_size", pageSize))

	items, total, err := s.repo.List(ctx, repositories.QueryOpts{
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return &ItemPage{Items: items, Count: total, Page: page, PageSize: pageSize}, nil
}

// Update replaces name and group. It is a Patch with both fields supplied.
func (s *ItemService) Update(ctx context.Context, id uuid.UUID, name, group string) (*models.Item, error) {
	return s.Patch(ctx, id, ItemPatchInput{Name: &name, Group: &group})
}

// Patch applies the supplied fields. A missing item is reported before any
// invalid field. Omitted fields keep their stored value, and the uniqueness
// pre-check runs on the resolved (name, group) pair.
func (s *ItemService) Patch(ctx context.Context, id uuid.UUID, in ItemPatchInput) (item *models.Item, err error) {
	ctx, span := s.tracer.Start(ctx, "ItemService.Patch",
		trace.WithAttributes(attribute.String("item.id", id.String())))
	defer func() { endSpan(span, err) }()

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}

	var patch models.ItemPatch
	if in.Name != nil {
		n, err := parseName(*in.Name)
		if err != nil {
			return nil, err
		}
		patch.Name = &n
	}
	if in.Group != nil {
		g, err := parseGroup(*in.Group)
		if err != nil {
			return nil, err
		}
		patch.Group = &g
	}

	if err := s.unique.CheckPatch(ctx, patch, current); err != nil {
		s.countDuplicate(ctx, err)
		return nil, err
	}

	name, group, _ := patch.Resolve(current)
	current.Apply(name, group)
	if err := domainsvcs.ValidateItem(current); err != nil {
		return nil, fmt.Errorf("validate item: %w", err)
	}

	if err := s.repo.Update(ctx, current); err != nil {
		s.countDuplicate(ctx, err)
		return nil, fmt.Errorf("update item: %w", err)
	}

	s.refresh(ctx, current)
	return current, nil
}

// Delete removes an item. Returns ErrItemNotFound if no matching item exists.
func (s *ItemService) Delete(ctx context.Context, id uuid.UUID) (err error) {
	ctx, span := s.tracer.Start(ctx, "ItemService.Delete",
		trace.WithAttributes(attribute.String("item.id", id.String())))
	defer func() { endSpan(span, err) }()

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	s.forget(ctx, id)
	return nil
}

func (s *ItemService) normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = s.defaultPageSize
	}
	if pageSize > s.maxPageSize {
		pageSize = s.maxPageSize
	}
	return page, pageSize
}

// refresh writes the updated item through to the cache. If that fails the
// entry is dropped so the next read goes to the store.
func (s *ItemService) refresh(ctx context.Context, item *models.Item) {
	if s.cache == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	if _, err := s.cache.Set(ctx, toCached(item)); err != nil {
		s.log.WarnContext(ctx, "item cache refresh failed", "item_id", item.ID, "error", err)
		if err := s.cache.Delete(ctx, item.ID); err != nil {
			s.log.WarnContext(ctx, "item cache evict failed", "item_id", item.ID, "error", err)
		}
	}
}

// forget marks a deleted item in the cache so in-flight warms cannot bring it back.
func (s *ItemService) forget(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	if err := s.cache.MarkDeleted(ctx, id); err != nil {
		s.log.WarnContext(ctx, "item cache mark deleted failed", "item_id", id, "error", err)
		if err := s.cache.Delete(ctx, id); err != nil {
			s.log.WarnContext(ctx, "item cache evict failed", "item_id", id, "error", err)
		}
	}
}

func (s *ItemService) countDuplicate(ctx context.Context, err error) {
	if !errors.Is(err, itemdomain.ErrItemAlreadyExists) {
		return
	}
	layer := "precheck"
	if errors.Is(err, itemdomain.ErrConstraintViolation) {
		layer = "constraint"
		s.log.InfoContext(ctx, "unique constraint rejected write after pre-check passed", "error", err)
	}
	s.duplicates.Add(ctx, 1, metric.WithAttributes(attribute.String("layer", layer)))
}

// parseName trims surrounding whitespace before validating, so " Widget "
// is stored as, and collides with, "Widget".
func parseName(raw string) (models.ItemName, error) {
	name, err := models.NewItemName(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %w", itemdomain.ErrInvalidItemName, err)
	}
	if err := domainsvcs.ValidateName(name); err != nil {
		return "", fmt.Errorf("%w: %w", itemdomain.ErrInvalidItemName, err)
	}
	return name, nil
}

func parseGroup(raw string) (models.Group, error) {
	group, err := models.ParseGroup(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %w", itemdomain.ErrInvalidGroup, err)
	}
	return group, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func toCached(item *models.Item) *pkgcache.CachedItem {
	return &pkgcache.CachedItem{
		ID:        item.ID,
		Name:      item.Name.String(),
		Group:     item.Group.String(),
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}
}

func fromCached(c *pkgcache.CachedItem) *models.Item {
	return &models.Item{
		ID:        c.ID,
		Name:      models.ItemName(c.Name),
		Group:     models.Group(c.Group),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
