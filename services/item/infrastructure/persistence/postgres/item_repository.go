package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ghuser/itemregistry/pkg/database"
	"github.com/ghuser/itemregistry/pkg/events"
	itemdomain "github.com/ghuser/itemregistry/services/item/domain"
	domainevents "github.com/ghuser/itemregistry/services/item/domain/events"
	"github.com/ghuser/itemregistry/services/item/domain/models"
	"github.com/ghuser/itemregistry/services/item/domain/repositories"
	"github.com/ghuser/itemregistry/services/item/infrastructure/persistence/postgres/db"
)

const (
	pgUniqueViolation   = "23505"
	nameGroupConstraint = "items_name_group_key"
	eventVersion        = 1
)

// ItemRepository implements repositories.ItemRepository against PostgreSQL.
type ItemRepository struct {
	db  *database.Database
	bus *events.EventBus
}

var _ repositories.ItemRepository = (*ItemRepository)(nil)

// NewItemRepository returns an ItemRepository backed by the given connection pool
// and event bus. When bus is non-nil every write appends its domain event to
// the outbox inside the same transaction.
func NewItemRepository(database *database.Database, bus *events.EventBus) *ItemRepository {
	return &ItemRepository{db: database, bus: bus}
}

// Save persists a new Item and publishes an ItemCreatedEvent within the same transaction.
func (r *ItemRepository) Save(ctx context.Context, item *models.Item) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		q := db.New(tx)
		if err := q.InsertItem(ctx, db.InsertItemParams{
			ID:        item.ID,
			Name:      item.Name.String(),
			ItemGroup: string(item.Group),
			CreatedAt: item.CreatedAt,
			UpdatedAt: item.UpdatedAt,
		}); err != nil {
			if isNameGroupViolation(err) {
				return itemdomain.NewConstraintViolationError(item.Name, item.Group)
			}
			return fmt.Errorf("insert item: %w", err)
		}

		return r.publish(ctx, tx, domainevents.TopicItemCreated, domainevents.ItemCreatedEvent{
			EventID:    uuid.New(),
			Version:    eventVersion,
			ItemID:     item.ID,
			Name:       item.Name.String(),
			Group:      string(item.Group),
			CreatedAt:  item.CreatedAt,
			OccurredAt: item.CreatedAt,
		})
	})
}

// GetByID retrieves an Item by ID. Returns ErrItemNotFound if not found.
func (r *ItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	q := db.New(r.db.DB())
	row, err := q.GetItemByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, itemdomain.ErrItemNotFound
		}
		return nil, fmt.Errorf("query item: %w", err)
	}
	return rowToItem(row), nil
}

// List retrieves a page of items, newest first, and the total count.
func (r *ItemRepository) List(ctx context.Context, opts repositories.QueryOpts) ([]*models.Item, int, error) {
	q := db.New(r.db.DB())

	rows, err := q.ListItems(ctx, db.ListItemsParams{
		Limit:  int32(opts.Limit),  //nolint:gosec // bounded by MaxPageSize
		Offset: int32(opts.Offset), //nolint:gosec
	})
	if err != nil {
		return nil, 0, fmt.Errorf("query items: %w", err)
	}

	total, err := q.CountItems(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("count items: %w", err)
	}

	items := make([]*models.Item, len(rows))
	for i, row := range rows {
		items[i] = rowToItem(row)
	}
	return items, int(total), nil
}

// Update persists name, group and updated_at and publishes an ItemUpdatedEvent.
func (r *ItemRepository) Update(ctx context.Context, item *models.Item) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		q := db.New(tx)
		n, err := q.UpdateItem(ctx, db.UpdateItemParams{
			ID:        item.ID,
			Name:      item.Name.String(),
			ItemGroup: string(item.Group),
			UpdatedAt: item.UpdatedAt,
		})
		if err != nil {
			if isNameGroupViolation(err) {
				return itemdomain.NewConstraintViolationError(item.Name, item.Group)
			}
			return fmt.Errorf("update item: %w", err)
		}
		if n == 0 {
			return itemdomain.ErrItemNotFound
		}

		return r.publish(ctx, tx, domainevents.TopicItemUpdated, domainevents.ItemUpdatedEvent{
			EventID:    uuid.New(),
			Version:    eventVersion,
			ItemID:     item.ID,
			Name:       item.Name.String(),
			Group:      string(item.Group),
			CreatedAt:  item.CreatedAt,
			OccurredAt: item.UpdatedAt,
		})
	})
}

// Delete removes an item by ID and publishes an ItemDeletedEvent.
func (r *ItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		n, err := db.New(tx).DeleteItem(ctx, id)
		if err != nil {
			return fmt.Errorf("delete item: %w", err)
		}
		if n == 0 {
			return itemdomain.ErrItemNotFound
		}

		return r.publish(ctx, tx, domainevents.TopicItemDeleted, domainevents.ItemDeletedEvent{
			EventID:    uuid.New(),
			Version:    eventVersion,
			ItemID:     id,
			OccurredAt: time.Now().UTC(),
		})
	})
}

// ExistsByNameAndGroup reports whether another item holds (name, group).
func (r *ItemRepository) ExistsByNameAndGroup(ctx context.Context, name models.ItemName, group models.Group, excludeID uuid.UUID) (bool, error) {
	exists, err := db.New(r.db.DB()).ItemExistsByNameAndGroup(ctx, db.ItemExistsByNameAndGroupParams{
		Name:      name.String(),
		ItemGroup: string(group),
		ID:        excludeID,
	})
	if err != nil {
		return false, fmt.Errorf("check name and group: %w", err)
	}
	return exists, nil
}

// publish appends event to the outbox on tx. No-op without a bus.
func (r *ItemRepository) publish(ctx context.Context, tx *sql.Tx, topic string, event any) error {
	if r.bus == nil {
		return nil
	}
	msg, err := events.NewEventMessage(ctx, event, eventVersion)
	if err != nil {
		return err
	}
	p, err := r.bus.NewTxPublisher(tx)
	if err != nil {
		return fmt.Errorf("create publisher: %w", err)
	}
	if err := p.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// isNameGroupViolation reports whether err is PostgreSQL rejecting a write on
// the (name, item_group) unique constraint.
func isNameGroupViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		pgErr.Code == pgUniqueViolation &&
		pgErr.ConstraintName == nameGroupConstraint
}

// rowToItem maps a db.ItemItem to a domain models.Item.
func rowToItem(row db.ItemItem) *models.Item {
	return &models.Item{
		ID:        row.ID,
		Name:      models.ItemName(row.Name),
		Group:     models.Group(row.ItemGroup),
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
}
