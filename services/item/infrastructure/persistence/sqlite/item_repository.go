// Package sqlite implements the item store on an embedded SQLite database.
// It backs local development, the itemctl CLI, and store-level tests. The
// (name, item_group) unique constraint lives in the schema, as in PostgreSQL.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/itemregistry/pkg/database"
	itemdomain "github.com/ghuser/itemregistry/services/item/domain"
	"github.com/ghuser/itemregistry/services/item/domain/models"
	"github.com/ghuser/itemregistry/services/item/domain/repositories"
)

// Fixed-width UTC layout so text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const itemColumns = `id, name, item_group, created_at, updated_at`

// ItemRepository implements repositories.ItemRepository against SQLite.
type ItemRepository struct {
	db *database.Database
}

var _ repositories.ItemRepository = (*ItemRepository)(nil)

// NewItemRepository returns an ItemRepository on an already-migrated database.
func NewItemRepository(db *database.Database) *ItemRepository {
	return &ItemRepository{db: db}
}

func (r *ItemRepository) Save(ctx context.Context, item *models.Item) error {
	_, err := r.db.DB().ExecContext(ctx,
		`INSERT INTO items (`+itemColumns+`) VALUES (?, ?, ?, ?, ?)`,
		item.ID.String(), item.Name.String(), string(item.Group),
		formatTime(item.CreatedAt), formatTime(item.UpdatedAt),
	)
	if err != nil {
		if isNameGroupViolation(err) {
			return itemdomain.NewConstraintViolationError(item.Name, item.Group)
		}
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

func (r *ItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	row := r.db.DB().QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, id.String())
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, itemdomain.ErrItemNotFound
		}
		return nil, fmt.Errorf("query item: %w", err)
	}
	return item, nil
}

func (r *ItemRepository) List(ctx context.Context, opts repositories.QueryOpts) ([]*models.Item, int, error) {
	var total int
	if err := r.db.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count items: %w", err)
	}

	rows, err := r.db.DB().QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		opts.Limit, opts.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	items := make([]*models.Item, 0, opts.Limit)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate items: %w", err)
	}
	return items, total, nil
}

func (r *ItemRepository) Update(ctx context.Context, item *models.Item) error {
	res, err := r.db.DB().ExecContext(ctx,
		`UPDATE items SET name = ?, item_group = ?, updated_at = ? WHERE id = ?`,
		item.Name.String(), string(item.Group), formatTime(item.UpdatedAt), item.ID.String(),
	)
	if err != nil {
		if isNameGroupViolation(err) {
			return itemdomain.NewConstraintViolationError(item.Name, item.Group)
		}
		return fmt.Errorf("update item: %w", err)
	}
	return requireAffected(res)
}

func (r *ItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.DB().ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return requireAffected(res)
}

func (r *ItemRepository) ExistsByNameAndGroup(ctx context.Context, name models.ItemName, group models.Group, excludeID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.DB().QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM items WHERE name = ? AND item_group = ? AND id <> ?)`,
		name.String(), string(group), excludeID.String(),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check name and group: %w", err)
	}
	return exists, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return itemdomain.ErrItemNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(s rowScanner) (*models.Item, error) {
	var (
		id, name, group      string
		createdAt, updatedAt string
	)
	if err := s.Scan(&id, &name, &group, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	parsedID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse id: %w", err)
	}
	created, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	updated, err := time.Parse(timeLayout, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return &models.Item{
		ID:        parsedID,
		Name:      models.ItemName(name),
		Group:     models.Group(group),
		CreatedAt: created,
		UpdatedAt: updated,
	}, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// isNameGroupViolation matches SQLite's
// "UNIQUE constraint failed: items.name, items.item_group" message.
func isNameGroupViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") &&
		strings.Contains(msg, "items.name") &&
		strings.Contains(msg, "items.item_group")
}
