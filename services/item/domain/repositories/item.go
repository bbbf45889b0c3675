package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/ghuser/itemregistry/services/item/domain/models"
)

// QueryOpts contains pagination parameters for list queries.
type QueryOpts struct {
	Limit  int // Maximum number of records to return
	Offset int // Number of records to skip
}

// ItemRepository is the persistence interface for the Item aggregate.
// The domain layer owns this interface; infrastructure implements it.
//
// Implementations enforce a structural unique constraint over (name, group)
// and report violations from Save and Update as a DuplicateItemError
// wrapping domain.ErrConstraintViolation.
type ItemRepository interface {
	Save(ctx context.Context, item *models.Item) error

	// GetByID returns domain.ErrItemNotFound when no item has the given ID.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error)

	// List retrieves a page of items, most recently created first.
	// Returns the items slice and the total count (ignoring pagination).
	List(ctx context.Context, opts QueryOpts) ([]*models.Item, int, error)

	// Update persists name, group and updated_at of an existing Item.
	Update(ctx context.Context, item *models.Item) error

	// Delete removes an item by ID. Returns domain.ErrItemNotFound when nothing was deleted.
	Delete(ctx context.Context, id uuid.UUID) error

	// ExistsByNameAndGroup reports whether another item holds the exact
	// (name, group) pair. excludeID, when not uuid.Nil, is left out of the match.
	ExistsByNameAndGroup(ctx context.Context, name models.ItemName, group models.Group, excludeID uuid.UUID) (bool, error)
}
