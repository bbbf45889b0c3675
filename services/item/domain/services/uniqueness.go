package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	itemdomain "github.com/ghuser/itemregistry/services/item/domain"
	"github.com/ghuser/itemregistry/services/item/domain/models"
	"github.com/ghuser/itemregistry/services/item/domain/repositories"
)

// UniquenessValidator is the application-level pre-check for the
// (name, group) invariant. It never writes. The repository's unique
// constraint remains the final authority under concurrent writers.
type UniquenessValidator struct {
	repo repositories.ItemRepository
}

// NewUniquenessValidator returns a validator that queries repo for conflicts.
func NewUniquenessValidator(repo repositories.ItemRepository) *UniquenessValidator {
	return &UniquenessValidator{repo: repo}
}

// CheckUnique returns a *DuplicateItemError when another item already holds
// (name, group). Pass uuid.Nil as excludeID on create; pass the ID of the item
// being modified on update so it does not collide with itself.
// Matching is exact and case-sensitive.
func (v *UniquenessValidator) CheckUnique(ctx context.Context, name models.ItemName, group models.Group, excludeID uuid.UUID) error {
	exists, err := v.repo.ExistsByNameAndGroup(ctx, name, group, excludeID)
	if err != nil {
		return fmt.Errorf("check uniqueness: %w", err)
	}
	if exists {
		return itemdomain.NewDuplicateItemError(name, group)
	}
	return nil
}

// CheckPatch resolves omitted patch fields from current and then runs
// CheckUnique. When the pair cannot be resolved (no current item and a field
// missing) the check is skipped and nil returned; the caller's lookup failure
// is the error to report.
func (v *UniquenessValidator) CheckPatch(ctx context.Context, patch models.ItemPatch, current *models.Item) error {
	name, group, ok := patch.Resolve(current)
	if !ok {
		return nil
	}
	excludeID := uuid.Nil
	if current != nil {
		excludeID = current.ID
	}
	return v.CheckUnique(ctx, name, group, excludeID)
}
