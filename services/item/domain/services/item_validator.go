// Package services contains domain services for the item bounded context.
// Field rules are stateless and operate purely on domain types; the
// uniqueness check reads through the domain-owned ItemRepository interface.
package services

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/ghuser/itemregistry/services/item/domain/models"
)

// ValidateName enforces business rules for ItemName beyond the structural
// constraints enforced by the ItemName constructor (1 to 255 characters).
//
// Business rules:
//   - No leading or trailing whitespace
//   - No control characters (Unicode category Cc)
//   - Must not be only whitespace characters
func ValidateName(name models.ItemName) error {
	s := name.String()

	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("item name must not be only whitespace")
	}

	if s != strings.TrimSpace(s) {
		return fmt.Errorf("item name must not have leading or trailing whitespace")
	}

	for _, r := range s {
		if unicode.IsControl(r) {
			return fmt.Errorf("item name must not contain control characters")
		}
	}

	return nil
}

// ValidateGroup rejects anything outside the closed Group set.
func ValidateGroup(group models.Group) error {
	if !group.IsValid() {
		return fmt.Errorf("%q is not a valid choice", group.String())
	}
	return nil
}

// ValidateItem performs cross-field validation on a fully-constructed Item
// before it is persisted, on both the create and the update path.
func ValidateItem(item *models.Item) error {
	if item == nil {
		return fmt.Errorf("item cannot be nil")
	}

	if item.ID == uuid.Nil {
		return fmt.Errorf("id must be set")
	}

	if err := ValidateName(item.Name); err != nil {
		return fmt.Errorf("invalid name: %w", err)
	}

	if err := ValidateGroup(item.Group); err != nil {
		return fmt.Errorf("invalid group: %w", err)
	}

	if item.UpdatedAt.Before(item.CreatedAt) {
		return fmt.Errorf("updated_at must not precede created_at")
	}

	return nil
}
