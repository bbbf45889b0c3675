package domain

import (
	"errors"
	"fmt"

	"github.com/ghuser/itemregistry/services/item/domain/models"
)

// Sentinel errors for the item domain. Use errors.Is() to check these.
var (
	// ErrItemNotFound indicates the requested item does not exist.
	ErrItemNotFound = errors.New("item not found")

	// ErrItemAlreadyExists indicates an item with the same (name, group) pair already exists.
	// Both the pre-check and the database constraint report it.
	ErrItemAlreadyExists = errors.New("item already exists")

	// ErrConstraintViolation indicates the database rejected a write on the
	// (name, group) unique constraint after the pre-check had passed.
	ErrConstraintViolation = errors.New("unique constraint violated")

	// ErrInvalidItemName indicates the item name violates domain constraints.
	ErrInvalidItemName = errors.New("invalid item name")

	// ErrInvalidGroup indicates the group is not one of the declared groups.
	ErrInvalidGroup = errors.New("invalid item group")
)

// DuplicateItemError reports the (name, group) pair that collided.
// It matches ErrItemAlreadyExists; when raised by the store it also wraps
// ErrConstraintViolation.
type DuplicateItemError struct {
	Name  string
	Group models.Group
	Err   error
}

// NewDuplicateItemError is returned by the uniqueness pre-check.
func NewDuplicateItemError(name models.ItemName, group models.Group) *DuplicateItemError {
	return &DuplicateItemError{Name: name.String(), Group: group}
}

// NewConstraintViolationError is returned by repositories when the unique
// constraint rejects a write.
func NewConstraintViolationError(name models.ItemName, group models.Group) *DuplicateItemError {
	return &DuplicateItemError{Name: name.String(), Group: group, Err: ErrConstraintViolation}
}

func (e *DuplicateItemError) Error() string {
	return fmt.Sprintf("An item named '%s' already exists in the '%s' group.", e.Name, e.Group)
}

// Is makes errors.Is(err, ErrItemAlreadyExists) true for every duplicate.
func (e *DuplicateItemError) Is(target error) bool {
	return target == ErrItemAlreadyExists
}

func (e *DuplicateItemError) Unwrap() error {
	return e.Err
}
