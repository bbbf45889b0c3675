package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ghuser/itemregistry/services/item/domain/models"
)

func TestSentinelErrors_Messages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrItemNotFound, "item not found"},
		{ErrItemAlreadyExists, "item already exists"},
		{ErrConstraintViolation, "unique constraint violated"},
		{ErrInvalidItemName, "invalid item name"},
		{ErrInvalidGroup, "invalid item group"},
	}
	for _, tt := range tests {
		if tt.err.Error() != tt.want {
			t.Fatalf("unexpected message: got %q, want %q", tt.err.Error(), tt.want)
		}
	}
}

func TestSentinelErrors_WrappedIdentity(t *testing.T) {
	wrapped := fmt.Errorf("context: %w", ErrItemNotFound)
	if !errors.Is(wrapped, ErrItemNotFound) {
		t.Fatal("errors.Is must match wrapped ErrItemNotFound")
	}

	wrapped2 := fmt.Errorf("%w: %w", ErrInvalidItemName, errors.New("too long"))
	if !errors.Is(wrapped2, ErrInvalidItemName) {
		t.Fatal("errors.Is must match double-wrapped ErrInvalidItemName")
	}
}

func TestDuplicateItemError_Message(t *testing.T) {
	err := NewDuplicateItemError("Widget", models.GroupPrimary)
	want := "An item named 'Widget' already exists in the 'Primary' group."
	if err.Error() != want {
		t.Fatalf("got %q, want %q", err.Error(), want)
	}
}

func TestDuplicateItemError_PreCheckIdentity(t *testing.T) {
	err := fmt.Errorf("create item: %w", NewDuplicateItemError("Widget", models.GroupPrimary))

	if !errors.Is(err, ErrItemAlreadyExists) {
		t.Fatal("pre-check duplicate must match ErrItemAlreadyExists")
	}
	if errors.Is(err, ErrConstraintViolation) {
		t.Fatal("pre-check duplicate must not match ErrConstraintViolation")
	}

	var dup *DuplicateItemError
	if !errors.As(err, &dup) {
		t.Fatal("errors.As must extract *DuplicateItemError")
	}
	if dup.Name != "Widget" || dup.Group != models.GroupPrimary {
		t.Fatalf("unexpected pair: (%q, %q)", dup.Name, dup.Group)
	}
}

func TestDuplicateItemError_ConstraintIdentity(t *testing.T) {
	err := fmt.Errorf("save item: %w", NewConstraintViolationError("Widget", models.GroupSecondary))

	if !errors.Is(err, ErrItemAlreadyExists) {
		t.Fatal("constraint violation must match ErrItemAlreadyExists")
	}
	if !errors.Is(err, ErrConstraintViolation) {
		t.Fatal("constraint violation must match ErrConstraintViolation")
	}
	want := "An item named 'Widget' already exists in the 'Secondary' group."
	var dup *DuplicateItemError
	if !errors.As(err, &dup) || dup.Error() != want {
		t.Fatalf("expected duplicate-style message %q, got %v", want, err)
	}
}
