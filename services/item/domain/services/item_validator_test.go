package services

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/itemregistry/services/item/domain/models"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   models.ItemName
		wantErr bool
	}{
		{"valid name", "Valid Item Name", false},
		{"valid name with special chars", "Item-Name_123!@#", false},
		{"valid single space between words", "item name", false},
		{"valid unicode", "Ménage à trois", false},
		{"leading whitespace", " Name", true},
		{"trailing whitespace", "Name ", true},
		{"leading and trailing whitespace", " Name ", true},
		{"only whitespace", "   ", true},
		{"tab character (control)", "Name\tName", true},
		{"newline character (control)", "Name\nName", true},
		{"null byte (control)", "Name\x00", true},
		{"DEL character", "Name\x7F", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateName(%q) error = %v, wantErr = %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateGroup(t *testing.T) {
	if err := ValidateGroup(models.GroupPrimary); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateGroup(models.GroupSecondary); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateGroup("Tertiary"); err == nil {
		t.Fatal("expected error for unknown group")
	}
	if err := ValidateGroup(""); err == nil {
		t.Fatal("expected error for empty group")
	}
}

func TestValidateItem(t *testing.T) {
	now := time.Now().UTC()
	makeItem := func(id uuid.UUID, name models.ItemName, group models.Group) *models.Item {
		return &models.Item{ID: id, Name: name, Group: group, CreatedAt: now, UpdatedAt: now}
	}

	t.Run("nil item returns error", func(t *testing.T) {
		if err := ValidateItem(nil); err == nil {
			t.Fatal("expected error for nil item")
		}
	})

	t.Run("valid item returns nil", func(t *testing.T) {
		item := makeItem(uuid.New(), "Valid Item", models.GroupPrimary)
		if err := ValidateItem(item); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("zero ID returns error", func(t *testing.T) {
		item := makeItem(uuid.Nil, "Valid Item", models.GroupPrimary)
		if err := ValidateItem(item); err == nil {
			t.Fatal("expected error for zero ID")
		}
	})

	t.Run("invalid name propagates error", func(t *testing.T) {
		item := makeItem(uuid.New(), " leading space", models.GroupPrimary)
		if err := ValidateItem(item); err == nil {
			t.Fatal("expected error for invalid name")
		}
	})

	t.Run("invalid group propagates error", func(t *testing.T) {
		item := makeItem(uuid.New(), "Valid Item", "primary")
		if err := ValidateItem(item); err == nil {
			t.Fatal("expected error for lowercase group")
		}
	})

	t.Run("updated_at before created_at returns error", func(t *testing.T) {
		item := makeItem(uuid.New(), "Valid Item", models.GroupPrimary)
		item.UpdatedAt = item.CreatedAt.Add(-time.Second)
		if err := ValidateItem(item); err == nil {
			t.Fatal("expected error for inverted timestamps")
		}
	})
}
