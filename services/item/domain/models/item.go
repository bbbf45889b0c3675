package models

import (
	"time"

	"github.com/google/uuid"
)

// Item is the core aggregate for this bounded context.
// (Name, Group) is unique across all persisted items.
type Item struct {
	ID        uuid.UUID
	Name      ItemName
	Group     Group
	CreatedAt time.Time
	UpdatedAt time.Time
}

// now is truncated to the microsecond precision of TIMESTAMPTZ, so the value
// returned from a write matches what a later read returns.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// NewItem constructs a valid Item aggregate with generated ID and current timestamps.
func NewItem(name ItemName, group Group) (*Item, error) {
	now := now()
	return &Item{
		ID:        uuid.New(),
		Name:      name,
		Group:     group,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Apply sets name and group and advances UpdatedAt. CreatedAt and ID never
// change. UpdatedAt strictly increases on every Apply, even within one
// microsecond, because cached copies are ordered by it.
func (i *Item) Apply(name ItemName, group Group) {
	i.Name = name
	i.Group = group
	next := now()
	if !next.After(i.UpdatedAt) {
		next = i.UpdatedAt.Add(time.Microsecond)
	}
	i.UpdatedAt = next
}

// ItemPatch carries the fields supplied by a partial update.
// A nil field means "keep the current value".
type ItemPatch struct {
	Name  *ItemName
	Group *Group
}

// Resolve returns the (name, group) pair the item would have after the patch.
// Omitted fields fall back to current. ok is false when a field is omitted
// and there is no current item to take it from.
func (p ItemPatch) Resolve(current *Item) (name ItemName, group Group, ok bool) {
	switch {
	case p.Name != nil:
		name = *p.Name
	case current != nil:
		name = current.Name
	default:
		return "", "", false
	}

	switch {
	case p.Group != nil:
		group = *p.Group
	case current != nil:
		group = current.Group
	default:
		return "", "", false
	}

	return name, group, true
}
