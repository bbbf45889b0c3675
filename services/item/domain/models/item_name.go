package models

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// ItemName is the display name of an Item. Together with Group it identifies
// an item; comparison is exact, so "Widget" and "widget" are different names.
type ItemName string

// MaxItemNameLength is counted in characters, matching VARCHAR(255).
const MaxItemNameLength = 255

// NewItemName checks the structural rules: valid UTF-8, non-empty, and at
// most MaxItemNameLength characters. Content rules live in the domain
// services package.
func NewItemName(s string) (ItemName, error) {
	if s == "" {
		return "", errors.New("item name may not be blank")
	}
	if !utf8.ValidString(s) {
		return "", errors.New("item name must be valid UTF-8")
	}
	if n := utf8.RuneCountInString(s); n > MaxItemNameLength {
		return "", fmt.Errorf("item name must not exceed %d characters (got %d)", MaxItemNameLength, n)
	}
	return ItemName(s), nil
}

func (n ItemName) String() string {
	return string(n)
}
