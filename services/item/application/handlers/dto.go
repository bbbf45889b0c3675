package handlers

import (
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/itemregistry/services/item/domain/models"
)

// ItemRequest is the request body for POST /items and PUT /items/{id}.
type ItemRequest struct {
	Name  string `json:"name"  validate:"required,max=255"                 example:"Widget"`
	Group string `json:"group" validate:"required,oneof=Primary Secondary" example:"Primary"`
} // @name ItemRequest

// PatchItemRequest is the request body for PATCH /items/{id}. Omitted fields
// keep their stored value.
type PatchItemRequest struct {
	Name  *string `json:"name,omitempty"  validate:"omitempty,min=1,max=255"            example:"Widget"`
	Group *string `json:"group,omitempty" validate:"omitempty,oneof=Primary Secondary" example:"Secondary"`
} // @name PatchItemRequest

// ItemResponse is the wire representation of an Item.
type ItemResponse struct {
	ID        uuid.UUID `json:"id"         example:"123e4567-e89b-12d3-a456-426614174000"`
	Name      string    `json:"name"       example:"Widget"`
	Group     string    `json:"group"      example:"Primary"`
	CreatedAt time.Time `json:"created_at" example:"2024-01-15T10:30:00Z"`
	UpdatedAt time.Time `json:"updated_at" example:"2024-01-15T10:30:00Z"`
} // @name ItemResponse

// ItemListResponse is one page of items. next and previous are null at the ends.
type ItemListResponse struct {
	Count    int            `json:"count"    example:"42"`
	Next     *string        `json:"next"     example:"/api/items?page=3&page_size=10"`
	Previous *string        `json:"previous" example:"/api/items?page=1&page_size=10"`
	Results  []ItemResponse `json:"results"`
} // @name ItemListResponse

// ErrorResponse is returned on all error responses.
type ErrorResponse struct {
	Error string `json:"error" example:"An item named 'Widget' already exists in the 'Primary' group."`
} // @name ErrorResponse

// ValidationErrorResponse is returned when request fields fail validation.
type ValidationErrorResponse struct {
	Error  string            `json:"error"  example:"Validation failed"`
	Fields map[string]string `json:"fields"`
} // @name ValidationErrorResponse

func toItemResponse(item *models.Item) ItemResponse {
	return ItemResponse{
		ID:        item.ID,
		Name:      item.Name.String(),
		Group:     item.Group.String(),
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}
}
