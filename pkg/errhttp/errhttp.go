// Package errhttp maps domain sentinel errors to HTTP status codes.
// Add a case to Status for each new domain sentinel error.
package errhttp

import (
	"errors"
	"net/http"

	"github.com/ghuser/itemregistry/pkg/httpx"
	itemdomain "github.com/ghuser/itemregistry/services/item/domain"
)

// WriteError maps err to an HTTP status code and writes a JSON error response.
//
//   - duplicates carry the user-facing DuplicateItemError message
//   - domain validation failures use the field-error shape of request validation
//   - 5xx responses never include err's text
func WriteError(w http.ResponseWriter, err error) {
	status := Status(err)

	if field, ok := invalidField(err); ok {
		httpx.ValidationFailed(w, map[string]string{field: err.Error()})
		return
	}

	msg := httpx.SafeError(err, status)
	var dup *itemdomain.DuplicateItemError
	switch {
	case errors.As(err, &dup):
		msg = dup.Error()
	case errors.Is(err, itemdomain.ErrItemNotFound):
		msg = itemdomain.ErrItemNotFound.Error()
	}
	httpx.JSONError(w, status, msg)
}

// Status returns the HTTP status for err. Uses errors.Is() so wrapped
// sentinel errors are matched correctly. Defaults to 500.
func Status(err error) int {
	switch {
	case errors.Is(err, itemdomain.ErrItemNotFound):
		return http.StatusNotFound // 404
	case errors.Is(err, itemdomain.ErrItemAlreadyExists):
		return http.StatusConflict // 409
	case errors.Is(err, itemdomain.ErrInvalidItemName), errors.Is(err, itemdomain.ErrInvalidGroup):
		return http.StatusUnprocessableEntity // 422
	default:
		return http.StatusInternalServerError // 500
	}
}

func invalidField(err error) (string, bool) {
	switch {
	case errors.Is(err, itemdomain.ErrInvalidItemName):
		return "name", true
	case errors.Is(err, itemdomain.ErrInvalidGroup):
		return "group", true
	default:
		return "", false
	}
}
