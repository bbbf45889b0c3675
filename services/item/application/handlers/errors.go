package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ghuser/itemregistry/pkg/errhttp"
	"github.com/ghuser/itemregistry/pkg/httpx"
	"github.com/ghuser/itemregistry/pkg/logger"
	"github.com/ghuser/itemregistry/pkg/telemetry"
	itemdomain "github.com/ghuser/itemregistry/services/item/domain"
)

// fail writes err as a JSON error response. Server errors are logged and
// reported to Sentry first because their text never reaches the client.
func fail(w http.ResponseWriter, r *http.Request, log logger.Logger, err error) {
	if errhttp.Status(err) >= http.StatusInternalServerError {
		log.ErrorContext(r.Context(), "item request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
		telemetry.CaptureError(r.Context(), err)
	}
	errhttp.WriteError(w, err)
}

// itemID reads the {id} URL parameter. A malformed id cannot name an existing
// item, so it is answered with 404.
func itemID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.JSONError(w, http.StatusNotFound, itemdomain.ErrItemNotFound.Error())
		return uuid.Nil, false
	}
	return id, true
}
