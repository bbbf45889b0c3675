package handlers

import (
	"net/http"

	"github.com/ghuser/itemregistry/pkg/httpx"
	"github.com/ghuser/itemregistry/pkg/logger"
	appsvcs "github.com/ghuser/itemregistry/services/item/application/services"
)

// DeleteItemHandler handles DELETE /items/{id} requests.
type DeleteItemHandler struct {
	svc *appsvcs.Services
	log logger.Logger
}

func NewDeleteItemHandler(svc *appsvcs.Services, log logger.Logger) *DeleteItemHandler {
	return &DeleteItemHandler{svc: svc, log: log}
}

// Execute permanently removes an item. Its (name, group) pair becomes free.
//
//	@Summary	Delete item
//	@Tags		items
//	@Param		id	path	string	true	"Item ID"	format(uuid)
//	@Success	204
//	@Failure	404	{object}	ErrorResponse
//	@Router		/items/{id} [delete]
func (h *DeleteItemHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Item.Delete(r.Context(), id); err != nil {
		fail(w, r, h.log, err)
		return
	}

	h.log.InfoContext(r.Context(), "item deleted", "item_id", id)
	httpx.NoContent(w)
}
