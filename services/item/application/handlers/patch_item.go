package handlers

import (
	"net/http"

	"github.com/ghuser/itemregistry/pkg/httpx"
	"github.com/ghuser/itemregistry/pkg/logger"
	pkgvalidator "github.com/ghuser/itemregistry/pkg/validator"
	appsvcs "github.com/ghuser/itemregistry/services/item/application/services"
)

// PatchItemHandler handles PATCH /items/{id} requests.
type PatchItemHandler struct {
	svc *appsvcs.Services
	log logger.Logger
}

func NewPatchItemHandler(svc *appsvcs.Services, log logger.Logger) *PatchItemHandler {
	return &PatchItemHandler{svc: svc, log: log}
}

// Execute applies a partial update.
//
//	@Summary		Update item
//	@Description	Partial update. Omitted fields keep their stored value; uniqueness is checked on the resulting pair.
//	@Tags			items
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Item ID"	format(uuid)
//	@Param			request	body		PatchItemRequest	true	"Fields to change"
//	@Success		200		{object}	ItemResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Failure		422		{object}	ValidationErrorResponse
//	@Router			/items/{id} [patch]
func (h *PatchItemHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}
	// A missing item is reported before any problem with the body.
	if _, err := h.svc.Item.GetByID(r.Context(), id); err != nil {
		fail(w, r, h.log, err)
		return
	}
	req, ok := pkgvalidator.ValidateRequest[PatchItemRequest](w, r)
	if !ok {
		return
	}

	item, err := h.svc.Item.Patch(r.Context(), id, appsvcs.ItemPatchInput{
		Name:  req.Name,
		Group: req.Group,
	})
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toItemResponse(item))
}
