package handlers

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/ghuser/itemregistry/pkg/httpx"
	"github.com/ghuser/itemregistry/pkg/logger"
	appsvcs "github.com/ghuser/itemregistry/services/item/application/services"
)

// ListItemsHandler handles GET /items requests.
type ListItemsHandler struct {
	svc *appsvcs.Services
	log logger.Logger
}

func NewListItemsHandler(svc *appsvcs.Services, log logger.Logger) *ListItemsHandler {
	return &ListItemsHandler{svc: svc, log: log}
}

// Execute returns one page of items, most recently created first.
//
//	@Summary		List items
//	@Description	Paginated list ordered by creation time, newest first. page_size above the maximum is clamped.
//	@Tags			items
//	@Produce		json
//	@Param			page		query		int	false	"1-based page number"	minimum(1)	default(1)
//	@Param			page_size	query		int	false	"Items per page"		minimum(1)	default(10)
//	@Success		200			{object}	ItemListResponse
//	@Failure		422			{object}	ValidationErrorResponse
//	@Router			/items [get]
func (h *ListItemsHandler) Execute(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	fields := map[string]string{}
	page, ok := positiveParam(q, "page")
	if !ok {
		fields["page"] = "Must be a positive integer"
	}
	pageSize, ok := positiveParam(q, "page_size")
	if !ok {
		fields["page_size"] = "Must be a positive integer"
	}
	if len(fields) > 0 {
		httpx.ValidationFailed(w, fields)
		return
	}

	result, err := h.svc.Item.List(r.Context(), page, pageSize)
	if err != nil {
		fail(w, r, h.log, err)
		return
	}

	resp := ItemListResponse{
		Count:   result.Count,
		Results: make([]ItemResponse, len(result.Items)),
	}
	for i, item := range result.Items {
		resp.Results[i] = toItemResponse(item)
	}
	if result.HasNext() {
		resp.Next = pageLink(r.URL, result.Page+1, result.PageSize)
	}
	if result.HasPrevious() {
		resp.Previous = pageLink(r.URL, result.Page-1, result.PageSize)
	}
	httpx.JSON(w, http.StatusOK, resp)
}

// positiveParam reads an optional positive integer query parameter.
// A missing parameter yields 0, which the service replaces with its default.
func positiveParam(q url.Values, key string) (int, bool) {
	raw := q.Get(key)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

func pageLink(u *url.URL, page, pageSize int) *string {
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(pageSize))
	link := (&url.URL{Path: u.Path, RawQuery: q.Encode()}).String()
	return &link
}
