package audit

import (
	"context"
	"net/http"

	"github.com/frahmantamala/warehouse-management/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context, filter ListFilter) (*Page, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (h *Handler) ListLogs(w http.ResponseWriter, r *http.Request) {
	limit, offset := transport.Pagination(r)
	q := r.URL.Query()
	page, err := h.Service.List(r.Context(), ListFilter{
		EntityType: q.Get("entityType"),
		ActorID:    q.Get("actorId"),
		Action:     q.Get("action"),
		Limit:      limit,
		Offset:     offset,
	})
	transport.Respond(h.BaseHandler, w, r, http.StatusOK, page, err)
}
