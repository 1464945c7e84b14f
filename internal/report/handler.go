package report

import (
	"context"
	"net/http"
	"time"

	"github.com/frahmantamala/warehouse-management/internal"
	"github.com/frahmantamala/warehouse-management/internal/transport"
)

type ServiceAPI interface {
	Statistics(ctx context.Context, filter Filter) (*Statistics, error)
	RecentActivity(ctx context.Context) ([]Activity, error)
	LowStock(ctx context.Context, warehouseID string) ([]StockRow, error)
	Dashboard(ctx context.Context, filter Filter) Dashboard
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

func (h *Handler) filter(w http.ResponseWriter, r *http.Request) (Filter, bool) {
	from, err := transport.QueryTime(r, "from")
	if err == nil {
		var to *time.Time
		if to, err = transport.QueryTime(r, "to"); err == nil {
			return Filter{WarehouseID: r.URL.Query().Get("warehouseId"), From: from, To: to}, true
		}
	}
	transport.WriteResult(h.BaseHandler, w, http.StatusOK, internal.Fail[Statistics](err))
	return Filter{}, false
}

func (h *Handler) Statistics(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.filter(w, r)
	if !ok {
		return
	}
	stats, err := h.Service.Statistics(r.Context(), filter)
	transport.Respond(h.BaseHandler, w, r, http.StatusOK, stats, err)
}

func (h *Handler) RecentActivity(w http.ResponseWriter, r *http.Request) {
	feed, err := h.Service.RecentActivity(r.Context())
	transport.Respond(h.BaseHandler, w, r, http.StatusOK, feed, err)
}

func (h *Handler) LowStock(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Service.LowStock(r.Context(), r.URL.Query().Get("warehouseId"))
	transport.Respond(h.BaseHandler, w, r, http.StatusOK, rows, err)
}

// Dashboard always answers 200; each section carries its own outcome.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.filter(w, r)
	if !ok {
		return
	}
	h.WriteJSON(w, http.StatusOK, internal.OK(h.Service.Dashboard(r.Context(), filter)))
}
