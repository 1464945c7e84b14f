package catalog

import (
	"context"
	"net/http"

	"github.com/frahmantamala/warehouse-management/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	CreateItem(ctx context.Context, in ItemInput) (*Item, error)
	GetItem(ctx context.Context, id string) (*Item, error)
	ListItems(ctx context.Context, filter ListFilter) (Page[*Item], error)
	UpdateItem(ctx context.Context, id string, in ItemInput) (*Item, error)
	DeactivateItem(ctx context.Context, id string) (*Item, error)

	CreateSupplier(ctx context.Context, in SupplierInput) (*Supplier, error)
	GetSupplier(ctx context.Context, id string) (*Supplier, error)
	ListSuppliers(ctx context.Context, filter ListFilter) (Page[*Supplier], error)
	UpdateSupplier(ctx context.Context, id string, in SupplierInput) (*Supplier, error)
	DeactivateSupplier(ctx context.Context, id string) (*Supplier, error)

	CreateWarehouse(ctx context.Context, in WarehouseInput) (*Warehouse, error)
	GetWarehouse(ctx context.Context, id string) (*Warehouse, error)
	ListWarehouses(ctx context.Context, filter ListFilter) (Page[*Warehouse], error)
	UpdateWarehouse(ctx context.Context, id string, in WarehouseInput) (*Warehouse, error)
	DeactivateWarehouse(ctx context.Context, id string) (*Warehouse, error)
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

func listFilter(r *http.Request) ListFilter {
	limit, offset := transport.Pagination(r)
	return ListFilter{
		Search:   r.URL.Query().Get("search"),
		Category: r.URL.Query().Get("category"),
		Active:   transport.QueryBool(r, "active"),
		Limit:    limit,
		Offset:   offset,
	}
}

func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var in ItemInput
	if !h.DecodeJSON(w, r, &in) {
		return
	}
	item, err := h.Service.CreateItem(r.Context(), in)
	transport.Respond(h.BaseHandler, w, r, http.StatusCreated, item, err)
}

func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	page, err := h.Service.ListItems(r.Context(), listFilter(r))
	transport.Respond(h.BaseHandler, w, r, http.StatusOK, page, err)
}

func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.Service.GetItem(r.Context(), chi.URLParam(r, "id"))
	transport.Respond(h.BaseHandler, w, r, http.StatusOK, item, err)
}

func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var in ItemInput
	if !h.DecodeJSON(w, r, &in) {
		return
	}
	item, err := h.Service.UpdateItem(r.Context(), chi.URLParam(r, "id"), in)
	transport.Respond(h.BaseHandler, w, r, http.StatusOK, item, err)
}

func (h *Handler) DeactivateItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.Service.DeactivateItem(r.Context(), chi.URLParam(r, "id"))
	transport.Respond(h.BaseHandler, w, r, http.StatusOK, item, err)
}

func (h *Handler) CreateSupplier(w http.ResponseWriter, r *http.Request) {
	var in SupplierInput
	if !h.DecodeJSON(w, r, &in) {
		return
	}
	supplier, err := h.Service.CreateSupplier(r.Context(), in)
	transport.Respond(h.BaseHandler, w, r, http.StatusCreated, supplier, err)
}

func (h *Handler) ListSuppliers(w http.ResponseWriter, r *http.Request) {
	page, err := h.Service.ListSuppliers(r.Context(), listFilter(r))
	transport.Respond(h.BaseHandler, w, r, http.StatusOK, page, err)
}

func (h *Handler) GetSupplier(w http.ResponseWriter, r *http.Request) {
	supplier, err := h.Service.GetSupplier(r.Context(), chi.URLParam(r, "id"))
	transport.Respond(h.BaseHandler, w, r, http.StatusOK, supplier, err)
}

func (h *Handler) UpdateSupplier(w http.ResponseWriter, r *http.Request) {
	var in SupplierInput
	if !h.DecodeJSON(w, r, &in) {
		return
	}
	supplier, err := h.Service.UpdateSupplier(r.Context(), chi.URLParam(r, "id"), in)
	transport.Respond(h.BaseHandler, w, r, http.StatusOK, supplier, err)
}

func (h *Handler) DeactivateSupplier(w http.ResponseWriter, r *http.Request) {
	supplier, err := h.Service.DeactivateSupplier(r.Context(), chi.URLParam(r, "id"))
	transport.Respond(h.BaseHandler, w, r, http.StatusOK, supplier, err)
}

func (h *Handler) CreateWarehouse(w http.ResponseWriter, r *http.Request) {
	var in WarehouseInput
	if !h.DecodeJSON(w, r, &in) {
		return
	}
	warehouse, err := h.Service.CreateWarehouse(r.Context(), in)
	transport.Respond(h.BaseHandler, w, r, http.StatusCreated, warehouse, err)
}

func (h *Handler) ListWarehouses(w http.ResponseWriter, r *http.Request) {
	page, err := h.Service.ListWarehouses(r.Context(), listFilter(r))
	transport.Respond(h.BaseHandler, w, r, http.StatusOK, page, err)
}

func (h *Handler) GetWarehouse(w http.ResponseWriter, r *http.Request) {
	warehouse, err := h.Service.GetWarehouse(r.Context(), chi.URLParam(r, "id"))
	transport.Respond(h.BaseHandler, w, r, http.StatusOK, warehouse, err)
}

func (h *Handler) UpdateWarehouse(w http.ResponseWriter, r *http.Request) {
	var in WarehouseInput
	if !h.DecodeJSON(w, r, &in) {
		return
	}
	warehouse, err := h.Service.UpdateWarehouse(r.Context(), chi.URLParam(r, "id"), in)
	transport.Respond(h.BaseHandler, w, r, http.StatusOK, warehouse, err)
}

func (h *Handler) DeactivateWarehouse(w http.ResponseWriter, r *http.Request) {
	warehouse, err := h.Service.DeactivateWarehouse(r.Context(), chi.URLParam(r, "id"))
	transport.Respond(h.BaseHandler, w, r, http.StatusOK, warehouse, err)
}
