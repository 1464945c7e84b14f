package stock

import (
	"context"
	"net/http"

	"github.com/frahmantamala/warehouse-management/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	RecordEntry(ctx context.Context, dto EntryDTO) (*Entry, error)
	GetEntry(ctx context.Context, id string) (*Entry, error)
	ListEntries(ctx context.Context, filter ListFilter) (Page[*Entry], error)

	CreateTransfer(ctx context.Context, dto TransferDTO) (*Transfer, error)
	GetTransfer(ctx context.Context, id string) (*Transfer, error)
	ListTransfers(ctx context.Context, filter ListFilter) (Page[*Transfer], error)
	TransitionTransfer(ctx context.Context, id, target string) (*Transfer, error)

	CreateWithdrawal(ctx context.Context, dto WithdrawalDTO) (*Withdrawal, error)
	GetWithdrawal(ctx context.Context, id string) (*Withdrawal, error)
	ListWithdrawals(ctx context.Context, filter ListFilter) (Page[*Withdrawal], error)
	TransitionWithdrawal(ctx context.Context, id, target string) (*Withdrawal, error)

	CreateAdjustment(ctx context.Context, dto AdjustmentDTO) (*Adjustment, error)
	GetAdjustment(ctx context.Context, id string) (*Adjustment, error)
	ListAdjustments(ctx context.Context, filter ListFilter) (Page[*Adjustment], error)

	ListLevels(ctx context.Context, filter ListFilter) (Page[*Level], error)
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
	q := r.URL.Query()
	return ListFilter{
		WarehouseID: q.Get("warehouseId"),
		ItemID:      q.Get("itemId"),
		Status:      q.Get("status"),
		Limit:       limit,
		Offset:      offset,
	}
}

func (h *Handler) ListLevels(w http.ResponseWriter, r *http.Request) {
	page, err := h.Service.ListLevels(r.Context(), listFilter(r))
	transport.Respond(h.BaseHandler, w, r, http.StatusOK, page, err)
}

func (h *Handler) RecordEntry(w http.ResponseWriter, r *http.Request) {
	var dto EntryDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}
	entry, err := h.Service.RecordEntry(r.Context(), dto)
	transport.Respond(h.BaseHandler, w, r, http.StatusCreated, entry, err)
}

func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	page, err := h.Service.ListEntries(r.Context(), listFilter(r))
	transport.Respond(h.BaseHandler, w, r, http.StatusOK, page, err)
}

func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := h.Service.GetEntry(r.Context(), chi.URLParam(r, "id"))
	transport.Respond(h.BaseHandler, w, r, http.StatusOK, entry, err)
}

func (h *Handler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	var dto TransferDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}
	transfer, err := h.Service.CreateTransfer(r.Context(), dto)
	transport.Respond(h.BaseHandler, w, r, http.StatusCreated, transfer, err)
}

func (h *Handler) ListTransfers(w http.ResponseWriter, r *http.Request) {
	page, err := h.Service.ListTransfers(r.Context(), listFilter(r))
	transport.Respond(h.BaseHandler, w, r, http.StatusOK, page, err)
}

func (h *Handler) GetTransfer(w http.ResponseWriter, r *http.Request) {
	transfer, err := h.Service.GetTransfer(r.Context(), chi.URLParam(r, "id"))
	transport.Respond(h.BaseHandler, w, r, http.StatusOK, transfer, err)
}

func (h *Handler) DispatchTransfer(w http.ResponseWriter, r *http.Request) {
	h.transitionTransfer(w, r, TransferInTransit)
}

func (h *Handler) CompleteTransfer(w http.ResponseWriter, r *http.Request) {
	h.transitionTransfer(w, r, TransferCompleted)
}

func (h *Handler) CancelTransfer(w http.ResponseWriter, r *http.Request) {
	h.transitionTransfer(w, r, TransferCancelled)
}

func (h *Handler) transitionTransfer(w http.ResponseWriter, r *http.Request, target string) {
	transfer, err := h.Service.TransitionTransfer(r.Context(), chi.URLParam(r, "id"), target)
	transport.Respond(h.BaseHandler, w, r, http.StatusOK, transfer, err)
}

func (h *Handler) CreateWithdrawal(w http.ResponseWriter, r *http.Request) {
	var dto WithdrawalDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}
	withdrawal, err := h.Service.CreateWithdrawal(r.Context(), dto)
	transport.Respond(h.BaseHandler, w, r, http.StatusCreated, withdrawal, err)
}

func (h *Handler) ListWithdrawals(w http.ResponseWriter, r *http.Request) {
	page, err := h.Service.ListWithdrawals(r.Context(), listFilter(r))
	transport.Respond(h.BaseHandler, w, r, http.StatusOK, page, err)
}

func (h *Handler) GetWithdrawal(w http.ResponseWriter, r *http.Request) {
	withdrawal, err := h.Service.GetWithdrawal(r.Context(), chi.URLParam(r, "id"))
	transport.Respond(h.BaseHandler, w, r, http.StatusOK, withdrawal, err)
}

func (h *Handler) ApproveWithdrawal(w http.ResponseWriter, r *http.Request) {
	h.transitionWithdrawal(w, r, WithdrawalApproved)
}

func (h *Handler) RejectWithdrawal(w http.ResponseWriter, r *http.Request) {
	h.transitionWithdrawal(w, r, WithdrawalRejected)
}

func (h *Handler) CompleteWithdrawal(w http.ResponseWriter, r *http.Request) {
	h.transitionWithdrawal(w, r, WithdrawalCompleted)
}

func (h *Handler) transitionWithdrawal(w http.ResponseWriter, r *http.Request, target string) {
	withdrawal, err := h.Service.TransitionWithdrawal(r.Context(), chi.URLParam(r, "id"), target)
	transport.Respond(h.BaseHandler, w, r, http.StatusOK, withdrawal, err)
}

func (h *Handler) CreateAdjustment(w http.ResponseWriter, r *http.Request) {
	var dto AdjustmentDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}
	adjustment, err := h.Service.CreateAdjustment(r.Context(), dto)
	transport.Respond(h.BaseHandler, w, r, http.StatusCreated, adjustment, err)
}

func (h *Handler) ListAdjustments(w http.ResponseWriter, r *http.Request) {
	page, err := h.Service.ListAdjustments(r.Context(), listFilter(r))
	transport.Respond(h.BaseHandler, w, r, http.StatusOK, page, err)
}

func (h *Handler) GetAdjustment(w http.ResponseWriter, r *http.Request) {
	adjustment, err := h.Service.GetAdjustment(r.Context(), chi.URLParam(r, "id"))
	transport.Respond(h.BaseHandler, w, r, http.StatusOK, adjustment, err)
}
