package settings

import (
	"context"
	"net/http"

	"github.com/frahmantamala/warehouse-management/internal/transport"
)

type ServiceAPI interface {
	Get(ctx context.Context) (*Settings, error)
	Update(ctx context.Context, dto UpdateSettingsDTO) (*Settings, error)
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

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	current, err := h.Service.Get(r.Context())
	transport.Respond(h.BaseHandler, w, r, http.StatusOK, current, err)
}

func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var dto UpdateSettingsDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}
	updated, err := h.Service.Update(r.Context(), dto)
	transport.Respond(h.BaseHandler, w, r, http.StatusOK, updated, err)
}
