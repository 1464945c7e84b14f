package user

import (
	"context"
	"net/http"

	"github.com/frahmantamala/warehouse-management/internal"
	"github.com/frahmantamala/warehouse-management/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	CreateUser(ctx context.Context, dto CreateUserDTO) (*User, error)
	GetUser(ctx context.Context, id string) (*User, error)
	ListUsers(ctx context.Context, filter ListFilter) (ListResponse, error)
	UpdateUser(ctx context.Context, id string, dto UpdateUserDTO) (*User, error)
	DeactivateUser(ctx context.Context, id string) (*User, error)
	GrantPermission(ctx context.Context, userID string, dto GrantPermissionDTO) (Grant, error)
	RevokePermission(ctx context.Context, userID, permission string) error
	ListGrants(ctx context.Context, userID string) ([]Grant, error)
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

// GetCurrentUser handles GET /users/me
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	userID := internal.UserIDFromContext(r.Context())
	if userID == "" {
		transport.Respond[*User](h.BaseHandler, w, r, http.StatusOK, nil, internal.ErrUnauthorized)
		return
	}
	u, err := h.Service.GetUser(r.Context(), userID)
	transport.Respond(h.BaseHandler, w, r, http.StatusOK, u, err)
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var dto CreateUserDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}
	u, err := h.Service.CreateUser(r.Context(), dto)
	transport.Respond(h.BaseHandler, w, r, http.StatusCreated, u, err)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset := transport.Pagination(r)
	filter := ListFilter{
		Search: r.URL.Query().Get("search"),
		Active: transport.QueryBool(r, "active"),
		Limit:  limit,
		Offset: offset,
	}
	users, err := h.Service.ListUsers(r.Context(), filter)
	transport.Respond(h.BaseHandler, w, r, http.StatusOK, users, err)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.Service.GetUser(r.Context(), chi.URLParam(r, "id"))
	transport.Respond(h.BaseHandler, w, r, http.StatusOK, u, err)
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var dto UpdateUserDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}
	u, err := h.Service.UpdateUser(r.Context(), chi.URLParam(r, "id"), dto)
	transport.Respond(h.BaseHandler, w, r, http.StatusOK, u, err)
}

func (h *Handler) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.Service.DeactivateUser(r.Context(), chi.URLParam(r, "id"))
	transport.Respond(h.BaseHandler, w, r, http.StatusOK, u, err)
}

func (h *Handler) ListGrants(w http.ResponseWriter, r *http.Request) {
	grants, err := h.Service.ListGrants(r.Context(), chi.URLParam(r, "id"))
	transport.Respond(h.BaseHandler, w, r, http.StatusOK, grants, err)
}

func (h *Handler) GrantPermission(w http.ResponseWriter, r *http.Request) {
	var dto GrantPermissionDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}
	grant, err := h.Service.GrantPermission(r.Context(), chi.URLParam(r, "id"), dto)
	transport.Respond(h.BaseHandler, w, r, http.StatusCreated, grant, err)
}

func (h *Handler) RevokePermission(w http.ResponseWriter, r *http.Request) {
	err := h.Service.RevokePermission(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "permission"))
	transport.Respond(h.BaseHandler, w, r, http.StatusOK, map[string]bool{"revoked": err == nil}, err)
}
