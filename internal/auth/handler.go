package auth

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/warehouse-management/internal"
	"github.com/frahmantamala/warehouse-management/internal/transport"
	"github.com/frahmantamala/warehouse-management/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI, lg *slog.Logger) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	tokens, err := h.Service.Authenticate(r.Context(), dto)
	transport.Respond(h.BaseHandler, w, r, http.StatusOK, tokens, err)
}

func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var dto RefreshTokenDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	tokens, err := h.Service.RefreshTokens(r.Context(), dto)
	transport.Respond(h.BaseHandler, w, r, http.StatusOK, tokens, err)
}

// Session returns the session the middleware enriched for this request.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	session, ok := SessionFromContext(r.Context())
	if !ok {
		transport.Respond(h.BaseHandler, w, r, http.StatusOK, Session{}, internal.ErrUnauthorized)
		return
	}
	transport.Respond(h.BaseHandler, w, r, http.StatusOK, *session, nil)
}

// Logout is stateless: tokens simply age out.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// AuthMiddleware validates the bearer token and enriches the session on every
// request, so grant expiry is always evaluated against the current time.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractTokenFromHeader(r)
		if token == "" {
			transport.WriteResult(h.BaseHandler, w, http.StatusOK, internal.Fail[struct{}](internal.ErrUnauthorized))
			return
		}

		claims, err := h.Service.ValidateAccessToken(token)
		if err != nil {
			h.Logger.Debug("token validation failed", "error", err)
			transport.WriteResult(h.BaseHandler, w, http.StatusOK, internal.Fail[struct{}](err))
			return
		}

		session, err := h.Service.ResolveSession(r.Context(), claims)
		if err != nil {
			transport.Respond(h.BaseHandler, w, r, http.StatusOK, struct{}{}, err)
			return
		}

		ctx := ContextWithSession(r.Context(), &session)
		ctx = internal.ContextWithUserID(ctx, session.UserID)
		ctx = logger.With(ctx, "user_id", session.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
