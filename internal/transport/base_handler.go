package transport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/frahmantamala/warehouse-management/internal"
	"github.com/frahmantamala/warehouse-management/pkg/logger"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// BaseHandler provides common functionality for HTTP handlers
type BaseHandler struct {
	Logger *slog.Logger
}

// NewBaseHandler creates a base handler with logger
func NewBaseHandler(lg *slog.Logger) *BaseHandler {
	if lg == nil {
		lg = logger.LoggerWrapper()
	}
	return &BaseHandler{Logger: lg}
}

// WriteJSON writes a JSON response
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteError writes a failed result for a transport-level problem (bad body,
// bad path parameter) that never reached a service.
func (h *BaseHandler) WriteError(w http.ResponseWriter, status int, message string) {
	kind := internal.ErrorTypeInternal
	switch status {
	case http.StatusBadRequest:
		kind = internal.ErrorTypeValidation
	case http.StatusUnauthorized:
		kind = internal.ErrorTypeUnauthorized
	case http.StatusForbidden:
		kind = internal.ErrorTypeForbidden
	case http.StatusNotFound:
		kind = internal.ErrorTypeNotFound
	case http.StatusConflict:
		kind = internal.ErrorTypeConflict
	}
	h.Logger.Warn("http error", "status", status, "message", message)
	h.WriteJSON(w, status, internal.Result[struct{}]{Error: message, Kind: kind})
}

// WriteResult writes a Result with the status its kind maps to.
func WriteResult[T any](h *BaseHandler, w http.ResponseWriter, successStatus int, result internal.Result[T]) {
	h.WriteJSON(w, result.Status(successStatus), result)
}

// Respond logs a failing service call and writes the uniform result shape.
func Respond[T any](h *BaseHandler, w http.ResponseWriter, r *http.Request, successStatus int, data T, err error) {
	if err != nil {
		lg := logger.From(r.Context())
		if internal.KindOf(err) == internal.ErrorTypeInternal {
			lg.Error("request failed", "path", r.URL.Path, "error", err)
		} else {
			lg.Info("request rejected", "path", r.URL.Path, "kind", internal.KindOf(err), "error", err)
		}
	}
	WriteResult(h, w, successStatus, internal.ResultOf(data, err))
}

// DecodeJSON decodes the request body into dst, writing a 400 on failure.
func (h *BaseHandler) DecodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// ExtractTokenFromHeader extracts Bearer token from Authorization header
func (h *BaseHandler) ExtractTokenFromHeader(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return ""
	}

	return authHeader[7:]
}

// Pagination reads limit/offset query parameters, clamping limit to MaxPageLimit.
func Pagination(r *http.Request) (limit, offset int) {
	limit = DefaultPageLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}
	return limit, offset
}

// QueryTime parses an optional RFC3339 or YYYY-MM-DD query parameter.
func QueryTime(r *http.Request, key string) (*time.Time, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		return nil, internal.NewValidationFieldError(key, key+" must be RFC3339 or YYYY-MM-DD", internal.ErrCodeInvalidDate)
	}
	return &t, nil
}

// QueryBool parses an optional boolean query parameter.
func QueryBool(r *http.Request, key string) *bool {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &b
}
