package auth

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/warehouse-management/internal"
	"github.com/frahmantamala/warehouse-management/internal/transport"
)

type RBACAuthorization struct {
	*transport.BaseHandler
	checker PermissionChecker
}

func NewRBACAuthorization(checker PermissionChecker, lg *slog.Logger) *RBACAuthorization {
	if checker == nil {
		checker = NewPermissionChecker()
	}
	return &RBACAuthorization{
		BaseHandler: transport.NewBaseHandler(lg),
		checker:     checker,
	}
}

// RequirePermission lets the request through when the session holds any of
// permissions. Without a session it answers 401 before anything else runs.
func (ra *RBACAuthorization) RequirePermission(permissions ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := SessionFromContext(r.Context())
			if !ok {
				ra.deny(w, internal.ErrUnauthorized)
				return
			}
			if !ra.checker.HasAnyPermission(session, permissions...) {
				ra.Logger.WarnContext(r.Context(), "access denied: insufficient permissions",
					"user_id", session.UserID,
					"required_permissions", permissions,
					"user_permissions", session.PermissionNames())
				ra.deny(w, internal.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (ra *RBACAuthorization) RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := SessionFromContext(r.Context())
			if !ok {
				ra.deny(w, internal.ErrUnauthorized)
				return
			}
			if !ra.checker.IsAdmin(session) && !ra.checker.HasAnyRole(session, roles...) {
				ra.Logger.WarnContext(r.Context(), "access denied: role not allowed",
					"user_id", session.UserID, "role", session.Role, "required_roles", roles)
				ra.deny(w, internal.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (ra *RBACAuthorization) deny(w http.ResponseWriter, err error) {
	transport.WriteResult(ra.BaseHandler, w, http.StatusOK, internal.Fail[struct{}](err))
}
