package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleAdmin   = "ADMIN"
	RoleManager = "MANAGER"
	RoleStaff   = "STAFF"
	RoleViewer  = "VIEWER"
)

var Roles = []string{RoleAdmin, RoleManager, RoleStaff, RoleViewer}

const (
	PermItemsWrite      = "items:write"
	PermSuppliersWrite  = "suppliers:write"
	PermWarehousesWrite = "warehouses:write"
	PermStockEntry      = "stock:entry"
	PermStockTransfer   = "stock:transfer"
	PermStockWithdraw   = "stock:withdraw"
	PermStockApprove    = "stock:approve"
	PermStockAdjust     = "stock:adjust"
	PermReportsView     = "reports:view"
	PermUsersManage     = "users:manage"
	PermSettingsManage  = "settings:manage"
	PermAuditView       = "audit:view"
)

// PermissionCatalog maps every grantable permission tag to its description.
var PermissionCatalog = map[string]string{
	PermItemsWrite:      "Create and edit items",
	PermSuppliersWrite:  "Create and edit suppliers",
	PermWarehousesWrite: "Create and edit warehouses",
	PermStockEntry:      "Record item entries",
	PermStockTransfer:   "Create and move transfers",
	PermStockWithdraw:   "Request withdrawals",
	PermStockApprove:    "Approve or reject withdrawals",
	PermStockAdjust:     "Post stock adjustments",
	PermReportsView:     "View dashboards and reports",
	PermUsersManage:     "Manage users and their permissions",
	PermSettingsManage:  "Change application settings",
	PermAuditView:       "Read the audit log",
}

func IsKnownPermission(p string) bool {
	_, ok := PermissionCatalog[p]
	return ok
}

func IsKnownRole(r string) bool {
	for _, role := range Roles {
		if role == r {
			return true
		}
	}
	return false
}

// ActivePermission is a grant that had not expired when the session was built.
type ActivePermission struct {
	ID         string     `json:"id"`
	Permission string     `json:"permission"`
	GrantedAt  time.Time  `json:"grantedAt"`
	ExpiresAt  *time.Time `json:"expiresAt"`
}

// IsActiveAt reports whether a grant with this expiry is usable at now.
// A nil expiry never lapses; otherwise expiry must be strictly after now.
func IsActiveAt(expiresAt *time.Time, now time.Time) bool {
	return expiresAt == nil || expiresAt.After(now)
}

// Session is the per-request identity snapshot: profile fields plus the
// permission grants that were active when it was built.
type Session struct {
	UserID      string             `json:"id"`
	Username    string             `json:"username"`
	Email       string             `json:"email"`
	Name        string             `json:"name"`
	FirstName   string             `json:"firstName,omitempty"`
	LastName    string             `json:"lastName,omitempty"`
	Role        string             `json:"role"`
	Department  string             `json:"department,omitempty"`
	Position    string             `json:"position,omitempty"`
	Phone       string             `json:"phone,omitempty"`
	IsActive    bool               `json:"isActive"`
	LastLoginAt *time.Time         `json:"lastLoginAt,omitempty"`
	Permissions []ActivePermission `json:"permissions"`
}

// PermissionNames returns the permission tags carried by the session.
func (s Session) PermissionNames() []string {
	names := make([]string, 0, len(s.Permissions))
	for _, p := range s.Permissions {
		names = append(names, p.Permission)
	}
	return names
}

// WithoutExpired drops grants that have lapsed since the session was built.
func (s Session) WithoutExpired(now time.Time) Session {
	kept := make([]ActivePermission, 0, len(s.Permissions))
	for _, p := range s.Permissions {
		if IsActiveAt(p.ExpiresAt, now) {
			kept = append(kept, p)
		}
	}
	s.Permissions = kept
	return s
}

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims represents JWT token claims
type Claims struct {
	UserID    string   `json:"user_id"`
	TokenType string   `json:"typ"`
	Session   *Session `json:"session,omitempty"`
	jwt.RegisteredClaims
}

type AuthTokens struct {
	AccessToken  string  `json:"accessToken"`
	RefreshToken string  `json:"refreshToken"`
	ExpiresAt    int64   `json:"expiresAt"`
	Session      Session `json:"session"`
}

// TokenGenerator creates and validates signed tokens.
type TokenGenerator interface {
	GenerateAccessToken(session Session) (token string, expiresAt time.Time, err error)
	GenerateRefreshToken(session Session) (token string, err error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	ValidateRefreshToken(tokenString string) (*Claims, error)
}

type ctxKey string

const ContextSessionKey ctxKey = "session"

func SessionFromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ContextSessionKey).(*Session)
	return s, ok && s != nil
}

func ContextWithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ContextSessionKey, s)
}
