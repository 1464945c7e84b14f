package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/frahmantamala/warehouse-management/internal"
	userDatamodel "github.com/frahmantamala/warehouse-management/internal/core/datamodel/user"
)

// DisplayNamePlaceholder is shown when a user has neither a name nor a username.
const DisplayNamePlaceholder = "User"

// Trigger says why a session is being enriched.
type Trigger int

const (
	TriggerRefresh Trigger = iota
	TriggerSignIn
)

func (t Trigger) String() string {
	if t == TriggerSignIn {
		return "sign_in"
	}
	return "refresh"
}

// SessionStore is the data access the enricher needs. Both methods return
// internal.ErrUserNotFound when the user does not exist.
type SessionStore interface {
	FindUserWithGrants(ctx context.Context, userID string) (*userDatamodel.User, error)
	TouchLastLogin(ctx context.Context, userID string, at time.Time) error
}

// Enricher rebuilds a session from the user record every time it is asked.
type Enricher struct {
	store  SessionStore
	now    internal.Clock
	logger *slog.Logger
}

func NewEnricher(store SessionStore, now internal.Clock, lg *slog.Logger) *Enricher {
	if now == nil {
		now = internal.SystemClock
	}
	if lg == nil {
		lg = slog.Default()
	}
	return &Enricher{store: store, now: now, logger: lg}
}

// Enrich returns token rebuilt from the stored user identified by
// token.UserID. When the user does not exist token is returned unchanged and
// found is false; callers decide what an unenriched session means for them.
func (e *Enricher) Enrich(ctx context.Context, token Session, trigger Trigger) (session Session, found bool, err error) {
	if token.UserID == "" {
		return token, false, nil
	}

	if trigger == TriggerSignIn {
		if err := e.store.TouchLastLogin(ctx, token.UserID, e.now()); err != nil {
			if errors.Is(err, internal.ErrUserNotFound) {
				return token, false, nil
			}
			e.logger.Error("failed to record last login", "user_id", token.UserID, "error", err)
			return token, false, internal.NewFetchError("session", err)
		}
	}

	u, err := e.store.FindUserWithGrants(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			e.logger.Debug("no user behind session", "user_id", token.UserID, "trigger", trigger.String())
			return token, false, nil
		}
		e.logger.Error("failed to load session user", "user_id", token.UserID, "error", err)
		return token, false, internal.NewFetchError("session", err)
	}

	return BuildSession(u, e.now()), true, nil
}

// BuildSession projects a user row and the grants active at now into a session.
func BuildSession(u *userDatamodel.User, now time.Time) Session {
	perms := make([]ActivePermission, 0, len(u.Permissions))
	for _, g := range u.Permissions {
		if !IsActiveAt(g.ExpiresAt, now) {
			continue
		}
		perms = append(perms, ActivePermission{
			ID:         g.ID,
			Permission: g.Permission,
			GrantedAt:  g.GrantedAt,
			ExpiresAt:  g.ExpiresAt,
		})
	}

	return Session{
		UserID:      u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Name:        DisplayName(u.FirstName, u.LastName, u.Username),
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Role:        u.Role,
		Department:  u.Department,
		Position:    u.Position,
		Phone:       u.Phone,
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		Permissions: perms,
	}
}

func DisplayName(firstName, lastName, username string) string {
	if full := strings.TrimSpace(firstName + " " + lastName); full != "" {
		return full
	}
	if u := strings.TrimSpace(username); u != "" {
		return u
	}
	return DisplayNamePlaceholder
}
