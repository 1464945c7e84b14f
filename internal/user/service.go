package user

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/frahmantamala/warehouse-management/internal"
	userDatamodel "github.com/frahmantamala/warehouse-management/internal/core/datamodel/user"
	"github.com/frahmantamala/warehouse-management/internal/core/events"
	"golang.org/x/crypto/bcrypt"
)

type RepositoryAPI interface {
	Create(ctx context.Context, u *userDatamodel.User) error
	GetByID(ctx context.Context, id string) (*userDatamodel.User, error)
	List(ctx context.Context, filter ListFilter) ([]*userDatamodel.User, int64, error)
	Update(ctx context.Context, u *userDatamodel.User) error
	SetActive(ctx context.Context, id string, active bool) error
	// UsernameOrEmailTaken ignores the user with excludeID.
	UsernameOrEmailTaken(ctx context.Context, username, email, excludeID string) (bool, error)

	UpsertGrant(ctx context.Context, grant *userDatamodel.UserPermission) (*userDatamodel.UserPermission, error)
	DeleteGrant(ctx context.Context, userID, permission string) error
	ListGrants(ctx context.Context, userID string) ([]*userDatamodel.UserPermission, error)
}

type Service struct {
	repo       RepositoryAPI
	publisher  events.Publisher
	bcryptCost int
	now        internal.Clock
	logger     *slog.Logger
}

func NewService(repo RepositoryAPI, publisher events.Publisher, bcryptCost int, now internal.Clock, logger *slog.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	if now == nil {
		now = internal.SystemClock
	}
	return &Service{
		repo:       repo,
		publisher:  publisher,
		bcryptCost: bcryptCost,
		now:        now,
		logger:     logger,
	}
}

func (s *Service) CreateUser(ctx context.Context, dto CreateUserDTO) (*User, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	taken, err := s.repo.UsernameOrEmailTaken(ctx, dto.Username, dto.Email, "")
	if err != nil {
		s.logger.Error("failed to check user uniqueness", "error", err)
		return nil, internal.NewFetchError("users", err)
	}
	if taken {
		return nil, internal.NewConflictError("username or email already in use", internal.ErrCodeDuplicate)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.bcryptCost)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	row := &userDatamodel.User{
		Username:     dto.Username,
		Email:        dto.Email,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(dto.FirstName),
		LastName:     strings.TrimSpace(dto.LastName),
		Department:   dto.Department,
		Position:     dto.Position,
		Phone:        dto.Phone,
		Role:         dto.Role,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.Error("failed to create user", "username", dto.Username, "error", err)
		return nil, internal.NewInternalError("failed to create user", err)
	}

	s.publish(ctx, events.EventTypeUserCreated, row.ID, map[string]interface{}{"username": row.Username, "role": row.Role})
	s.logger.Info("user created", "user_id", row.ID, "role", row.Role)
	return FromDataModel(row), nil
}

func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	row, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromDataModel(row), nil
}

func (s *Service) ListUsers(ctx context.Context, filter ListFilter) (ListResponse, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list users", "error", err)
		return ListResponse{}, internal.NewFetchError("users", err)
	}

	users := make([]*User, 0, len(rows))
	for _, row := range rows {
		users = append(users, FromDataModel(row))
	}
	return ListResponse{Users: users, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

func (s *Service) UpdateUser(ctx context.Context, id string, dto UpdateUserDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	row, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if dto.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*dto.Email))
		if email != row.Email {
			taken, err := s.repo.UsernameOrEmailTaken(ctx, "", email, row.ID)
			if err != nil {
				return nil, internal.NewFetchError("users", err)
			}
			if taken {
				return nil, internal.NewConflictError("email already in use", internal.ErrCodeDuplicate)
			}
			row.Email = email
		}
	}
	if dto.FirstName != nil {
		row.FirstName = strings.TrimSpace(*dto.FirstName)
	}
	if dto.LastName != nil {
		row.LastName = strings.TrimSpace(*dto.LastName)
	}
	if dto.Department != nil {
		row.Department = *dto.Department
	}
	if dto.Position != nil {
		row.Position = *dto.Position
	}
	if dto.Phone != nil {
		row.Phone = *dto.Phone
	}
	if dto.Role != nil {
		row.Role = *dto.Role
	}

	if err := s.repo.Update(ctx, row); err != nil {
		s.logger.Error("failed to update user", "user_id", id, "error", err)
		return nil, internal.NewInternalError("failed to update user", err)
	}

	s.publish(ctx, events.EventTypeUserUpdated, row.ID, map[string]interface{}{"role": row.Role})
	return FromDataModel(row), nil
}

// DeactivateUser keeps the row so history stays attributable.
func (s *Service) DeactivateUser(ctx context.Context, id string) (*User, error) {
	if id == internal.UserIDFromContext(ctx) {
		return nil, internal.NewValidationError("you cannot deactivate your own account", internal.ErrCodeValidationFailed)
	}
	row, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !row.IsActive {
		return FromDataModel(row), nil
	}

	if err := s.repo.SetActive(ctx, id, false); err != nil {
		s.logger.Error("failed to deactivate user", "user_id", id, "error", err)
		return nil, internal.NewInternalError("failed to deactivate user", err)
	}
	row.IsActive = false

	s.publish(ctx, events.EventTypeUserDeactivated, id, nil)
	s.logger.Info("user deactivated", "user_id", id)
	return FromDataModel(row), nil
}

// GrantPermission adds a grant or, when one exists, replaces its expiry.
func (s *Service) GrantPermission(ctx context.Context, userID string, dto GrantPermissionDTO) (Grant, error) {
	now := s.now()
	if err := dto.Validate(now); err != nil {
		return Grant{}, err
	}
	if _, err := s.get(ctx, userID); err != nil {
		return Grant{}, err
	}

	grant := &userDatamodel.UserPermission{
		UserID:     userID,
		Permission: dto.Permission,
		GrantedAt:  now,
		ExpiresAt:  dto.ExpiresAt,
		GrantedBy:  internal.ActorFromContext(ctx),
	}

	saved, err := s.repo.UpsertGrant(ctx, grant)
	if err != nil {
		s.logger.Error("failed to grant permission", "user_id", userID, "permission", dto.Permission, "error", err)
		return Grant{}, internal.NewInternalError("failed to grant permission", err)
	}

	details := map[string]interface{}{"permission": dto.Permission}
	if dto.ExpiresAt != nil {
		details["expiresAt"] = dto.ExpiresAt.Format("2006-01-02T15:04:05Z07:00")
	}
	s.publish(ctx, events.EventTypePermissionGranted, userID, details)
	return GrantFromDataModel(saved, now), nil
}

func (s *Service) RevokePermission(ctx context.Context, userID, permission string) error {
	if _, err := s.get(ctx, userID); err != nil {
		return err
	}
	if err := s.repo.DeleteGrant(ctx, userID, permission); err != nil {
		if errors.Is(err, internal.ErrGrantNotFound) {
			return internal.ErrGrantNotFound
		}
		s.logger.Error("failed to revoke permission", "user_id", userID, "permission", permission, "error", err)
		return internal.NewInternalError("failed to revoke permission", err)
	}

	s.publish(ctx, events.EventTypePermissionRevoked, userID, map[string]interface{}{"permission": permission})
	return nil
}

// ListGrants returns every grant, expired ones included, flagged by whether
// they are active right now.
func (s *Service) ListGrants(ctx context.Context, userID string) ([]Grant, error) {
	if _, err := s.get(ctx, userID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListGrants(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list grants", "user_id", userID, "error", err)
		return nil, internal.NewFetchError("permissions", err)
	}

	now := s.now()
	grants := make([]Grant, 0, len(rows))
	for _, row := range rows {
		grants = append(grants, GrantFromDataModel(row, now))
	}
	return grants, nil
}

func (s *Service) get(ctx context.Context, id string) (*userDatamodel.User, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			return nil, internal.ErrUserNotFound
		}
		s.logger.Error("failed to load user", "user_id", id, "error", err)
		return nil, internal.NewFetchError("user", err)
	}
	return row, nil
}

func (s *Service) publish(ctx context.Context, eventType, userID string, details map[string]interface{}) {
	if s.publisher == nil {
		return
	}
	event := events.NewActivityEvent(eventType, internal.UserIDFromContext(ctx), "user", userID, details)
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish event", "event_type", eventType, "error", err)
	}
}
