package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/frahmantamala/warehouse-management/internal"
	userDatamodel "github.com/frahmantamala/warehouse-management/internal/core/datamodel/user"
	"github.com/frahmantamala/warehouse-management/internal/user"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.RepositoryAPI {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *userDatamodel.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*userDatamodel.User, error) {
	var u userDatamodel.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) List(ctx context.Context, filter user.ListFilter) ([]*userDatamodel.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&userDatamodel.User{})
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where(
			"LOWER(username) LIKE ? OR LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?",
			pattern, pattern, pattern, pattern,
		)
	}
	if filter.Active != nil {
		query = query.Where("is_active = ?", *filter.Active)
	}

	query = query.Session(&gorm.Session{})
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []*userDatamodel.User
	err := query.Order("username ASC").Limit(filter.Limit).Offset(filter.Offset).Find(&users).Error
	return users, total, err
}

func (r *UserRepository) Update(ctx context.Context, u *userDatamodel.User) error {
	return r.db.WithContext(ctx).Model(u).Select(
		"email", "first_name", "last_name", "department", "position", "phone", "role", "updated_at",
	).Updates(u).Error
}

func (r *UserRepository) SetActive(ctx context.Context, id string, active bool) error {
	result := r.db.WithContext(ctx).Model(&userDatamodel.User{}).Where("id = ?", id).Update("is_active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return internal.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) UsernameOrEmailTaken(ctx context.Context, username, email, excludeID string) (bool, error) {
	query := r.db.WithContext(ctx).Model(&userDatamodel.User{})
	switch {
	case username != "" && email != "":
		query = query.Where("username = ? OR LOWER(email) = LOWER(?)", username, email)
	case username != "":
		query = query.Where("username = ?", username)
	case email != "":
		query = query.Where("LOWER(email) = LOWER(?)", email)
	default:
		return false, nil
	}
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpsertGrant relies on the (user_id, permission) unique index: a second grant
// of the same permission overwrites grantor, grant time and expiry.
func (r *UserRepository) UpsertGrant(ctx context.Context, grant *userDatamodel.UserPermission) (*userDatamodel.UserPermission, error) {
	db := r.db.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "permission"}},
		DoUpdates: clause.AssignmentColumns([]string{"granted_by", "granted_at", "expires_at"}),
	}).Create(grant).Error
	if err != nil {
		return nil, err
	}

	var saved userDatamodel.UserPermission
	if err := db.Where("user_id = ? AND permission = ?", grant.UserID, grant.Permission).First(&saved).Error; err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *UserRepository) DeleteGrant(ctx context.Context, userID, permission string) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND permission = ?", userID, permission).
		Delete(&userDatamodel.UserPermission{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return internal.ErrGrantNotFound
	}
	return nil
}

func (r *UserRepository) ListGrants(ctx context.Context, userID string) ([]*userDatamodel.UserPermission, error) {
	var grants []*userDatamodel.UserPermission
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("permission ASC").Find(&grants).Error
	return grants, err
}
