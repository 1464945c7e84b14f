package user

import (
	"strings"
	"time"

	"github.com/frahmantamala/warehouse-management/internal"
	"github.com/frahmantamala/warehouse-management/internal/auth"
	"github.com/frahmantamala/warehouse-management/internal/core/common/validation"
)

type CreateUserDTO struct {
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Department string `json:"department"`
	Position   string `json:"position"`
	Phone      string `json:"phone"`
	Role       string `json:"role"`
}

func (d *CreateUserDTO) Normalize() {
	d.Username = strings.TrimSpace(d.Username)
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	if d.Role == "" {
		d.Role = auth.RoleStaff
	}
}

func (d CreateUserDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("username", d.Username).Required().MinLength(3).MaxLength(50)
	v.Field("email", d.Email).Required().Email()
	v.Field("password", d.Password).Required().MinLength(8)
	v.Field("role", d.Role).OneOf(internal.ErrCodeInvalidRole, auth.Roles...)
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// UpdateUserDTO only changes the fields that are present.
type UpdateUserDTO struct {
	Email      *string `json:"email"`
	FirstName  *string `json:"firstName"`
	LastName   *string `json:"lastName"`
	Department *string `json:"department"`
	Position   *string `json:"position"`
	Phone      *string `json:"phone"`
	Role       *string `json:"role"`
}

func (d UpdateUserDTO) Validate() error {
	v := validation.NewValidator()
	if d.Email != nil {
		v.Field("email", *d.Email).Required().Email()
	}
	if d.Role != nil {
		v.Field("role", *d.Role).OneOf(internal.ErrCodeInvalidRole, auth.Roles...)
	}
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

type GrantPermissionDTO struct {
	Permission string     `json:"permission"`
	ExpiresAt  *time.Time `json:"expiresAt"`
}

func (d GrantPermissionDTO) Validate(now time.Time) error {
	v := validation.NewValidator()
	v.Field("permission", d.Permission).Required().Custom(func(value interface{}) *internal.AppError {
		if p, ok := value.(string); ok && p != "" && !auth.IsKnownPermission(p) {
			return internal.NewValidationFieldError("permission", "unknown permission "+p, internal.ErrCodeInvalidPerm)
		}
		return nil
	})
	v.Field("expiresAt", d.ExpiresAt).Future(now)
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

type ListFilter struct {
	Search string
	Active *bool
	Limit  int
	Offset int
}

type ListResponse struct {
	Users  []*User `json:"users"`
	Total  int64   `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}
