package user

import (
	"time"

	"github.com/frahmantamala/warehouse-management/internal/auth"
	userDatamodel "github.com/frahmantamala/warehouse-management/internal/core/datamodel/user"
)

// User is the administrative view of an account. The password hash never
// leaves the repository layer.
type User struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	Department  string     `json:"department"`
	Position    string     `json:"position"`
	Phone       string     `json:"phone"`
	Role        string     `json:"role"`
	IsActive    bool       `json:"isActive"`
	LastLoginAt *time.Time `json:"lastLoginAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Grant is a permission grant with its activity decided at read time.
type Grant struct {
	ID         string     `json:"id"`
	Permission string     `json:"permission"`
	GrantedBy  *string    `json:"grantedBy"`
	GrantedAt  time.Time  `json:"grantedAt"`
	ExpiresAt  *time.Time `json:"expiresAt"`
	Active     bool       `json:"active"`
}

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Name:        auth.DisplayName(u.FirstName, u.LastName, u.Username),
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Department:  u.Department,
		Position:    u.Position,
		Phone:       u.Phone,
		Role:        u.Role,
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func GrantFromDataModel(g *userDatamodel.UserPermission, now time.Time) Grant {
	return Grant{
		ID:         g.ID,
		Permission: g.Permission,
		GrantedBy:  g.GrantedBy,
		GrantedAt:  g.GrantedAt,
		ExpiresAt:  g.ExpiresAt,
		Active:     auth.IsActiveAt(g.ExpiresAt, now),
	}
}
