package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           string           `gorm:"primaryKey;type:varchar(36)"`
	Username     string           `gorm:"column:username;uniqueIndex;not null"`
	Email        string           `gorm:"column:email;uniqueIndex;not null"`
	PasswordHash string           `gorm:"column:password_hash;not null"`
	FirstName    string           `gorm:"column:first_name"`
	LastName     string           `gorm:"column:last_name"`
	Department   string           `gorm:"column:department"`
	Position     string           `gorm:"column:position"`
	Phone        string           `gorm:"column:phone"`
	Role         string           `gorm:"column:role;not null;default:STAFF"`
	IsActive     bool             `gorm:"column:is_active;not null"`
	LastLoginAt  *time.Time       `gorm:"column:last_login_at"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time        `gorm:"column:updated_at;autoUpdateTime"`
	Permissions  []UserPermission `gorm:"foreignKey:UserID"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Permission is the catalog of grantable permission tags.
type Permission struct {
	Name        string    `gorm:"primaryKey;column:name"`
	Description string    `gorm:"column:description"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

// UserPermission is a grant. ExpiresAt nil means it never expires; whether a
// grant is active is decided when it is read, never stored.
type UserPermission struct {
	ID         string     `gorm:"primaryKey;type:varchar(36)"`
	UserID     string     `gorm:"column:user_id;not null;uniqueIndex:idx_user_permission"`
	Permission string     `gorm:"column:permission;not null;uniqueIndex:idx_user_permission"`
	GrantedBy  *string    `gorm:"column:granted_by"`
	GrantedAt  time.Time  `gorm:"column:granted_at;not null"`
	ExpiresAt  *time.Time `gorm:"column:expires_at"`
}

func (p *UserPermission) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.GrantedAt.IsZero() {
		p.GrantedAt = time.Now()
	}
	return nil
}
