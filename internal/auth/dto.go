package auth

import (
	"github.com/frahmantamala/warehouse-management/internal/core/common/validation"
)

// LoginDTO accepts either a username or an email in Username.
type LoginDTO struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

// Login is the identifier to look the user up by.
func (d LoginDTO) Login() string {
	if d.Username != "" {
		return d.Username
	}
	return d.Email
}

func (d LoginDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("username", d.Login()).Required()
	v.Field("password", d.Password).Required()
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

type RefreshTokenDTO struct {
	RefreshToken string `json:"refreshToken"`
}

func (d RefreshTokenDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("refreshToken", d.RefreshToken).Required()
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}
