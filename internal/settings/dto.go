package settings

import (
	"regexp"
	"strings"

	"github.com/frahmantamala/warehouse-management/internal/core/common/validation"
)

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// UpdateSettingsDTO replaces every setting.
type UpdateSettingsDTO struct {
	CompanyName        string  `json:"companyName"`
	Currency           string  `json:"currency"`
	LowStockAlerts     bool    `json:"lowStockAlerts"`
	DefaultWarehouseID *string `json:"defaultWarehouseId"`
}

func (d *UpdateSettingsDTO) Normalize() {
	d.CompanyName = strings.TrimSpace(d.CompanyName)
	d.Currency = strings.ToUpper(strings.TrimSpace(d.Currency))
	if d.DefaultWarehouseID != nil && strings.TrimSpace(*d.DefaultWarehouseID) == "" {
		d.DefaultWarehouseID = nil
	}
}

func (d UpdateSettingsDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("companyName", d.CompanyName).Required().MaxLength(200)
	v.Field("currency", d.Currency).Required().Matches(currencyPattern, "a three-letter ISO code")
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}
