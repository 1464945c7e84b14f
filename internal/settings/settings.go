package settings

import (
	"time"

	settingsDatamodel "github.com/frahmantamala/warehouse-management/internal/core/datamodel/settings"
)

const (
	DefaultCompanyName = "Warehouse"
	DefaultCurrency    = "USD"
)

type Settings struct {
	CompanyName        string     `json:"companyName"`
	Currency           string     `json:"currency"`
	LowStockAlerts     bool       `json:"lowStockAlerts"`
	DefaultWarehouseID *string    `json:"defaultWarehouseId"`
	UpdatedBy          *string    `json:"updatedBy,omitempty"`
	UpdatedAt          *time.Time `json:"updatedAt,omitempty"`
}

// Defaults is what callers see before anyone has saved settings.
func Defaults() *Settings {
	return &Settings{
		CompanyName:    DefaultCompanyName,
		Currency:       DefaultCurrency,
		LowStockAlerts: true,
	}
}

func FromDataModel(row *settingsDatamodel.AppSettings) *Settings {
	updatedAt := row.UpdatedAt
	return &Settings{
		CompanyName:        row.CompanyName,
		Currency:           row.Currency,
		LowStockAlerts:     row.LowStockAlerts,
		DefaultWarehouseID: row.DefaultWarehouseID,
		UpdatedBy:          row.UpdatedBy,
		UpdatedAt:          &updatedAt,
	}
}
