package settings

import "time"

// SingletonID is the primary key of the only settings row.
const SingletonID = 1

// AppSettings is stored as a single row keyed by ID. Column defaults live in
// the migration only; a gorm default would overwrite a saved false flag.
type AppSettings struct {
	ID                 int       `gorm:"primaryKey;autoIncrement:false"`
	CompanyName        string    `gorm:"column:company_name"`
	Currency           string    `gorm:"column:currency;not null"`
	LowStockAlerts     bool      `gorm:"column:low_stock_alerts;not null"`
	DefaultWarehouseID *string   `gorm:"column:default_warehouse_id"`
	UpdatedBy          *string   `gorm:"column:updated_by"`
	UpdatedAt          time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (AppSettings) TableName() string {
	return "app_settings"
}
