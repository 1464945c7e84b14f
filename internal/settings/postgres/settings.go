package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/warehouse-management/internal/core/datamodel/inventory"
	settingsDatamodel "github.com/frahmantamala/warehouse-management/internal/core/datamodel/settings"
	"github.com/frahmantamala/warehouse-management/internal/settings"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) settings.RepositoryAPI {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) Get(ctx context.Context) (*settingsDatamodel.AppSettings, error) {
	var row settingsDatamodel.AppSettings
	err := r.db.WithContext(ctx).Where("id = ?", settingsDatamodel.SingletonID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Save upserts the singleton row.
func (r *SettingsRepository) Save(ctx context.Context, row *settingsDatamodel.AppSettings) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"company_name", "currency", "low_stock_alerts", "default_warehouse_id", "updated_by", "updated_at"}),
	}).Create(row).Error
}

func (r *SettingsRepository) WarehouseExists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&inventory.Warehouse{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}
