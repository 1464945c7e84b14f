package postgres

import (
	"context"
	"database/sql"

	"github.com/frahmantamala/warehouse-management/internal/core/datamodel/inventory"
	"github.com/frahmantamala/warehouse-management/internal/core/datamodel/movement"
	"github.com/frahmantamala/warehouse-management/internal/report"
	"gorm.io/gorm"
)

type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) report.RepositoryAPI {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) countActive(ctx context.Context, model interface{}) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(model).Where("is_active = ?", true).Count(&count).Error
	return count, err
}

func (r *ReportRepository) CountItems(ctx context.Context) (int64, error) {
	return r.countActive(ctx, &inventory.Item{})
}

func (r *ReportRepository) CountWarehouses(ctx context.Context) (int64, error) {
	return r.countActive(ctx, &inventory.Warehouse{})
}

func (r *ReportRepository) CountSuppliers(ctx context.Context) (int64, error) {
	return r.countActive(ctx, &inventory.Supplier{})
}

func (r *ReportRepository) StockRows(ctx context.Context, warehouseID string) ([]report.StockRow, error) {
	query := r.db.WithContext(ctx).Table("inventory").
		Select(`inventory.item_id, items.sku, items.name AS item_name,
			inventory.warehouse_id, warehouses.name AS warehouse_name,
			inventory.quantity, items.reorder_level, items.unit_price`).
		Joins("JOIN items ON items.id = inventory.item_id").
		Joins("JOIN warehouses ON warehouses.id = inventory.warehouse_id")
	if warehouseID != "" {
		query = query.Where("inventory.warehouse_id = ?", warehouseID)
	}
	var rows []report.StockRow
	err := query.Order("items.name ASC").Scan(&rows).Error
	return rows, err
}

// EntryTotals sums with COALESCE and still guards against a NULL result.
func (r *ReportRepository) EntryTotals(ctx context.Context, warehouseID string, window report.Window) (int64, float64, error) {
	query := r.db.WithContext(ctx).Model(&movement.ItemEntry{}).
		Select("COUNT(*) AS count, COALESCE(SUM(total_cost), 0) AS value").
		Where("created_at >= ? AND created_at < ?", window.From, window.To)
	if warehouseID != "" {
		query = query.Where("warehouse_id = ?", warehouseID)
	}
	var out struct {
		Count int64
		Value sql.NullFloat64
	}
	if err := query.Scan(&out).Error; err != nil {
		return 0, 0, err
	}
	if !out.Value.Valid {
		return out.Count, 0, nil
	}
	return out.Count, out.Value.Float64, nil
}

func (r *ReportRepository) CountTransfers(ctx context.Context, warehouseID, status string, window *report.Window) (int64, error) {
	query := r.db.WithContext(ctx).Model(&movement.Transfer{})
	if warehouseID != "" {
		query = query.Where("from_warehouse_id = ? OR to_warehouse_id = ?", warehouseID, warehouseID)
	}
	return count(filtered(query, status, window))
}

func (r *ReportRepository) CountWithdrawals(ctx context.Context, warehouseID, status string, window *report.Window) (int64, error) {
	query := r.db.WithContext(ctx).Model(&movement.Withdrawal{})
	if warehouseID != "" {
		query = query.Where("warehouse_id = ?", warehouseID)
	}
	return count(filtered(query, status, window))
}

func filtered(query *gorm.DB, status string, window *report.Window) *gorm.DB {
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if window != nil {
		query = query.Where("created_at >= ? AND created_at < ?", window.From, window.To)
	}
	return query
}

func count(query *gorm.DB) (int64, error) {
	var n int64
	err := query.Count(&n).Error
	return n, err
}

func (r *ReportRepository) RecentEntries(ctx context.Context, limit int) ([]*movement.ItemEntry, error) {
	var rows []*movement.ItemEntry
	err := r.db.WithContext(ctx).Preload("Item").Preload("Supplier").
		Order("created_at DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

func (r *ReportRepository) RecentTransfers(ctx context.Context, limit int) ([]*movement.Transfer, error) {
	var rows []*movement.Transfer
	err := r.db.WithContext(ctx).Preload("FromWarehouse").Preload("ToWarehouse").
		Order("created_at DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

func (r *ReportRepository) RecentWithdrawals(ctx context.Context, limit int) ([]*movement.Withdrawal, error) {
	var rows []*movement.Withdrawal
	err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

func (r *ReportRepository) RecentAdjustments(ctx context.Context, limit int) ([]*movement.Adjustment, error) {
	var rows []*movement.Adjustment
	err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&rows).Error
	return rows, err
}
