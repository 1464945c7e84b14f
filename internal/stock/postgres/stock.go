package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/warehouse-management/internal"
	"github.com/frahmantamala/warehouse-management/internal/core/database"
	"github.com/frahmantamala/warehouse-management/internal/core/datamodel/inventory"
	"github.com/frahmantamala/warehouse-management/internal/core/datamodel/movement"
	"github.com/frahmantamala/warehouse-management/internal/stock"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StockRepository struct {
	db *gorm.DB
}

func NewStockRepository(db *gorm.DB) stock.RepositoryAPI {
	return &StockRepository{db: db}
}

func (r *StockRepository) conn(ctx context.Context) *gorm.DB {
	return database.Conn(ctx, r.db)
}

func (r *StockRepository) exists(ctx context.Context, model interface{}, id string) (bool, error) {
	var count int64
	err := r.conn(ctx).Model(model).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *StockRepository) ItemExists(ctx context.Context, id string) (bool, error) {
	return r.exists(ctx, &inventory.Item{}, id)
}

func (r *StockRepository) SupplierExists(ctx context.Context, id string) (bool, error) {
	return r.exists(ctx, &inventory.Supplier{}, id)
}

func (r *StockRepository) WarehouseExists(ctx context.Context, id string) (bool, error) {
	return r.exists(ctx, &inventory.Warehouse{}, id)
}

func (r *StockRepository) Balance(ctx context.Context, itemID, warehouseID string) (float64, error) {
	var row inventory.Inventory
	err := r.conn(ctx).Where("item_id = ? AND warehouse_id = ?", itemID, warehouseID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return row.Quantity, nil
}

// ApplyDelta is a single conditional update so two movements against the
// same row can never take the balance below zero. When no row exists yet a
// non-negative delta is upserted on (item_id, warehouse_id), so two first
// entries racing for the same pair add up instead of colliding.
func (r *StockRepository) ApplyDelta(ctx context.Context, itemID, warehouseID string, delta float64) (float64, error) {
	db := r.conn(ctx)
	result := db.Model(&inventory.Inventory{}).
		Where("item_id = ? AND warehouse_id = ? AND quantity + ? >= 0", itemID, warehouseID, delta).
		Updates(map[string]interface{}{
			"quantity":   gorm.Expr("quantity + ?", delta),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected > 0 {
		return r.Balance(ctx, itemID, warehouseID)
	}
	// a non-negative delta only misses the update when the row is absent
	if delta < 0 {
		return 0, internal.ErrInsufficientStock
	}

	row := &inventory.Inventory{ItemID: itemID, WarehouseID: warehouseID, Quantity: delta}
	err := db.Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "item_id"}, {Name: "warehouse_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":   gorm.Expr("inventory.quantity + excluded.quantity"),
			"updated_at": gorm.Expr("excluded.updated_at"),
		}),
	}).Create(row).Error
	if err != nil {
		return 0, err
	}
	return r.Balance(ctx, itemID, warehouseID)
}

func (r *StockRepository) ListLevels(ctx context.Context, filter stock.ListFilter) ([]*inventory.Inventory, int64, error) {
	query := r.conn(ctx).Model(&inventory.Inventory{})
	if filter.WarehouseID != "" {
		query = query.Where("warehouse_id = ?", filter.WarehouseID)
	}
	if filter.ItemID != "" {
		query = query.Where("item_id = ?", filter.ItemID)
	}
	return page[inventory.Inventory](query, filter, "updated_at DESC", "Item", "Warehouse")
}

// page counts before preloading; preloads only apply to the row fetch.
func page[T any](query *gorm.DB, filter stock.ListFilter, order string, preloads ...string) ([]*T, int64, error) {
	query = query.Session(&gorm.Session{})
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	fetch := query
	for _, p := range preloads {
		fetch = fetch.Preload(p)
	}
	var rows []*T
	err := fetch.Order(order).Limit(filter.Limit).Offset(filter.Offset).Find(&rows).Error
	return rows, total, err
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return internal.ErrMovementNotFound
	}
	return err
}

// ----------------- ENTRIES -----------------

func (r *StockRepository) CreateEntry(ctx context.Context, entry *movement.ItemEntry) error {
	return r.conn(ctx).Omit(clause.Associations).Create(entry).Error
}

func (r *StockRepository) GetEntry(ctx context.Context, id string) (*movement.ItemEntry, error) {
	var entry movement.ItemEntry
	err := r.conn(ctx).Preload("Item").Preload("Supplier").Preload("Warehouse").
		Where("id = ?", id).First(&entry).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &entry, nil
}

func (r *StockRepository) ListEntries(ctx context.Context, filter stock.ListFilter) ([]*movement.ItemEntry, int64, error) {
	query := r.conn(ctx).Model(&movement.ItemEntry{})
	if filter.WarehouseID != "" {
		query = query.Where("warehouse_id = ?", filter.WarehouseID)
	}
	if filter.ItemID != "" {
		query = query.Where("item_id = ?", filter.ItemID)
	}
	return page[movement.ItemEntry](query, filter, "created_at DESC", "Item", "Supplier", "Warehouse")
}

// ----------------- TRANSFERS -----------------

func (r *StockRepository) CreateTransfer(ctx context.Context, transfer *movement.Transfer) error {
	return r.conn(ctx).Omit("FromWarehouse", "ToWarehouse").Create(transfer).Error
}

func (r *StockRepository) GetTransfer(ctx context.Context, id string) (*movement.Transfer, error) {
	var transfer movement.Transfer
	err := r.conn(ctx).Preload("FromWarehouse").Preload("ToWarehouse").Preload("Lines.Item").
		Where("id = ?", id).First(&transfer).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &transfer, nil
}

func (r *StockRepository) ListTransfers(ctx context.Context, filter stock.ListFilter) ([]*movement.Transfer, int64, error) {
	query := r.conn(ctx).Model(&movement.Transfer{})
	if filter.WarehouseID != "" {
		query = query.Where("from_warehouse_id = ? OR to_warehouse_id = ?", filter.WarehouseID, filter.WarehouseID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	return page[movement.Transfer](query, filter, "created_at DESC", "FromWarehouse", "ToWarehouse", "Lines.Item")
}

func (r *StockRepository) UpdateTransferStatus(ctx context.Context, transfer *movement.Transfer, from string) error {
	result := r.conn(ctx).Model(&movement.Transfer{}).
		Where("id = ? AND status = ?", transfer.ID, from).
		Updates(map[string]interface{}{
			"status":        transfer.Status,
			"dispatched_at": transfer.DispatchedAt,
			"completed_at":  transfer.CompletedAt,
			"updated_at":    time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return internal.ErrInvalidStatus
	}
	return nil
}

// ----------------- WITHDRAWALS -----------------

func (r *StockRepository) CreateWithdrawal(ctx context.Context, withdrawal *movement.Withdrawal) error {
	return r.conn(ctx).Omit("Warehouse").Create(withdrawal).Error
}

func (r *StockRepository) GetWithdrawal(ctx context.Context, id string) (*movement.Withdrawal, error) {
	var withdrawal movement.Withdrawal
	err := r.conn(ctx).Preload("Warehouse").Preload("Lines.Item").
		Where("id = ?", id).First(&withdrawal).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &withdrawal, nil
}

func (r *StockRepository) ListWithdrawals(ctx context.Context, filter stock.ListFilter) ([]*movement.Withdrawal, int64, error) {
	query := r.conn(ctx).Model(&movement.Withdrawal{})
	if filter.WarehouseID != "" {
		query = query.Where("warehouse_id = ?", filter.WarehouseID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	return page[movement.Withdrawal](query, filter, "created_at DESC", "Warehouse", "Lines.Item")
}

func (r *StockRepository) UpdateWithdrawalStatus(ctx context.Context, withdrawal *movement.Withdrawal, from string) error {
	result := r.conn(ctx).Model(&movement.Withdrawal{}).
		Where("id = ? AND status = ?", withdrawal.ID, from).
		Updates(map[string]interface{}{
			"status":       withdrawal.Status,
			"approved_by":  withdrawal.ApprovedBy,
			"completed_at": withdrawal.CompletedAt,
			"updated_at":   time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return internal.ErrInvalidStatus
	}
	return nil
}

// ----------------- ADJUSTMENTS -----------------

func (r *StockRepository) CreateAdjustment(ctx context.Context, adjustment *movement.Adjustment) error {
	return r.conn(ctx).Omit(clause.Associations).Create(adjustment).Error
}

func (r *StockRepository) GetAdjustment(ctx context.Context, id string) (*movement.Adjustment, error) {
	var adjustment movement.Adjustment
	err := r.conn(ctx).Preload("Item").Preload("Warehouse").Where("id = ?", id).First(&adjustment).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &adjustment, nil
}

func (r *StockRepository) ListAdjustments(ctx context.Context, filter stock.ListFilter) ([]*movement.Adjustment, int64, error) {
	query := r.conn(ctx).Model(&movement.Adjustment{})
	if filter.WarehouseID != "" {
		query = query.Where("warehouse_id = ?", filter.WarehouseID)
	}
	if filter.ItemID != "" {
		query = query.Where("item_id = ?", filter.ItemID)
	}
	return page[movement.Adjustment](query, filter, "created_at DESC", "Item", "Warehouse")
}
