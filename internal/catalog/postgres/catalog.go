package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/frahmantamala/warehouse-management/internal"
	"github.com/frahmantamala/warehouse-management/internal/catalog"
	"github.com/frahmantamala/warehouse-management/internal/core/datamodel/inventory"
	"gorm.io/gorm"
)

type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) catalog.RepositoryAPI {
	return &CatalogRepository{db: db}
}

// search adds a case-insensitive substring match over columns.
func search(query *gorm.DB, term string, columns ...string) *gorm.DB {
	if term == "" {
		return query
	}
	pattern := "%" + strings.ToLower(term) + "%"
	clauses := make([]string, len(columns))
	args := make([]interface{}, len(columns))
	for i, col := range columns {
		clauses[i] = "LOWER(" + col + ") LIKE ?"
		args[i] = pattern
	}
	return query.Where(strings.Join(clauses, " OR "), args...)
}

func active(query *gorm.DB, flag *bool) *gorm.DB {
	if flag == nil {
		return query
	}
	return query.Where("is_active = ?", *flag)
}

func page[T any](query *gorm.DB, filter catalog.ListFilter, order string) ([]*T, int64, error) {
	query = query.Session(&gorm.Session{})
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []*T
	err := query.Order(order).Limit(filter.Limit).Offset(filter.Offset).Find(&rows).Error
	return rows, total, err
}

func notFound(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}

func (r *CatalogRepository) CreateItem(ctx context.Context, item *inventory.Item) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *CatalogRepository) GetItem(ctx context.Context, id string) (*inventory.Item, error) {
	var item inventory.Item
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, notFound(err, internal.ErrItemNotFound)
	}
	return &item, nil
}

func (r *CatalogRepository) ListItems(ctx context.Context, filter catalog.ListFilter) ([]*inventory.Item, int64, error) {
	query := r.db.WithContext(ctx).Model(&inventory.Item{})
	query = search(query, filter.Search, "sku", "name", "description")
	query = active(query, filter.Active)
	if filter.Category != "" {
		query = query.Where("LOWER(category) = LOWER(?)", filter.Category)
	}
	return page[inventory.Item](query, filter, "name ASC")
}

// UpdateItem writes every editable column, zero values included.
func (r *CatalogRepository) UpdateItem(ctx context.Context, item *inventory.Item) error {
	return r.db.WithContext(ctx).Model(item).
		Select("sku", "name", "description", "category", "unit", "unit_price", "reorder_level", "is_active").
		Updates(item).Error
}

func (r *CatalogRepository) SKUExists(ctx context.Context, sku, excludeID string) (bool, error) {
	query := r.db.WithContext(ctx).Model(&inventory.Item{}).Where("UPPER(sku) = UPPER(?)", sku)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	err := query.Count(&count).Error
	return count > 0, err
}

func (r *CatalogRepository) CreateSupplier(ctx context.Context, supplier *inventory.Supplier) error {
	return r.db.WithContext(ctx).Create(supplier).Error
}

func (r *CatalogRepository) GetSupplier(ctx context.Context, id string) (*inventory.Supplier, error) {
	var supplier inventory.Supplier
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&supplier).Error; err != nil {
		return nil, notFound(err, internal.ErrSupplierNotFound)
	}
	return &supplier, nil
}

func (r *CatalogRepository) ListSuppliers(ctx context.Context, filter catalog.ListFilter) ([]*inventory.Supplier, int64, error) {
	query := r.db.WithContext(ctx).Model(&inventory.Supplier{})
	query = search(query, filter.Search, "name", "contact_name", "email")
	query = active(query, filter.Active)
	return page[inventory.Supplier](query, filter, "name ASC")
}

func (r *CatalogRepository) UpdateSupplier(ctx context.Context, supplier *inventory.Supplier) error {
	return r.db.WithContext(ctx).Model(supplier).
		Select("name", "contact_name", "email", "phone", "address", "is_active").
		Updates(supplier).Error
}

func (r *CatalogRepository) CreateWarehouse(ctx context.Context, warehouse *inventory.Warehouse) error {
	return r.db.WithContext(ctx).Create(warehouse).Error
}

func (r *CatalogRepository) GetWarehouse(ctx context.Context, id string) (*inventory.Warehouse, error) {
	var warehouse inventory.Warehouse
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&warehouse).Error; err != nil {
		return nil, notFound(err, internal.ErrWarehouseNotFound)
	}
	return &warehouse, nil
}

func (r *CatalogRepository) ListWarehouses(ctx context.Context, filter catalog.ListFilter) ([]*inventory.Warehouse, int64, error) {
	query := r.db.WithContext(ctx).Model(&inventory.Warehouse{})
	query = search(query, filter.Search, "code", "name", "location")
	query = active(query, filter.Active)
	return page[inventory.Warehouse](query, filter, "code ASC")
}

func (r *CatalogRepository) UpdateWarehouse(ctx context.Context, warehouse *inventory.Warehouse) error {
	return r.db.WithContext(ctx).Model(warehouse).
		Select("code", "name", "location", "is_active").
		Updates(warehouse).Error
}

func (r *CatalogRepository) WarehouseCodeExists(ctx context.Context, code, excludeID string) (bool, error) {
	query := r.db.WithContext(ctx).Model(&inventory.Warehouse{}).Where("UPPER(code) = UPPER(?)", code)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	err := query.Count(&count).Error
	return count > 0, err
}
