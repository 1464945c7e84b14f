package inventory

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Item struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)"`
	SKU          string    `gorm:"column:sku;uniqueIndex;not null"`
	Name         string    `gorm:"column:name;not null"`
	Description  string    `gorm:"column:description"`
	Category     string    `gorm:"column:category"`
	Unit         string    `gorm:"column:unit;not null;default:pcs"`
	UnitPrice    float64   `gorm:"column:unit_price;not null;default:0"`
	ReorderLevel *float64  `gorm:"column:reorder_level"`
	IsActive     bool      `gorm:"column:is_active;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *Item) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

type Supplier struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)"`
	Name        string    `gorm:"column:name;not null"`
	ContactName string    `gorm:"column:contact_name"`
	Email       string    `gorm:"column:email"`
	Phone       string    `gorm:"column:phone"`
	Address     string    `gorm:"column:address"`
	IsActive    bool      `gorm:"column:is_active;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *Supplier) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

type Warehouse struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"`
	Code      string    `gorm:"column:code;uniqueIndex;not null"`
	Name      string    `gorm:"column:name;not null"`
	Location  string    `gorm:"column:location"`
	IsActive  bool      `gorm:"column:is_active;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (w *Warehouse) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return nil
}

// Inventory is the on-hand balance of one item in one warehouse.
type Inventory struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)"`
	ItemID      string    `gorm:"column:item_id;not null;uniqueIndex:idx_inventory_item_warehouse"`
	WarehouseID string    `gorm:"column:warehouse_id;not null;uniqueIndex:idx_inventory_item_warehouse"`
	Quantity    float64   `gorm:"column:quantity;not null;default:0"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
	Item        Item      `gorm:"foreignKey:ItemID"`
	Warehouse   Warehouse `gorm:"foreignKey:WarehouseID"`
}

func (Inventory) TableName() string {
	return "inventory"
}

func (i *Inventory) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}
