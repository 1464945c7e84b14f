package movement

import (
	"time"

	"github.com/frahmantamala/warehouse-management/internal/core/datamodel/inventory"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ItemEntry is a goods receipt, usually against a purchase.
type ItemEntry struct {
	ID          string              `gorm:"primaryKey;type:varchar(36)"`
	PurchaseRef *string             `gorm:"column:purchase_ref"`
	ItemID      string              `gorm:"column:item_id;not null;index"`
	SupplierID  string              `gorm:"column:supplier_id;not null;index"`
	WarehouseID string              `gorm:"column:warehouse_id;not null;index"`
	Quantity    float64             `gorm:"column:quantity;not null"`
	UnitCost    float64             `gorm:"column:unit_cost;not null"`
	TotalCost   float64             `gorm:"column:total_cost;not null"`
	Notes       string              `gorm:"column:notes"`
	ReceivedBy  *string             `gorm:"column:received_by"`
	CreatedAt   time.Time           `gorm:"column:created_at;index"`
	Item        inventory.Item      `gorm:"foreignKey:ItemID"`
	Supplier    inventory.Supplier  `gorm:"foreignKey:SupplierID"`
	Warehouse   inventory.Warehouse `gorm:"foreignKey:WarehouseID"`
}

func (e *ItemEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	return nil
}

type Transfer struct {
	ID              string              `gorm:"primaryKey;type:varchar(36)"`
	TransferNumber  string              `gorm:"column:transfer_number;uniqueIndex;not null"`
	FromWarehouseID string              `gorm:"column:from_warehouse_id;not null;index"`
	ToWarehouseID   string              `gorm:"column:to_warehouse_id;not null;index"`
	Status          string              `gorm:"column:status;not null;default:PENDING"`
	Notes           string              `gorm:"column:notes"`
	RequestedBy     *string             `gorm:"column:requested_by"`
	DispatchedAt    *time.Time          `gorm:"column:dispatched_at"`
	CompletedAt     *time.Time          `gorm:"column:completed_at"`
	CreatedAt       time.Time           `gorm:"column:created_at;index"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
	FromWarehouse   inventory.Warehouse `gorm:"foreignKey:FromWarehouseID"`
	ToWarehouse     inventory.Warehouse `gorm:"foreignKey:ToWarehouseID"`
	Lines           []TransferLine      `gorm:"foreignKey:TransferID"`
}

func (t *Transfer) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	return nil
}

type TransferLine struct {
	ID         string         `gorm:"primaryKey;type:varchar(36)"`
	TransferID string         `gorm:"column:transfer_id;not null;index"`
	ItemID     string         `gorm:"column:item_id;not null"`
	Quantity   float64        `gorm:"column:quantity;not null"`
	Item       inventory.Item `gorm:"foreignKey:ItemID"`
}

func (l *TransferLine) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

type Withdrawal struct {
	ID               string              `gorm:"primaryKey;type:varchar(36)"`
	WithdrawalNumber string              `gorm:"column:withdrawal_number;uniqueIndex;not null"`
	WarehouseID      string              `gorm:"column:warehouse_id;not null;index"`
	Purpose          *string             `gorm:"column:purpose"`
	Status           string              `gorm:"column:status;not null;default:PENDING"`
	RequestedBy      *string             `gorm:"column:requested_by"`
	ApprovedBy       *string             `gorm:"column:approved_by"`
	CompletedAt      *time.Time          `gorm:"column:completed_at"`
	CreatedAt        time.Time           `gorm:"column:created_at;index"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
	Warehouse        inventory.Warehouse `gorm:"foreignKey:WarehouseID"`
	Lines            []WithdrawalLine    `gorm:"foreignKey:WithdrawalID"`
}

func (w *Withdrawal) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now()
	}
	return nil
}

type WithdrawalLine struct {
	ID           string         `gorm:"primaryKey;type:varchar(36)"`
	WithdrawalID string         `gorm:"column:withdrawal_id;not null;index"`
	ItemID       string         `gorm:"column:item_id;not null"`
	Quantity     float64        `gorm:"column:quantity;not null"`
	Item         inventory.Item `gorm:"foreignKey:ItemID"`
}

func (l *WithdrawalLine) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

type Adjustment struct {
	ID               string              `gorm:"primaryKey;type:varchar(36)"`
	AdjustmentNumber string              `gorm:"column:adjustment_number;uniqueIndex;not null"`
	WarehouseID      string              `gorm:"column:warehouse_id;not null;index"`
	ItemID           string              `gorm:"column:item_id;not null"`
	Type             string              `gorm:"column:type;not null"`
	Quantity         float64             `gorm:"column:quantity;not null"`
	QuantityBefore   float64             `gorm:"column:quantity_before;not null"`
	QuantityAfter    float64             `gorm:"column:quantity_after;not null"`
	Reason           string              `gorm:"column:reason;not null"`
	AdjustedBy       *string             `gorm:"column:adjusted_by"`
	CreatedAt        time.Time           `gorm:"column:created_at;index"`
	Item             inventory.Item      `gorm:"foreignKey:ItemID"`
	Warehouse        inventory.Warehouse `gorm:"foreignKey:WarehouseID"`
}

func (a *Adjustment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	return nil
}
