package stock

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/frahmantamala/warehouse-management/internal/core/datamodel/inventory"
	"github.com/frahmantamala/warehouse-management/internal/core/datamodel/movement"
)

const (
	TransferPending   = "PENDING"
	TransferInTransit = "IN_TRANSIT"
	TransferCompleted = "COMPLETED"
	TransferCancelled = "CANCELLED"

	WithdrawalPending   = "PENDING"
	WithdrawalApproved  = "APPROVED"
	WithdrawalCompleted = "COMPLETED"
	WithdrawalRejected  = "REJECTED"

	AdjustmentIncrease = "INCREASE"
	AdjustmentDecrease = "DECREASE"
	AdjustmentRecount  = "RECOUNT"
)

// transferTransitions lists the statuses each transfer status may move to.
var transferTransitions = map[string][]string{
	TransferPending:   {TransferInTransit, TransferCancelled},
	TransferInTransit: {TransferCompleted, TransferCancelled},
}

var withdrawalTransitions = map[string][]string{
	WithdrawalPending:  {WithdrawalApproved, WithdrawalRejected},
	WithdrawalApproved: {WithdrawalCompleted, WithdrawalRejected},
}

func canMove(table map[string][]string, from, to string) bool {
	for _, next := range table[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NewDocumentNumber builds numbers such as TRF-20240315-3FA9C1.
func NewDocumentNumber(prefix string, at time.Time) string {
	buf := make([]byte, 3)
	_, _ = rand.Read(buf)
	return prefix + "-" + at.Format("20060102") + "-" + strings.ToUpper(hex.EncodeToString(buf))
}

type Entry struct {
	ID            string    `json:"id"`
	PurchaseRef   *string   `json:"purchaseRef,omitempty"`
	ItemID        string    `json:"itemId"`
	ItemName      string    `json:"itemName,omitempty"`
	SupplierID    string    `json:"supplierId"`
	SupplierName  string    `json:"supplierName,omitempty"`
	WarehouseID   string    `json:"warehouseId"`
	WarehouseName string    `json:"warehouseName,omitempty"`
	Quantity      float64   `json:"quantity"`
	UnitCost      float64   `json:"unitCost"`
	TotalCost     float64   `json:"totalCost"`
	Notes         string    `json:"notes,omitempty"`
	ReceivedBy    *string   `json:"receivedBy,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

func EntryFromDataModel(e *movement.ItemEntry) *Entry {
	return &Entry{
		ID:            e.ID,
		PurchaseRef:   e.PurchaseRef,
		ItemID:        e.ItemID,
		ItemName:      e.Item.Name,
		SupplierID:    e.SupplierID,
		SupplierName:  e.Supplier.Name,
		WarehouseID:   e.WarehouseID,
		WarehouseName: e.Warehouse.Name,
		Quantity:      e.Quantity,
		UnitCost:      e.UnitCost,
		TotalCost:     e.TotalCost,
		Notes:         e.Notes,
		ReceivedBy:    e.ReceivedBy,
		CreatedAt:     e.CreatedAt,
	}
}

type Line struct {
	ItemID   string  `json:"itemId"`
	ItemName string  `json:"itemName,omitempty"`
	Quantity float64 `json:"quantity"`
}

type Transfer struct {
	ID                string     `json:"id"`
	TransferNumber    string     `json:"transferNumber"`
	FromWarehouseID   string     `json:"fromWarehouseId"`
	FromWarehouseName string     `json:"fromWarehouseName,omitempty"`
	ToWarehouseID     string     `json:"toWarehouseId"`
	ToWarehouseName   string     `json:"toWarehouseName,omitempty"`
	Status            string     `json:"status"`
	Notes             string     `json:"notes,omitempty"`
	RequestedBy       *string    `json:"requestedBy,omitempty"`
	DispatchedAt      *time.Time `json:"dispatchedAt,omitempty"`
	CompletedAt       *time.Time `json:"completedAt,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	Lines             []Line     `json:"lines"`
}

func TransferFromDataModel(t *movement.Transfer) *Transfer {
	lines := make([]Line, 0, len(t.Lines))
	for _, l := range t.Lines {
		lines = append(lines, Line{ItemID: l.ItemID, ItemName: l.Item.Name, Quantity: l.Quantity})
	}
	return &Transfer{
		ID:                t.ID,
		TransferNumber:    t.TransferNumber,
		FromWarehouseID:   t.FromWarehouseID,
		FromWarehouseName: t.FromWarehouse.Name,
		ToWarehouseID:     t.ToWarehouseID,
		ToWarehouseName:   t.ToWarehouse.Name,
		Status:            t.Status,
		Notes:             t.Notes,
		RequestedBy:       t.RequestedBy,
		DispatchedAt:      t.DispatchedAt,
		CompletedAt:       t.CompletedAt,
		CreatedAt:         t.CreatedAt,
		Lines:             lines,
	}
}

type Withdrawal struct {
	ID               string     `json:"id"`
	WithdrawalNumber string     `json:"withdrawalNumber"`
	WarehouseID      string     `json:"warehouseId"`
	WarehouseName    string     `json:"warehouseName,omitempty"`
	Purpose          *string    `json:"purpose,omitempty"`
	Status           string     `json:"status"`
	RequestedBy      *string    `json:"requestedBy,omitempty"`
	ApprovedBy       *string    `json:"approvedBy,omitempty"`
	CompletedAt      *time.Time `json:"completedAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	Lines            []Line     `json:"lines"`
}

func WithdrawalFromDataModel(w *movement.Withdrawal) *Withdrawal {
	lines := make([]Line, 0, len(w.Lines))
	for _, l := range w.Lines {
		lines = append(lines, Line{ItemID: l.ItemID, ItemName: l.Item.Name, Quantity: l.Quantity})
	}
	return &Withdrawal{
		ID:               w.ID,
		WithdrawalNumber: w.WithdrawalNumber,
		WarehouseID:      w.WarehouseID,
		WarehouseName:    w.Warehouse.Name,
		Purpose:          w.Purpose,
		Status:           w.Status,
		RequestedBy:      w.RequestedBy,
		ApprovedBy:       w.ApprovedBy,
		CompletedAt:      w.CompletedAt,
		CreatedAt:        w.CreatedAt,
		Lines:            lines,
	}
}

type Adjustment struct {
	ID               string    `json:"id"`
	AdjustmentNumber string    `json:"adjustmentNumber"`
	WarehouseID      string    `json:"warehouseId"`
	WarehouseName    string    `json:"warehouseName,omitempty"`
	ItemID           string    `json:"itemId"`
	ItemName         string    `json:"itemName,omitempty"`
	Type             string    `json:"type"`
	Quantity         float64   `json:"quantity"`
	QuantityBefore   float64   `json:"quantityBefore"`
	QuantityAfter    float64   `json:"quantityAfter"`
	Reason           string    `json:"reason"`
	AdjustedBy       *string   `json:"adjustedBy,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

func AdjustmentFromDataModel(a *movement.Adjustment) *Adjustment {
	return &Adjustment{
		ID:               a.ID,
		AdjustmentNumber: a.AdjustmentNumber,
		WarehouseID:      a.WarehouseID,
		WarehouseName:    a.Warehouse.Name,
		ItemID:           a.ItemID,
		ItemName:         a.Item.Name,
		Type:             a.Type,
		Quantity:         a.Quantity,
		QuantityBefore:   a.QuantityBefore,
		QuantityAfter:    a.QuantityAfter,
		Reason:           a.Reason,
		AdjustedBy:       a.AdjustedBy,
		CreatedAt:        a.CreatedAt,
	}
}

// Level is the on-hand balance of one item in one warehouse.
type Level struct {
	ItemID        string    `json:"itemId"`
	SKU           string    `json:"sku"`
	ItemName      string    `json:"itemName"`
	Unit          string    `json:"unit"`
	WarehouseID   string    `json:"warehouseId"`
	WarehouseName string    `json:"warehouseName"`
	Quantity      float64   `json:"quantity"`
	ReorderLevel  *float64  `json:"reorderLevel,omitempty"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func LevelFromDataModel(row *inventory.Inventory) *Level {
	return &Level{
		ItemID:        row.ItemID,
		SKU:           row.Item.SKU,
		ItemName:      row.Item.Name,
		Unit:          row.Item.Unit,
		WarehouseID:   row.WarehouseID,
		WarehouseName: row.Warehouse.Name,
		Quantity:      row.Quantity,
		ReorderLevel:  row.Item.ReorderLevel,
		UpdatedAt:     row.UpdatedAt,
	}
}

// ListFilter narrows movement and balance listings. For transfers the
// warehouse matches either end.
type ListFilter struct {
	WarehouseID string
	ItemID      string
	Status      string
	Limit       int
	Offset      int
}

type Page[T any] struct {
	Items  []T   `json:"items"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}
