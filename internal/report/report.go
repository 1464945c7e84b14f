package report

import (
	"sort"
	"time"

	"github.com/frahmantamala/warehouse-management/internal"
	"github.com/frahmantamala/warehouse-management/internal/core/datamodel/movement"
)

// Statistics is recomputed on every request; sums are never absent.
type Statistics struct {
	TotalItems           int64     `json:"totalItems"`
	TotalWarehouses      int64     `json:"totalWarehouses"`
	TotalSuppliers       int64     `json:"totalSuppliers"`
	TotalStockQuantity   float64   `json:"totalStockQuantity"`
	TotalStockValue      float64   `json:"totalStockValue"`
	LowStockItems        int64     `json:"lowStockItems"`
	TrackedStockItems    int64     `json:"trackedStockItems"`
	ThisMonthEntries     int64     `json:"thisMonthEntries"`
	ThisMonthValue       float64   `json:"thisMonthValue"`
	PendingTransfers     int64     `json:"pendingTransfers"`
	InTransitTransfers   int64     `json:"inTransitTransfers"`
	ThisMonthTransfers   int64     `json:"thisMonthTransfers"`
	PendingWithdrawals   int64     `json:"pendingWithdrawals"`
	ThisMonthWithdrawals int64     `json:"thisMonthWithdrawals"`
	GeneratedAt          time.Time `json:"generatedAt"`
}

// Filter scopes the statistics. From and To replace the month window.
type Filter struct {
	WarehouseID string
	From        *time.Time
	To          *time.Time
}

// Window is the half-open interval [From, To).
type Window struct {
	From time.Time
	To   time.Time
}

// MonthWindow runs from midnight on the first day of now's month, in now's
// location, up to now.
func MonthWindow(now time.Time) Window {
	year, month, _ := now.Date()
	return Window{From: time.Date(year, month, 1, 0, 0, 0, 0, now.Location()), To: now}
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && t.Before(w.To)
}

func windowFor(filter Filter, now time.Time) Window {
	w := MonthWindow(now)
	if filter.From != nil {
		w.From = *filter.From
	}
	if filter.To != nil {
		w.To = *filter.To
	}
	return w
}

// StockRow is one inventory balance joined with its item and warehouse.
type StockRow struct {
	ItemID        string   `json:"itemId"`
	SKU           string   `json:"sku"`
	ItemName      string   `json:"itemName"`
	WarehouseID   string   `json:"warehouseId"`
	WarehouseName string   `json:"warehouseName"`
	Quantity      float64  `json:"quantity"`
	ReorderLevel  *float64 `json:"reorderLevel"`
	UnitPrice     float64  `json:"unitPrice"`
}

func (r StockRow) IsLow() bool {
	return r.ReorderLevel != nil && r.Quantity <= *r.ReorderLevel
}

// CountLowStock ignores rows whose item declares no reorder level, in both
// the low count and the tracked count.
func CountLowStock(rows []StockRow) (low, tracked int64) {
	for _, row := range rows {
		if row.ReorderLevel == nil {
			continue
		}
		tracked++
		if row.IsLow() {
			low++
		}
	}
	return low, tracked
}

type ActivityType string

const (
	ActivityItemEntry  ActivityType = "ITEM_ENTRY"
	ActivityTransfer   ActivityType = "TRANSFER"
	ActivityWithdrawal ActivityType = "WITHDRAWAL"
	ActivityAdjustment ActivityType = "ADJUSTMENT"
)

const statusCompleted = "COMPLETED"

type Activity struct {
	ID          string       `json:"id"`
	Type        ActivityType `json:"type"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Timestamp   time.Time    `json:"timestamp"`
	Status      string       `json:"status"`
}

func EntryActivity(e *movement.ItemEntry) Activity {
	title := "Entry-" + lastN(e.ID, 6)
	if e.PurchaseRef != nil && *e.PurchaseRef != "" {
		title = *e.PurchaseRef
	}
	what := e.Item.Description
	if what == "" {
		what = e.Item.Name
	}
	return Activity{
		ID:          e.ID,
		Type:        ActivityItemEntry,
		Title:       title,
		Description: what + " from " + e.Supplier.Name,
		Timestamp:   e.CreatedAt,
		Status:      statusCompleted,
	}
}

func TransferActivity(t *movement.Transfer) Activity {
	return Activity{
		ID:          t.ID,
		Type:        ActivityTransfer,
		Title:       t.TransferNumber,
		Description: t.FromWarehouse.Name + " → " + t.ToWarehouse.Name,
		Timestamp:   t.CreatedAt,
		Status:      t.Status,
	}
}

func WithdrawalActivity(w *movement.Withdrawal) Activity {
	description := "Material withdrawal"
	if w.Purpose != nil && *w.Purpose != "" {
		description = *w.Purpose
	}
	return Activity{
		ID:          w.ID,
		Type:        ActivityWithdrawal,
		Title:       w.WithdrawalNumber,
		Description: description,
		Timestamp:   w.CreatedAt,
		Status:      w.Status,
	}
}

func AdjustmentActivity(a *movement.Adjustment) Activity {
	return Activity{
		ID:          a.ID,
		Type:        ActivityAdjustment,
		Title:       a.AdjustmentNumber,
		Description: a.Type + " - " + a.Reason,
		Timestamp:   a.CreatedAt,
		Status:      statusCompleted,
	}
}

// MergeActivities concatenates the groups, orders them newest first and keeps
// at most limit entries. Entries with equal timestamps keep group order.
func MergeActivities(limit int, groups ...[]Activity) []Activity {
	merged := make([]Activity, 0)
	for _, group := range groups {
		merged = append(merged, group...)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp.After(merged[j].Timestamp)
	})
	if limit >= 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

func lastN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// Dashboard sections are fetched independently; one failing section does not
// hide the other.
type Dashboard struct {
	Statistics     internal.Result[*Statistics] `json:"statistics"`
	RecentActivity internal.Result[[]Activity]  `json:"recentActivity"`
}
