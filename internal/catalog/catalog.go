package catalog

import (
	"time"

	"github.com/frahmantamala/warehouse-management/internal/core/datamodel/inventory"
)

type Item struct {
	ID           string    `json:"id"`
	SKU          string    `json:"sku"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	Unit         string    `json:"unit"`
	UnitPrice    float64   `json:"unitPrice"`
	ReorderLevel *float64  `json:"reorderLevel"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Supplier struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ContactName string    `json:"contactName"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Address     string    `json:"address"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Warehouse struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Location  string    `json:"location"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func ItemFromDataModel(i *inventory.Item) *Item {
	return &Item{
		ID:           i.ID,
		SKU:          i.SKU,
		Name:         i.Name,
		Description:  i.Description,
		Category:     i.Category,
		Unit:         i.Unit,
		UnitPrice:    i.UnitPrice,
		ReorderLevel: i.ReorderLevel,
		IsActive:     i.IsActive,
		CreatedAt:    i.CreatedAt,
		UpdatedAt:    i.UpdatedAt,
	}
}

func SupplierFromDataModel(s *inventory.Supplier) *Supplier {
	return &Supplier{
		ID:          s.ID,
		Name:        s.Name,
		ContactName: s.ContactName,
		Email:       s.Email,
		Phone:       s.Phone,
		Address:     s.Address,
		IsActive:    s.IsActive,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func WarehouseFromDataModel(w *inventory.Warehouse) *Warehouse {
	return &Warehouse{
		ID:        w.ID,
		Code:      w.Code,
		Name:      w.Name,
		Location:  w.Location,
		IsActive:  w.IsActive,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}

// Page is a slice of results plus the unpaginated total.
type Page[T any] struct {
	Items  []T   `json:"items"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

type ListFilter struct {
	Search   string
	Category string
	Active   *bool
	Limit    int
	Offset   int
}
