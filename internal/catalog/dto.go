package catalog

import (
	"strings"

	"github.com/frahmantamala/warehouse-management/internal"
	"github.com/frahmantamala/warehouse-management/internal/core/common/validation"
)

// ItemInput is used for create and for full update.
type ItemInput struct {
	SKU          string   `json:"sku"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Category     string   `json:"category"`
	Unit         string   `json:"unit"`
	UnitPrice    float64  `json:"unitPrice"`
	ReorderLevel *float64 `json:"reorderLevel"`
}

func (d *ItemInput) Normalize() {
	d.SKU = strings.ToUpper(strings.TrimSpace(d.SKU))
	d.Name = strings.TrimSpace(d.Name)
	d.Unit = strings.TrimSpace(d.Unit)
	if d.Unit == "" {
		d.Unit = "pcs"
	}
}

func (d ItemInput) Validate() error {
	v := validation.NewValidator()
	v.Field("sku", d.SKU).Required().MaxLength(64)
	v.Field("name", d.Name).Required().MaxLength(200)
	v.Field("unitPrice", d.UnitPrice).MinFloat(0, internal.ErrCodeInvalidPrice)
	v.Field("reorderLevel", d.ReorderLevel).MinFloat(0, internal.ErrCodeInvalidQuantity)
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

type SupplierInput struct {
	Name        string `json:"name"`
	ContactName string `json:"contactName"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
}

func (d *SupplierInput) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.Email = strings.TrimSpace(d.Email)
}

func (d SupplierInput) Validate() error {
	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(200)
	v.Field("email", d.Email).Email()
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

type WarehouseInput struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Location string `json:"location"`
}

func (d *WarehouseInput) Normalize() {
	d.Code = strings.ToUpper(strings.TrimSpace(d.Code))
	d.Name = strings.TrimSpace(d.Name)
}

func (d WarehouseInput) Validate() error {
	v := validation.NewValidator()
	v.Field("code", d.Code).Required().MaxLength(32)
	v.Field("name", d.Name).Required().MaxLength(200)
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}
