package stock

import (
	"fmt"
	"strings"

	"github.com/frahmantamala/warehouse-management/internal"
	"github.com/frahmantamala/warehouse-management/internal/core/common/validation"
)

type EntryDTO struct {
	PurchaseRef *string `json:"purchaseRef"`
	ItemID      string  `json:"itemId"`
	SupplierID  string  `json:"supplierId"`
	WarehouseID string  `json:"warehouseId"`
	Quantity    float64 `json:"quantity"`
	UnitCost    float64 `json:"unitCost"`
	Notes       string  `json:"notes"`
}

func (d EntryDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("itemId", d.ItemID).Required()
	v.Field("supplierId", d.SupplierID).Required()
	v.Field("warehouseId", d.WarehouseID).Required()
	v.Field("quantity", d.Quantity).Positive(internal.ErrCodeInvalidQuantity)
	v.Field("unitCost", d.UnitCost).MinFloat(0, internal.ErrCodeInvalidPrice)
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

type LineDTO struct {
	ItemID   string  `json:"itemId"`
	Quantity float64 `json:"quantity"`
}

func validateLines(v *validation.ValidationBuilder, lines []LineDTO) {
	v.Field("lines", lines).Custom(func(value interface{}) *internal.AppError {
		if len(lines) == 0 {
			return internal.NewValidationFieldError("lines", "at least one line is required", internal.ErrCodeValidationFailed)
		}
		return nil
	})
	for i, line := range lines {
		prefix := fmt.Sprintf("lines[%d].", i)
		v.Field(prefix+"itemId", line.ItemID).Required()
		v.Field(prefix+"quantity", line.Quantity).Positive(internal.ErrCodeInvalidQuantity)
	}
}

type TransferDTO struct {
	FromWarehouseID string    `json:"fromWarehouseId"`
	ToWarehouseID   string    `json:"toWarehouseId"`
	Notes           string    `json:"notes"`
	Lines           []LineDTO `json:"lines"`
}

func (d TransferDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("fromWarehouseId", d.FromWarehouseID).Required()
	v.Field("toWarehouseId", d.ToWarehouseID).Required().Custom(func(value interface{}) *internal.AppError {
		if d.FromWarehouseID != "" && d.FromWarehouseID == d.ToWarehouseID {
			return internal.NewValidationFieldError("toWarehouseId",
				"destination warehouse must differ from the source", internal.ErrCodeSameWarehouse)
		}
		return nil
	})
	validateLines(v, d.Lines)
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

type WithdrawalDTO struct {
	WarehouseID string    `json:"warehouseId"`
	Purpose     *string   `json:"purpose"`
	Lines       []LineDTO `json:"lines"`
}

func (d WithdrawalDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("warehouseId", d.WarehouseID).Required()
	v.Field("purpose", d.Purpose).Custom(func(value interface{}) *internal.AppError {
		if d.Purpose != nil && len(*d.Purpose) > 500 {
			return internal.NewValidationFieldError("purpose", "purpose must not exceed 500 characters", internal.ErrCodeValidationFailed)
		}
		return nil
	})
	validateLines(v, d.Lines)
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

type AdjustmentDTO struct {
	WarehouseID string  `json:"warehouseId"`
	ItemID      string  `json:"itemId"`
	Type        string  `json:"type"`
	Quantity    float64 `json:"quantity"`
	Reason      string  `json:"reason"`
}

func (d *AdjustmentDTO) Normalize() {
	d.Type = strings.ToUpper(strings.TrimSpace(d.Type))
	d.Reason = strings.TrimSpace(d.Reason)
}

// Validate allows a zero quantity only for a recount.
func (d AdjustmentDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("warehouseId", d.WarehouseID).Required()
	v.Field("itemId", d.ItemID).Required()
	v.Field("type", d.Type).Required().OneOf(internal.ErrCodeValidationFailed,
		AdjustmentIncrease, AdjustmentDecrease, AdjustmentRecount)
	if d.Type == AdjustmentRecount {
		v.Field("quantity", d.Quantity).MinFloat(0, internal.ErrCodeInvalidQuantity)
	} else {
		v.Field("quantity", d.Quantity).Positive(internal.ErrCodeInvalidQuantity)
	}
	v.Field("reason", d.Reason).Required().MaxLength(500)
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}
