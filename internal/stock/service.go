package stock

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/frahmantamala/warehouse-management/internal"
	"github.com/frahmantamala/warehouse-management/internal/core/datamodel/inventory"
	"github.com/frahmantamala/warehouse-management/internal/core/datamodel/movement"
	"github.com/frahmantamala/warehouse-management/internal/core/events"
)

type RepositoryAPI interface {
	ItemExists(ctx context.Context, id string) (bool, error)
	SupplierExists(ctx context.Context, id string) (bool, error)
	WarehouseExists(ctx context.Context, id string) (bool, error)

	// Balance is zero when no inventory row exists yet.
	Balance(ctx context.Context, itemID, warehouseID string) (float64, error)
	// ApplyDelta returns the new balance, or internal.ErrInsufficientStock
	// when the balance would drop below zero.
	ApplyDelta(ctx context.Context, itemID, warehouseID string, delta float64) (float64, error)
	ListLevels(ctx context.Context, filter ListFilter) ([]*inventory.Inventory, int64, error)

	CreateEntry(ctx context.Context, entry *movement.ItemEntry) error
	GetEntry(ctx context.Context, id string) (*movement.ItemEntry, error)
	ListEntries(ctx context.Context, filter ListFilter) ([]*movement.ItemEntry, int64, error)

	CreateTransfer(ctx context.Context, transfer *movement.Transfer) error
	GetTransfer(ctx context.Context, id string) (*movement.Transfer, error)
	ListTransfers(ctx context.Context, filter ListFilter) ([]*movement.Transfer, int64, error)
	// UpdateTransferStatus writes only while the stored status still equals from.
	UpdateTransferStatus(ctx context.Context, transfer *movement.Transfer, from string) error

	CreateWithdrawal(ctx context.Context, withdrawal *movement.Withdrawal) error
	GetWithdrawal(ctx context.Context, id string) (*movement.Withdrawal, error)
	ListWithdrawals(ctx context.Context, filter ListFilter) ([]*movement.Withdrawal, int64, error)
	UpdateWithdrawalStatus(ctx context.Context, withdrawal *movement.Withdrawal, from string) error

	CreateAdjustment(ctx context.Context, adjustment *movement.Adjustment) error
	GetAdjustment(ctx context.Context, id string) (*movement.Adjustment, error)
	ListAdjustments(ctx context.Context, filter ListFilter) ([]*movement.Adjustment, int64, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Service struct {
	repo      RepositoryAPI
	tx        txManager
	publisher events.Publisher
	now       internal.Clock
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, tx txManager, publisher events.Publisher, now internal.Clock, logger *slog.Logger) *Service {
	if now == nil {
		now = internal.SystemClock
	}
	return &Service{
		repo:      repo,
		tx:        tx,
		publisher: publisher,
		now:       now,
		logger:    logger,
	}
}

// ----------------- ENTRIES -----------------

func (s *Service) RecordEntry(ctx context.Context, dto EntryDTO) (*Entry, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if err := s.requireItem(ctx, dto.ItemID); err != nil {
		return nil, err
	}
	if err := s.requireSupplier(ctx, dto.SupplierID); err != nil {
		return nil, err
	}
	if err := s.requireWarehouse(ctx, dto.WarehouseID); err != nil {
		return nil, err
	}

	row := &movement.ItemEntry{
		PurchaseRef: trimmed(dto.PurchaseRef),
		ItemID:      dto.ItemID,
		SupplierID:  dto.SupplierID,
		WarehouseID: dto.WarehouseID,
		Quantity:    dto.Quantity,
		UnitCost:    dto.UnitCost,
		TotalCost:   dto.Quantity * dto.UnitCost,
		Notes:       strings.TrimSpace(dto.Notes),
		ReceivedBy:  internal.ActorFromContext(ctx),
		CreatedAt:   s.now(),
	}
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.repo.CreateEntry(ctx, row); err != nil {
			return err
		}
		_, err := s.move(ctx, row.ItemID, row.WarehouseID, row.Quantity)
		return err
	})
	if err != nil {
		return nil, s.writeFailure("record item entry", err)
	}

	s.publish(ctx, events.EventTypeEntryRecorded, "item_entry", row.ID, map[string]interface{}{
		"item_id": row.ItemID, "warehouse_id": row.WarehouseID, "quantity": row.Quantity, "total_cost": row.TotalCost,
	})
	return s.GetEntry(ctx, row.ID)
}

func (s *Service) GetEntry(ctx context.Context, id string) (*Entry, error) {
	row, err := s.repo.GetEntry(ctx, id)
	if err != nil {
		return nil, s.readFailure("item entry", id, err)
	}
	return EntryFromDataModel(row), nil
}

func (s *Service) ListEntries(ctx context.Context, filter ListFilter) (Page[*Entry], error) {
	rows, total, err := s.repo.ListEntries(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list item entries", "error", err)
		return Page[*Entry]{}, internal.NewFetchError("item entries", err)
	}
	items := make([]*Entry, 0, len(rows))
	for _, row := range rows {
		items = append(items, EntryFromDataModel(row))
	}
	return Page[*Entry]{Items: items, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

// ----------------- TRANSFERS -----------------

func (s *Service) CreateTransfer(ctx context.Context, dto TransferDTO) (*Transfer, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if err := s.requireWarehouse(ctx, dto.FromWarehouseID); err != nil {
		return nil, err
	}
	if err := s.requireWarehouse(ctx, dto.ToWarehouseID); err != nil {
		return nil, err
	}
	if err := s.requireLineItems(ctx, dto.Lines); err != nil {
		return nil, err
	}

	now := s.now()
	row := &movement.Transfer{
		TransferNumber:  NewDocumentNumber("TRF", now),
		FromWarehouseID: dto.FromWarehouseID,
		ToWarehouseID:   dto.ToWarehouseID,
		Status:          TransferPending,
		Notes:           strings.TrimSpace(dto.Notes),
		RequestedBy:     internal.ActorFromContext(ctx),
		CreatedAt:       now,
	}
	for _, line := range dto.Lines {
		row.Lines = append(row.Lines, movement.TransferLine{ItemID: line.ItemID, Quantity: line.Quantity})
	}
	if err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		return s.repo.CreateTransfer(ctx, row)
	}); err != nil {
		return nil, s.writeFailure("create transfer", err)
	}

	s.publish(ctx, events.EventTypeTransferCreated, "transfer", row.ID, map[string]interface{}{
		"transfer_number": row.TransferNumber, "status": row.Status,
	})
	return s.GetTransfer(ctx, row.ID)
}

func (s *Service) GetTransfer(ctx context.Context, id string) (*Transfer, error) {
	row, err := s.repo.GetTransfer(ctx, id)
	if err != nil {
		return nil, s.readFailure("transfer", id, err)
	}
	return TransferFromDataModel(row), nil
}

func (s *Service) ListTransfers(ctx context.Context, filter ListFilter) (Page[*Transfer], error) {
	filter.Status = strings.ToUpper(strings.TrimSpace(filter.Status))
	rows, total, err := s.repo.ListTransfers(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list transfers", "error", err)
		return Page[*Transfer]{}, internal.NewFetchError("transfers", err)
	}
	items := make([]*Transfer, 0, len(rows))
	for _, row := range rows {
		items = append(items, TransferFromDataModel(row))
	}
	return Page[*Transfer]{Items: items, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

// TransitionTransfer moves stock with the status: dispatch takes it out of
// the source, completion puts it into the destination and cancelling an
// in-transit transfer returns it to the source.
func (s *Service) TransitionTransfer(ctx context.Context, id, target string) (*Transfer, error) {
	var from string
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		row, err := s.repo.GetTransfer(ctx, id)
		if err != nil {
			return err
		}
		from = row.Status
		if !canMove(transferTransitions, from, target) {
			return statusError(from, target)
		}

		now := s.now()
		switch target {
		case TransferInTransit:
			for _, line := range row.Lines {
				if _, err := s.move(ctx, line.ItemID, row.FromWarehouseID, -line.Quantity); err != nil {
					return err
				}
			}
			row.DispatchedAt = &now
		case TransferCompleted:
			for _, line := range row.Lines {
				if _, err := s.move(ctx, line.ItemID, row.ToWarehouseID, line.Quantity); err != nil {
					return err
				}
			}
			row.CompletedAt = &now
		case TransferCancelled:
			if from == TransferInTransit {
				for _, line := range row.Lines {
					if _, err := s.move(ctx, line.ItemID, row.FromWarehouseID, line.Quantity); err != nil {
						return err
					}
				}
			}
		}
		row.Status = target
		return s.repo.UpdateTransferStatus(ctx, row, from)
	})
	if err != nil {
		return nil, s.writeFailure("update transfer", err)
	}

	s.publish(ctx, events.EventTypeTransferStatus, "transfer", id, map[string]interface{}{
		"from": from, "to": target,
	})
	return s.GetTransfer(ctx, id)
}

// ----------------- WITHDRAWALS -----------------

func (s *Service) CreateWithdrawal(ctx context.Context, dto WithdrawalDTO) (*Withdrawal, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if err := s.requireWarehouse(ctx, dto.WarehouseID); err != nil {
		return nil, err
	}
	if err := s.requireLineItems(ctx, dto.Lines); err != nil {
		return nil, err
	}

	now := s.now()
	row := &movement.Withdrawal{
		WithdrawalNumber: NewDocumentNumber("WDR", now),
		WarehouseID:      dto.WarehouseID,
		Purpose:          trimmed(dto.Purpose),
		Status:           WithdrawalPending,
		RequestedBy:      internal.ActorFromContext(ctx),
		CreatedAt:        now,
	}
	for _, line := range dto.Lines {
		row.Lines = append(row.Lines, movement.WithdrawalLine{ItemID: line.ItemID, Quantity: line.Quantity})
	}
	if err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		return s.repo.CreateWithdrawal(ctx, row)
	}); err != nil {
		return nil, s.writeFailure("create withdrawal", err)
	}

	s.publish(ctx, events.EventTypeWithdrawalCreated, "withdrawal", row.ID, map[string]interface{}{
		"withdrawal_number": row.WithdrawalNumber, "status": row.Status,
	})
	return s.GetWithdrawal(ctx, row.ID)
}

func (s *Service) GetWithdrawal(ctx context.Context, id string) (*Withdrawal, error) {
	row, err := s.repo.GetWithdrawal(ctx, id)
	if err != nil {
		return nil, s.readFailure("withdrawal", id, err)
	}
	return WithdrawalFromDataModel(row), nil
}

func (s *Service) ListWithdrawals(ctx context.Context, filter ListFilter) (Page[*Withdrawal], error) {
	filter.Status = strings.ToUpper(strings.TrimSpace(filter.Status))
	rows, total, err := s.repo.ListWithdrawals(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list withdrawals", "error", err)
		return Page[*Withdrawal]{}, internal.NewFetchError("withdrawals", err)
	}
	items := make([]*Withdrawal, 0, len(rows))
	for _, row := range rows {
		items = append(items, WithdrawalFromDataModel(row))
	}
	return Page[*Withdrawal]{Items: items, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

// TransitionWithdrawal records the approver on approval and takes the stock
// out of the warehouse on completion.
func (s *Service) TransitionWithdrawal(ctx context.Context, id, target string) (*Withdrawal, error) {
	var from string
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		row, err := s.repo.GetWithdrawal(ctx, id)
		if err != nil {
			return err
		}
		from = row.Status
		if !canMove(withdrawalTransitions, from, target) {
			return statusError(from, target)
		}

		switch target {
		case WithdrawalApproved:
			row.ApprovedBy = internal.ActorFromContext(ctx)
		case WithdrawalCompleted:
			for _, line := range row.Lines {
				if _, err := s.move(ctx, line.ItemID, row.WarehouseID, -line.Quantity); err != nil {
					return err
				}
			}
			now := s.now()
			row.CompletedAt = &now
		}
		row.Status = target
		return s.repo.UpdateWithdrawalStatus(ctx, row, from)
	})
	if err != nil {
		return nil, s.writeFailure("update withdrawal", err)
	}

	s.publish(ctx, events.EventTypeWithdrawalStatus, "withdrawal", id, map[string]interface{}{
		"from": from, "to": target,
	})
	return s.GetWithdrawal(ctx, id)
}

// ----------------- ADJUSTMENTS -----------------

// CreateAdjustment applies immediately. A recount sets the balance to the
// counted quantity; the other types move it by quantity.
func (s *Service) CreateAdjustment(ctx context.Context, dto AdjustmentDTO) (*Adjustment, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if err := s.requireWarehouse(ctx, dto.WarehouseID); err != nil {
		return nil, err
	}
	if err := s.requireItem(ctx, dto.ItemID); err != nil {
		return nil, err
	}

	now := s.now()
	row := &movement.Adjustment{
		AdjustmentNumber: NewDocumentNumber("ADJ", now),
		WarehouseID:      dto.WarehouseID,
		ItemID:           dto.ItemID,
		Type:             dto.Type,
		Quantity:         dto.Quantity,
		Reason:           dto.Reason,
		AdjustedBy:       internal.ActorFromContext(ctx),
		CreatedAt:        now,
	}
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		before, err := s.repo.Balance(ctx, dto.ItemID, dto.WarehouseID)
		if err != nil {
			return err
		}
		var delta float64
		switch dto.Type {
		case AdjustmentIncrease:
			delta = dto.Quantity
		case AdjustmentDecrease:
			delta = -dto.Quantity
		case AdjustmentRecount:
			delta = dto.Quantity - before
		}
		after, err := s.move(ctx, dto.ItemID, dto.WarehouseID, delta)
		if err != nil {
			return err
		}
		row.QuantityBefore = before
		row.QuantityAfter = after
		return s.repo.CreateAdjustment(ctx, row)
	})
	if err != nil {
		return nil, s.writeFailure("create adjustment", err)
	}

	s.publish(ctx, events.EventTypeAdjusted, "adjustment", row.ID, map[string]interface{}{
		"adjustment_number": row.AdjustmentNumber, "type": row.Type,
		"quantity_before": row.QuantityBefore, "quantity_after": row.QuantityAfter,
	})
	return s.GetAdjustment(ctx, row.ID)
}

func (s *Service) GetAdjustment(ctx context.Context, id string) (*Adjustment, error) {
	row, err := s.repo.GetAdjustment(ctx, id)
	if err != nil {
		return nil, s.readFailure("adjustment", id, err)
	}
	return AdjustmentFromDataModel(row), nil
}

func (s *Service) ListAdjustments(ctx context.Context, filter ListFilter) (Page[*Adjustment], error) {
	filter.Status = ""
	rows, total, err := s.repo.ListAdjustments(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list adjustments", "error", err)
		return Page[*Adjustment]{}, internal.NewFetchError("adjustments", err)
	}
	items := make([]*Adjustment, 0, len(rows))
	for _, row := range rows {
		items = append(items, AdjustmentFromDataModel(row))
	}
	return Page[*Adjustment]{Items: items, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

// ----------------- LEVELS -----------------

func (s *Service) ListLevels(ctx context.Context, filter ListFilter) (Page[*Level], error) {
	rows, total, err := s.repo.ListLevels(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list stock levels", "error", err)
		return Page[*Level]{}, internal.NewFetchError("stock levels", err)
	}
	items := make([]*Level, 0, len(rows))
	for _, row := range rows {
		items = append(items, LevelFromDataModel(row))
	}
	return Page[*Level]{Items: items, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

// ----------------- HELPERS -----------------

func (s *Service) move(ctx context.Context, itemID, warehouseID string, delta float64) (float64, error) {
	after, err := s.repo.ApplyDelta(ctx, itemID, warehouseID, delta)
	if errors.Is(err, internal.ErrInsufficientStock) {
		return 0, internal.ErrInsufficientStock.WithDetails(map[string]interface{}{
			"itemId": itemID, "warehouseId": warehouseID, "requested": -delta,
		})
	}
	return after, err
}

func (s *Service) requireItem(ctx context.Context, id string) error {
	return s.require(ctx, s.repo.ItemExists, id, "item", internal.ErrItemNotFound)
}

func (s *Service) requireSupplier(ctx context.Context, id string) error {
	return s.require(ctx, s.repo.SupplierExists, id, "supplier", internal.ErrSupplierNotFound)
}

func (s *Service) requireWarehouse(ctx context.Context, id string) error {
	return s.require(ctx, s.repo.WarehouseExists, id, "warehouse", internal.ErrWarehouseNotFound)
}

func (s *Service) requireLineItems(ctx context.Context, lines []LineDTO) error {
	seen := make(map[string]bool, len(lines))
	for _, line := range lines {
		if seen[line.ItemID] {
			continue
		}
		seen[line.ItemID] = true
		if err := s.requireItem(ctx, line.ItemID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) require(ctx context.Context, exists func(context.Context, string) (bool, error), id, what string, missing *internal.AppError) error {
	ok, err := exists(ctx, id)
	if err != nil {
		s.logger.Error("failed to look up "+what, "id", id, "error", err)
		return internal.NewFetchError(what, err)
	}
	if !ok {
		return missing
	}
	return nil
}

// readFailure keeps not-found errors and hides everything else.
func (s *Service) readFailure(what, id string, err error) error {
	if errors.Is(err, internal.ErrMovementNotFound) {
		return internal.ErrMovementNotFound
	}
	s.logger.Error("failed to load "+what, "id", id, "error", err)
	return internal.NewFetchError(what, err)
}

// writeFailure passes domain errors through unchanged; store failures are
// logged and replaced with a generic internal error.
func (s *Service) writeFailure(action string, err error) error {
	if _, ok := internal.IsAppError(err); ok {
		return err
	}
	s.logger.Error("failed to "+action, "error", err)
	return internal.NewInternalError("failed to "+action, err)
}

func (s *Service) publish(ctx context.Context, eventType, entityType, entityID string, details map[string]interface{}) {
	if s.publisher == nil {
		return
	}
	event := events.NewActivityEvent(eventType, internal.UserIDFromContext(ctx), entityType, entityID, details)
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish event", "event_type", eventType, "error", err)
	}
}

func statusError(from, to string) error {
	return internal.ErrInvalidStatus.WithDetails(map[string]string{"from": from, "to": to})
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}
