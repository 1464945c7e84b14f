package catalog

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/frahmantamala/warehouse-management/internal"
	"github.com/frahmantamala/warehouse-management/internal/core/datamodel/inventory"
	"github.com/frahmantamala/warehouse-management/internal/core/events"
)

type RepositoryAPI interface {
	CreateItem(ctx context.Context, item *inventory.Item) error
	GetItem(ctx context.Context, id string) (*inventory.Item, error)
	ListItems(ctx context.Context, filter ListFilter) ([]*inventory.Item, int64, error)
	UpdateItem(ctx context.Context, item *inventory.Item) error
	SKUExists(ctx context.Context, sku, excludeID string) (bool, error)

	CreateSupplier(ctx context.Context, supplier *inventory.Supplier) error
	GetSupplier(ctx context.Context, id string) (*inventory.Supplier, error)
	ListSuppliers(ctx context.Context, filter ListFilter) ([]*inventory.Supplier, int64, error)
	UpdateSupplier(ctx context.Context, supplier *inventory.Supplier) error

	CreateWarehouse(ctx context.Context, warehouse *inventory.Warehouse) error
	GetWarehouse(ctx context.Context, id string) (*inventory.Warehouse, error)
	ListWarehouses(ctx context.Context, filter ListFilter) ([]*inventory.Warehouse, int64, error)
	UpdateWarehouse(ctx context.Context, warehouse *inventory.Warehouse) error
	WarehouseCodeExists(ctx context.Context, code, excludeID string) (bool, error)
}

type Service struct {
	repo      RepositoryAPI
	publisher events.Publisher
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

// ----------------- ITEMS -----------------

func (s *Service) CreateItem(ctx context.Context, in ItemInput) (*Item, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := s.ensureUniqueSKU(ctx, in.SKU, ""); err != nil {
		return nil, err
	}

	row := &inventory.Item{IsActive: true}
	applyItemInput(row, in)
	if err := s.repo.CreateItem(ctx, row); err != nil {
		s.logger.Error("failed to create item", "sku", in.SKU, "error", err)
		return nil, internal.NewInternalError("failed to create item", err)
	}

	s.publish(ctx, events.EventTypeCatalogItemChanged, "item", row.ID, "created")
	return ItemFromDataModel(row), nil
}

func (s *Service) GetItem(ctx context.Context, id string) (*Item, error) {
	row, err := s.getItem(ctx, id)
	if err != nil {
		return nil, err
	}
	return ItemFromDataModel(row), nil
}

func (s *Service) ListItems(ctx context.Context, filter ListFilter) (Page[*Item], error) {
	filter.Search = strings.TrimSpace(filter.Search)
	rows, total, err := s.repo.ListItems(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list items", "error", err)
		return Page[*Item]{}, internal.NewFetchError("items", err)
	}
	items := make([]*Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, ItemFromDataModel(row))
	}
	return Page[*Item]{Items: items, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

func (s *Service) UpdateItem(ctx context.Context, id string, in ItemInput) (*Item, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	row, err := s.getItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.SKU != row.SKU {
		if err := s.ensureUniqueSKU(ctx, in.SKU, id); err != nil {
			return nil, err
		}
	}

	applyItemInput(row, in)
	if err := s.repo.UpdateItem(ctx, row); err != nil {
		s.logger.Error("failed to update item", "item_id", id, "error", err)
		return nil, internal.NewInternalError("failed to update item", err)
	}

	s.publish(ctx, events.EventTypeCatalogItemChanged, "item", id, "updated")
	return ItemFromDataModel(row), nil
}

func (s *Service) DeactivateItem(ctx context.Context, id string) (*Item, error) {
	row, err := s.getItem(ctx, id)
	if err != nil {
		return nil, err
	}
	row.IsActive = false
	if err := s.repo.UpdateItem(ctx, row); err != nil {
		s.logger.Error("failed to deactivate item", "item_id", id, "error", err)
		return nil, internal.NewInternalError("failed to deactivate item", err)
	}

	s.publish(ctx, events.EventTypeCatalogItemChanged, "item", id, "deactivated")
	return ItemFromDataModel(row), nil
}

func (s *Service) getItem(ctx context.Context, id string) (*inventory.Item, error) {
	row, err := s.repo.GetItem(ctx, id)
	if err != nil {
		if errors.Is(err, internal.ErrItemNotFound) {
			return nil, internal.ErrItemNotFound
		}
		s.logger.Error("failed to load item", "item_id", id, "error", err)
		return nil, internal.NewFetchError("item", err)
	}
	return row, nil
}

func (s *Service) ensureUniqueSKU(ctx context.Context, sku, excludeID string) error {
	exists, err := s.repo.SKUExists(ctx, sku, excludeID)
	if err != nil {
		return internal.NewFetchError("items", err)
	}
	if exists {
		return internal.NewConflictError("an item with sku "+sku+" already exists", internal.ErrCodeDuplicate)
	}
	return nil
}

func applyItemInput(row *inventory.Item, in ItemInput) {
	row.SKU = in.SKU
	row.Name = in.Name
	row.Description = in.Description
	row.Category = in.Category
	row.Unit = in.Unit
	row.UnitPrice = in.UnitPrice
	row.ReorderLevel = in.ReorderLevel
}

// ----------------- SUPPLIERS -----------------

func (s *Service) CreateSupplier(ctx context.Context, in SupplierInput) (*Supplier, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	row := &inventory.Supplier{IsActive: true}
	applySupplierInput(row, in)
	if err := s.repo.CreateSupplier(ctx, row); err != nil {
		s.logger.Error("failed to create supplier", "error", err)
		return nil, internal.NewInternalError("failed to create supplier", err)
	}

	s.publish(ctx, events.EventTypeCatalogPartyChanged, "supplier", row.ID, "created")
	return SupplierFromDataModel(row), nil
}

func (s *Service) GetSupplier(ctx context.Context, id string) (*Supplier, error) {
	row, err := s.getSupplier(ctx, id)
	if err != nil {
		return nil, err
	}
	return SupplierFromDataModel(row), nil
}

func (s *Service) ListSuppliers(ctx context.Context, filter ListFilter) (Page[*Supplier], error) {
	filter.Search = strings.TrimSpace(filter.Search)
	rows, total, err := s.repo.ListSuppliers(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list suppliers", "error", err)
		return Page[*Supplier]{}, internal.NewFetchError("suppliers", err)
	}
	suppliers := make([]*Supplier, 0, len(rows))
	for _, row := range rows {
		suppliers = append(suppliers, SupplierFromDataModel(row))
	}
	return Page[*Supplier]{Items: suppliers, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

func (s *Service) UpdateSupplier(ctx context.Context, id string, in SupplierInput) (*Supplier, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	row, err := s.getSupplier(ctx, id)
	if err != nil {
		return nil, err
	}

	applySupplierInput(row, in)
	if err := s.repo.UpdateSupplier(ctx, row); err != nil {
		s.logger.Error("failed to update supplier", "supplier_id", id, "error", err)
		return nil, internal.NewInternalError("failed to update supplier", err)
	}

	s.publish(ctx, events.EventTypeCatalogPartyChanged, "supplier", id, "updated")
	return SupplierFromDataModel(row), nil
}

func (s *Service) DeactivateSupplier(ctx context.Context, id string) (*Supplier, error) {
	row, err := s.getSupplier(ctx, id)
	if err != nil {
		return nil, err
	}
	row.IsActive = false
	if err := s.repo.UpdateSupplier(ctx, row); err != nil {
		s.logger.Error("failed to deactivate supplier", "supplier_id", id, "error", err)
		return nil, internal.NewInternalError("failed to deactivate supplier", err)
	}

	s.publish(ctx, events.EventTypeCatalogPartyChanged, "supplier", id, "deactivated")
	return SupplierFromDataModel(row), nil
}

func (s *Service) getSupplier(ctx context.Context, id string) (*inventory.Supplier, error) {
	row, err := s.repo.GetSupplier(ctx, id)
	if err != nil {
		if errors.Is(err, internal.ErrSupplierNotFound) {
			return nil, internal.ErrSupplierNotFound
		}
		s.logger.Error("failed to load supplier", "supplier_id", id, "error", err)
		return nil, internal.NewFetchError("supplier", err)
	}
	return row, nil
}

func applySupplierInput(row *inventory.Supplier, in SupplierInput) {
	row.Name = in.Name
	row.ContactName = in.ContactName
	row.Email = in.Email
	row.Phone = in.Phone
	row.Address = in.Address
}

// ----------------- WAREHOUSES -----------------

func (s *Service) CreateWarehouse(ctx context.Context, in WarehouseInput) (*Warehouse, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := s.ensureUniqueCode(ctx, in.Code, ""); err != nil {
		return nil, err
	}

	row := &inventory.Warehouse{Code: in.Code, Name: in.Name, Location: in.Location, IsActive: true}
	if err := s.repo.CreateWarehouse(ctx, row); err != nil {
		s.logger.Error("failed to create warehouse", "code", in.Code, "error", err)
		return nil, internal.NewInternalError("failed to create warehouse", err)
	}

	s.publish(ctx, events.EventTypeWarehouseChanged, "warehouse", row.ID, "created")
	return WarehouseFromDataModel(row), nil
}

func (s *Service) GetWarehouse(ctx context.Context, id string) (*Warehouse, error) {
	row, err := s.getWarehouse(ctx, id)
	if err != nil {
		return nil, err
	}
	return WarehouseFromDataModel(row), nil
}

func (s *Service) ListWarehouses(ctx context.Context, filter ListFilter) (Page[*Warehouse], error) {
	filter.Search = strings.TrimSpace(filter.Search)
	rows, total, err := s.repo.ListWarehouses(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list warehouses", "error", err)
		return Page[*Warehouse]{}, internal.NewFetchError("warehouses", err)
	}
	warehouses := make([]*Warehouse, 0, len(rows))
	for _, row := range rows {
		warehouses = append(warehouses, WarehouseFromDataModel(row))
	}
	return Page[*Warehouse]{Items: warehouses, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

func (s *Service) UpdateWarehouse(ctx context.Context, id string, in WarehouseInput) (*Warehouse, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	row, err := s.getWarehouse(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Code != row.Code {
		if err := s.ensureUniqueCode(ctx, in.Code, id); err != nil {
			return nil, err
		}
	}

	row.Code, row.Name, row.Location = in.Code, in.Name, in.Location
	if err := s.repo.UpdateWarehouse(ctx, row); err != nil {
		s.logger.Error("failed to update warehouse", "warehouse_id", id, "error", err)
		return nil, internal.NewInternalError("failed to update warehouse", err)
	}

	s.publish(ctx, events.EventTypeWarehouseChanged, "warehouse", id, "updated")
	return WarehouseFromDataModel(row), nil
}

func (s *Service) DeactivateWarehouse(ctx context.Context, id string) (*Warehouse, error) {
	row, err := s.getWarehouse(ctx, id)
	if err != nil {
		return nil, err
	}
	row.IsActive = false
	if err := s.repo.UpdateWarehouse(ctx, row); err != nil {
		s.logger.Error("failed to deactivate warehouse", "warehouse_id", id, "error", err)
		return nil, internal.NewInternalError("failed to deactivate warehouse", err)
	}

	s.publish(ctx, events.EventTypeWarehouseChanged, "warehouse", id, "deactivated")
	return WarehouseFromDataModel(row), nil
}

func (s *Service) getWarehouse(ctx context.Context, id string) (*inventory.Warehouse, error) {
	row, err := s.repo.GetWarehouse(ctx, id)
	if err != nil {
		if errors.Is(err, internal.ErrWarehouseNotFound) {
			return nil, internal.ErrWarehouseNotFound
		}
		s.logger.Error("failed to load warehouse", "warehouse_id", id, "error", err)
		return nil, internal.NewFetchError("warehouse", err)
	}
	return row, nil
}

func (s *Service) ensureUniqueCode(ctx context.Context, code, excludeID string) error {
	exists, err := s.repo.WarehouseCodeExists(ctx, code, excludeID)
	if err != nil {
		return internal.NewFetchError("warehouses", err)
	}
	if exists {
		return internal.NewConflictError("a warehouse with code "+code+" already exists", internal.ErrCodeDuplicate)
	}
	return nil
}

func (s *Service) publish(ctx context.Context, eventType, entityType, entityID, action string) {
	if s.publisher == nil {
		return
	}
	event := events.NewActivityEvent(eventType, internal.UserIDFromContext(ctx), entityType, entityID,
		map[string]interface{}{"action": action})
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish event", "event_type", eventType, "error", err)
	}
}
