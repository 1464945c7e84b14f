package settings

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/warehouse-management/internal"
	settingsDatamodel "github.com/frahmantamala/warehouse-management/internal/core/datamodel/settings"
	"github.com/frahmantamala/warehouse-management/internal/core/events"
)

// RepositoryAPI stores a single settings row. Get returns nil, nil when no
// row has been saved yet.
type RepositoryAPI interface {
	Get(ctx context.Context) (*settingsDatamodel.AppSettings, error)
	Save(ctx context.Context, row *settingsDatamodel.AppSettings) error
	WarehouseExists(ctx context.Context, id string) (bool, error)
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

func (s *Service) Get(ctx context.Context) (*Settings, error) {
	row, err := s.repo.Get(ctx)
	if err != nil {
		s.logger.Error("failed to load settings", "error", err)
		return nil, internal.NewFetchError("settings", err)
	}
	if row == nil {
		return Defaults(), nil
	}
	return FromDataModel(row), nil
}

func (s *Service) Update(ctx context.Context, dto UpdateSettingsDTO) (*Settings, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if dto.DefaultWarehouseID != nil {
		ok, err := s.repo.WarehouseExists(ctx, *dto.DefaultWarehouseID)
		if err != nil {
			s.logger.Error("failed to look up warehouse", "warehouse_id", *dto.DefaultWarehouseID, "error", err)
			return nil, internal.NewFetchError("warehouse", err)
		}
		if !ok {
			return nil, internal.ErrWarehouseNotFound
		}
	}

	row := &settingsDatamodel.AppSettings{
		ID:                 settingsDatamodel.SingletonID,
		CompanyName:        dto.CompanyName,
		Currency:           dto.Currency,
		LowStockAlerts:     dto.LowStockAlerts,
		DefaultWarehouseID: dto.DefaultWarehouseID,
		UpdatedBy:          internal.ActorFromContext(ctx),
	}
	if err := s.repo.Save(ctx, row); err != nil {
		s.logger.Error("failed to save settings", "error", err)
		return nil, internal.NewInternalError("failed to save settings", err)
	}

	if s.publisher != nil {
		event := events.NewActivityEvent(events.EventTypeSettingsUpdated, internal.UserIDFromContext(ctx),
			"settings", "app", map[string]interface{}{"currency": row.Currency, "low_stock_alerts": row.LowStockAlerts})
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish event", "event_type", events.EventTypeSettingsUpdated, "error", err)
		}
	}
	return s.Get(ctx)
}
