package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/warehouse-management/internal"
	auditDatamodel "github.com/frahmantamala/warehouse-management/internal/core/datamodel/audit"
	"github.com/frahmantamala/warehouse-management/internal/core/events"
)

type RepositoryAPI interface {
	// Create ignores a second write for the same event id.
	Create(ctx context.Context, row *auditDatamodel.AuditLog) error
	List(ctx context.Context, filter ListFilter) ([]*auditDatamodel.AuditLog, int64, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// Subscribe attaches the audit log to every auditable event on the bus.
func (s *Service) Subscribe(bus *events.EventBus) {
	bus.SubscribeAll(events.AuditableEventTypes, s.HandleEvent)
}

func (s *Service) HandleEvent(ctx context.Context, event events.Event) error {
	row := &auditDatamodel.AuditLog{
		EventID:   event.EventID(),
		Action:    event.EventType(),
		CreatedAt: event.OccurredAt(),
	}
	if activity, ok := event.(*events.ActivityEvent); ok {
		if activity.ActorID != "" {
			actor := activity.ActorID
			row.ActorID = &actor
		}
		row.EntityType = activity.EntityType
		row.EntityID = activity.EntityID
	} else {
		row.EntityType = "system"
	}

	details, err := json.Marshal(event.Payload())
	if err != nil {
		return fmt.Errorf("marshal audit details for %s: %w", event.EventID(), err)
	}
	row.Details = string(details)

	if err := s.repo.Create(ctx, row); err != nil {
		return fmt.Errorf("write audit log for %s: %w", event.EventID(), err)
	}
	s.logger.Debug("audit log written", "event_type", row.Action, "entity_type", row.EntityType, "entity_id", row.EntityID)
	return nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) (*Page, error) {
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list audit logs", "error", err)
		return nil, internal.NewFetchError("audit logs", err)
	}
	items := make([]*Entry, 0, len(rows))
	for _, row := range rows {
		items = append(items, FromDataModel(row))
	}
	return &Page{Items: items, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}
