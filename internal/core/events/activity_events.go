package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeUserSignedIn      = "user.signed_in"
	EventTypeUserCreated       = "user.created"
	EventTypeUserUpdated       = "user.updated"
	EventTypeUserDeactivated   = "user.deactivated"
	EventTypePermissionGranted = "permission.granted"
	EventTypePermissionRevoked = "permission.revoked"

	EventTypeEntryRecorded       = "stock.entry_recorded"
	EventTypeTransferCreated     = "stock.transfer_created"
	EventTypeTransferStatus      = "stock.transfer_status_changed"
	EventTypeWithdrawalCreated   = "stock.withdrawal_created"
	EventTypeWithdrawalStatus    = "stock.withdrawal_status_changed"
	EventTypeAdjusted            = "stock.adjusted"
	EventTypeSettingsUpdated     = "settings.updated"
	EventTypeCatalogItemChanged  = "catalog.item_changed"
	EventTypeCatalogPartyChanged = "catalog.supplier_changed"
	EventTypeWarehouseChanged    = "catalog.warehouse_changed"
)

// AuditableEventTypes lists every event the audit log records.
var AuditableEventTypes = []string{
	EventTypeUserSignedIn,
	EventTypeUserCreated,
	EventTypeUserUpdated,
	EventTypeUserDeactivated,
	EventTypePermissionGranted,
	EventTypePermissionRevoked,
	EventTypeEntryRecorded,
	EventTypeTransferCreated,
	EventTypeTransferStatus,
	EventTypeWithdrawalCreated,
	EventTypeWithdrawalStatus,
	EventTypeAdjusted,
	EventTypeSettingsUpdated,
	EventTypeCatalogItemChanged,
	EventTypeCatalogPartyChanged,
	EventTypeWarehouseChanged,
}

// ActivityEvent records that an actor did something to an entity.
type ActivityEvent struct {
	BaseEvent
	ActorID    string `json:"actor_id"`
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
}

func NewActivityEvent(eventType, actorID, entityType, entityID string, details map[string]interface{}) *ActivityEvent {
	if details == nil {
		details = map[string]interface{}{}
	}
	return &ActivityEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data:      details,
		},
		ActorID:    actorID,
		EntityType: entityType,
		EntityID:   entityID,
	}
}

// Publisher is what services depend on; *EventBus satisfies it.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
