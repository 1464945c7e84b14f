package audit

import (
	"encoding/json"
	"time"

	auditDatamodel "github.com/frahmantamala/warehouse-management/internal/core/datamodel/audit"
)

type Entry struct {
	ID         string                 `json:"id"`
	EventID    string                 `json:"eventId"`
	ActorID    *string                `json:"actorId"`
	Action     string                 `json:"action"`
	EntityType string                 `json:"entityType"`
	EntityID   string                 `json:"entityId"`
	Details    map[string]interface{} `json:"details"`
	CreatedAt  time.Time              `json:"createdAt"`
}

func FromDataModel(row *auditDatamodel.AuditLog) *Entry {
	details := map[string]interface{}{}
	if row.Details != "" {
		_ = json.Unmarshal([]byte(row.Details), &details)
	}
	return &Entry{
		ID:         row.ID,
		EventID:    row.EventID,
		ActorID:    row.ActorID,
		Action:     row.Action,
		EntityType: row.EntityType,
		EntityID:   row.EntityID,
		Details:    details,
		CreatedAt:  row.CreatedAt,
	}
}

type ListFilter struct {
	EntityType string
	ActorID    string
	Action     string
	Limit      int
	Offset     int
}

type Page struct {
	Items  []*Entry `json:"items"`
	Total  int64    `json:"total"`
	Limit  int      `json:"limit"`
	Offset int      `json:"offset"`
}
