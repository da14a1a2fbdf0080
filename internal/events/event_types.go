package events

import (
	"time"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventViewMounted     EventType = "view_mounted"
	EventFetchFailed     EventType = "fetch_failed"
	EventExportRequested EventType = "export_requested"
)

// Event represents something that happened in a list view.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ViewID    string      `json:"view_id"`
	Operator  string      `json:"operator,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// ViewMountedPayload payload.
type ViewMountedPayload struct {
	Query string `json:"query"`
}

// FetchFailedPayload payload.
type FetchFailedPayload struct {
	Query string `json:"query"`
	Error string `json:"error"`
}

// ExportRequestedPayload payload.
type ExportRequestedPayload struct {
	PersonIDs []int64 `json:"person_ids"`
}
