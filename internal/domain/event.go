package domain

import "time"

type EventType string

const (
	EventProjectCreated      EventType = "project.created"
	EventProjectUpdated      EventType = "project.updated"
	EventProjectDeleted      EventType = "project.deleted"
	EventConnectionRequested EventType = "connection.requested"
	EventConnectionAccepted  EventType = "connection.accepted"
	EventConnectionRejected  EventType = "connection.rejected"
)

// Event is published after a state change has been persisted.
type Event struct {
	Type       EventType `json:"type"`
	ProjectID  string    `json:"project_id"`
	Title      string    `json:"title,omitempty"`
	OwnerEmail string    `json:"owner_email,omitempty"`
	UserID     string    `json:"user_id,omitempty"`
	UserEmail  string    `json:"user_email,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	Status     string    `json:"status,omitempty"`
	Message    string    `json:"message,omitempty"`
	At         time.Time `json:"at"`
}
