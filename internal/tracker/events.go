package tracker

import "time"

// Event types published on the bus.
const (
	EventReset    = "spawn.reset"
	EventNotified = "spawn.notified"
	EventRearmed  = "spawn.rearmed"
	EventCleared  = "spawn.cleared"
)

// EventData is the payload of every tracker event. At is the occurrence
// instant the event refers to.
type EventData struct {
	EntityID string    `json:"entity_id,omitempty"`
	Name     string    `json:"name,omitempty"`
	Location string    `json:"location,omitempty"`
	At       time.Time `json:"at,omitzero"`
	By       string    `json:"by,omitempty"`
}
