package ws

import (
	"time"

	"github.com/google/uuid"

	"github.com/orrery-labs/orrery/backend/internal/shared/types"
)

// EventType names a workspace event pushed to stream subscribers.
type EventType string

const (
	EventSystem            EventType = "system"
	EventPong              EventType = "pong"
	EventWindowCreated     EventType = "window_created"
	EventWindowUpdated     EventType = "window_updated"
	EventWindowRemoved     EventType = "window_removed"
	EventWorkspaceImported EventType = "workspace_imported"
	EventExecutionDone     EventType = "execution_completed"
	EventKernelState       EventType = "kernel_state"
)

// Event is one message on the stream. IDs are unique per event so clients
// can dedupe replays across reconnects.
type Event struct {
	ID      string      `json:"id"`
	Type    EventType   `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
	Time    time.Time   `json:"time"`
}

// NewEvent stamps a payload with an id and timestamp.
func NewEvent(kind EventType, payload interface{}) Event {
	return Event{
		ID:      uuid.NewString(),
		Type:    kind,
		Payload: payload,
		Time:    time.Now().UTC(),
	}
}

// KernelStatePayload rides on kernel_state events.
type KernelStatePayload struct {
	State  types.KernelState `json:"state"`
	Kernel *types.Kernel     `json:"kernel,omitempty"`
}
