package domain

// EventType discriminates broadcast frames delivered to observers.
type EventType string

const (
	EventStatusUpdate    EventType = "statusUpdate"
	EventNewOvenData     EventType = "newOvenData"
	EventWarning         EventType = "warning"
	EventNewDevice       EventType = "newDevice"
	EventUpdateDevice    EventType = "updateDevice"
	EventDeleteDevice    EventType = "deleteDevice"
	EventStatusSnapshot  EventType = "statusSnapshot"
	EventWarningSnapshot EventType = "warningSnapshot"
)

// Event is one frame fanned out to every connected observer.
type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data"`
}
