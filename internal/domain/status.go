package domain

// Status is the lifecycle state of one oven connection.
type Status string

const (
	StatusIdle         Status = "Idle"
	StatusActive       Status = "Active"
	StatusDisconnected Status = "Disconnected"
)

// OvenStatus is the last-known state of one oven, as broadcast to observers
// and persisted for late joiners.
type OvenStatus struct {
	OvenName  string `json:"ovenId"`
	Status    Status `json:"status"`
	Timestamp string `json:"timestamp"`
}
