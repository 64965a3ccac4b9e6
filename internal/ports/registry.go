package ports

import (
	"context"
	"errors"

	"github.com/M-Kouli/Data-Collection-System/internal/domain"
)

// ErrNotFound is returned by stores when the named entity does not exist.
var ErrNotFound = errors.New("not found")

// DeviceRegistry is the read side of the oven registry consumed by the
// ingestion core. The CRUD collaborator owns writes.
type DeviceRegistry interface {
	Get(ctx context.Context, name string) (domain.Device, error)
	List(ctx context.Context) ([]domain.Device, error)
}
