package ports

import "github.com/M-Kouli/Data-Collection-System/internal/domain"

// Broadcaster fans an event out to every connected observer. Delivery is
// best-effort and non-blocking per observer: a slow or closed observer must
// not delay the producer or other observers.
type Broadcaster interface {
	Broadcast(ev domain.Event)
}

// BroadcasterFunc adapts a function to the Broadcaster interface.
type BroadcasterFunc func(ev domain.Event)

func (f BroadcasterFunc) Broadcast(ev domain.Event) { f(ev) }
