package wshub

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// observer is one subscribed client. Frames flow through a bounded send
// queue serviced by a dedicated writer goroutine; enqueue never blocks. The
// send channel is never closed so concurrent broadcasters cannot race a
// teardown; shutdown is signalled through done instead.
type observer struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

// enqueue offers a frame to the observer's queue. It reports false when the
// observer is gone or its queue is full, in which case the frame is dropped
// for this observer only.
func (o *observer) enqueue(payload []byte) bool {
	select {
	case <-o.done:
		return false
	default:
	}
	select {
	case o.send <- payload:
		return true
	default:
		return false
	}
}

// close releases the connection; the pumps exit on done or the dead conn.
func (o *observer) close() {
	o.once.Do(func() {
		close(o.done)
		o.conn.Close()
	})
}

// writePump drains the send queue to the connection and keeps it alive with
// pings. Exits on the first write failure or on teardown.
func (o *observer) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		o.hub.dropObserver(o)
	}()

	for {
		select {
		case <-o.done:
			o.conn.SetWriteDeadline(time.Now().Add(writeWait))
			o.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case payload := <-o.send:
			o.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := o.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			o.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := o.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards inbound frames (observers are read-only) and detects
// closure via the pong deadline.
func (o *observer) readPump() {
	defer o.hub.dropObserver(o)

	o.conn.SetReadLimit(maxMessageSize)
	o.conn.SetReadDeadline(time.Now().Add(pongWait))
	o.conn.SetPongHandler(func(string) error {
		o.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := o.conn.ReadMessage(); err != nil {
			return
		}
	}
}
