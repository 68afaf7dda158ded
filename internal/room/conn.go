// internal/room/conn.go
package room

import (
	"sync"

	"github.com/google/uuid"
)

const outChanBuffer = 64

// Conn is one live client connection. The websocket handler owns the read
// side; everything the room layer wants to send goes through OutChan and is
// drained by the handler's write pump.
type Conn struct {
	ID      uuid.UUID
	OutChan chan []byte

	closeOnce sync.Once
	done      chan struct{}
}

// NewConn allocates a connection with a buffered outbound queue.
func NewConn() *Conn {
	return &Conn{
		ID:      uuid.New(),
		OutChan: make(chan []byte, outChanBuffer),
		done:    make(chan struct{}),
	}
}

// Send queues a frame without blocking. A slow client whose buffer is full
// drops frames rather than stalling the room.
func (c *Conn) Send(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.OutChan <- payload:
		return true
	default:
		return false
	}
}

// Close releases the connection. Safe to call more than once.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// Done is closed once the connection is finished.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}
