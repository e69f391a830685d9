package hub

import "time"

// Conn is the opaque transport handle a Session drives. internal/transport
// implements it over a gorilla/websocket connection; tests implement it
// in-memory. Session never imports gorilla/websocket directly, keeping the
// read/write flows testable without a network.
type Conn interface {
	ReadMessage() ([]byte, error)
	WriteMessage(data []byte) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	Close() error
}
