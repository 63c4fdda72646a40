// Package transport describes the ordered, reliable peer channel the session protocol runs on.
package transport

import "context"

type EventKind string

const (
	// EventOpened reports that the peer attached to the channel.
	EventOpened EventKind = "opened"
	EventData   EventKind = "data"
	EventClosed EventKind = "closed"
	EventError  EventKind = "error"
)

type Event struct {
	Kind   EventKind
	Data   []byte
	Reason string
}

// Transport opens peer channels. Listen registers a named channel and waits for one peer;
// Dial attaches to a channel somebody else registered.
type Transport interface {
	Listen(ctx context.Context, channelID string) (Conn, error)
	Dial(ctx context.Context, channelID string) (Conn, error)
}

// Conn delivers exactly one EventData per message the peer sent, in send order. Events is
// closed after the terminal EventClosed.
type Conn interface {
	Send(data []byte) bool
	Events() <-chan Event
	Close() error
}
