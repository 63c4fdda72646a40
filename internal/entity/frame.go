package entity

import "encoding/json"

type FrameKind string

const (
	FrameRegistered FrameKind = "registered"
	FrameDial       FrameKind = "dial"
	FrameConnection FrameKind = "connection"
	FrameOpen       FrameKind = "open"
	FrameData       FrameKind = "data"
	FrameClose      FrameKind = "close"
	FrameError      FrameKind = "error"
)

const (
	ReasonUnavailableID   = "unavailable-id"
	ReasonPeerUnavailable = "peer-unavailable"
	ReasonInternal        = "internal"
)

// Frame is the envelope spoken between the relay and its peers. Data is passed through untouched.
type Frame struct {
	Kind   FrameKind       `json:"kind"`
	Peer   string          `json:"peer,omitempty"`
	Reason string          `json:"reason,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}
