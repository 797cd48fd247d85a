package model

import (
	"fmt"
	"time"
)

// ConnState is the push connection state owned by the event stream.
type ConnState uint8

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateStreaming
	StateBackoff
)

func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateStreaming:
		return "STREAMING"
	case StateBackoff:
		return "BACKOFF"
	default:
		return "UNKNOWN"
	}
}

// ConnectionState is a ConnState plus the delay of a Backoff state.
type ConnectionState struct {
	State ConnState     `json:"state"`
	Delay time.Duration `json:"delay,omitempty"`
	// Attempt counts connection attempts since the last stable stream.
	Attempt int `json:"attempt"`
}

func (c ConnectionState) String() string {
	if c.State == StateBackoff {
		return fmt.Sprintf("%s(%s)", c.State, c.Delay)
	}
	return c.State.String()
}

// ConnectionEvent is emitted to connection listeners on stream lifecycle changes.
type ConnectionEvent string

const (
	EventConnected    ConnectionEvent = "connected"
	EventDisconnected ConnectionEvent = "disconnected"
	EventReconnected  ConnectionEvent = "reconnected"
)

// StreamEvent is one event as received on the event stream, kept for inspection.
type StreamEvent struct {
	ID           string       `json:"id"`
	CreationTime string       `json:"creationtime"`
	Type         string       `json:"type"`
	Data         []Attributes `json:"data"`
}
