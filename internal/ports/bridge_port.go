package ports

import (
	"context"
)

// DiscoveredBridge is a bridge found on the local network.
type DiscoveredBridge struct {
	Host string `json:"host"`
	ID   string `json:"id"`
}

type Discoverer interface {
	Discover(ctx context.Context) ([]DiscoveredBridge, error)
}

// Registrar performs the link-button pairing and returns a new app key.
type Registrar interface {
	Register(ctx context.Context, host, deviceType string) (string, error)
}
