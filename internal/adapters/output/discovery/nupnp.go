package discovery

import (
	"context"

	"github.com/amimof/huego"

	"hue-bridge-client/internal/ports"
)

// NUPnP asks the vendor portal which bridges registered from this network.
type NUPnP struct {
	discover func() ([]huego.Bridge, error)
}

func NewNUPnP() *NUPnP {
	return &NUPnP{discover: huego.DiscoverAll}
}

func (n *NUPnP) Discover(ctx context.Context) ([]ports.DiscoveredBridge, error) {
	type result struct {
		bridges []huego.Bridge
		err     error
	}
	ch := make(chan result, 1)
	go func() {
		bridges, err := n.discover()
		ch <- result{bridges, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return nil, r.err
		}
		out := make([]ports.DiscoveredBridge, 0, len(r.bridges))
		for _, b := range r.bridges {
			out = append(out, ports.DiscoveredBridge{Host: b.Host, ID: NormalizeBridgeID(b.ID)})
		}
		return out, nil
	}
}
