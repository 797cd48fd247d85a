package discovery

import (
	"context"
	"strings"
	"time"

	"github.com/hashicorp/mdns"

	"hue-bridge-client/internal/ports"
)

const hueService = "_hue._tcp"

// MDNS browses for the bridge's _hue._tcp service.
type MDNS struct {
	timeout time.Duration
	query   func(*mdns.QueryParam) error
}

func NewMDNS(timeout time.Duration) *MDNS {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &MDNS{timeout: timeout, query: mdns.Query}
}

func (m *MDNS) Discover(ctx context.Context) ([]ports.DiscoveredBridge, error) {
	entries := make(chan *mdns.ServiceEntry, 10)
	errc := make(chan error, 1)
	go func() {
		errc <- m.query(&mdns.QueryParam{
			Service:             hueService,
			Domain:              "local",
			Timeout:             m.timeout,
			Entries:             entries,
			DisableIPv6:         true,
			WantUnicastResponse: true,
		})
		close(entries)
	}()

	var out []ports.DiscoveredBridge
	for {
		select {
		case <-ctx.Done():
			go func() {
				for range entries {
				}
			}()
			return out, ctx.Err()
		case entry, ok := <-entries:
			if !ok {
				return out, <-errc
			}
			if b, ok := fromEntry(entry); ok {
				out = append(out, b)
			}
		}
	}
}

func fromEntry(entry *mdns.ServiceEntry) (ports.DiscoveredBridge, bool) {
	if entry == nil || entry.AddrV4 == nil {
		return ports.DiscoveredBridge{}, false
	}
	b := ports.DiscoveredBridge{Host: entry.AddrV4.String()}
	for _, field := range entry.InfoFields {
		if v, ok := strings.CutPrefix(field, "bridgeid="); ok {
			b.ID = NormalizeBridgeID(v)
		}
	}
	return b, true
}
