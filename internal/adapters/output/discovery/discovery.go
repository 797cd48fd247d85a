// Package discovery locates bridges on the local network.
package discovery

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"hue-bridge-client/internal/domain/model"
	"hue-bridge-client/internal/ports"
)

// NormalizeBridgeID reduces the id formats used by the different discovery
// methods to the 12 hex digit form.
func NormalizeBridgeID(id string) string {
	id = strings.ToLower(id)
	switch {
	case len(id) == 17 && strings.Count(id, ":") == 5:
		// zeroconf: aa:bb:cc:dd:ee:ff
		return strings.ReplaceAll(id, ":", "")
	case len(id) == 16 && id[6:10] == "fffe":
		// N-UPnP inserts fffe in the middle
		return id[:6] + id[10:]
	}
	return id
}

// Multi runs several discoverers at once and merges their results. It only
// fails if every discoverer fails.
type Multi struct {
	discoverers []ports.Discoverer
	logger      zerolog.Logger
}

func NewMulti(logger zerolog.Logger, discoverers ...ports.Discoverer) *Multi {
	return &Multi{discoverers: discoverers, logger: logger.With().Str("component", "discovery").Logger()}
}

func (m *Multi) Discover(ctx context.Context) ([]ports.DiscoveredBridge, error) {
	var (
		mu      sync.Mutex
		found   []ports.DiscoveredBridge
		failed  []error
		byHost  = map[string]int{}
		byID    = map[string]int{}
		g, gctx = errgroup.WithContext(ctx)
	)
	for _, d := range m.discoverers {
		g.Go(func() error {
			bridges, err := d.Discover(gctx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				m.logger.Debug().Err(err).Msg("discovery method failed")
				failed = append(failed, err)
				return nil
			}
			for _, b := range bridges {
				b.ID = NormalizeBridgeID(b.ID)
				if i, ok := byID[b.ID]; ok && b.ID != "" {
					if found[i].Host == "" {
						found[i].Host = b.Host
					}
					continue
				}
				if i, ok := byHost[b.Host]; ok {
					if found[i].ID == "" {
						found[i].ID = b.ID
						byID[b.ID] = i
					}
					continue
				}
				byHost[b.Host] = len(found)
				if b.ID != "" {
					byID[b.ID] = len(found)
				}
				found = append(found, b)
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(found) == 0 && len(failed) == len(m.discoverers) && len(failed) > 0 {
		return nil, errors.Join(append([]error{model.ErrNoBridgeFound}, failed...)...)
	}
	return found, nil
}
