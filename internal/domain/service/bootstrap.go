package service

import (
	"context"
	"slices"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"hue-bridge-client/internal/domain/model"
	"hue-bridge-client/internal/ports"
)

// DefaultKinds is fetched when the fetcher has no aggregate endpoint and no
// kinds are configured.
var DefaultKinds = append([]model.ResourceKind{
	model.KindBridge, model.KindBridgeHome, model.KindDevice, model.KindRoom, model.KindZone,
	model.KindLight, model.KindGroupedLight, model.KindScene, model.KindSmartScene,
	model.KindEntertainmentConfiguration, model.KindBehaviorInstance,
}, model.SensorKinds...)

// Snapshot is the result of one full-state fetch.
type Snapshot struct {
	Records []model.ResourceRecord
	// Kinds lists what was fetched. Nil means the whole graph.
	Kinds []model.ResourceKind
}

// Covers reports whether the snapshot is authoritative for kind.
func (s Snapshot) Covers(kind model.ResourceKind) bool {
	return s.Kinds == nil || slices.Contains(s.Kinds, kind)
}

type Bootstrapper struct {
	fetcher ports.ResourceFetcher
	kinds   []model.ResourceKind
	logger  zerolog.Logger
}

func NewBootstrapper(fetcher ports.ResourceFetcher, kinds []model.ResourceKind, logger zerolog.Logger) *Bootstrapper {
	return &Bootstrapper{
		fetcher: fetcher,
		kinds:   kinds,
		logger:  logger.With().Str("component", "bootstrap").Logger(),
	}
}

// FetchAll reads the resource graph with one aggregate request when possible,
// otherwise one request per kind issued concurrently. Any failure fails the
// whole fetch.
func (b *Bootstrapper) FetchAll(ctx context.Context) (Snapshot, error) {
	if agg, ok := b.fetcher.(ports.AggregateFetcher); ok && len(b.kinds) == 0 {
		records, err := agg.FetchAll(ctx)
		if err != nil {
			return Snapshot{}, &model.BootstrapError{Err: err}
		}
		b.logger.Debug().Int("records", len(records)).Msg("fetched resource graph")
		return Snapshot{Records: records}, nil
	}

	kinds := b.kinds
	if len(kinds) == 0 {
		kinds = DefaultKinds
	}
	perKind := make([][]model.ResourceRecord, len(kinds))
	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range kinds {
		g.Go(func() error {
			records, err := b.fetcher.FetchKind(gctx, kind)
			if err != nil {
				return &model.BootstrapError{Kind: kind, Err: err}
			}
			perKind[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}

	var records []model.ResourceRecord
	for _, rs := range perKind {
		records = append(records, rs...)
	}
	b.logger.Debug().Int("records", len(records)).Int("kinds", len(kinds)).Msg("fetched resources per kind")
	return Snapshot{Records: records, Kinds: slices.Clone(kinds)}, nil
}
