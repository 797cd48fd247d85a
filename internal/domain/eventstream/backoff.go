package eventstream

import (
	"time"

	"github.com/cenkalti/backoff/v5"

	"hue-bridge-client/internal/domain/model"
)

// Backoff yields exponentially growing reconnect delays bounded by a maximum.
type Backoff struct {
	bo  *backoff.ExponentialBackOff
	max time.Duration
}

func NewBackoff(cfg model.BackoffConfig) *Backoff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = cfg.Initial
	bo.MaxInterval = cfg.Max
	bo.Multiplier = cfg.Multiplier
	bo.RandomizationFactor = cfg.Jitter
	bo.Reset()
	return &Backoff{bo: bo, max: cfg.Max}
}

func (b *Backoff) Next() time.Duration {
	d := b.bo.NextBackOff()
	if d == backoff.Stop || d > b.max {
		return b.max
	}
	return d
}

// Reset returns the delay to its minimum.
func (b *Backoff) Reset() {
	b.bo.Reset()
}
