package model

import "time"

// Credentials is what a bridge pairing produces and what gets cached on disk.
type Credentials struct {
	Host     string `json:"host" yaml:"host"`
	AppKey   string `json:"app_key" yaml:"app_key"`
	BridgeID string `json:"bridge_id,omitempty" yaml:"bridge_id,omitempty"`
}

func (c Credentials) Complete() bool {
	return c.Host != "" && c.AppKey != ""
}

type BackoffConfig struct {
	Initial    time.Duration `json:"initial" yaml:"initial"`
	Max        time.Duration `json:"max" yaml:"max"`
	Multiplier float64       `json:"multiplier" yaml:"multiplier"`
	Jitter     float64       `json:"jitter" yaml:"jitter"`
	// StableAfter is how long a connection must stream before the delay resets.
	StableAfter time.Duration `json:"stable_after" yaml:"stable_after"`
}

type Config struct {
	Credentials `yaml:",inline"`

	// Kinds selects per-kind bootstrap requests. Empty means one aggregate request.
	Kinds             []ResourceKind `json:"kinds,omitempty" yaml:"kinds,omitempty"`
	OptimisticUpdates bool           `json:"optimistic_updates" yaml:"optimistic_updates"`
	Backoff           BackoffConfig  `json:"backoff" yaml:"backoff"`
	RequestsPerSecond float64        `json:"requests_per_second" yaml:"requests_per_second"`
	EventHistory      int            `json:"event_history" yaml:"event_history"`
	// StreamIdle is how long the event stream may stay silent before it counts as lost.
	StreamIdle time.Duration `json:"stream_idle" yaml:"stream_idle"`
	// KeepAlive is the interval of the geofence client rename that makes the
	// bridge emit an event on a quiet network. Zero disables it.
	KeepAlive time.Duration `json:"keep_alive" yaml:"keep_alive"`
}

func DefaultConfig() Config {
	return Config{
		Backoff: BackoffConfig{
			Initial:     time.Second,
			Max:         10 * time.Minute,
			Multiplier:  2,
			Jitter:      0.25,
			StableAfter: 30 * time.Second,
		},
		RequestsPerSecond: 10,
		EventHistory:      25,
		StreamIdle:        90 * time.Second,
		KeepAlive:         time.Minute,
	}
}

// WithDefaults fills zero fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.Backoff.Initial <= 0 {
		c.Backoff.Initial = d.Backoff.Initial
	}
	if c.Backoff.Max <= 0 {
		c.Backoff.Max = d.Backoff.Max
	}
	if c.Backoff.Multiplier <= 1 {
		c.Backoff.Multiplier = d.Backoff.Multiplier
	}
	if c.Backoff.Jitter < 0 {
		c.Backoff.Jitter = 0
	}
	if c.Backoff.StableAfter <= 0 {
		c.Backoff.StableAfter = d.Backoff.StableAfter
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = d.RequestsPerSecond
	}
	if c.EventHistory <= 0 {
		c.EventHistory = d.EventHistory
	}
	if c.StreamIdle <= 0 {
		c.StreamIdle = d.StreamIdle
	}
	if c.KeepAlive < 0 {
		c.KeepAlive = 0
	}
	return c
}
