package ports

import (
	"context"
	"io"

	"hue-bridge-client/internal/domain/model"
)

// ResourceFetcher performs one-shot reads against the bridge.
type ResourceFetcher interface {
	FetchKind(ctx context.Context, kind model.ResourceKind) ([]model.ResourceRecord, error)
}

// AggregateFetcher is implemented by fetchers that can read the whole
// resource graph in one request.
type AggregateFetcher interface {
	FetchAll(ctx context.Context) ([]model.ResourceRecord, error)
}

// ResourceMutator issues writes. The result is observed through the event
// stream, not through the return value.
type ResourceMutator interface {
	Update(ctx context.Context, id model.ResourceIdentity, patch model.Attributes) error
	Create(ctx context.Context, kind model.ResourceKind, attrs model.Attributes) (model.ResourceIdentity, error)
	Delete(ctx context.Context, id model.ResourceIdentity) error
}

// LightCommander sends typed light commands.
type LightCommander interface {
	SetLightState(ctx context.Context, id string, cmd model.LightCommand) error
}

// PushConnector opens the long-lived event stream. Closing the returned body
// ends the connection; a read error or EOF means it was lost.
type PushConnector interface {
	Open(ctx context.Context, lastEventID string) (io.ReadCloser, error)
}
