package ports

import (
	"context"

	"hue-bridge-client/internal/domain/model"
)

// ControllerPort is what input adapters drive.
type ControllerPort interface {
	GetResource(kind model.ResourceKind, id string) (model.ResourceRecord, error)
	ListResources(kind model.ResourceKind) []model.ResourceRecord
	Kinds() []model.ResourceKind
	UpdateResource(ctx context.Context, id model.ResourceIdentity, patch model.Attributes) error
	SetLightState(ctx context.Context, id string, cmd model.LightCommand) error
	ConnectionState() model.ConnectionState
	BridgeID() string
	LastEvents() []model.StreamEvent
}
