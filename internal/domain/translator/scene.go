package translator

import (
	"fmt"

	"hue-bridge-client/internal/domain/model"
)

type RecallAction string

const (
	RecallActive         RecallAction = "active"
	RecallDynamicPalette RecallAction = "dynamic_palette"
	RecallStatic         RecallAction = "static"
)

type SceneStrategy struct{}

func (s *SceneStrategy) Kind() model.ResourceKind { return model.KindScene }

func (s *SceneStrategy) Validate(_ model.ChangeOp, attrs model.Attributes) error {
	if _, err := validateObject(attrs, "group"); err != nil {
		return err
	}
	if v, ok := attrs.Get("actions"); ok {
		if _, ok := v.([]any); !ok {
			return fmt.Errorf("actions: expected array, got %T", v)
		}
	}
	status, err := validateObject(attrs, "status")
	if err != nil || status == nil {
		return err
	}
	if v, ok := status["active"]; ok {
		if _, ok := v.(string); !ok {
			return fmt.Errorf("status.active: expected string, got %T", v)
		}
	}
	return nil
}

// RecallPatch builds the PUT body that recalls a scene.
func (s *SceneStrategy) RecallPatch(action RecallAction, durationMs *int) model.Attributes {
	recall := map[string]any{"action": string(action)}
	if durationMs != nil {
		recall["duration"] = float64(*durationMs)
	}
	return model.AttributesOf("recall", recall)
}

// Group returns the room or zone the scene belongs to.
func (s *SceneStrategy) Group(rec model.ResourceRecord) (model.ResourceIdentity, bool) {
	return rec.Ref("group")
}
