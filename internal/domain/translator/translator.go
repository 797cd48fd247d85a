package translator

import (
	"fmt"

	"hue-bridge-client/internal/domain/model"
)

// Translator knows the attribute schema of one resource kind.
type Translator interface {
	Kind() model.ResourceKind
	// Validate checks the structure of a full state (add) or a patch (update).
	// It only looks at keys that are present.
	Validate(op model.ChangeOp, attrs model.Attributes) error
}

// Name returns metadata.name when the resource carries one.
func Name(rec model.ResourceRecord) string {
	meta, ok := rec.Attributes.Object("metadata")
	if !ok {
		return ""
	}
	name, _ := meta["name"].(string)
	return name
}

func validateObject(attrs model.Attributes, key string) (map[string]any, error) {
	v, ok := attrs.Get(key)
	if !ok {
		return nil, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s: expected object, got %T", key, v)
	}
	return m, nil
}

func validateBoolField(obj map[string]any, parent, field string) error {
	v, ok := obj[field]
	if !ok {
		return nil
	}
	if _, ok := v.(bool); !ok {
		return fmt.Errorf("%s.%s: expected bool, got %T", parent, field, v)
	}
	return nil
}

func validateNumberField(obj map[string]any, parent, field string, min, max float64) error {
	v, ok := obj[field]
	if !ok || v == nil {
		return nil
	}
	n, ok := v.(float64)
	if !ok {
		return fmt.Errorf("%s.%s: expected number, got %T", parent, field, v)
	}
	if n < min || n > max {
		return fmt.Errorf("%s.%s: %v out of range [%v, %v]", parent, field, n, min, max)
	}
	return nil
}

func validateRefList(attrs model.Attributes, key string) error {
	v, ok := attrs.Get(key)
	if !ok {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		return fmt.Errorf("%s: expected array, got %T", key, v)
	}
	for i, item := range items {
		ref, ok := item.(map[string]any)
		if !ok {
			return fmt.Errorf("%s[%d]: expected reference object, got %T", key, i, item)
		}
		if _, ok := ref["rid"].(string); !ok {
			return fmt.Errorf("%s[%d]: missing rid", key, i)
		}
	}
	return nil
}

func validateMetadata(attrs model.Attributes) error {
	meta, err := validateObject(attrs, "metadata")
	if err != nil || meta == nil {
		return err
	}
	if v, ok := meta["name"]; ok {
		if _, ok := v.(string); !ok {
			return fmt.Errorf("metadata.name: expected string, got %T", v)
		}
	}
	return nil
}

// onFeature validates the {"on": {"on": bool}} feature shared by lights and grouped lights.
func onFeature(attrs model.Attributes) error {
	on, err := validateObject(attrs, "on")
	if err != nil || on == nil {
		return err
	}
	return validateBoolField(on, "on", "on")
}

func dimmingFeature(attrs model.Attributes) error {
	dimming, err := validateObject(attrs, "dimming")
	if err != nil || dimming == nil {
		return err
	}
	return validateNumberField(dimming, "dimming", "brightness", 0, 100)
}

func lightPatch(cmd model.LightCommand) model.Attributes {
	patch := model.NewAttributes()
	if cmd.On != nil {
		patch.Set("on", map[string]any{"on": *cmd.On})
	}
	if cmd.Brightness != nil {
		patch.Set("dimming", map[string]any{"brightness": clampPercent(*cmd.Brightness)})
	}
	if cmd.Color != nil {
		patch.Set("color", map[string]any{"xy": map[string]any{"x": cmd.Color.X, "y": cmd.Color.Y}})
	}
	if cmd.Mirek != nil {
		patch.Set("color_temperature", map[string]any{"mirek": float64(*cmd.Mirek)})
	}
	if cmd.TransitionMs != nil {
		patch.Set("dynamics", map[string]any{"duration": float64(*cmd.TransitionMs)})
	}
	return patch
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
