package translator

import (
	"github.com/openhue/openhue-go"

	"hue-bridge-client/internal/domain/model"
)

type LightStrategy struct{}

func (s *LightStrategy) Kind() model.ResourceKind { return model.KindLight }

func (s *LightStrategy) Validate(_ model.ChangeOp, attrs model.Attributes) error {
	if err := onFeature(attrs); err != nil {
		return err
	}
	if err := dimmingFeature(attrs); err != nil {
		return err
	}
	ct, err := validateObject(attrs, "color_temperature")
	if err != nil {
		return err
	}
	if ct != nil {
		if err := validateNumberField(ct, "color_temperature", "mirek", 50, 1000); err != nil {
			return err
		}
	}
	color, err := validateObject(attrs, "color")
	if err != nil {
		return err
	}
	if color != nil {
		if xy, ok := color["xy"].(map[string]any); ok {
			if err := validateNumberField(xy, "color.xy", "x", 0, 1); err != nil {
				return err
			}
			return validateNumberField(xy, "color.xy", "y", 0, 1)
		}
	}
	return nil
}

// ToLight decodes a light record into the typed CLIP v2 view.
func (s *LightStrategy) ToLight(rec model.ResourceRecord) (openhue.LightGet, error) {
	var l openhue.LightGet
	err := rec.Attributes.Decode(&l)
	return l, err
}

// ToPatch renders the command as the attribute patch the bridge will report back.
func (s *LightStrategy) ToPatch(cmd model.LightCommand) model.Attributes {
	return lightPatch(cmd)
}

// ToRequest renders the command as an openhue request body. Transition time is
// not part of it; callers needing dynamics send ToPatch instead.
func (s *LightStrategy) ToRequest(cmd model.LightCommand) openhue.UpdateLightJSONRequestBody {
	body := openhue.UpdateLightJSONRequestBody{}
	if cmd.On != nil {
		on := *cmd.On
		body.On = &openhue.On{On: &on}
	}
	if cmd.Brightness != nil {
		brightness := openhue.Brightness(clampPercent(*cmd.Brightness))
		body.Dimming = &openhue.Dimming{Brightness: &brightness}
	}
	if cmd.Color != nil {
		x := float32(cmd.Color.X)
		y := float32(cmd.Color.Y)
		body.Color = &openhue.Color{Xy: &openhue.GamutPosition{X: &x, Y: &y}}
	}
	if cmd.Mirek != nil {
		mirek := *cmd.Mirek
		body.ColorTemperature = &openhue.ColorTemperature{Mirek: &mirek}
	}
	return body
}

// GroupedLightStrategy covers grouped_light, which shares the on and dimming features.
type GroupedLightStrategy struct{}

func (s *GroupedLightStrategy) Kind() model.ResourceKind { return model.KindGroupedLight }

func (s *GroupedLightStrategy) Validate(_ model.ChangeOp, attrs model.Attributes) error {
	if err := onFeature(attrs); err != nil {
		return err
	}
	return dimmingFeature(attrs)
}

func (s *GroupedLightStrategy) ToPatch(cmd model.LightCommand) model.Attributes {
	return lightPatch(cmd)
}
