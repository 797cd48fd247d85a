package translator

import (
	"hue-bridge-client/internal/domain/model"
)

type Factory struct {
	strategies map[model.ResourceKind]Translator
	fallback   Translator
}

func NewFactory() *Factory {
	group := &GroupStrategy{}
	return &Factory{
		strategies: map[model.ResourceKind]Translator{
			model.KindLight:        &LightStrategy{},
			model.KindGroupedLight: &GroupedLightStrategy{},
			model.KindScene:        &SceneStrategy{},
			model.KindRoom:         group.For(model.KindRoom),
			model.KindZone:         group.For(model.KindZone),
			model.KindBridgeHome:   group.For(model.KindBridgeHome),
			model.KindDevice:       group.For(model.KindDevice),
		},
		fallback: &GenericStrategy{},
	}
}

// GetTranslator returns the strategy for kind, or a generic one for kinds
// without a dedicated schema.
func (f *Factory) GetTranslator(kind model.ResourceKind) Translator {
	if t, ok := f.strategies[kind]; ok {
		return t
	}
	return f.fallback
}

func (f *Factory) Validate(op model.ChangeOp, id model.ResourceIdentity, attrs model.Attributes) error {
	if err := validateMetadata(attrs); err != nil {
		return err
	}
	return f.GetTranslator(id.Kind).Validate(op, attrs)
}

// GenericStrategy accepts any attribute bag.
type GenericStrategy struct{}

func (s *GenericStrategy) Kind() model.ResourceKind { return "" }

func (s *GenericStrategy) Validate(model.ChangeOp, model.Attributes) error { return nil }
