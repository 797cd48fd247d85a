package translator

import (
	"hue-bridge-client/internal/domain/model"
)

// GroupStrategy covers the kinds that reference other resources through
// "children" and "services": room, zone, bridge_home and device.
type GroupStrategy struct {
	kind model.ResourceKind
}

func (s *GroupStrategy) For(kind model.ResourceKind) *GroupStrategy {
	return &GroupStrategy{kind: kind}
}

func (s *GroupStrategy) Kind() model.ResourceKind { return s.kind }

func (s *GroupStrategy) Validate(_ model.ChangeOp, attrs model.Attributes) error {
	if err := validateRefList(attrs, "children"); err != nil {
		return err
	}
	return validateRefList(attrs, "services")
}

// GroupedLight returns the grouped_light service of a room or zone.
func (s *GroupStrategy) GroupedLight(rec model.ResourceRecord) (model.ResourceIdentity, bool) {
	for _, ref := range rec.Refs("services") {
		if ref.Kind == model.KindGroupedLight {
			return ref, true
		}
	}
	return model.ResourceIdentity{}, false
}
