package translator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hue-bridge-client/internal/domain/model"
)

func TestLightStrategy_Validate(t *testing.T) {
	s := &LightStrategy{}

	assert.NoError(t, s.Validate(model.OpUpdate, model.AttributesOf(
		"on", map[string]any{"on": true},
		"dimming", map[string]any{"brightness": 42.5},
	)))
	assert.Error(t, s.Validate(model.OpUpdate, model.AttributesOf("on", true)))
	assert.Error(t, s.Validate(model.OpUpdate, model.AttributesOf("on", map[string]any{"on": "yes"})))
	assert.Error(t, s.Validate(model.OpUpdate, model.AttributesOf("dimming", map[string]any{"brightness": 140.0})))
	assert.Error(t, s.Validate(model.OpUpdate, model.AttributesOf(
		"color", map[string]any{"xy": map[string]any{"x": 1.5, "y": 0.3}},
	)))
	assert.NoError(t, s.Validate(model.OpUpdate, model.AttributesOf("owner", map[string]any{"rid": "x"})))
}

func TestLightStrategy_ToPatch(t *testing.T) {
	s := &LightStrategy{}
	patch := s.ToPatch(model.LightCommand{
		On:           model.Ptr(true),
		Brightness:   model.Ptr(120.0),
		Color:        &model.ColorXY{X: 0.3, Y: 0.4},
		Mirek:        model.Ptr(300),
		TransitionMs: model.Ptr(2000),
	})

	assert.Equal(t, []string{"on", "dimming", "color", "color_temperature", "dynamics"}, patch.Keys())
	dimming, _ := patch.Object("dimming")
	assert.Equal(t, 100.0, dimming["brightness"])
	ct, _ := patch.Object("color_temperature")
	assert.Equal(t, 300.0, ct["mirek"])
	assert.NoError(t, s.Validate(model.OpUpdate, patch))
}

func TestLightStrategy_ToRequest(t *testing.T) {
	s := &LightStrategy{}
	body := s.ToRequest(model.LightCommand{On: model.Ptr(false), Brightness: model.Ptr(50.0), Mirek: model.Ptr(250)})

	require.NotNil(t, body.On)
	assert.False(t, *body.On.On)
	require.NotNil(t, body.Dimming)
	assert.InDelta(t, 50.0, float64(*body.Dimming.Brightness), 0.001)
	require.NotNil(t, body.ColorTemperature)
	assert.Equal(t, 250, *body.ColorTemperature.Mirek)
	assert.Nil(t, body.Color)
}

func TestLightStrategy_ToLight(t *testing.T) {
	s := &LightStrategy{}
	rec := model.NewRecord(model.KindLight, "1", model.AttributesOf(
		"id", "1",
		"type", "light",
		"metadata", map[string]any{"name": "Desk"},
		"on", map[string]any{"on": true},
		"dimming", map[string]any{"brightness": 75.0},
	))

	l, err := s.ToLight(rec)
	require.NoError(t, err)
	require.NotNil(t, l.Id)
	assert.Equal(t, "1", *l.Id)
	require.NotNil(t, l.On)
	assert.True(t, *l.On.On)
	assert.Equal(t, "Desk", Name(rec))
}

func TestSceneStrategy(t *testing.T) {
	s := &SceneStrategy{}
	patch := s.RecallPatch(RecallDynamicPalette, model.Ptr(500))
	recall, ok := patch.Object("recall")
	require.True(t, ok)
	assert.Equal(t, "dynamic_palette", recall["action"])
	assert.Equal(t, 500.0, recall["duration"])

	assert.Error(t, s.Validate(model.OpUpdate, model.AttributesOf("status", map[string]any{"active": 1.0})))

	rec := model.NewRecord(model.KindScene, "s", model.AttributesOf(
		"group", map[string]any{"rid": "r1", "rtype": "room"},
	))
	group, ok := s.Group(rec)
	require.True(t, ok)
	assert.Equal(t, model.ResourceIdentity{Kind: model.KindRoom, ID: "r1"}, group)
}

func TestGroupStrategy(t *testing.T) {
	f := NewFactory()
	room := f.GetTranslator(model.KindRoom)
	assert.Equal(t, model.KindRoom, room.Kind())

	assert.NoError(t, room.Validate(model.OpAdd, model.AttributesOf(
		"children", []any{map[string]any{"rid": "d1", "rtype": "device"}},
	)))
	assert.Error(t, room.Validate(model.OpAdd, model.AttributesOf("children", "d1")))
	assert.Error(t, room.Validate(model.OpAdd, model.AttributesOf("children", []any{map[string]any{"rtype": "device"}})))

	rec := model.NewRecord(model.KindRoom, "r1", model.AttributesOf(
		"services", []any{map[string]any{"rid": "g1", "rtype": "grouped_light"}},
	))
	gl, ok := room.(*GroupStrategy).GroupedLight(rec)
	require.True(t, ok)
	assert.Equal(t, "g1", gl.ID)
}

func TestFactory_FallbackAndMetadata(t *testing.T) {
	f := NewFactory()
	assert.IsType(t, &GenericStrategy{}, f.GetTranslator("future_kind"))

	id := model.ResourceIdentity{Kind: "future_kind", ID: "x"}
	assert.NoError(t, f.Validate(model.OpUpdate, id, model.AttributesOf("anything", 1.0)))
	assert.Error(t, f.Validate(model.OpUpdate, id, model.AttributesOf("metadata", map[string]any{"name": 3.0})))
}
