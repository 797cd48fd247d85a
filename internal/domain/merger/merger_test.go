package merger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hue-bridge-client/internal/domain/model"
	"hue-bridge-client/internal/domain/store"
)

var light1 = model.ResourceIdentity{Kind: model.KindLight, ID: "1"}

func newMerger() (*Merger, *store.Store) {
	s := store.New()
	return New(s), s
}

func TestMerger_AddThenUpdates(t *testing.T) {
	full := model.AttributesOf("id", "1", "on", true, "name", "desk", "bri", 10.0)
	updates := []model.Attributes{
		model.AttributesOf("on", false),
		model.AttributesOf("bri", 20.0, "name", "lamp"),
		model.AttributesOf("bri", 30.0),
		model.AttributesOf("color", map[string]any{"x": 0.1}),
	}
	want := model.AttributesOf("id", "1", "on", false, "name", "lamp", "bri", 30.0, "color", map[string]any{"x": 0.1})

	run := func(m *Merger) model.ResourceRecord {
		var last Result
		for _, u := range updates {
			last = m.Apply(model.Update(light1, u))
			assert.Equal(t, model.Updated, last.Classification)
		}
		return last.Record
	}

	m, s := newMerger()
	res := m.Apply(model.Add(model.ResourceRecord{Identity: light1, Attributes: full}))
	assert.Equal(t, model.Created, res.Classification)

	first := run(m)
	assert.True(t, want.Equal(first.Attributes), "got %v", first.Attributes.Map())

	// replaying the same updates converges on the same record
	second := run(m)
	assert.True(t, first.Attributes.Equal(second.Attributes))

	stored, err := s.Get(light1)
	require.NoError(t, err)
	assert.True(t, want.Equal(stored.Attributes))
}

func TestMerger_AddForKnownIdentityReplaces(t *testing.T) {
	m, s := newMerger()
	m.Apply(model.Add(model.ResourceRecord{Identity: light1, Attributes: model.AttributesOf("on", true, "name", "a")}))
	res := m.Apply(model.Add(model.ResourceRecord{Identity: light1, Attributes: model.AttributesOf("on", false)}))

	assert.Equal(t, model.Updated, res.Classification)
	stored, err := s.Get(light1)
	require.NoError(t, err)
	assert.False(t, stored.Attributes.Has("name"))
}

func TestMerger_DeleteTwiceIsNoOp(t *testing.T) {
	m, s := newMerger()
	m.Apply(model.Add(model.ResourceRecord{Identity: light1, Attributes: model.AttributesOf("on", true)}))

	res := m.Apply(model.Delete(light1))
	assert.Equal(t, model.Deleted, res.Classification)
	assert.True(t, res.Tombstone())
	on, _ := res.Record.Attributes.Bool("on")
	assert.True(t, on, "tombstone carries the last known value")

	for i := 0; i < 2; i++ {
		res = m.Apply(model.Delete(light1))
		assert.Equal(t, model.NoOp, res.Classification)
		assert.Equal(t, light1, res.Identity)
	}
	assert.False(t, s.Has(light1))
}

func TestMerger_UpdateForUnknownEqualsAdd(t *testing.T) {
	attrs := model.AttributesOf("id", "1", "on", map[string]any{"on": true})

	viaUpdate, s1 := newMerger()
	r1 := viaUpdate.Apply(model.Update(light1, attrs))
	assert.Equal(t, model.Created, r1.Classification)

	viaAdd, s2 := newMerger()
	r2 := viaAdd.Apply(model.Add(model.ResourceRecord{Identity: light1, Attributes: attrs}))
	assert.Equal(t, model.Created, r2.Classification)

	a, err := s1.Get(light1)
	require.NoError(t, err)
	b, err := s2.Get(light1)
	require.NoError(t, err)
	assert.Equal(t, b, a)
}

func TestMerger_UpdateForUnknownKind(t *testing.T) {
	m, s := newMerger()
	id := model.ResourceIdentity{Kind: "brand_new_kind", ID: "x"}
	res := m.Apply(model.Update(id, model.AttributesOf("value", 1.0)))

	assert.Equal(t, model.Created, res.Classification)
	assert.True(t, s.Has(id))
}

func TestMerger_NestedValuesReplacedWholesale(t *testing.T) {
	m, _ := newMerger()
	m.Apply(model.Add(model.ResourceRecord{Identity: light1, Attributes: model.AttributesOf(
		"color", map[string]any{"xy": map[string]any{"x": 0.1, "y": 0.2}, "gamut_type": "C"},
	)}))
	res := m.Apply(model.Update(light1, model.AttributesOf("color", map[string]any{"xy": map[string]any{"x": 0.5, "y": 0.5}})))

	color, _ := res.Record.Attributes.Object("color")
	assert.Equal(t, map[string]any{"xy": map[string]any{"x": 0.5, "y": 0.5}}, color)
}

func TestMerger_Reconcile(t *testing.T) {
	m, s := newMerger()
	m.Seed([]model.ResourceRecord{
		model.NewRecord(model.KindLight, "1", model.AttributesOf("on", false, "stale", true)),
		model.NewRecord(model.KindLight, "2", model.AttributesOf("on", false)),
		model.NewRecord(model.KindScene, "s1", model.AttributesOf("name", "x")),
	})

	results := m.Reconcile([]model.ResourceRecord{
		model.NewRecord(model.KindLight, "1", model.AttributesOf("on", true)),
	}, func(k model.ResourceKind) bool { return k == model.KindLight })

	require.Len(t, results, 2)
	assert.Equal(t, model.Updated, results[0].Classification)
	assert.Equal(t, model.Deleted, results[1].Classification)
	assert.Equal(t, "2", results[1].Identity.ID)

	lights := s.List(model.KindLight)
	require.Len(t, lights, 1)
	assert.True(t, model.AttributesOf("on", true).Equal(lights[0].Attributes), "full replace, not merge")
	assert.True(t, s.Has(model.ResourceIdentity{Kind: model.KindScene, ID: "s1"}), "out of scope kinds are kept")

	m.Reconcile(nil, nil)
	assert.Equal(t, 0, s.Len())
}
