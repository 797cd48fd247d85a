package eventstream

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hue-bridge-client/internal/domain/model"
)

func TestDecoder_Decode(t *testing.T) {
	d := NewDecoder(nil)
	out := d.Decode(Frame{ID: "1:0", Data: `[
		{"id":"e1","creationtime":"2026-01-01T00:00:00Z","type":"update","data":[
			{"id":"L1","type":"light","on":{"on":true}},
			{"id":"L2","type":"light","dimming":{"brightness":250}},
			{"type":"light"}
		]},
		{"id":"e2","type":"delete","data":[{"id":"S1","type":"scene"}]},
		{"id":"e3","type":"bogus","data":[{"id":"X","type":"light"}]}
	]`})

	require.Len(t, out.Changes, 2)
	assert.Equal(t, model.OpUpdate, out.Changes[0].Op)
	assert.Equal(t, model.ResourceIdentity{Kind: model.KindLight, ID: "L1"}, out.Changes[0].Identity)
	assert.Equal(t, []string{"id", "type", "on"}, out.Changes[0].Attributes.Keys())
	assert.Equal(t, model.OpDelete, out.Changes[1].Op)
	assert.Equal(t, "S1", out.Changes[1].Identity.ID)

	require.Len(t, out.Events, 2)
	assert.Equal(t, "e1", out.Events[0].ID)
	assert.Len(t, out.Events[0].Data, 1)

	// out-of-range brightness, missing id, unknown op
	require.Len(t, out.Errors, 3)
	for _, err := range out.Errors {
		var de *model.DecodeError
		assert.ErrorAs(t, err, &de)
	}
}

func TestDecoder_InvalidJSON(t *testing.T) {
	out := NewDecoder(nil).Decode(Frame{Data: `{"not":"an array"`})
	assert.Empty(t, out.Changes)
	require.Len(t, out.Errors, 1)
	var de *model.DecodeError
	assert.ErrorAs(t, out.Errors[0], &de)
}

func TestDecoder_DecodeResources(t *testing.T) {
	raw := []json.RawMessage{
		json.RawMessage(`{"id":"L1","type":"light","metadata":{"name":"Desk"}}`),
		json.RawMessage(`{"id":"","type":"light"}`),
		json.RawMessage(`[]`),
	}
	records, errs := NewDecoder(nil).DecodeResources(raw)
	require.Len(t, records, 1)
	assert.Equal(t, "L1", records[0].ID())
	assert.Len(t, errs, 2)
}
