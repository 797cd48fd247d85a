package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"hue-bridge-client/internal/domain/model"
	"hue-bridge-client/internal/ports"
)

type MockController struct {
	mock.Mock
}

var _ ports.ControllerPort = (*MockController)(nil)

func (m *MockController) GetResource(kind model.ResourceKind, id string) (model.ResourceRecord, error) {
	args := m.Called(kind, id)
	return args.Get(0).(model.ResourceRecord), args.Error(1)
}

func (m *MockController) ListResources(kind model.ResourceKind) []model.ResourceRecord {
	args := m.Called(kind)
	return args.Get(0).([]model.ResourceRecord)
}

func (m *MockController) Kinds() []model.ResourceKind {
	args := m.Called()
	return args.Get(0).([]model.ResourceKind)
}

func (m *MockController) UpdateResource(ctx context.Context, id model.ResourceIdentity, patch model.Attributes) error {
	args := m.Called(ctx, id, patch)
	return args.Error(0)
}

func (m *MockController) SetLightState(ctx context.Context, id string, cmd model.LightCommand) error {
	args := m.Called(ctx, id, cmd)
	return args.Error(0)
}

func (m *MockController) ConnectionState() model.ConnectionState {
	args := m.Called()
	return args.Get(0).(model.ConnectionState)
}

func (m *MockController) BridgeID() string {
	return m.Called().String(0)
}

func (m *MockController) LastEvents() []model.StreamEvent {
	args := m.Called()
	return args.Get(0).([]model.StreamEvent)
}

func deskLamp() model.ResourceRecord {
	return model.NewRecord(model.KindLight, "L1", model.AttributesOf(
		"id", "L1", "type", "light",
		"metadata", map[string]any{"name": "Desk"},
		"on", map[string]any{"on": true},
		"dimming", map[string]any{"brightness": 42.0},
	))
}

func serve(t *testing.T, c *MockController, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	NewServer(c, zerolog.Nop()).Handler().ServeHTTP(rec, req)
	return rec
}

func TestServer_Resources(t *testing.T) {
	c := new(MockController)
	c.On("ListResources", model.KindLight).Return([]model.ResourceRecord{deskLamp()})
	c.On("GetResource", model.KindLight, "L1").Return(deskLamp(), nil)
	c.On("GetResource", model.KindLight, "nope").Return(model.ResourceRecord{}, model.ErrNotFound)

	rec := serve(t, c, http.MethodGet, "/resources/light", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), `[{"id":"L1","type":"light","metadata"`))

	rec = serve(t, c, http.MethodGet, "/resources/light/L1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"L1","type":"light","metadata":{"name":"Desk"},"on":{"on":true},"dimming":{"brightness":42}}`, rec.Body.String())

	rec = serve(t, c, http.MethodGet, "/resources/light/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_Update(t *testing.T) {
	c := new(MockController)
	id := model.ResourceIdentity{Kind: model.KindLight, ID: "L1"}
	c.On("UpdateResource", mock.Anything, id, mock.Anything).Return(nil).Once()
	c.On("UpdateResource", mock.Anything, id, mock.Anything).Return(model.ErrInvalidAttributes).Once()

	rec := serve(t, c, http.MethodPut, "/resources/light/L1", `{"on":{"on":false}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"success":{"/light/L1/on":{"on":false}}}]`, rec.Body.String())
	patch := c.Calls[0].Arguments.Get(2).(model.Attributes)
	assert.Equal(t, []string{"on"}, patch.Keys())

	rec = serve(t, c, http.MethodPut, "/resources/light/L1", `{"dimming":{"brightness":900}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, c, http.MethodPut, "/resources/light/L1", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_Lights(t *testing.T) {
	c := new(MockController)
	c.On("GetResource", model.KindLight, "L1").Return(deskLamp(), nil)
	c.On("SetLightState", mock.Anything, "L1", model.LightCommand{On: model.Ptr(false)}).Return(nil)
	c.On("SetLightState", mock.Anything, "L2", mock.Anything).Return(&model.APIError{Status: 503})

	rec := serve(t, c, http.MethodGet, "/lights/L1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var light map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &light))
	assert.Equal(t, "L1", light["id"])
	assert.Equal(t, "Desk", light["metadata"].(map[string]any)["name"])

	rec = serve(t, c, http.MethodPut, "/lights/L1/state", `{"on":false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"success":{"/lights/L1/state/on":{"on":false}}}]`, rec.Body.String())

	rec = serve(t, c, http.MethodPut, "/lights/L2/state", `{"on":true}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestServer_StatusAndEvents(t *testing.T) {
	c := new(MockController)
	c.On("ConnectionState").Return(model.ConnectionState{State: model.StateStreaming, Attempt: 1})
	c.On("Kinds").Return([]model.ResourceKind{model.KindLight})
	c.On("ListResources", model.KindLight).Return([]model.ResourceRecord{deskLamp()})
	c.On("BridgeID").Return("001788a1b2c3")
	c.On("LastEvents").Return([]model.StreamEvent{{ID: "e1", Type: "update"}})

	rec := serve(t, c, http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"bridge_id":"001788a1b2c3","connection":"STREAMING","attempt":1,"resources":1}`, rec.Body.String())

	rec = serve(t, c, http.MethodGet, "/resources", "")
	assert.JSONEq(t, `{"light":1}`, rec.Body.String())

	rec = serve(t, c, http.MethodGet, "/events", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var events []model.StreamEvent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	assert.Equal(t, "e1", events[0].ID)

	rec = serve(t, c, http.MethodPost, "/status", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
