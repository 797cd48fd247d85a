package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"hue-bridge-client/internal/domain/model"
	"hue-bridge-client/internal/ports"
)

// kindOnlyFetcher has no aggregate endpoint.
type kindOnlyFetcher struct {
	mock.Mock
}

func (m *kindOnlyFetcher) FetchKind(ctx context.Context, kind model.ResourceKind) ([]model.ResourceRecord, error) {
	args := m.Called(ctx, kind)
	return args.Get(0).([]model.ResourceRecord), args.Error(1)
}

func TestBootstrapper_Aggregate(t *testing.T) {
	f := new(MockFetcher)
	f.On("FetchAll", mock.Anything).Return([]model.ResourceRecord{light("1", true)}, nil)

	snap, err := NewBootstrapper(f, nil, zerolog.Nop()).FetchAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Records, 1)
	assert.True(t, snap.Covers(model.KindMotion))
	f.AssertNotCalled(t, "FetchKind", mock.Anything, mock.Anything)
}

func TestBootstrapper_PerKindKeepsKindOrder(t *testing.T) {
	f := new(kindOnlyFetcher)
	scene := model.NewRecord(model.KindScene, "s", model.AttributesOf("id", "s", "type", "scene"))
	f.On("FetchKind", mock.Anything, model.KindLight).Return([]model.ResourceRecord{light("1", true), light("2", true)}, nil)
	f.On("FetchKind", mock.Anything, model.KindScene).Return([]model.ResourceRecord{scene}, nil)

	kinds := []model.ResourceKind{model.KindScene, model.KindLight}
	snap, err := NewBootstrapper(f, kinds, zerolog.Nop()).FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Records, 3)
	assert.Equal(t, "s", snap.Records[0].ID())
	assert.Equal(t, "1", snap.Records[1].ID())
	assert.True(t, snap.Covers(model.KindLight))
	assert.False(t, snap.Covers(model.KindRoom))
}

func TestBootstrapper_ConfiguredKindsBypassAggregate(t *testing.T) {
	f := new(MockFetcher)
	f.On("FetchKind", mock.Anything, model.KindLight).Return([]model.ResourceRecord{light("1", true)}, nil)

	snap, err := NewBootstrapper(f, []model.ResourceKind{model.KindLight}, zerolog.Nop()).FetchAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Records, 1)
	f.AssertNotCalled(t, "FetchAll", mock.Anything)
}

func TestBootstrapper_PerKindFailure(t *testing.T) {
	f := new(kindOnlyFetcher)
	f.On("FetchKind", mock.Anything, model.KindLight).Return([]model.ResourceRecord{}, nil).Maybe()
	f.On("FetchKind", mock.Anything, model.KindRoom).Return([]model.ResourceRecord(nil), errors.New("HTTP 503"))

	_, err := NewBootstrapper(f, []model.ResourceKind{model.KindLight, model.KindRoom}, zerolog.Nop()).FetchAll(context.Background())
	var bootErr *model.BootstrapError
	require.ErrorAs(t, err, &bootErr)
	assert.Equal(t, model.KindRoom, bootErr.Kind)
}

func TestBootstrapper_DefaultKinds(t *testing.T) {
	f := new(kindOnlyFetcher)
	var mu sync.Mutex
	seen := map[model.ResourceKind]bool{}
	f.On("FetchKind", mock.Anything, mock.Anything).Return([]model.ResourceRecord{}, nil).Run(func(args mock.Arguments) {
		mu.Lock()
		defer mu.Unlock()
		seen[args.Get(1).(model.ResourceKind)] = true
	})

	_, err := NewBootstrapper(f, nil, zerolog.Nop()).FetchAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, seen, len(DefaultKinds))
	assert.True(t, seen[model.KindBridge])
}

var _ ports.ResourceFetcher = (*kindOnlyFetcher)(nil)
var _ ports.AggregateFetcher = (*MockFetcher)(nil)
