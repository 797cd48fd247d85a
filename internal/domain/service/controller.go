package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"hue-bridge-client/internal/domain/eventstream"
	"hue-bridge-client/internal/domain/merger"
	"hue-bridge-client/internal/domain/model"
	"hue-bridge-client/internal/domain/store"
	"hue-bridge-client/internal/domain/subscription"
	"hue-bridge-client/internal/domain/translator"
	"hue-bridge-client/internal/ports"
)

// Collaborators are the outside dependencies of a Controller. Lights is
// optional; light commands fall back to Mutator without it.
type Collaborators struct {
	Fetcher   ports.ResourceFetcher
	Mutator   ports.ResourceMutator
	Lights    ports.LightCommander
	Connector ports.PushConnector
	Sink      ports.ErrorSink
}

type ConnectionListener func(model.ConnectionEvent)

// Controller keeps a local mirror of one bridge's resource graph in sync and
// exposes it with the mutation operations. Each bridge gets its own Controller.
type Controller struct {
	cfg         model.Config
	c           Collaborators
	logger      zerolog.Logger
	translators *translator.Factory
	lights      *translator.LightStrategy
	grouped     *translator.GroupedLightStrategy
	scenes      *translator.SceneStrategy

	store     *store.Store
	merger    *merger.Merger
	registry  *subscription.Registry
	bootstrap *Bootstrapper
	stream    *eventstream.Client
	history   *history

	lifecycle     sync.Mutex
	initialized   atomic.Bool
	stopKeepAlive context.CancelFunc

	listenersMu sync.RWMutex
	listeners   []connListener
}

type connListener struct {
	id string
	fn ConnectionListener
}

func NewController(cfg model.Config, c Collaborators, logger zerolog.Logger) *Controller {
	cfg = cfg.WithDefaults()
	if c.Sink == nil {
		c.Sink = NewLogSink(logger)
	}
	s := store.New()
	translators := translator.NewFactory()

	ctl := &Controller{
		cfg:         cfg,
		c:           c,
		logger:      logger.With().Str("component", "controller").Logger(),
		translators: translators,
		lights:      &translator.LightStrategy{},
		grouped:     &translator.GroupedLightStrategy{},
		scenes:      &translator.SceneStrategy{},
		store:       s,
		merger:      merger.New(s),
		registry:    subscription.NewRegistry(c.Sink),
		bootstrap:   NewBootstrapper(c.Fetcher, cfg.Kinds, logger),
		history:     newHistory(cfg.EventHistory),
	}

	ctl.stream = eventstream.NewClient(c.Connector, eventstream.NewDecoder(translators), cfg.Backoff, c.Sink, logger)
	ctl.stream.OnChange(ctl.apply)
	ctl.stream.OnEvent(ctl.history.add)
	ctl.stream.OnReconnect(ctl.reconcile)
	ctl.stream.OnConnection(ctl.dispatchConnection)
	ctl.stream.OnStateChange(func(prev, next model.ConnectionState) {
		ctl.logger.Debug().Stringer("from", prev).Stringer("to", next).Msg("connection state")
	})
	return ctl
}

// Initialize seeds the store from a full fetch and starts the event stream.
// The stream outlives ctx; it runs until Shutdown.
func (c *Controller) Initialize(ctx context.Context) error {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()
	if c.initialized.Load() {
		return model.ErrAlreadyInitialized
	}

	// A stream task left over from a Shutdown that timed out must end before
	// the store is reseeded.
	if err := c.stream.Stop(ctx); err != nil {
		return fmt.Errorf("previous event stream still running: %w", err)
	}
	snap, err := c.bootstrap.FetchAll(ctx)
	if err != nil {
		return err
	}
	c.store.Clear()
	c.history.reset()
	c.merger.Seed(snap.Records)
	c.logger.Info().Int("resources", c.store.Len()).Msg("resource graph loaded")

	if err := c.stream.Start(context.WithoutCancel(ctx)); err != nil {
		return err
	}
	if c.cfg.KeepAlive > 0 {
		keepCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		c.stopKeepAlive = cancel
		go c.keepAlive(keepCtx, c.cfg.KeepAlive)
	}
	c.initialized.Store(true)
	return nil
}

// Shutdown stops the stream and drops every subscription. The store keeps
// its last contents for reads.
func (c *Controller) Shutdown(ctx context.Context) error {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()
	if !c.initialized.Load() {
		return nil
	}
	c.initialized.Store(false)
	if c.stopKeepAlive != nil {
		c.stopKeepAlive()
		c.stopKeepAlive = nil
	}
	err := c.stream.Stop(ctx)
	c.registry.Clear()
	c.listenersMu.Lock()
	c.listeners = nil
	c.listenersMu.Unlock()
	c.logger.Info().Msg("controller stopped")
	return err
}

func (c *Controller) Initialized() bool {
	return c.initialized.Load()
}

func (c *Controller) GetResource(kind model.ResourceKind, id string) (model.ResourceRecord, error) {
	return c.store.Get(model.ResourceIdentity{Kind: kind, ID: id})
}

// ListResources returns the resources of kind in the order they were first seen.
func (c *Controller) ListResources(kind model.ResourceKind) []model.ResourceRecord {
	return c.store.List(kind)
}

func (c *Controller) Kinds() []model.ResourceKind {
	return c.store.Kinds()
}

// BridgeID is the bridge_id of the bridge resource, or the configured one
// before the graph is loaded.
func (c *Controller) BridgeID() string {
	for _, rec := range c.store.List(model.KindBridge) {
		if id, ok := rec.Attributes.Str("bridge_id"); ok && id != "" {
			return id
		}
	}
	return c.cfg.BridgeID
}

// Children resolves the children references of a room, zone or device.
// References to resources that are not in the store are skipped.
func (c *Controller) Children(id model.ResourceIdentity) ([]model.ResourceRecord, error) {
	rec, err := c.store.Get(id)
	if err != nil {
		return nil, err
	}
	var out []model.ResourceRecord
	for _, ref := range rec.Refs("children") {
		child, err := c.store.Get(ref)
		if err != nil {
			continue
		}
		out = append(out, child)
	}
	return out, nil
}

func (c *Controller) Owner(id model.ResourceIdentity) (model.ResourceRecord, error) {
	rec, err := c.store.Get(id)
	if err != nil {
		return model.ResourceRecord{}, err
	}
	ref, ok := rec.Ref("owner")
	if !ok {
		return model.ResourceRecord{}, fmt.Errorf("%s has no owner: %w", id, model.ErrNotFound)
	}
	return c.store.Get(ref)
}

func (c *Controller) LastEvents() []model.StreamEvent {
	return c.history.snapshot()
}

func (c *Controller) ConnectionState() model.ConnectionState {
	return c.stream.State()
}

func (c *Controller) Subscribe(filter subscription.Filter, cb subscription.Callback) subscription.Handle {
	return c.registry.Subscribe(filter, cb)
}

func (c *Controller) Unsubscribe(h subscription.Handle) bool {
	return c.registry.Unsubscribe(h)
}

// SubscribeConnection registers fn for connection events and returns a
// function that removes it.
func (c *Controller) SubscribeConnection(fn ConnectionListener) func() {
	id := uuid.NewString()
	c.listenersMu.Lock()
	c.listeners = append(c.listeners, connListener{id: id, fn: fn})
	c.listenersMu.Unlock()
	return func() {
		c.listenersMu.Lock()
		defer c.listenersMu.Unlock()
		for i, l := range c.listeners {
			if l.id == id {
				c.listeners = append(c.listeners[:i:i], c.listeners[i+1:]...)
				return
			}
		}
	}
}

// UpdateResource validates and sends a partial update. With optimistic
// updates enabled a known resource is patched locally once the bridge accepts.
func (c *Controller) UpdateResource(ctx context.Context, id model.ResourceIdentity, patch model.Attributes) error {
	if err := c.ready(); err != nil {
		return err
	}
	if err := c.translators.Validate(model.OpUpdate, id, patch); err != nil {
		return fmt.Errorf("update %s: %w: %w", id, model.ErrInvalidAttributes, err)
	}
	if err := c.c.Mutator.Update(ctx, id, patch); err != nil {
		return err
	}
	c.reflect(model.Update(id, patch))
	return nil
}

// CreateResource creates a resource; it appears in the store when the
// bridge reports it.
func (c *Controller) CreateResource(ctx context.Context, kind model.ResourceKind, attrs model.Attributes) (model.ResourceIdentity, error) {
	if err := c.ready(); err != nil {
		return model.ResourceIdentity{}, err
	}
	if err := c.translators.Validate(model.OpAdd, model.ResourceIdentity{Kind: kind}, attrs); err != nil {
		return model.ResourceIdentity{}, fmt.Errorf("create %s: %w: %w", kind, model.ErrInvalidAttributes, err)
	}
	return c.c.Mutator.Create(ctx, kind, attrs)
}

func (c *Controller) DeleteResource(ctx context.Context, id model.ResourceIdentity) error {
	if err := c.ready(); err != nil {
		return err
	}
	if err := c.c.Mutator.Delete(ctx, id); err != nil {
		return err
	}
	c.reflect(model.Delete(id))
	return nil
}

// SetLightState sends cmd to a light. Commands with a transition go through
// the generic mutator since the typed request has no dynamics field.
func (c *Controller) SetLightState(ctx context.Context, id string, cmd model.LightCommand) error {
	if err := c.ready(); err != nil {
		return err
	}
	if cmd.Empty() {
		return fmt.Errorf("light %s: %w: command has nothing to set", id, model.ErrInvalidAttributes)
	}
	identity := model.ResourceIdentity{Kind: model.KindLight, ID: id}
	patch := c.lights.ToPatch(cmd)

	var err error
	if c.c.Lights != nil && cmd.TransitionMs == nil {
		err = c.c.Lights.SetLightState(ctx, id, cmd)
	} else {
		err = c.c.Mutator.Update(ctx, identity, patch)
	}
	if err != nil {
		return err
	}
	patch.Delete("dynamics")
	c.reflect(model.Update(identity, patch))
	return nil
}

func (c *Controller) TurnOn(ctx context.Context, id string) error {
	return c.SetLightState(ctx, id, model.LightCommand{On: model.Ptr(true)})
}

func (c *Controller) TurnOff(ctx context.Context, id string) error {
	return c.SetLightState(ctx, id, model.LightCommand{On: model.Ptr(false)})
}

func (c *Controller) SetBrightness(ctx context.Context, id string, percent float64) error {
	return c.SetLightState(ctx, id, model.LightCommand{On: model.Ptr(percent > 0), Brightness: model.Ptr(percent)})
}

func (c *Controller) SetColorXY(ctx context.Context, id string, x, y float64) error {
	return c.SetLightState(ctx, id, model.LightCommand{Color: &model.ColorXY{X: x, Y: y}})
}

func (c *Controller) SetColorTemperature(ctx context.Context, id string, mirek int) error {
	return c.SetLightState(ctx, id, model.LightCommand{Mirek: model.Ptr(mirek)})
}

func (c *Controller) SetGroupedLightOn(ctx context.Context, id string, on bool) error {
	if err := c.ready(); err != nil {
		return err
	}
	identity := model.ResourceIdentity{Kind: model.KindGroupedLight, ID: id}
	patch := c.grouped.ToPatch(model.LightCommand{On: model.Ptr(on)})
	if err := c.c.Mutator.Update(ctx, identity, patch); err != nil {
		return err
	}
	c.reflect(model.Update(identity, patch))
	return nil
}

// RecallScene activates a scene. Its effect on lights arrives as events.
func (c *Controller) RecallScene(ctx context.Context, id string, action translator.RecallAction, durationMs *int) error {
	if err := c.ready(); err != nil {
		return err
	}
	if action == "" {
		action = translator.RecallActive
	}
	identity := model.ResourceIdentity{Kind: model.KindScene, ID: id}
	return c.c.Mutator.Update(ctx, identity, c.scenes.RecallPatch(action, durationMs))
}

func (c *Controller) ready() error {
	if !c.Initialized() {
		return model.ErrNotInitialized
	}
	return nil
}

// reflect applies a locally issued change when optimistic updates are on.
// Only resources already observed from the bridge are touched.
func (c *Controller) reflect(change model.ChangeRecord) {
	if !c.cfg.OptimisticUpdates || !c.store.Has(change.Identity) {
		return
	}
	c.apply(change)
}

func (c *Controller) apply(change model.ChangeRecord) {
	c.publish(c.merger.Apply(change))
}

func (c *Controller) publish(res merger.Result) {
	if res.Classification == model.NoOp {
		return
	}
	c.registry.Notify(res.Classification, res.Identity, res.Record)
}

// reconcile refetches the graph after a reconnect and diffs it into the store.
func (c *Controller) reconcile(ctx context.Context) error {
	snap, err := c.bootstrap.FetchAll(ctx)
	if err != nil {
		return err
	}
	results := c.merger.Reconcile(snap.Records, snap.Covers)
	for _, res := range results {
		c.publish(res)
	}
	c.logger.Info().Int("resources", c.store.Len()).Int("changes", len(results)).Msg("resynchronized after reconnect")
	return nil
}

func (c *Controller) dispatchConnection(ev model.ConnectionEvent) {
	c.listenersMu.RLock()
	listeners := make([]ConnectionListener, len(c.listeners))
	for i, l := range c.listeners {
		listeners[i] = l.fn
	}
	c.listenersMu.RUnlock()

	for _, fn := range listeners {
		fn(ev)
	}
}
