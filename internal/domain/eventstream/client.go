package eventstream

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"hue-bridge-client/internal/domain/model"
	"hue-bridge-client/internal/ports"
)

var (
	ErrAlreadyStarted = errors.New("event stream already started")
	errStreamClosed   = errors.New("event stream closed by bridge")
)

// warnEvery is how many consecutive failed attempts pass between warnings.
const warnEvery = 10

type (
	ChangeFunc     func(model.ChangeRecord)
	EventFunc      func(model.StreamEvent)
	ReconnectFunc  func(ctx context.Context) error
	StateFunc      func(prev, next model.ConnectionState)
	ConnectionFunc func(model.ConnectionEvent)
)

// Client owns the push connection. Callbacks run on the stream goroutine and
// must be registered before Start.
type Client struct {
	connector ports.PushConnector
	decoder   *Decoder
	cfg       model.BackoffConfig
	backoff   *Backoff
	sink      ports.ErrorSink
	logger    zerolog.Logger

	onChange     ChangeFunc
	onEvent      EventFunc
	onReconnect  ReconnectFunc
	onState      StateFunc
	onConnection ConnectionFunc

	mu          sync.RWMutex
	state       model.ConnectionState
	lastEventID string
	cancel      context.CancelFunc
	done        chan struct{}
}

func NewClient(connector ports.PushConnector, decoder *Decoder, cfg model.BackoffConfig, sink ports.ErrorSink, logger zerolog.Logger) *Client {
	if decoder == nil {
		decoder = NewDecoder(nil)
	}
	if sink == nil {
		sink = ports.ErrorSinkFunc(func(error) {})
	}
	return &Client{
		connector: connector,
		decoder:   decoder,
		cfg:       cfg,
		backoff:   NewBackoff(cfg),
		sink:      sink,
		logger:    logger.With().Str("component", "eventstream").Logger(),
	}
}

func (c *Client) OnChange(fn ChangeFunc)         { c.onChange = fn }
func (c *Client) OnEvent(fn EventFunc)           { c.onEvent = fn }
func (c *Client) OnReconnect(fn ReconnectFunc)   { c.onReconnect = fn }
func (c *Client) OnStateChange(fn StateFunc)     { c.onState = fn }
func (c *Client) OnConnection(fn ConnectionFunc) { c.onConnection = fn }

func (c *Client) State() model.ConnectionState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// LastEventID is the id of the last frame received, sent on reconnect.
func (c *Client) LastEventID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastEventID
}

// Start launches the stream task. It returns immediately; the first attempt
// happens on the task.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.cancel != nil {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.cancel = cancel
	c.done = done
	c.mu.Unlock()

	go c.run(ctx, done)
	return nil
}

// Stop cancels the task and waits for it to finish or for ctx to expire.
// The frame being applied, if any, completes first. A task that outlives ctx
// still releases the client when it exits, so a later Start succeeds.
func (c *Client) Stop(ctx context.Context) error {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Permanent reports whether err ends the stream task instead of scheduling
// another attempt. The bridge rejecting the app key or not serving the v2
// event stream will not change by retrying.
func Permanent(err error) bool {
	return errors.Is(err, model.ErrUnauthorized) || errors.Is(err, model.ErrInvalidAPIVersion)
}

func (c *Client) run(ctx context.Context, done chan struct{}) {
	defer func() {
		c.setState(model.ConnectionState{State: model.StateDisconnected})
		c.mu.Lock()
		if c.done == done {
			c.cancel = nil
			c.done = nil
		}
		c.mu.Unlock()
		close(done)
	}()

	connected := false
	attempt := 0
	for {
		attempt++
		c.setState(model.ConnectionState{State: model.StateConnecting, Attempt: attempt})

		streamed, err := c.connect(ctx, connected, &attempt)
		if ctx.Err() != nil {
			return
		}
		connected = connected || streamed

		c.sink.Report(&model.ConnectionError{Attempt: attempt, Err: err})
		if Permanent(err) {
			c.logger.Error().Err(err).Int("attempt", attempt).Msg("event stream rejected, giving up")
			return
		}
		if attempt%warnEvery == 0 {
			c.logger.Warn().Err(err).Int("attempt", attempt).Msg("event stream still unavailable")
		} else {
			c.logger.Debug().Err(err).Int("attempt", attempt).Msg("event stream connection failed")
		}

		delay := c.backoff.Next()
		c.setState(model.ConnectionState{State: model.StateBackoff, Delay: delay, Attempt: attempt})

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// connect opens one connection and consumes it until it ends. It reports
// whether the stream was established and the reason it ended.
func (c *Client) connect(ctx context.Context, connected bool, attempt *int) (bool, error) {
	body, err := c.connector.Open(ctx, c.resumeID(connected))
	if err != nil {
		return false, err
	}
	defer body.Close()
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	c.setState(model.ConnectionState{State: model.StateStreaming, Attempt: *attempt})
	if connected {
		c.logger.Info().Msg("event stream reconnected")
		c.emit(model.EventReconnected)
		if c.onReconnect != nil {
			if err := c.onReconnect(ctx); err != nil && ctx.Err() == nil {
				c.sink.Report(err)
			}
		}
	} else {
		c.logger.Info().Msg("event stream connected")
		c.emit(model.EventConnected)
	}

	started := time.Now()
	err = c.consume(ctx, body)
	if ctx.Err() != nil {
		return true, ctx.Err()
	}

	c.emit(model.EventDisconnected)
	if time.Since(started) >= c.cfg.StableAfter {
		c.backoff.Reset()
		*attempt = 1
	}
	if err == nil || errors.Is(err, io.EOF) {
		return true, errStreamClosed
	}
	return true, err
}

// resumeID is the Last-Event-ID for the next Open. When a reconnect hook
// refetches the graph, a replay of missed events would be older than that
// fetch and is not requested.
func (c *Client) resumeID(connected bool) string {
	if connected && c.onReconnect != nil {
		return ""
	}
	return c.LastEventID()
}

func (c *Client) consume(ctx context.Context, body io.ReadCloser) error {
	// Unblock the pending read when the task is cancelled.
	stop := context.AfterFunc(ctx, func() { _ = body.Close() })
	defer stop()

	fr := NewFrameReader(body)
	for {
		frame, err := fr.Next()
		if id := fr.LastID(); id != "" {
			c.mu.Lock()
			c.lastEventID = id
			c.mu.Unlock()
		}
		if err != nil {
			return err
		}
		c.handle(frame)
	}
}

func (c *Client) handle(frame Frame) {
	decoded := c.decoder.Decode(frame)
	for _, err := range decoded.Errors {
		c.sink.Report(err)
	}
	if c.onEvent != nil {
		for _, ev := range decoded.Events {
			c.onEvent(ev)
		}
	}
	if c.onChange != nil {
		for _, change := range decoded.Changes {
			c.onChange(change)
		}
	}
}

func (c *Client) setState(next model.ConnectionState) {
	c.mu.Lock()
	prev := c.state
	c.state = next
	c.mu.Unlock()

	if prev != next && c.onState != nil {
		c.onState(prev, next)
	}
}

func (c *Client) emit(ev model.ConnectionEvent) {
	if c.onConnection != nil {
		c.onConnection(ev)
	}
}
