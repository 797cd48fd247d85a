package clipv2

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"hue-bridge-client/internal/domain/eventstream"
	"hue-bridge-client/internal/domain/model"
)

const (
	appKeyHeader   = "hue-application-key"
	resourcePath   = "/clip/v2/resource"
	eventsPath     = "/eventstream/clip/v2"
	requestTimeout = 10 * time.Second
	maxBody        = 8 << 20
)

var ErrNotConfigured = errors.New("bridge host or app key not configured")

// Client talks to the CLIP v2 API of one bridge: one-shot resource requests
// and the event stream.
type Client struct {
	mu      sync.RWMutex
	baseURL string
	appKey  string

	httpClient   *http.Client
	streamClient *http.Client
	streamIdle   time.Duration
	decoder      *eventstream.Decoder
	logger       zerolog.Logger
}

// NewClient builds a client throttled to requestsPerSecond. The bridge
// certificate is self-signed, so verification is skipped.
func NewClient(requestsPerSecond float64, logger zerolog.Logger) *Client {
	logger = logger.With().Str("component", "clipv2").Logger()
	if requestsPerSecond <= 0 {
		requestsPerSecond = 10
	}
	transport := &throttle{
		base: &http.Transport{
			TLSClientConfig:     &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // bridge uses a self-signed cert
			MaxIdleConnsPerHost: 4,
		},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		logger:  logger,
	}
	return &Client{
		httpClient:   &http.Client{Transport: transport, Timeout: requestTimeout},
		streamClient: &http.Client{Transport: transport},
		streamIdle:   DefaultStreamIdle,
		decoder:      eventstream.NewDecoder(nil),
		logger:       logger,
	}
}

// SetStreamIdleTimeout changes how long the event stream may stay silent.
// It applies to connections opened afterwards.
func (c *Client) SetStreamIdleTimeout(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.streamIdle = d
}

// Configure sets the bridge address and app key. A host without a scheme is
// reached over https.
func (c *Client) Configure(host, appKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseURL = BaseURL(host)
	c.appKey = appKey
}

func (c *Client) IsConfigured() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL != "" && c.appKey != ""
}

// HTTPClient is the request client, shared with the typed light adapter so
// its requests are throttled and retried the same way.
func (c *Client) HTTPClient() *http.Client { return c.httpClient }

func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

func (c *Client) AppKey() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.appKey
}

func BaseURL(host string) string {
	host = strings.TrimSuffix(host, "/")
	if host == "" || strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return host
	}
	return "https://" + host
}

func (c *Client) FetchAll(ctx context.Context) ([]model.ResourceRecord, error) {
	data, err := c.do(ctx, http.MethodGet, resourcePath, nil)
	if err != nil {
		return nil, err
	}
	return c.records(data), nil
}

func (c *Client) FetchKind(ctx context.Context, kind model.ResourceKind) ([]model.ResourceRecord, error) {
	data, err := c.do(ctx, http.MethodGet, resourcePath+"/"+string(kind), nil)
	if err != nil {
		return nil, err
	}
	return c.records(data), nil
}

func (c *Client) Update(ctx context.Context, id model.ResourceIdentity, patch model.Attributes) error {
	_, err := c.do(ctx, http.MethodPut, resourcePath+"/"+string(id.Kind)+"/"+id.ID, patch)
	return err
}

func (c *Client) Create(ctx context.Context, kind model.ResourceKind, attrs model.Attributes) (model.ResourceIdentity, error) {
	data, err := c.do(ctx, http.MethodPost, resourcePath+"/"+string(kind), attrs)
	if err != nil {
		return model.ResourceIdentity{}, err
	}
	if len(data) == 0 {
		return model.ResourceIdentity{}, fmt.Errorf("create %s: bridge returned no reference", kind)
	}
	var ref model.ResourceIdentity
	if err := json.Unmarshal(data[0], &ref); err != nil {
		return model.ResourceIdentity{}, fmt.Errorf("create %s: %w", kind, err)
	}
	if ref.Kind == "" {
		ref.Kind = kind
	}
	return ref, nil
}

func (c *Client) Delete(ctx context.Context, id model.ResourceIdentity) error {
	_, err := c.do(ctx, http.MethodDelete, resourcePath+"/"+string(id.Kind)+"/"+id.ID, nil)
	return err
}

// Open connects to the event stream. lastEventID, when set, asks the bridge
// to replay what was missed. A read on the returned body fails with
// ErrStreamIdle once the stream stayed silent for the idle timeout.
func (c *Client) Open(ctx context.Context, lastEventID string) (io.ReadCloser, error) {
	base, key := c.BaseURL(), c.AppKey()
	if base == "" || key == "" {
		return nil, ErrNotConfigured
	}
	c.mu.RLock()
	idle := c.streamIdle
	c.mu.RUnlock()

	ctx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+eventsPath, nil)
	if err != nil {
		cancel()
		return nil, err
	}
	req.Header.Set(appKeyHeader, key)
	req.Header.Set("Accept", "text/event-stream")
	if lastEventID != "" {
		req.Header.Set("Last-Event-ID", lastEventID)
	}

	resp, err := c.streamClient.Do(req)
	if err != nil {
		cancel()
		return nil, err
	}
	if resp.StatusCode == http.StatusOK {
		if idle <= 0 {
			return &cancelBody{ReadCloser: resp.Body, cancel: cancel}, nil
		}
		return newIdleBody(resp.Body, idle, cancel), nil
	}
	defer cancel()
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, model.ErrInvalidAPIVersion
	}
	_, err = readEnvelope(resp)
	return nil, err
}

type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

func (c *Client) records(data []json.RawMessage) []model.ResourceRecord {
	records, errs := c.decoder.DecodeResources(data)
	for _, err := range errs {
		c.logger.Warn().Err(err).Msg("skipped resource")
	}
	return records
}

func (c *Client) do(ctx context.Context, method, path string, body any) ([]json.RawMessage, error) {
	base, key := c.BaseURL(), c.AppKey()
	if base == "" || key == "" {
		return nil, ErrNotConfigured
	}
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, err
		}
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, base+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set(appKeyHeader, key)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return readEnvelope(resp)
}

type envelope struct {
	Errors []struct {
		Description string `json:"description"`
	} `json:"errors"`
	Data []json.RawMessage `json:"data"`
}

// readEnvelope decodes a CLIP v2 response body and maps error statuses.
func readEnvelope(resp *http.Response) ([]json.RawMessage, error) {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, err
	}
	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode >= 300 {
		apiErr := &model.APIError{Status: resp.StatusCode}
		descriptions := make([]string, 0, len(env.Errors))
		for _, e := range env.Errors {
			descriptions = append(descriptions, e.Description)
		}
		apiErr.Description = strings.Join(descriptions, "; ")
		return nil, statusError(apiErr)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode bridge response: %w", decodeErr)
	}
	return env.Data, nil
}

func statusError(apiErr *model.APIError) error {
	switch apiErr.Status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %w", model.ErrUnauthorized, apiErr)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %w", model.ErrNotFound, apiErr)
	default:
		return apiErr
	}
}

// IsV2Bridge reports whether host serves the v2 API. Such bridges answer a
// request without app key with 403; older ones with 404.
func IsV2Bridge(ctx context.Context, host string) (bool, error) {
	client := &http.Client{
		Timeout: requestTimeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // bridge uses a self-signed cert
		},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, BaseURL(host)+"/clip/v2/resources", nil)
	if err != nil {
		return false, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusForbidden, nil
}
