package lights

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/openhue/openhue-go"
	"github.com/rs/zerolog"

	"hue-bridge-client/internal/domain/model"
	"hue-bridge-client/internal/domain/translator"
)

// LightCommander sends light commands through the generated CLIP v2 client.
type LightCommander struct {
	httpClient *http.Client
	strategy   *translator.LightStrategy
	logger     zerolog.Logger

	mu     sync.RWMutex
	client *openhue.ClientWithResponses
}

func NewLightCommander(httpClient *http.Client, logger zerolog.Logger) *LightCommander {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &LightCommander{
		httpClient: httpClient,
		strategy:   &translator.LightStrategy{},
		logger:     logger.With().Str("component", "openhue").Logger(),
	}
}

// Configure points the commander at a bridge. baseURL includes the scheme.
func (l *LightCommander) Configure(baseURL, appKey string) error {
	client, err := openhue.NewClientWithResponses(
		baseURL,
		openhue.WithHTTPClient(l.httpClient),
		openhue.WithRequestEditorFn(func(ctx context.Context, req *http.Request) error {
			req.Header.Set("hue-application-key", appKey)
			return nil
		}),
	)
	if err != nil {
		return fmt.Errorf("openhue client for %s: %w", baseURL, err)
	}
	l.mu.Lock()
	l.client = client
	l.mu.Unlock()
	return nil
}

func (l *LightCommander) SetLightState(ctx context.Context, id string, cmd model.LightCommand) error {
	l.mu.RLock()
	client := l.client
	l.mu.RUnlock()
	if client == nil {
		return fmt.Errorf("light %s: commander not configured", id)
	}

	resp, err := client.UpdateLightWithResponse(ctx, id, l.strategy.ToRequest(cmd))
	if err != nil {
		return err
	}
	if resp.HTTPResponse == nil || resp.HTTPResponse.StatusCode == http.StatusOK {
		return nil
	}
	status := resp.HTTPResponse.StatusCode
	l.logger.Debug().Str("light", id).Int("status", status).Msg("update light rejected")
	apiErr := &model.APIError{Status: status, Description: string(resp.Body)}
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %w", model.ErrUnauthorized, apiErr)
	case http.StatusNotFound:
		return fmt.Errorf("light %s: %w", id, model.ErrNotFound)
	}
	return apiErr
}
