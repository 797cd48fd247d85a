package registration

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/amimof/huego"
	"github.com/rs/zerolog"

	"hue-bridge-client/internal/domain/model"
)

const (
	errTypeUnauthorized      = 1
	errTypeLinkButtonPressed = 101
)

// Registrar creates app keys with the v1 "create user" call, which
// v2 bridges still use for pairing.
type Registrar struct {
	logger zerolog.Logger
}

func NewRegistrar(logger zerolog.Logger) *Registrar {
	return &Registrar{logger: logger.With().Str("component", "registration").Logger()}
}

// Register fails with ErrLinkButtonNotPressed until the bridge button has
// been pressed within the last 30 seconds.
func (r *Registrar) Register(ctx context.Context, host, deviceType string) (string, error) {
	type result struct {
		key string
		err error
	}
	ch := make(chan result, 1)
	go func() {
		key, err := huego.New(host, "").CreateUser(deviceType)
		ch <- result{key, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.err != nil {
			r.logger.Debug().Err(res.err).Str("host", host).Msg("create user rejected")
			return "", mapError(res.err)
		}
		if res.key == "" {
			return "", fmt.Errorf("register on %s: bridge returned no key", host)
		}
		return res.key, nil
	}
}

func mapError(err error) error {
	var apiErr *huego.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Type {
		case errTypeLinkButtonPressed:
			return fmt.Errorf("%w: %s", model.ErrLinkButtonNotPressed, apiErr.Description)
		case errTypeUnauthorized:
			return fmt.Errorf("%w: %s", model.ErrUnauthorized, apiErr.Description)
		}
		return err
	}
	if strings.Contains(strings.ToLower(err.Error()), "link button") {
		return fmt.Errorf("%w: %v", model.ErrLinkButtonNotPressed, err)
	}
	return err
}
