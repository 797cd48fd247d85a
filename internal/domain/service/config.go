package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"hue-bridge-client/internal/domain/model"
	"hue-bridge-client/internal/ports"
)

// CredentialsService resolves where the bridge is and which app key to use,
// caching the answer in the repository.
type CredentialsService struct {
	repo       ports.CredentialsRepository
	discoverer ports.Discoverer
	registrar  ports.Registrar
	logger     zerolog.Logger
}

func NewCredentialsService(repo ports.CredentialsRepository, discoverer ports.Discoverer, registrar ports.Registrar, logger zerolog.Logger) *CredentialsService {
	return &CredentialsService{
		repo:       repo,
		discoverer: discoverer,
		registrar:  registrar,
		logger:     logger.With().Str("component", "credentials").Logger(),
	}
}

func (s *CredentialsService) Get(ctx context.Context) (*model.Credentials, error) {
	return s.repo.Get(ctx)
}

// Resolve fills what is missing: a host from discovery, then an app key from
// registration. overrides win over the stored values. The result is saved
// when anything changed.
func (s *CredentialsService) Resolve(ctx context.Context, overrides model.Credentials, deviceType string) (*model.Credentials, error) {
	stored, err := s.repo.Get(ctx)
	if err != nil {
		return nil, err
	}
	creds := *stored
	if overrides.Host != "" && overrides.Host != creds.Host {
		creds.Host = overrides.Host
		creds.BridgeID = overrides.BridgeID
	}
	if overrides.AppKey != "" {
		creds.AppKey = overrides.AppKey
	}

	if creds.Host == "" {
		bridge, err := s.discover(ctx)
		if err != nil {
			return nil, err
		}
		creds.Host, creds.BridgeID = bridge.Host, bridge.ID
	}
	if creds.AppKey == "" {
		key, err := s.register(ctx, creds.Host, deviceType)
		if err != nil {
			return nil, err
		}
		creds.AppKey = key
	}

	if creds != *stored {
		if err := s.repo.Save(ctx, &creds); err != nil {
			return nil, err
		}
	}
	return &creds, nil
}

// Pair registers a new app key on host and stores it.
func (s *CredentialsService) Pair(ctx context.Context, host, deviceType string) (*model.Credentials, error) {
	key, err := s.register(ctx, host, deviceType)
	if err != nil {
		return nil, err
	}
	creds := &model.Credentials{Host: host, AppKey: key}
	if err := s.repo.Save(ctx, creds); err != nil {
		return nil, err
	}
	return creds, nil
}

func (s *CredentialsService) discover(ctx context.Context) (ports.DiscoveredBridge, error) {
	if s.discoverer == nil {
		return ports.DiscoveredBridge{}, model.ErrNoBridgeFound
	}
	bridges, err := s.discoverer.Discover(ctx)
	if err != nil {
		return ports.DiscoveredBridge{}, err
	}
	if len(bridges) == 0 {
		return ports.DiscoveredBridge{}, model.ErrNoBridgeFound
	}
	if len(bridges) > 1 {
		s.logger.Warn().Int("count", len(bridges)).Str("host", bridges[0].Host).Msg("several bridges found, using the first")
	}
	s.logger.Info().Str("host", bridges[0].Host).Str("bridge_id", bridges[0].ID).Msg("bridge discovered")
	return bridges[0], nil
}

func (s *CredentialsService) register(ctx context.Context, host, deviceType string) (string, error) {
	if s.registrar == nil {
		return "", fmt.Errorf("no app key for %s: %w", host, model.ErrUnauthorized)
	}
	key, err := s.registrar.Register(ctx, host, deviceType)
	if err != nil {
		return "", err
	}
	s.logger.Info().Str("host", host).Msg("registered app key")
	return key, nil
}
