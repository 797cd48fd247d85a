package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"hue-bridge-client/internal/adapters/input/http"
	"hue-bridge-client/internal/adapters/output/clipv2"
	"hue-bridge-client/internal/adapters/output/discovery"
	"hue-bridge-client/internal/adapters/output/lights"
	"hue-bridge-client/internal/adapters/output/persistence"
	"hue-bridge-client/internal/adapters/output/registration"
	"hue-bridge-client/internal/domain/model"
	"hue-bridge-client/internal/domain/service"
	"hue-bridge-client/internal/domain/subscription"
	"hue-bridge-client/internal/logger"
)

func main() {
	log, err := logger.New(logger.FromEnv())
	if err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, log); err != nil {
		log.Fatal().Err(err).Msg("huesync stopped")
	}
}

func run(ctx context.Context, log zerolog.Logger) error {
	credsPath := getenv("HUE_CREDENTIALS_PATH", "/app/credentials.json")
	listen := getenv("HUE_LISTEN", ":8080")
	deviceType := getenv("HUE_DEVICE_TYPE", "huesync#local")

	// Credentials
	repo := persistence.NewCredentialsRepository(credsPath)
	discoverer := discovery.NewMulti(log,
		discovery.NewNUPnP(),
		discovery.NewMDNS(3*time.Second),
		discovery.NewSSDP(3*time.Second),
	)
	credentials := service.NewCredentialsService(repo, discoverer, registration.NewRegistrar(log), log)
	creds, err := credentials.Resolve(ctx, model.Credentials{
		Host:   os.Getenv("HUE_HOST"),
		AppKey: os.Getenv("HUE_APP_KEY"),
	}, deviceType)
	if err != nil {
		return err
	}

	v2, err := clipv2.IsV2Bridge(ctx, creds.Host)
	if err != nil {
		return err
	}
	if !v2 {
		return model.ErrInvalidAPIVersion
	}

	cfg := model.DefaultConfig()
	cfg.Credentials = *creds
	cfg.OptimisticUpdates = os.Getenv("HUE_OPTIMISTIC") != ""

	// Bridge clients
	client := clipv2.NewClient(cfg.RequestsPerSecond, log)
	client.Configure(creds.Host, creds.AppKey)
	client.SetStreamIdleTimeout(cfg.StreamIdle)
	commander := lights.NewLightCommander(client.HTTPClient(), log)
	if err := commander.Configure(client.BaseURL(), creds.AppKey); err != nil {
		return err
	}

	controller := service.NewController(cfg, service.Collaborators{
		Fetcher:   client,
		Mutator:   client,
		Lights:    commander,
		Connector: client,
	}, log)
	if err := controller.Initialize(ctx); err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := controller.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("shutdown")
		}
	}()

	controller.Subscribe(subscription.Filter{}, func(n subscription.Notification) error {
		log.Debug().
			Str("resource", n.Identity.String()).
			Str("change", n.Classification.String()).
			Msg("resource changed")
		return nil
	})
	controller.SubscribeConnection(func(ev model.ConnectionEvent) {
		log.Info().Str("event", string(ev)).Msg("bridge connection")
	})

	log.Info().
		Str("bridge", controller.BridgeID()).
		Str("host", creds.Host).
		Str("listen", listen).
		Msg("huesync started")

	// Start HTTP Server
	server := http.NewServer(controller, log)
	if err := server.ListenAndServe(ctx, listen); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
