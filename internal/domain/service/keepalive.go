package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"hue-bridge-client/internal/domain/model"
)

// keepAlivePrefix names the geofence client this module owns on the bridge.
const keepAlivePrefix = "huesync_"

// keepAlive renames our geofence client every interval. The bridge emits an
// update for it, so a healthy stream never stays silent past its idle timeout.
func (c *Controller) keepAlive(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if err := c.touchGeofenceClient(ctx); err != nil && ctx.Err() == nil {
			c.logger.Debug().Err(err).Msg("keepalive failed")
		}
	}
}

func (c *Controller) touchGeofenceClient(ctx context.Context) error {
	for _, rec := range c.store.List(model.KindGeofenceClient) {
		name, _ := rec.Attributes.Str("name")
		if !strings.HasPrefix(name, keepAlivePrefix) {
			continue
		}
		patch := model.AttributesOf("name", keepAlivePrefix+uuid.NewString()[:8], "is_at_home", false)
		return c.c.Mutator.Update(ctx, rec.Identity, patch)
	}
	_, err := c.c.Mutator.Create(ctx, model.KindGeofenceClient, model.AttributesOf(
		"type", string(model.KindGeofenceClient), "name", keepAlivePrefix, "is_at_home", false,
	))
	return err
}
