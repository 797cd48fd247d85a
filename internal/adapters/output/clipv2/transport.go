package clipv2

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// busyTries bounds the attempts for a request the bridge answers with 429 or 503.
const busyTries = 4

// throttle is the RoundTripper every request to the bridge goes through,
// typed light commands included. It waits for the rate limiter and retries
// while the bridge reports itself overloaded. The last busy response is
// returned as is.
type throttle struct {
	base    http.RoundTripper
	limiter *rate.Limiter
	logger  zerolog.Logger
}

func busy(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}

func (t *throttle) RoundTrip(req *http.Request) (*http.Response, error) {
	// a body that cannot be replayed gets a single attempt
	replayable := req.Body == nil || req.Body == http.NoBody || req.GetBody != nil

	tries := 0
	op := func() (*http.Response, error) {
		tries++
		if err := t.limiter.Wait(req.Context()); err != nil {
			return nil, backoff.Permanent(err)
		}
		r := req
		if tries > 1 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, backoff.Permanent(err)
			}
			r = req.Clone(req.Context())
			r.Body = body
		}

		resp, err := t.base.RoundTrip(r)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		if !busy(resp.StatusCode) || !replayable || tries >= busyTries {
			return resp, nil
		}
		t.logger.Debug().Int("status", resp.StatusCode).Str("path", req.URL.Path).Msg("bridge busy, retrying")
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
		resp.Body.Close()
		return nil, fmt.Errorf("bridge busy: %s", resp.Status)
	}

	retry := backoff.NewExponentialBackOff()
	retry.InitialInterval = 250 * time.Millisecond
	retry.MaxInterval = 2 * time.Second
	return backoff.Retry(req.Context(), op, backoff.WithBackOff(retry), backoff.WithMaxTries(busyTries))
}
