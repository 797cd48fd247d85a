package service

import (
	"errors"

	"github.com/rs/zerolog"

	"hue-bridge-client/internal/domain/model"
)

// LogSink reports background errors through the logger, at a level chosen
// by error type.
type LogSink struct {
	logger zerolog.Logger
}

func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger.With().Str("component", "errors").Logger()}
}

func (s *LogSink) Report(err error) {
	var (
		connErr     *model.ConnectionError
		decodeErr   *model.DecodeError
		callbackErr *model.CallbackError
	)
	switch {
	case errors.As(err, &connErr):
		s.logger.Debug().Err(err).Int("attempt", connErr.Attempt).Msg("event stream connection lost")
	case errors.As(err, &decodeErr):
		s.logger.Warn().Err(err).Msg("skipped malformed event")
	case errors.As(err, &callbackErr):
		s.logger.Error().Err(err).Str("subscription", callbackErr.Subscription).
			Str("resource", callbackErr.Identity.String()).Msg("subscriber failed")
	default:
		s.logger.Error().Err(err).Msg("background error")
	}
}
