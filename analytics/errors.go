package analytics

import (
	"context"
	"errors"

	"stocksignals/models"
)

var (
	// ErrDataUnavailable is wrapped by sources that could not be reached.
	ErrDataUnavailable = errors.New("data source unavailable")
	// ErrInvalidWindow is returned for empty or inverted time windows.
	ErrInvalidWindow = errors.New("invalid observation window")
	// ErrUnknownMetric is returned for metric paths with no resolver.
	ErrUnknownMetric = errors.New("unknown metric path")
)

// StatusFromError maps a source error onto the status reported to callers.
func StatusFromError(err error) models.SourceStatus {
	switch {
	case err == nil:
		return models.SourceOK
	case errors.Is(err, ErrDataUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return models.SourceUnavailable
	default:
		return models.SourceError
	}
}
