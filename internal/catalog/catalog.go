package catalog

import (
	"context"
	"errors"

	mixhttp "github.com/handiism/mixdl/internal/http"
	"github.com/handiism/mixdl/internal/model"
)

var (
	// ErrInvalidAPIKey is returned when the API key is not 40 characters long.
	ErrInvalidAPIKey = errors.New("invalid api key")

	// ErrMissingTrack is returned by Advance when the catalog has no
	// playable data for the current track. The sequence has moved past it.
	ErrMissingTrack = errors.New("missing track")

	// ErrRateLimited is returned when the catalog or the stream host
	// throttles the client.
	ErrRateLimited = mixhttp.ErrRateLimited
)

// Catalog is the remote service a mix is downloaded from.
type Catalog interface {
	// ResolveMix looks up a mix by URL, path or numeric id and returns it
	// with a fresh track sequence.
	ResolveMix(ctx context.Context, locator string) (*model.Mix, error)

	// ReportPerformance tells the service that a track of a mix was played.
	ReportPerformance(ctx context.Context, mixID, trackID string) error
}
