package download

import (
	"context"
	"errors"
	"fmt"

	"github.com/handiism/mixdl/internal/config"
	"github.com/handiism/mixdl/internal/http"
	ioutils "github.com/handiism/mixdl/internal/io"
	"github.com/handiism/mixdl/internal/model"
)

// ErrCoverArt wraps every cover art failure. Cover art is best effort.
var ErrCoverArt = errors.New("cover art unavailable")

// Fetcher downloads the audio of a track into a temporary file.
type Fetcher interface {
	// Fetch returns the path of a complete temporary file. On error no
	// file is left behind.
	Fetch(ctx context.Context, track *model.Track, onProgress func(percent int)) (string, error)
}

// Tagger writes metadata into a downloaded file.
type Tagger interface {
	Tag(path string, track *model.Track) error
}

// CoverFetcher saves the cover of a mix.
type CoverFetcher interface {
	Fetch(ctx context.Context, mix *model.Mix, dest string) error
}

// TrackFetcher streams tracks through the HTTP client.
type TrackFetcher struct {
	client  *http.Client
	tempDir string
}

// NewTrackFetcher creates a TrackFetcher writing into tempDir, or the
// system temp directory when tempDir is empty.
func NewTrackFetcher(client *http.Client, tempDir string) *TrackFetcher {
	return &TrackFetcher{client: client, tempDir: tempDir}
}

// Fetch implements Fetcher.
func (f *TrackFetcher) Fetch(ctx context.Context, track *model.Track, onProgress func(percent int)) (string, error) {
	pattern := ioutils.SanitizeFileName("mixdl-"+track.ID+"-") + "*." + track.FileType
	return f.client.DownloadTemp(ctx, track.StreamURL, f.tempDir, pattern, onProgress)
}

// CoverArtFetcher downloads the square cover of a mix.
//
// By default the bytes are written verbatim. Resize and JPEG conversion are
// opt-in; when either fails the unprocessed bytes are kept.
type CoverArtFetcher struct {
	client  *http.Client
	images  *ioutils.ImageService
	resize  bool
	maxSize int
	convert bool
}

// NewCoverArtFetcher creates a CoverArtFetcher configured from settings.
func NewCoverArtFetcher(client *http.Client, settings *config.Settings) *CoverArtFetcher {
	return &CoverArtFetcher{
		client:  client,
		images:  ioutils.NewImageService(),
		resize:  settings.CoverArtResize,
		maxSize: settings.CoverArtMaxSize,
		convert: settings.ConvertCoverArtToJPG,
	}
}

// Fetch implements CoverFetcher.
func (f *CoverArtFetcher) Fetch(ctx context.Context, mix *model.Mix, dest string) error {
	coverURL := mix.SquareCoverURL()
	if coverURL == "" {
		return fmt.Errorf("%w: mix %s has no square cover", ErrCoverArt, mix.ID)
	}

	data, err := f.client.Get(ctx, coverURL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCoverArt, err)
	}

	if f.resize {
		if resized, err := f.images.ResizeImage(ctx, data, f.maxSize, f.maxSize); err == nil {
			data = resized
		}
	}
	if f.convert {
		if converted, err := f.images.ConvertToJPEG(ctx, data); err == nil {
			data = converted
		}
	}

	if err := ioutils.WriteFile(ctx, dest, data); err != nil {
		return fmt.Errorf("%w: %w", ErrCoverArt, err)
	}
	return nil
}
