package download

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/handiism/mixdl/internal/audio"
	"github.com/handiism/mixdl/internal/catalog"
	"github.com/handiism/mixdl/internal/config"
	"github.com/handiism/mixdl/internal/http"
	ioutils "github.com/handiism/mixdl/internal/io"
	"github.com/handiism/mixdl/internal/model"
)

// Session is the result of one Run.
type Session struct {
	// ID identifies the run in log output.
	ID uuid.UUID

	MixID   string
	MixName string

	// Dir is the absolute output directory of the mix.
	Dir string

	// Files lists the sanitized file names of every track that reached the
	// output directory, in processing order.
	Files []string

	// Skipped counts tracks the catalog had no data for.
	Skipped int

	Started time.Time

	// PlaylistPath is set once the playlist has been written.
	PlaylistPath string

	entries []audio.PlaylistEntry
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithFetcher replaces the HTTP track fetcher.
func WithFetcher(f Fetcher) Option {
	return func(p *Pipeline) { p.fetcher = f }
}

// WithTagger replaces the ID3 tagger.
func WithTagger(t Tagger) Option {
	return func(p *Pipeline) { p.tagger = t }
}

// WithCoverFetcher replaces the cover art fetcher.
func WithCoverFetcher(f CoverFetcher) Option {
	return func(p *Pipeline) { p.cover = f }
}

// WithClock replaces the wall clock used for dwell and cooldown waits.
func WithClock(c Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// WithRetryPolicy overrides the policy derived from settings.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(p *Pipeline) { p.policy = policy }
}

// Pipeline downloads a mix track by track.
//
// For every track the pipeline fetches the stream into a temporary file,
// tags it, moves it into the mix folder, waits until the minimum dwell time
// since the fetch started has passed and reports the performance. Tracks
// are processed strictly one after another.
//
// Recoverable conditions are handled in place:
//   - rate limiting (catalog.ErrRateLimited) waits per the RetryPolicy and
//     retries the same track
//   - missing tracks (catalog.ErrMissingTrack) are skipped
//   - tagging and cover art failures are reported and ignored
//
// Anything else ends the run. Files already moved stay in place and no
// playlist is written.
type Pipeline struct {
	settings *config.Settings
	catalog  catalog.Catalog
	fetcher  Fetcher
	tagger   Tagger
	cover    CoverFetcher
	playlist *audio.PlaylistCreator
	policy   RetryPolicy
	clock    Clock
	minDwell time.Duration

	onEvent func(Event)
	session uuid.UUID
}

// NewPipeline creates a Pipeline reading from cat.
//
// onEvent may be nil.
func NewPipeline(settings *config.Settings, cat catalog.Catalog, onEvent func(Event), opts ...Option) (*Pipeline, error) {
	format, err := audio.ParsePlaylistFormat(settings.PlaylistFormat)
	if err != nil {
		return nil, err
	}

	client := http.NewClient()
	p := &Pipeline{
		settings: settings,
		catalog:  cat,
		fetcher:  NewTrackFetcher(client, ""),
		tagger:   audio.NewTagger(audio.DefaultTagConfig()),
		cover:    NewCoverArtFetcher(client, settings),
		playlist: audio.NewPlaylistCreator(format, settings.M3UExtended),
		policy:   RetryPolicyFromSettings(settings),
		clock:    realClock{},
		minDwell: settings.MinDwell(),
		onEvent:  onEvent,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Run downloads the mix identified by locator into
// outputRoot/<sanitized mix name>.
//
// The returned Session is non-nil whenever the mix was resolved, also on
// error, and lists the files written so far.
func (p *Pipeline) Run(ctx context.Context, locator, outputRoot string) (*Session, error) {
	mix, err := p.catalog.ResolveMix(ctx, locator)
	if err != nil {
		return nil, err
	}

	root, err := filepath.Abs(outputRoot)
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(root, ioutils.SanitizeFileName(mix.Name))
	if err := ioutils.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	session := &Session{
		ID:      uuid.New(),
		MixID:   mix.ID,
		MixName: mix.Name,
		Dir:     dir,
		Started: p.clock.Now(),
	}
	p.session = session.ID

	p.progress(Event{
		Kind:    EventSessionStart,
		Level:   LevelInfo,
		Message: fmt.Sprintf("Downloading %q into %s", mix.Name, dir),
	})

	if p.settings.SaveCoverArtInFolder {
		p.saveCoverArt(ctx, mix, dir)
	}

	for !mix.Tracks.Exhausted() {
		track, err := p.nextTrack(ctx, mix)
		if errors.Is(err, model.ErrEndOfMix) {
			break
		}
		if errors.Is(err, catalog.ErrMissingTrack) {
			session.Skipped++
			p.progress(Event{Kind: EventSkip, Level: LevelError, Message: "Skipping missing track", Err: err})
			continue
		}
		if err != nil {
			return session, err
		}

		if err := p.processTrack(ctx, session, mix, track); err != nil {
			return session, err
		}
	}

	if err := p.writePlaylist(ctx, session); err != nil {
		return session, err
	}

	return session, nil
}

// nextTrack advances the sequence, cooling down while the catalog throttles.
func (p *Pipeline) nextTrack(ctx context.Context, mix *model.Mix) (*model.Track, error) {
	for attempt := 0; ; attempt++ {
		track, err := mix.Tracks.Advance(ctx)
		if !errors.Is(err, catalog.ErrRateLimited) {
			return track, err
		}
		if err := p.cooldown(ctx, attempt, nil, err); err != nil {
			return nil, err
		}
	}
}

// processTrack runs fetch, tag, relocate, dwell and report for one track.
// A rate limited fetch is retried for the same track without advancing.
func (p *Pipeline) processTrack(ctx context.Context, session *Session, mix *model.Mix, track *model.Track) error {
	for attempt := 0; ; attempt++ {
		start := p.clock.Now()

		p.progress(Event{
			Kind:    EventTrackStart,
			Level:   LevelInfo,
			Message: fmt.Sprintf("Downloading %q", ioutils.SanitizeFileName(track.FileName)),
			Track:   track,
		})

		tempPath, err := p.fetcher.Fetch(ctx, track, func(percent int) {
			p.progress(Event{
				Kind:    EventTrackProgress,
				Level:   LevelVerbose,
				Message: fmt.Sprintf("%d%%", percent),
				Track:   track,
				Percent: percent,
			})
		})
		if errors.Is(err, catalog.ErrRateLimited) {
			if err := p.cooldown(ctx, attempt, track, err); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("download track %s: %w", track.ID, err)
		}

		return p.finishTrack(ctx, session, mix, track, tempPath, start)
	}
}

func (p *Pipeline) finishTrack(ctx context.Context, session *Session, mix *model.Mix, track *model.Track, tempPath string, start time.Time) error {
	moved := false
	defer func() {
		if !moved {
			os.Remove(tempPath)
		}
	}()

	if p.settings.ModifyTags && track.IsTaggable() {
		p.progress(Event{Kind: EventTagging, Level: LevelVerbose, Message: "Tagging MP3", Track: track})
		if err := p.tagger.Tag(tempPath, track); err != nil {
			p.progress(Event{
				Kind:    EventTagFailed,
				Level:   LevelWarning,
				Message: fmt.Sprintf("Could not tag %q, keeping it untagged", track.FileName),
				Track:   track,
				Err:     err,
			})
		}
	}

	name := ioutils.SanitizeFileName(track.FileName)
	if err := ioutils.MoveFile(ctx, tempPath, filepath.Join(session.Dir, name)); err != nil {
		return fmt.Errorf("relocate track %s: %w", track.ID, err)
	}
	moved = true

	session.Files = append(session.Files, name)
	session.entries = append(session.entries, audio.PlaylistEntry{
		FileName: name,
		Title:    track.Title,
		Artist:   track.Artist,
	})
	p.progress(Event{Kind: EventTrackDone, Level: LevelSuccess, Message: fmt.Sprintf("Saved %q", name), Track: track})

	if dwell := start.Add(p.minDwell).Sub(p.clock.Now()); dwell > 0 {
		p.progress(Event{
			Kind:    EventDwell,
			Level:   LevelVerbose,
			Message: fmt.Sprintf("Waiting %s before reporting", dwell.Round(time.Second)),
			Track:   track,
			Delay:   dwell,
		})
		if err := p.clock.Sleep(ctx, dwell); err != nil {
			return err
		}
	}

	p.progress(Event{Kind: EventReport, Level: LevelVerbose, Message: "Reporting performance", Track: track})
	if err := p.catalog.ReportPerformance(ctx, mix.ID, track.ID); err != nil {
		return fmt.Errorf("report track %s: %w", track.ID, err)
	}
	return nil
}

// cooldown waits before retry attempt+1, or gives up per the policy.
func (p *Pipeline) cooldown(ctx context.Context, attempt int, track *model.Track, cause error) error {
	if p.policy.Exhausted(attempt) {
		return fmt.Errorf("giving up after %d retries: %w", attempt, cause)
	}

	delay := p.policy.Delay(attempt)
	p.progress(Event{
		Kind:    EventCooldown,
		Level:   LevelWarning,
		Message: fmt.Sprintf("Rate limited, waiting %s to retry", delay.Round(time.Second)),
		Track:   track,
		Delay:   delay,
		Err:     cause,
	})
	return p.clock.Sleep(ctx, delay)
}

func (p *Pipeline) saveCoverArt(ctx context.Context, mix *model.Mix, dir string) {
	if !mix.HasCoverArt() {
		p.progress(Event{Kind: EventCoverArt, Level: LevelVerbose, Message: "Mix has no square cover, skipping cover art"})
		return
	}

	fileName := p.settings.CoverArtFileName
	if fileName == "" {
		fileName = "folder.jpg"
	}

	if err := p.cover.Fetch(ctx, mix, filepath.Join(dir, fileName)); err != nil {
		p.progress(Event{Kind: EventCoverArt, Level: LevelWarning, Message: "Could not download cover art", Err: err})
		return
	}
	p.progress(Event{Kind: EventCoverArt, Level: LevelVerbose, Message: "Saved cover art"})
}

func (p *Pipeline) writePlaylist(ctx context.Context, session *Session) error {
	path := filepath.Join(session.Dir, ioutils.SanitizeFileName(session.MixName)+p.playlist.Format().Extension())
	if err := audio.WritePlaylist(ctx, path, p.playlist, session.MixName, session.entries); err != nil {
		return err
	}

	session.PlaylistPath = path
	p.progress(Event{
		Kind:    EventPlaylist,
		Level:   LevelSuccess,
		Message: fmt.Sprintf("Saved playlist with %d tracks to %s", len(session.entries), path),
	})
	return nil
}

func (p *Pipeline) progress(event Event) {
	event.Session = p.session
	if p.onEvent != nil {
		p.onEvent(event)
	}
}
