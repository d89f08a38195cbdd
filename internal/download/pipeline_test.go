package download

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/handiism/mixdl/internal/catalog"
	"github.com/handiism/mixdl/internal/config"
	mixhttp "github.com/handiism/mixdl/internal/http"
	"github.com/handiism/mixdl/internal/model"
)

// Mock dependencies
type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) ResolveMix(ctx context.Context, locator string) (*model.Mix, error) {
	args := m.Called(ctx, locator)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Mix), args.Error(1)
}

func (m *MockCatalog) ReportPerformance(ctx context.Context, mixID, trackID string) error {
	args := m.Called(ctx, mixID, trackID)
	return args.Error(0)
}

// step is one scripted answer of a sequence.
type step struct {
	track *model.Track
	err   error
}

type scriptedSequence struct {
	steps    []step
	advances int
}

func (s *scriptedSequence) Exhausted() bool {
	return s.advances >= len(s.steps)
}

func (s *scriptedSequence) Advance(ctx context.Context) (*model.Track, error) {
	st := s.steps[s.advances]
	s.advances++
	return st.track, st.err
}

type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

// fakeFetcher writes a small temp file per track. Scripted errors are
// returned first, in order, for the given track id.
type fakeFetcher struct {
	dir      string
	clock    *fakeClock
	took     time.Duration
	failures map[string][]error
	calls    []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, track *model.Track, onProgress func(int)) (string, error) {
	f.calls = append(f.calls, track.ID)
	if errs := f.failures[track.ID]; len(errs) > 0 {
		f.failures[track.ID] = errs[1:]
		return "", errs[0]
	}

	f.clock.now = f.clock.now.Add(f.took)
	onProgress(0)
	onProgress(100)

	file, err := os.CreateTemp(f.dir, "fetch-*")
	if err != nil {
		return "", err
	}
	defer file.Close()
	_, err = file.WriteString("audio " + track.ID)
	return file.Name(), err
}

type fakeTagger struct {
	err    error
	tagged []string
}

func (t *fakeTagger) Tag(path string, track *model.Track) error {
	t.tagged = append(t.tagged, track.ID)
	return t.err
}

type fixture struct {
	catalog  *MockCatalog
	seq      *scriptedSequence
	mix      *model.Mix
	clock    *fakeClock
	fetcher  *fakeFetcher
	tagger   *fakeTagger
	settings *config.Settings
	root     string
	events   []Event
}

func newTrack(id string) *model.Track {
	return model.NewTrack(id, 0, "Song "+id, "Artist", "Album", "2011", []string{"house"},
		"https://cdn.example.com/"+id+".mp3")
}

func newFixture(t *testing.T, steps ...step) *fixture {
	t.Helper()
	clock := newFakeClock()
	seq := &scriptedSequence{steps: steps}
	f := &fixture{
		catalog: &MockCatalog{},
		seq:     seq,
		mix:     &model.Mix{ID: "14", Name: "Late Night: Vol/1", Tracks: seq},
		clock:   clock,
		fetcher: &fakeFetcher{
			dir:      t.TempDir(),
			clock:    clock,
			took:     5 * time.Second,
			failures: map[string][]error{},
		},
		tagger:   &fakeTagger{},
		settings: config.DefaultSettings(),
		root:     t.TempDir(),
	}
	f.settings.SaveCoverArtInFolder = false
	f.catalog.On("ResolveMix", mock.Anything, "14").Return(f.mix, nil)
	return f
}

func (f *fixture) run(t *testing.T) (*Session, error) {
	t.Helper()
	p, err := NewPipeline(f.settings, f.catalog, func(e Event) { f.events = append(f.events, e) },
		WithFetcher(f.fetcher), WithTagger(f.tagger), WithClock(f.clock))
	require.NoError(t, err)
	return p.Run(context.Background(), "14", f.root)
}

func (f *fixture) dir() string {
	return filepath.Join(f.root, "Late Night_ Vol_1")
}

func (f *fixture) eventsOf(kind EventKind) []Event {
	var out []Event
	for _, e := range f.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func TestPipeline_SkipsMissingTrack(t *testing.T) {
	missing := fmt.Errorf("track 2: %w", catalog.ErrMissingTrack)
	f := newFixture(t, step{track: newTrack("1")}, step{err: missing}, step{track: newTrack("3")})
	f.catalog.On("ReportPerformance", mock.Anything, "14", "1").Return(nil).Once()
	f.catalog.On("ReportPerformance", mock.Anything, "14", "3").Return(nil).Once()

	session, err := f.run(t)
	require.NoError(t, err)

	assert.Equal(t, []string{"Artist - Song 1.mp3", "Artist - Song 3.mp3"}, session.Files)
	assert.Equal(t, 1, session.Skipped)
	assert.Equal(t, f.dir(), session.Dir)
	assert.Equal(t, filepath.Join(f.dir(), "Late Night_ Vol_1.m3u"), session.PlaylistPath)
	assert.Equal(t, session.Files, readLines(t, session.PlaylistPath))

	for _, name := range session.Files {
		assert.FileExists(t, filepath.Join(f.dir(), name))
	}
	assert.NoFileExists(t, filepath.Join(f.dir(), "Artist - Song 2.mp3"))
	assert.Len(t, f.eventsOf(EventSkip), 1)
	assert.Equal(t, []string{"1", "3"}, f.tagger.tagged)
	f.catalog.AssertExpectations(t)
}

func TestPipeline_RateLimitedFetchRetriesSameTrack(t *testing.T) {
	f := newFixture(t, step{track: newTrack("1")})
	forbidden := &mixhttp.StatusError{URL: "https://cdn.example.com/1.mp3", StatusCode: http.StatusForbidden, Status: "403 Forbidden"}
	f.fetcher.failures["1"] = []error{forbidden}
	f.catalog.On("ReportPerformance", mock.Anything, "14", "1").Return(nil).Once()

	session, err := f.run(t)
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "1"}, f.fetcher.calls)
	assert.Equal(t, 1, f.seq.advances, "a rate limited fetch must not advance the sequence")
	assert.Equal(t, []string{"Artist - Song 1.mp3"}, readLines(t, session.PlaylistPath))

	cooldowns := f.eventsOf(EventCooldown)
	require.Len(t, cooldowns, 1)
	assert.Equal(t, 30*time.Second, cooldowns[0].Delay)
	assert.ErrorIs(t, cooldowns[0].Err, catalog.ErrRateLimited)
	f.catalog.AssertNumberOfCalls(t, "ReportPerformance", 1)
}

func TestPipeline_RateLimitedAdvanceRetries(t *testing.T) {
	throttled := fmt.Errorf("next: %w", catalog.ErrRateLimited)
	f := newFixture(t, step{err: throttled}, step{track: newTrack("1")})
	f.catalog.On("ReportPerformance", mock.Anything, "14", "1").Return(nil).Once()

	session, err := f.run(t)
	require.NoError(t, err)

	assert.Equal(t, []string{"Artist - Song 1.mp3"}, session.Files)
	assert.Len(t, f.eventsOf(EventCooldown), 1)
	assert.Equal(t, 0, session.Skipped)
}

func TestPipeline_RetryLimit(t *testing.T) {
	f := newFixture(t, step{track: newTrack("1")})
	f.settings.RateLimitMaxRetries = 2
	f.settings.RateLimitExponent = 2
	f.fetcher.failures["1"] = []error{catalog.ErrRateLimited, catalog.ErrRateLimited, catalog.ErrRateLimited}

	session, err := f.run(t)
	require.ErrorIs(t, err, catalog.ErrRateLimited)

	assert.Equal(t, []time.Duration{30 * time.Second, 60 * time.Second}, f.clock.sleeps)
	assert.Empty(t, session.Files)
	assert.NoFileExists(t, filepath.Join(f.dir(), "Late Night_ Vol_1.m3u"))
	f.catalog.AssertNotCalled(t, "ReportPerformance", mock.Anything, mock.Anything, mock.Anything)
}

func TestPipeline_DwellBeforeReport(t *testing.T) {
	f := newFixture(t, step{track: newTrack("1")}, step{track: newTrack("2")})

	var starts, reports []time.Time
	f.catalog.On("ReportPerformance", mock.Anything, "14", mock.Anything).Return(nil).Run(func(mock.Arguments) {
		reports = append(reports, f.clock.Now())
	})

	p, err := NewPipeline(f.settings, f.catalog, func(e Event) {
		if e.Kind == EventTrackStart {
			starts = append(starts, f.clock.Now())
		}
	}, WithFetcher(f.fetcher), WithTagger(f.tagger), WithClock(f.clock))
	require.NoError(t, err)

	_, err = p.Run(context.Background(), "14", f.root)
	require.NoError(t, err)

	require.Len(t, reports, 2)
	for i := range reports {
		assert.GreaterOrEqual(t, reports[i].Sub(starts[i]), 30*time.Second)
	}
	// 5s download, so 25s of dwell per track
	assert.Equal(t, []time.Duration{25 * time.Second, 25 * time.Second}, f.clock.sleeps)
}

func TestPipeline_DwellCannotBeLowered(t *testing.T) {
	f := newFixture(t, step{track: newTrack("1")})
	f.settings.MinDwellSeconds = 0

	var start, report time.Time
	f.catalog.On("ReportPerformance", mock.Anything, "14", "1").Return(nil).Run(func(mock.Arguments) {
		report = f.clock.Now()
	})

	p, err := NewPipeline(f.settings, f.catalog, func(e Event) {
		if e.Kind == EventTrackStart {
			start = f.clock.Now()
		}
	}, WithFetcher(f.fetcher), WithTagger(f.tagger), WithClock(f.clock))
	require.NoError(t, err)

	_, err = p.Run(context.Background(), "14", f.root)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, report.Sub(start), 30*time.Second)
	assert.Equal(t, []time.Duration{25 * time.Second}, f.clock.sleeps)
}

func TestPipeline_ZeroCooldownFallsBackToDefault(t *testing.T) {
	f := newFixture(t, step{track: newTrack("1")})
	f.settings.RateLimitCooldown = 0
	f.fetcher.failures["1"] = []error{catalog.ErrRateLimited, catalog.ErrRateLimited}
	f.catalog.On("ReportPerformance", mock.Anything, "14", "1").Return(nil)

	_, err := f.run(t)
	require.NoError(t, err)

	// two cooldowns, then 25s of dwell after the 5s download
	assert.Equal(t, []time.Duration{30 * time.Second, 30 * time.Second, 25 * time.Second}, f.clock.sleeps)
}

func TestPipeline_NoDwellAfterSlowDownload(t *testing.T) {
	f := newFixture(t, step{track: newTrack("1")})
	f.fetcher.took = 45 * time.Second
	f.catalog.On("ReportPerformance", mock.Anything, "14", "1").Return(nil)

	_, err := f.run(t)
	require.NoError(t, err)

	assert.Empty(t, f.clock.sleeps)
	assert.Empty(t, f.eventsOf(EventDwell))
}

func TestPipeline_ReportFailureIsFatal(t *testing.T) {
	f := newFixture(t, step{track: newTrack("1")}, step{track: newTrack("2")})
	f.catalog.On("ReportPerformance", mock.Anything, "14", "1").Return(errors.New("connection reset"))

	session, err := f.run(t)
	require.Error(t, err)

	assert.Equal(t, []string{"Artist - Song 1.mp3"}, session.Files)
	assert.FileExists(t, filepath.Join(f.dir(), "Artist - Song 1.mp3"))
	assert.NoFileExists(t, filepath.Join(f.dir(), "Late Night_ Vol_1.m3u"))
	assert.Equal(t, []string{"1"}, f.fetcher.calls)
}

func TestPipeline_FetchFailureIsFatal(t *testing.T) {
	f := newFixture(t, step{track: newTrack("1")})
	f.fetcher.failures["1"] = []error{errors.New("connection refused")}

	session, err := f.run(t)
	require.Error(t, err)

	assert.Empty(t, session.Files)
	assert.NoFileExists(t, filepath.Join(f.dir(), "Late Night_ Vol_1.m3u"))
}

func TestPipeline_TaggingFailureContinues(t *testing.T) {
	f := newFixture(t, step{track: newTrack("1")})
	f.tagger.err = errors.New("bad frame")
	f.catalog.On("ReportPerformance", mock.Anything, "14", "1").Return(nil)

	session, err := f.run(t)
	require.NoError(t, err)

	assert.Equal(t, []string{"Artist - Song 1.mp3"}, session.Files)
	failed := f.eventsOf(EventTagFailed)
	require.Len(t, failed, 1)
	assert.Equal(t, LevelWarning, failed[0].Level)
}

func TestPipeline_NonMP3NotTagged(t *testing.T) {
	track := model.NewTrack("1", 1, "Song", "Artist", "", "", nil, "https://cdn.example.com/1.m4a")
	f := newFixture(t, step{track: track})
	f.catalog.On("ReportPerformance", mock.Anything, "14", "1").Return(nil)

	session, err := f.run(t)
	require.NoError(t, err)

	assert.Empty(t, f.tagger.tagged)
	assert.Equal(t, []string{"Artist - Song.m4a"}, session.Files)
}

func TestPipeline_CoverArt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "cover "+strings.TrimPrefix(r.URL.Path, "/"))
	}))
	defer server.Close()

	f := newFixture(t)
	f.settings.SaveCoverArtInFolder = true
	f.mix.CoverURLs = map[string]string{
		"sq100": server.URL + "/sq100",
		"sq250": server.URL + "/sq250",
		"sq500": server.URL + "/sq500",
	}

	_, err := f.run(t)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(f.dir(), "folder.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "cover sq500", string(data))
}

func TestPipeline_CoverArtFailureIsIgnored(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	f := newFixture(t, step{track: newTrack("1")})
	f.settings.SaveCoverArtInFolder = true
	f.mix.CoverURLs = map[string]string{"sq500": server.URL + "/sq500"}
	f.catalog.On("ReportPerformance", mock.Anything, "14", "1").Return(nil)

	session, err := f.run(t)
	require.NoError(t, err)

	assert.Len(t, session.Files, 1)
	covers := f.eventsOf(EventCoverArt)
	require.Len(t, covers, 1)
	assert.ErrorIs(t, covers[0].Err, ErrCoverArt)
	assert.NoFileExists(t, filepath.Join(f.dir(), "folder.jpg"))
}

type countingCover struct {
	calls int
}

func (c *countingCover) Fetch(ctx context.Context, mix *model.Mix, dest string) error {
	c.calls++
	return nil
}

func TestPipeline_NoCoverArtSkipsFetch(t *testing.T) {
	f := newFixture(t)
	f.settings.SaveCoverArtInFolder = true
	cover := &countingCover{}

	p, err := NewPipeline(f.settings, f.catalog, func(e Event) { f.events = append(f.events, e) },
		WithFetcher(f.fetcher), WithTagger(f.tagger), WithClock(f.clock), WithCoverFetcher(cover))
	require.NoError(t, err)

	_, err = p.Run(context.Background(), "14", f.root)
	require.NoError(t, err)

	assert.Zero(t, cover.calls)
	covers := f.eventsOf(EventCoverArt)
	require.Len(t, covers, 1)
	assert.Equal(t, LevelVerbose, covers[0].Level)
	assert.NoError(t, covers[0].Err)
	assert.NoFileExists(t, filepath.Join(f.dir(), "folder.jpg"))
}

func TestPipeline_ProgressEvents(t *testing.T) {
	f := newFixture(t, step{track: newTrack("1")})
	f.catalog.On("ReportPerformance", mock.Anything, "14", "1").Return(nil)

	session, err := f.run(t)
	require.NoError(t, err)

	var percents []int
	for _, e := range f.eventsOf(EventTrackProgress) {
		percents = append(percents, e.Percent)
		assert.Equal(t, "1", e.Track.ID)
	}
	assert.Equal(t, []int{0, 100}, percents)

	for _, e := range f.events {
		assert.Equal(t, session.ID, e.Session)
	}
}

func TestPipeline_ResolveFailure(t *testing.T) {
	cat := &MockCatalog{}
	cat.On("ResolveMix", mock.Anything, "nope").Return(nil, errors.New("not found"))

	p, err := NewPipeline(config.DefaultSettings(), cat, nil)
	require.NoError(t, err)

	session, err := p.Run(context.Background(), "nope", t.TempDir())
	assert.Error(t, err)
	assert.Nil(t, session)
}

func TestNewPipeline_InvalidPlaylistFormat(t *testing.T) {
	settings := config.DefaultSettings()
	settings.PlaylistFormat = "xspf"

	_, err := NewPipeline(settings, &MockCatalog{}, nil)
	assert.Error(t, err)
}

func TestRetryPolicy_Delay(t *testing.T) {
	tests := []struct {
		name   string
		policy RetryPolicy
		n      int
		want   time.Duration
	}{
		{"fixed first", DefaultRetryPolicy(), 0, 30 * time.Second},
		{"fixed later", DefaultRetryPolicy(), 5, 30 * time.Second},
		{"exponential", RetryPolicy{Cooldown: time.Second, Exponent: 2}, 3, 8 * time.Second},
		{"exponent below one", RetryPolicy{Cooldown: time.Second, Exponent: 0.5}, 3, time.Second},
		{"zero cooldown", RetryPolicy{Exponent: 1}, 2, 30 * time.Second},
		{"negative cooldown", RetryPolicy{Cooldown: -time.Second, Exponent: 2}, 1, 60 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.policy.Delay(tt.n))
		})
	}

	assert.False(t, DefaultRetryPolicy().Exhausted(1000))
	assert.True(t, RetryPolicy{MaxRetries: 2}.Exhausted(2))
}

func TestRealClock_SleepCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := realClock{}.Sleep(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
}
