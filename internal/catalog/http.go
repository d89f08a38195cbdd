package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/handiism/mixdl/internal/catalog/dto"
	"github.com/handiism/mixdl/internal/config"
	mixhttp "github.com/handiism/mixdl/internal/http"
	"github.com/handiism/mixdl/internal/model"
)

const (
	// DefaultBaseURL is the root of the catalog API.
	DefaultBaseURL = "https://8tracks.com"

	apiVersion   = "3"
	apiKeyLength = 40
	userAgent    = "mixdl"
)

// Option configures an HTTPCatalog.
type Option func(*HTTPCatalog)

// WithBaseURL points the catalog at another API root.
func WithBaseURL(baseURL string) Option {
	return func(c *HTTPCatalog) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient replaces the default API client, which times out after 30s.
func WithHTTPClient(client *http.Client) Option {
	return func(c *HTTPCatalog) {
		c.client = client
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *log.Logger) Option {
	return func(c *HTTPCatalog) {
		c.logger = logger
	}
}

// WithRateLimit paces API requests to rps requests per second.
// A value of zero or less disables pacing.
func WithRateLimit(rps float64) Option {
	return func(c *HTTPCatalog) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// HTTPCatalog is the Catalog backed by the JSON API.
//
// One HTTPCatalog holds one play token, obtained lazily on the first
// ResolveMix. Performances are reported against that token.
//
// Example usage:
//
//	c, err := NewHTTPCatalog(apiKey, WithLogger(logger))
//	if errors.Is(err, ErrInvalidAPIKey) {
//	    // abort at startup
//	}
//	mix, err := c.ResolveMix(ctx, "https://8tracks.com/someone/late-night")
type HTTPCatalog struct {
	apiKey  string
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	logger  *log.Logger

	mu        sync.Mutex
	playToken string
}

// NewHTTPCatalog authenticates with apiKey and returns a ready catalog.
//
// Returns ErrInvalidAPIKey when apiKey is not exactly 40 characters long.
func NewHTTPCatalog(apiKey string, opts ...Option) (*HTTPCatalog, error) {
	if len(apiKey) != apiKeyLength {
		return nil, fmt.Errorf("%w: %d characters, want %d", ErrInvalidAPIKey, len(apiKey), apiKeyLength)
	}

	c := &HTTPCatalog{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(2), 1),
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ResolveMix looks up the mix and opens a track sequence for it.
//
// locator may be a full mix URL, a path such as "/someone/late-night" or a
// numeric mix id.
func (c *HTTPCatalog) ResolveMix(ctx context.Context, locator string) (*model.Mix, error) {
	endpoint, err := mixEndpoint(locator)
	if err != nil {
		return nil, err
	}

	var resp dto.MixResponse
	if err := c.getJSON(ctx, endpoint, nil, &resp); err != nil {
		return nil, fmt.Errorf("resolve mix %s: %w", locator, err)
	}
	if resp.Mix == nil || resp.Mix.ID == "" {
		return nil, fmt.Errorf("resolve mix %s: response has no mix", locator)
	}

	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	seq := &trackSequence{
		catalog: c,
		token:   token,
		mixID:   resp.Mix.ID.String(),
		genres:  resp.Mix.Tags(),
	}
	mix := resp.Mix.ToMix(seq)

	c.logger.Debug("resolved mix", "id", mix.ID, "name", mix.Name, "tags", len(mix.Tags))
	return mix, nil
}

// ReportPerformance reports a played track.
func (c *HTTPCatalog) ReportPerformance(ctx context.Context, mixID, trackID string) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	query := url.Values{"track_id": {trackID}, "mix_id": {mixID}}
	var resp dto.SetResponse
	if err := c.getJSON(ctx, setEndpoint(token, "report"), query, &resp); err != nil {
		return fmt.Errorf("report track %s of mix %s: %w", trackID, mixID, err)
	}
	return nil
}

func (c *HTTPCatalog) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.playToken != "" {
		return c.playToken, nil
	}

	var resp dto.PlayTokenResponse
	if err := c.getJSON(ctx, "/sets/new.json", nil, &resp); err != nil {
		return "", fmt.Errorf("obtain play token: %w", err)
	}
	if resp.PlayToken == "" {
		return "", fmt.Errorf("obtain play token: empty token")
	}

	c.playToken = resp.PlayToken.String()
	return c.playToken, nil
}

// getJSON performs a paced, authenticated GET and decodes the body into out.
func (c *HTTPCatalog) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("X-Api-Version", apiVersion)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug("GET", "url", target)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := mixhttp.CheckResponse(resp); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	if carrier, ok := out.(interface{ APIStatus() string }); ok {
		return statusError(target, carrier.APIStatus())
	}
	return nil
}

// statusError turns the in-body status ("200 OK", "403 Forbidden") into an
// error. Some failures are only reported there, with HTTP 200.
func statusError(target, status string) error {
	fields := strings.Fields(status)
	if len(fields) == 0 {
		return nil
	}
	code, err := strconv.Atoi(fields[0])
	if err != nil || code == http.StatusOK {
		return nil
	}
	return &mixhttp.StatusError{URL: target, StatusCode: code, Status: status}
}

// mixEndpoint maps a mix locator to its API path.
func mixEndpoint(locator string) (string, error) {
	locator = strings.TrimSpace(locator)
	if locator == "" {
		return "", fmt.Errorf("empty mix locator")
	}

	if _, err := strconv.ParseUint(locator, 10, 64); err == nil {
		return "/mixes/" + locator + ".json", nil
	}

	path := locator
	if u, err := url.Parse(locator); err == nil && u.Host != "" {
		path = u.Path
	}

	path = strings.TrimSuffix(strings.TrimRight(path, "/"), ".json")
	if path == "" {
		return "", fmt.Errorf("mix locator %q has no path", locator)
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path + ".json", nil
}

func setEndpoint(token, action string) string {
	return "/sets/" + url.PathEscape(token) + "/" + action + ".json"
}

// trackSequence walks a mix through the set endpoints: play for the first
// track, next for every following one.
type trackSequence struct {
	catalog *HTTPCatalog
	token   string
	mixID   string
	genres  []string

	started   bool
	exhausted bool
	position  int
}

func (s *trackSequence) Exhausted() bool {
	return s.exhausted
}

// Advance requests the next track. A request that fails before the catalog
// answers leaves the position unchanged, so it can be retried.
func (s *trackSequence) Advance(ctx context.Context) (*model.Track, error) {
	if s.exhausted {
		return nil, model.ErrEndOfMix
	}

	action := "next"
	if !s.started {
		action = "play"
	}

	var resp dto.SetResponse
	query := url.Values{"mix_id": {s.mixID}}
	if err := s.catalog.getJSON(ctx, setEndpoint(s.token, action), query, &resp); err != nil {
		return nil, fmt.Errorf("%s mix %s: %w", action, s.mixID, err)
	}
	s.started = true

	set := resp.Set
	if set == nil {
		s.position++
		return nil, fmt.Errorf("track %d of mix %s: empty set: %w", s.position, s.mixID, ErrMissingTrack)
	}
	s.exhausted = set.AtEnd

	if set.Track == nil {
		if set.AtEnd {
			return nil, model.ErrEndOfMix
		}
		s.position++
		return nil, fmt.Errorf("track %d of mix %s: %w", s.position, s.mixID, ErrMissingTrack)
	}

	s.position++
	if !set.Track.HasStream() {
		return nil, fmt.Errorf("track %s of mix %s has no stream: %w", set.Track.ID, s.mixID, ErrMissingTrack)
	}

	return set.Track.ToTrack(s.position, s.genres), nil
}

// NewFromSettings creates an HTTPCatalog from the catalog settings.
func NewFromSettings(settings *config.Settings, logger *log.Logger) (*HTTPCatalog, error) {
	opts := []Option{WithRateLimit(settings.APIRateLimit)}
	if settings.APIBaseURL != "" {
		opts = append(opts, WithBaseURL(settings.APIBaseURL))
	}
	if logger != nil {
		opts = append(opts, WithLogger(logger))
	}
	return NewHTTPCatalog(settings.APIKey, opts...)
}
