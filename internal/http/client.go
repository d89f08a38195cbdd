package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
)

// ErrRateLimited is returned when the remote side answers 403 Forbidden or
// 429 Too Many Requests. Both are the service's throttling signal.
var ErrRateLimited = errors.New("rate limited by remote service")

// StatusError is returned for any non-200 response.
//
// StatusError unwraps to ErrRateLimited for 403 and 429, so callers can
// test with errors.Is(err, ErrRateLimited).
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s (%s)", e.StatusCode, e.Status, e.URL)
}

// Unwrap maps throttling status codes to ErrRateLimited.
func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusForbidden, http.StatusTooManyRequests:
		return ErrRateLimited
	}
	return nil
}

// CheckResponse returns a *StatusError unless the response status is 200 OK.
func CheckResponse(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	return &StatusError{
		URL:        resp.Request.URL.Redacted(),
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
	}
}

// Client wraps HTTP operations used to fetch audio streams and cover art.
//
// Client provides:
//   - Configured User-Agent header
//   - Streaming downloads into temporary files with progress tracking
//   - Small in-memory downloads for cover art
//
// The underlying http.Client has no overall timeout: a track stream may take
// as long as the service needs to deliver it. Cancel the context to abort.
//
// Example usage:
//
//	client := NewClient()
//
//	path, err := client.DownloadTemp(ctx, track.StreamURL, "", "track-*.mp3", func(percent int) {
//	    fmt.Printf("%d%%\n", percent)
//	})
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// NewClient creates a new HTTP client with the "mixdl" User-Agent.
func NewClient() *Client {
	return NewClientWith(&http.Client{})
}

// NewClientWith creates a Client around an existing http.Client.
func NewClientWith(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient: httpClient,
		userAgent:  "mixdl",
	}
}

// ProgressWriter wraps a writer to track download progress.
//
// OnUpdate receives the bytes written so far and the total expected bytes
// (from the Content-Length header, -1 when unknown).
//
// Example:
//
//	pw := &ProgressWriter{
//	    Writer:   file,
//	    Total:    contentLength,
//	    OnUpdate: notifier.Update,
//	}
//	io.Copy(pw, response.Body)
type ProgressWriter struct {
	// Writer is the underlying writer to write data to.
	Writer io.Writer

	// Total is the expected total bytes (from Content-Length header).
	Total int64

	// Written is the current number of bytes written.
	Written int64

	// OnUpdate is called after each Write with current progress.
	OnUpdate func(written, total int64)
}

// Write implements io.Writer, tracking progress and calling OnUpdate.
func (pw *ProgressWriter) Write(p []byte) (int, error) {
	n, err := pw.Writer.Write(p)
	pw.Written += int64(n)
	if pw.OnUpdate != nil {
		pw.OnUpdate(pw.Written, pw.Total)
	}
	return n, err
}

// PercentNotifier turns raw byte counts into coarse percentage steps.
//
// With a known total it reports 0 on Start and then every multiple of Step
// crossed, exactly once and in increasing order, up to 100. Chunks that
// cross several thresholds at once report each of them. With an unknown
// total only Finish reports, with 100.
type PercentNotifier struct {
	// Step is the threshold granularity in percent. Defaults to 10.
	Step int

	// OnPercent receives each threshold.
	OnPercent func(percent int)

	total int64
	last  int
}

// Start resets the notifier for a payload of total bytes.
func (n *PercentNotifier) Start(total int64) {
	n.total = total
	n.last = -1
	if total > 0 {
		n.emit(0)
	}
}

// Update reports progress after written bytes.
func (n *PercentNotifier) Update(written, total int64) {
	if total <= 0 {
		return
	}
	pct := int(written * 100 / total)
	if pct > 100 {
		pct = 100
	}
	n.advance(pct - pct%n.step())
}

// Finish reports completion.
func (n *PercentNotifier) Finish() {
	if n.total > 0 {
		n.advance(100)
		return
	}
	if n.last < 100 {
		n.emit(100)
	}
}

func (n *PercentNotifier) advance(to int) {
	for p := n.last + n.step(); p <= to; p += n.step() {
		n.emit(p)
	}
	// 100 is always the last step, even when Step does not divide it
	if to == 100 && n.last < 100 {
		n.emit(100)
	}
}

func (n *PercentNotifier) emit(percent int) {
	n.last = percent
	if n.OnPercent != nil {
		n.OnPercent(percent)
	}
}

func (n *PercentNotifier) step() int {
	if n.Step <= 0 {
		return 10
	}
	return n.Step
}

// Get performs a GET request and returns the response body as bytes.
//
// Returns an error if:
//   - The request fails
//   - The response status is not 200 OK (a *StatusError)
//   - Reading the body fails
//
// Example:
//
//	data, err := client.Get(ctx, "https://images.example.com/sq500.jpg")
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// DownloadTemp streams url into a new temporary file and returns its path.
//
// The response body is copied chunk by chunk into a file created with
// os.CreateTemp(dir, pattern); the payload is never held in memory. The
// returned file is closed and complete. On any error the temporary file is
// removed and no path is returned.
//
// onPercent may be nil. See PercentNotifier for the reporting rules.
//
// Example:
//
//	path, err := client.DownloadTemp(ctx, streamURL, "", "mixdl-*.mp3", nil)
//	if errors.Is(err, ErrRateLimited) {
//	    // back off and retry
//	}
func (c *Client) DownloadTemp(ctx context.Context, url, dir, pattern string, onPercent func(percent int)) (path string, err error) {
	resp, err := c.get(ctx, url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	file, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", err
	}
	defer func() {
		if closeErr := file.Close(); err == nil && closeErr != nil {
			err = closeErr
		}
		if err != nil {
			os.Remove(file.Name())
			path = ""
		}
	}()

	notifier := &PercentNotifier{OnPercent: onPercent}
	notifier.Start(resp.ContentLength)

	writer := &ProgressWriter{
		Writer:   file,
		Total:    resp.ContentLength,
		OnUpdate: notifier.Update,
	}

	if _, err = io.Copy(writer, resp.Body); err != nil {
		return "", err
	}
	notifier.Finish()

	return file.Name(), nil
}

func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if err := CheckResponse(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}

	return resp, nil
}
