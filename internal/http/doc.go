// Package http provides the HTTP client used to fetch track streams and cover art.
//
// The Client in this package handles:
//   - User-Agent headers
//   - Streaming downloads into temporary files with progress tracking
//   - Mapping of throttling responses (403, 429) to ErrRateLimited
//
// # Basic Usage
//
//	client := http.NewClient()
//
//	// Download a track stream into a temp file
//	path, err := client.DownloadTemp(ctx, streamURL, "", "mixdl-*.mp3", func(percent int) {
//	    fmt.Printf("%d%%\n", percent)
//	})
//
//	// Fetch cover art
//	data, err := client.Get(ctx, coverURL)
//
// # Progress Tracking
//
// The ProgressWriter type can be used to wrap any io.Writer for progress tracking,
// and PercentNotifier reduces its byte counts to 10% steps:
//
//	n := &http.PercentNotifier{OnPercent: report}
//	n.Start(contentLength)
//	pw := &http.ProgressWriter{
//	    Writer:   file,
//	    Total:    contentLength,
//	    OnUpdate: n.Update,
//	}
package http
