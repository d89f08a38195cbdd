// Package download provides the orchestration logic for downloading a mix.
//
// # Pipeline
//
// The Pipeline walks a mix one track at a time:
//
//  1. Resolve the mix and create <output>/<mix name>
//  2. Save the cover art (best effort)
//  3. For each track: fetch into a temp file, tag, move into the folder,
//     wait out the minimum dwell time and report the performance
//  4. Write the playlist
//
// # Basic Usage
//
//	p, err := download.NewPipeline(settings, cat, func(event download.Event) {
//	    fmt.Println(event.Message)
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	session, err := p.Run(ctx, "https://8tracks.com/someone/late-night", "/music")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(session.PlaylistPath)
//
// # Progress Tracking
//
// Progress is reported via a callback function that receives Events:
//
//	type Event struct {
//	    Kind    EventKind     // track_start, track_progress, cooldown, ...
//	    Level   ProgressLevel // Info, Verbose, Warning, Error, Success
//	    Message string
//	    ...
//	}
//
// # Retry Logic
//
// Rate limited requests are retried after a cooldown, Cooldown * Exponent^n
// for retry n, until RetryPolicy.MaxRetries is reached (default: never).
// A rate limited track download is retried for the same track; the track
// sequence is not advanced.
package download
