// Package catalog talks to the remote mix catalog.
//
// The Catalog interface is what the download pipeline consumes: resolve a
// mix, pull its tracks one at a time, report each played track. HTTPCatalog
// implements it against the JSON API (version 3).
//
// # Endpoints
//
//	GET /mixes/{id}.json or {mix path}.json    mix metadata
//	GET /sets/new.json                         play token
//	GET /sets/{token}/play.json?mix_id=        first track
//	GET /sets/{token}/next.json?mix_id=        following tracks
//	GET /sets/{token}/report.json?track_id=&mix_id=
//
// Every request carries X-Api-Key and X-Api-Version headers and is paced by
// a token bucket limiter.
//
// # Errors
//
// A track without data surfaces as ErrMissingTrack; the sequence has moved
// past it. Throttling (HTTP 403 or 429, in the status line or in the body)
// surfaces as ErrRateLimited and leaves the sequence where it was.
package catalog
