package model

import (
	"context"
	"errors"
	"regexp"
	"sort"
)

// ErrEndOfMix is returned by Advance when the remote side reports the end of
// the mix without delivering another track.
var ErrEndOfMix = errors.New("end of mix")

// squareCoverPattern matches the square cover size labels delivered by the
// catalog, such as "sq100" or "sq500".
var squareCoverPattern = regexp.MustCompile(`sq\d{3}`)

// Mix represents a remote mix: a named, ordered collection of streamable
// tracks.
//
// Mix is owned by the download pipeline for the duration of one run. The only
// state that changes is the cursor inside Tracks.
//
// Example:
//
//	mix, err := catalog.ResolveMix(ctx, "https://8tracks.com/someone/late-night")
//	for !mix.Tracks.Exhausted() {
//	    track, err := mix.Tracks.Advance(ctx)
//	    ...
//	}
type Mix struct {
	// ID is the catalog identifier of the mix.
	ID string

	// Name is the display name of the mix. It names the output folder and
	// the playlist file.
	Name string

	// Tags holds the genre tags of the mix, in catalog order.
	Tags []string

	// CoverURLs maps cover size labels (e.g. "sq250", "original") to URLs.
	CoverURLs map[string]string

	// Tracks is the lazy, forward-only track sequence of the mix.
	Tracks TrackSequence
}

// TrackSequence is a finite, forward-only sequence of tracks.
//
// Advance pulls the next track. It may return a track-level error (for
// instance a missing track) after which the sequence has still moved
// forward; callers decide whether to continue. A failed request that never
// reached the remote side does not move the cursor.
type TrackSequence interface {
	// Exhausted reports whether the sequence has no more tracks.
	Exhausted() bool

	// Advance returns the next track.
	Advance(ctx context.Context) (*Track, error)
}

// HasCoverArt returns true if the mix has at least one square cover.
func (m *Mix) HasCoverArt() bool {
	return m.SquareCoverKey() != ""
}

// SquareCoverKey returns the cover size label to download.
//
// Among the labels matching "sq" followed by three digits, the
// lexicographically last one is chosen. For the labels the catalog serves
// this approximates the largest square cover below 1000x1000, but it is not a
// numeric maximum: "sq1000" sorts before "sq500".
//
// Returns an empty string when no label matches.
func (m *Mix) SquareCoverKey() string {
	keys := make([]string, 0, len(m.CoverURLs))
	for key := range m.CoverURLs {
		if squareCoverPattern.MatchString(key) {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return ""
	}

	sort.Strings(keys)
	return keys[len(keys)-1]
}

// SquareCoverURL returns the URL for SquareCoverKey, or an empty string.
func (m *Mix) SquareCoverURL() string {
	key := m.SquareCoverKey()
	if key == "" {
		return ""
	}
	return m.CoverURLs[key]
}
