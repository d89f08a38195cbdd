package dto

import (
	"strings"

	"github.com/handiism/mixdl/internal/model"
)

// Envelope carries the fields every API response shares.
type Envelope struct {
	Status string `json:"status"`
	Errors any    `json:"errors"`
}

// APIStatus returns the in-body status line, e.g. "200 OK".
func (e *Envelope) APIStatus() string {
	return e.Status
}

// MixResponse is the body of GET /mixes/{id}.json.
type MixResponse struct {
	Envelope
	Mix *JSONMix `json:"mix"`
}

// JSONMix represents mix metadata as delivered by the API.
type JSONMix struct {
	ID           FlexString            `json:"id"`
	Name         string                `json:"name"`
	TagListCache string                `json:"tag_list_cache"`
	CoverURLs    map[string]FlexString `json:"cover_urls"`
}

// PlayTokenResponse is the body of GET /sets/new.json.
type PlayTokenResponse struct {
	Envelope
	PlayToken FlexString `json:"play_token"`
}

// Tags splits the comma separated tag cache into trimmed, non-empty tags.
func (jm *JSONMix) Tags() []string {
	var tags []string
	for _, tag := range strings.Split(jm.TagListCache, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// ToMix converts JSONMix to a model.Mix reading its tracks from seq.
//
// Cover entries that are not URLs (the API mixes in flags such as
// "animated": false) are dropped.
func (jm *JSONMix) ToMix(seq model.TrackSequence) *model.Mix {
	covers := make(map[string]string, len(jm.CoverURLs))
	for label, url := range jm.CoverURLs {
		if url != "" {
			covers[label] = url.String()
		}
	}

	return &model.Mix{
		ID:        jm.ID.String(),
		Name:      strings.TrimSpace(jm.Name),
		Tags:      jm.Tags(),
		CoverURLs: covers,
		Tracks:    seq,
	}
}
