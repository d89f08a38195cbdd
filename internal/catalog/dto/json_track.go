package dto

import (
	"strings"

	"github.com/handiism/mixdl/internal/model"
)

// SetResponse is the body of the play, next and report endpoints.
type SetResponse struct {
	Envelope
	Set *JSONSet `json:"set"`
}

// JSONSet describes the playback position within a mix.
type JSONSet struct {
	AtBeginning bool       `json:"at_beginning"`
	AtEnd       bool       `json:"at_end"`
	AtLastTrack bool       `json:"at_last_track"`
	Track       *JSONTrack `json:"track"`
}

// JSONTrack represents a track from the set endpoints.
type JSONTrack struct {
	ID          FlexString `json:"id"`
	Name        string     `json:"name"`
	Performer   string     `json:"performer"`
	ReleaseName string     `json:"release_name"`
	Year        FlexString `json:"year"`
	StreamURL   string     `json:"track_file_stream_url"`
}

// HasStream reports whether the track carries a usable stream URL.
func (jt *JSONTrack) HasStream() bool {
	return strings.TrimSpace(jt.StreamURL) != ""
}

// ToTrack converts JSONTrack to a model.Track.
//
// number is the 1-based position in the mix and genres are the mix tags,
// since the set endpoints deliver no per-track genre.
func (jt *JSONTrack) ToTrack(number int, genres []string) *model.Track {
	// Fix URL if it starts with "//"
	streamURL := strings.TrimSpace(jt.StreamURL)
	if strings.HasPrefix(streamURL, "//") {
		streamURL = "https:" + streamURL
	}

	return model.NewTrack(
		jt.ID.String(),
		number,
		strings.TrimSpace(jt.Name),
		strings.TrimSpace(jt.Performer),
		strings.TrimSpace(jt.ReleaseName),
		jt.Year.String(),
		genres,
		streamURL,
	)
}
