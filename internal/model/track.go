package model

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// FileTypeMP3 is the only file type that receives ID3 tags.
const FileTypeMP3 = "mp3"

// Track represents a single playable item of a mix.
//
// Track contains:
//   - Catalog identifier (used when reporting the performance)
//   - Title, artist, album, year and genres for tagging
//   - File name and type derived from the stream URL
//   - The stream URL itself
//
// A Track is an immutable value once retrieved from the catalog.
//
// Example:
//
//	track := NewTrack("42", 1, "Song", "Artist", "Album", "2011", []string{"house"}, streamURL)
//	// track.FileName = "Artist - Song.mp3"
//	// track.FileType = "mp3"
type Track struct {
	// ID is the catalog identifier of the track.
	ID string

	// Number is the position of the track in the mix (1-indexed).
	Number int

	// Title is the track title.
	Title string

	// Artist is the performer.
	Artist string

	// Album is the release the track belongs to.
	Album string

	// Year is the release year as delivered by the catalog. It may be empty
	// or non-numeric.
	Year string

	// Genres holds the genre strings, most relevant first.
	Genres []string

	// FileName is the unsanitized file name, including the extension.
	FileName string

	// FileType is the lower-case file extension without the dot.
	FileType string

	// StreamURL is the URL to stream the audio payload from.
	StreamURL string
}

// NewTrack creates a new Track with its file name and type derived from the
// stream URL. Tracks whose URL has no extension are assumed to be MP3.
func NewTrack(id string, number int, title, artist, album, year string, genres []string, streamURL string) *Track {
	track := &Track{
		ID:        id,
		Number:    number,
		Title:     title,
		Artist:    artist,
		Album:     album,
		Year:      year,
		Genres:    genres,
		StreamURL: streamURL,
	}

	track.FileType = parseFileType(streamURL)
	track.FileName = track.parseFileName()

	return track
}

// IsTaggable returns true if the track's file type supports ID3 tags.
func (t *Track) IsTaggable() bool {
	return t.FileType == FileTypeMP3
}

// parseFileName builds "Artist - Title.ext", falling back to the track ID
// when both artist and title are missing.
func (t *Track) parseFileName() string {
	var name string
	switch {
	case t.Artist != "" && t.Title != "":
		name = fmt.Sprintf("%s - %s", t.Artist, t.Title)
	case t.Title != "":
		name = t.Title
	case t.Artist != "":
		name = t.Artist
	default:
		name = "track " + t.ID
	}
	return name + "." + t.FileType
}

// parseFileType extracts the extension from the URL path.
func parseFileType(streamURL string) string {
	u, err := url.Parse(streamURL)
	if err != nil {
		return FileTypeMP3
	}

	ext := strings.TrimPrefix(strings.ToLower(path.Ext(u.Path)), ".")
	if ext == "" {
		return FileTypeMP3
	}
	return ext
}
