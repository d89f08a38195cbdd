package audio

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/bogem/id3v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"

	"github.com/handiism/mixdl/internal/model"
)

// ErrTagging wraps every failure of Tagger.Tag. Tagging failures are not
// fatal for a download: the file is kept untagged.
var ErrTagging = errors.New("tagging failed")

// maxGenres is the number of mix tags written to the genre frame.
const maxGenres = 4

// TagEditAction defines how to handle individual ID3 tags.
//
// Each tag field can be configured independently to determine whether
// it should be modified, cleared, or left unchanged.
type TagEditAction int

const (
	// TagEmpty removes the frame.
	TagEmpty TagEditAction = iota

	// TagModify writes the value delivered by the catalog.
	TagModify

	// TagDoNotModify leaves the existing frame unchanged.
	TagDoNotModify
)

// TagConfig holds tagging configuration for each ID3 field.
//
// Example:
//
//	cfg := &TagConfig{
//	    Artist:      TagModify,
//	    Album:       TagModify,
//	    TrackTitle:  TagModify,
//	    TrackNumber: TagModify,
//	    Year:        TagModify,
//	    Genre:       TagModify,
//	    Comments:    TagDoNotModify,
//	}
type TagConfig struct {
	// Artist controls the TPE1 (Lead artist) frame.
	Artist TagEditAction

	// Album controls the TALB (Album title) frame.
	Album TagEditAction

	// TrackTitle controls the TIT2 (Title) frame.
	TrackTitle TagEditAction

	// TrackNumber controls the TRCK (Track number) frame.
	TrackNumber TagEditAction

	// Year controls the TYER and TDRC frames.
	Year TagEditAction

	// Genre controls the TCON (Content type) frame.
	Genre TagEditAction

	// Comments controls the COMM (Comments) frame.
	Comments TagEditAction
}

// DefaultTagConfig returns the default tag configuration: every field the
// catalog delivers is written, comments are left alone.
func DefaultTagConfig() *TagConfig {
	return &TagConfig{
		Artist:      TagModify,
		Album:       TagModify,
		TrackTitle:  TagModify,
		TrackNumber: TagModify,
		Year:        TagModify,
		Genre:       TagModify,
		Comments:    TagDoNotModify,
	}
}

// Tagger writes ID3v2.4 tags to MP3 files.
//
// All text frames are UTF-8. Catalog strings that are not valid UTF-8 are
// decoded as ISO-8859-1 first, then every value is NFC normalised.
//
// Example:
//
//	tagger := NewTagger(nil)
//	if err := tagger.Tag(tempPath, track); err != nil {
//	    // errors.Is(err, ErrTagging) is always true here
//	}
type Tagger struct {
	config *TagConfig
}

// NewTagger creates a new Tagger with the given configuration.
//
// If config is nil, DefaultTagConfig() is used.
func NewTagger(config *TagConfig) *Tagger {
	if config == nil {
		config = DefaultTagConfig()
	}
	return &Tagger{config: config}
}

// Tag writes the metadata of track into the MP3 file at path.
//
// Existing frames that the configuration does not touch are preserved.
// The year is parsed as an integer; a year that is missing, unparsable or 0
// removes the year frames instead.
func (t *Tagger) Tag(path string, track *model.Track) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", ErrTagging, path, err)
	}
	defer tag.Close()

	tag.SetVersion(4)
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)

	t.updateTextFrames(tag, track)

	if err := tag.Save(); err != nil {
		return fmt.Errorf("%w: save %s: %w", ErrTagging, path, err)
	}
	return nil
}

// updateTextFrames updates text-based ID3 frames based on configuration.
func (t *Tagger) updateTextFrames(tag *id3v2.Tag, track *model.Track) {
	setText(tag, "TPE1", t.config.Artist, track.Artist)
	setText(tag, "TALB", t.config.Album, track.Album)
	setText(tag, "TIT2", t.config.TrackTitle, track.Title)

	if track.Number > 0 {
		setText(tag, "TRCK", t.config.TrackNumber, strconv.Itoa(track.Number))
	} else {
		setText(tag, "TRCK", t.config.TrackNumber, "")
	}

	year := ParseYear(track.Year)
	yearText := ""
	if year != 0 {
		yearText = strconv.Itoa(year)
	}
	// TYER for v2.3 readers, TDRC for v2.4
	setText(tag, "TYER", t.config.Year, yearText)
	setText(tag, "TDRC", t.config.Year, yearText)

	setText(tag, "TCON", t.config.Genre, GenreString(track.Genres))

	if t.config.Comments == TagEmpty {
		tag.DeleteFrames("COMM")
	}
}

// setText applies action to a text frame. An empty value removes the frame.
func setText(tag *id3v2.Tag, id string, action TagEditAction, value string) {
	switch action {
	case TagEmpty:
		tag.DeleteFrames(id)
	case TagModify:
		tag.DeleteFrames(id)
		if value = NormalizeText(value); value != "" {
			tag.AddTextFrame(id, id3v2.EncodingUTF8, value)
		}
	}
}

// NormalizeText returns s as trimmed, NFC normalised, valid UTF-8.
//
// Byte sequences that are not valid UTF-8 are taken to be ISO-8859-1, the
// encoding older catalog entries were stored in.
func NormalizeText(s string) string {
	if !utf8.ValidString(s) {
		if decoded, err := charmap.ISO8859_1.NewDecoder().String(s); err == nil {
			s = decoded
		} else {
			s = strings.ToValidUTF8(s, "�")
		}
	}
	return norm.NFC.String(strings.TrimSpace(s))
}

// ParseYear parses a catalog year. Anything that is not an integer is 0.
func ParseYear(s string) int {
	year, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || year < 0 {
		return 0
	}
	return year
}

// GenreString joins the first four genres with ";".
func GenreString(genres []string) string {
	if len(genres) > maxGenres {
		genres = genres[:maxGenres]
	}
	return strings.Join(genres, ";")
}
