package audio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bogem/id3v2"

	"github.com/handiism/mixdl/internal/model"
)

func writeDummyMP3(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "track.mp3")
	if err := os.WriteFile(path, make([]byte, 1024), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func openTag(t *testing.T, path string) *id3v2.Tag {
	t.Helper()
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatalf("reopen tag: %v", err)
	}
	t.Cleanup(func() { tag.Close() })
	return tag
}

func TestTagger_Tag(t *testing.T) {
	path := writeDummyMP3(t)
	track := model.NewTrack("42", 3, "Song", "Artist", "Album", "2011",
		[]string{"house", "deep house", "chill", "lounge", "jazz"}, "https://cdn.example.com/42.mp3")

	if err := NewTagger(nil).Tag(path, track); err != nil {
		t.Fatalf("Tag() error = %v", err)
	}

	tag := openTag(t, path)
	if tag.Version() != 4 {
		t.Errorf("Version() = %d, want 4", tag.Version())
	}

	want := map[string]string{
		"TIT2": "Song",
		"TPE1": "Artist",
		"TALB": "Album",
		"TRCK": "3",
		"TDRC": "2011",
		"TCON": "house;deep house;chill;lounge",
	}
	for id, value := range want {
		if got := tag.GetTextFrame(id).Text; got != value {
			t.Errorf("%s = %q, want %q", id, got, value)
		}
	}
}

func TestTagger_Tag_InvalidYear(t *testing.T) {
	for _, year := range []string{"", "unknown", "0"} {
		t.Run(year, func(t *testing.T) {
			path := writeDummyMP3(t)
			track := model.NewTrack("1", 1, "Song", "Artist", "", year, nil, "https://cdn.example.com/1.mp3")

			if err := NewTagger(nil).Tag(path, track); err != nil {
				t.Fatalf("Tag() error = %v", err)
			}

			tag := openTag(t, path)
			for _, id := range []string{"TDRC", "TYER"} {
				if len(tag.GetFrames(id)) != 0 {
					t.Errorf("%s frame should be absent for year %q", id, year)
				}
			}
		})
	}
}

func TestTagger_Tag_KeepsAudio(t *testing.T) {
	path := writeDummyMP3(t)
	track := model.NewTrack("1", 1, "Song", "Artist", "", "", nil, "https://cdn.example.com/1.mp3")

	if err := NewTagger(nil).Tag(path, track); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() <= 1024 {
		t.Errorf("tagged file has %d bytes, want audio plus tag", info.Size())
	}
}

func TestTagger_Tag_MissingFile(t *testing.T) {
	track := model.NewTrack("1", 1, "Song", "Artist", "", "", nil, "https://cdn.example.com/1.mp3")

	err := NewTagger(nil).Tag(filepath.Join(t.TempDir(), "missing.mp3"), track)
	if !errors.Is(err, ErrTagging) {
		t.Errorf("error = %v, want ErrTagging", err)
	}
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Song", "Song"},
		{"trimmed", "  Song ", "Song"},
		{"latin1 bytes", "Caf\xe9", "Café"},
		{"decomposed", "Cafe\u0301", "Caf\u00e9"},
		{"already utf8", "Björk", "Björk"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeText(tt.in); got != tt.want {
				t.Errorf("NormalizeText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseYear(t *testing.T) {
	tests := map[string]int{
		"2011":  2011,
		" 1999": 1999,
		"":      0,
		"n/a":   0,
		"-5":    0,
	}
	for in, want := range tests {
		if got := ParseYear(in); got != want {
			t.Errorf("ParseYear(%q) = %d, want %d", in, got, want)
		}
	}
}
