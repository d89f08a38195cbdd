package dto

import (
	"encoding/json"
	"testing"
)

func TestFlexString_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		json string
		want FlexString
	}{
		{"string", `"2012"`, "2012"},
		{"padded string", `" 2012 "`, "2012"},
		{"number", `2012`, "2012"},
		{"large id", `14123456789`, "14123456789"},
		{"null", `null`, ""},
		{"bool", `false`, ""},
		{"object", `{"a":1}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got FlexString
			if err := json.Unmarshal([]byte(tt.json), &got); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestJSONMix_ToMix(t *testing.T) {
	body := `{
		"id": 14,
		"name": " Late Night ",
		"tag_list_cache": "house, deep house,,chill",
		"cover_urls": {"sq100": "https://img/100.jpg", "sq500": "https://img/500.jpg", "animated": false}
	}`

	var jm JSONMix
	if err := json.Unmarshal([]byte(body), &jm); err != nil {
		t.Fatal(err)
	}

	mix := jm.ToMix(nil)
	if mix.ID != "14" || mix.Name != "Late Night" {
		t.Errorf("got id %q name %q", mix.ID, mix.Name)
	}
	if len(mix.Tags) != 3 || mix.Tags[1] != "deep house" {
		t.Errorf("Tags = %v", mix.Tags)
	}
	if _, ok := mix.CoverURLs["animated"]; ok {
		t.Error("non URL cover entry should be dropped")
	}
	if mix.SquareCoverKey() != "sq500" {
		t.Errorf("SquareCoverKey() = %q", mix.SquareCoverKey())
	}
}

func TestJSONTrack_ToTrack(t *testing.T) {
	jt := JSONTrack{
		ID:          "99",
		Name:        "Song",
		Performer:   "Artist",
		ReleaseName: "Album",
		Year:        "2011",
		StreamURL:   "//cdn.example.com/tf/99.mp3",
	}

	track := jt.ToTrack(3, []string{"house"})
	if track.StreamURL != "https://cdn.example.com/tf/99.mp3" {
		t.Errorf("StreamURL = %q", track.StreamURL)
	}
	if track.Number != 3 || track.Album != "Album" || track.Year != "2011" {
		t.Errorf("unexpected track %+v", track)
	}
	if track.FileName != "Artist - Song.mp3" {
		t.Errorf("FileName = %q", track.FileName)
	}
}
