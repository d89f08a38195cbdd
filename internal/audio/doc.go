// Package audio provides audio file manipulation services including
// ID3 tag writing and playlist generation.
//
// # ID3 Tagging
//
// Use the Tagger to write ID3v2.4 tags to downloaded MP3 files:
//
//	tagger := audio.NewTagger(audio.DefaultTagConfig())
//	if err := tagger.Tag(path, track); err != nil {
//	    // errors.Is(err, audio.ErrTagging); keep the file untagged
//	}
//
// The tagger writes:
//   - Title, Artist, Album
//   - Track Number (position in the mix)
//   - Year (removed when not a number)
//   - Genre (first four mix tags, ";" separated)
//
// # Playlist Generation
//
// Generate playlists in various formats:
//
//	creator := audio.NewPlaylistCreator(audio.FormatM3U, false)
//	err := audio.WritePlaylist(ctx, "/music/Mix/Mix.m3u", creator, mix.Name, entries)
//
// Supported formats:
//   - M3U (plain by default, optionally extended)
//   - PLS
//   - WPL (Windows Media Player)
//   - ZPL (Zune Media Player)
package audio
