// Package model defines the core data structures used throughout mixdl.
//
// # Mix
//
// Mix is a named remote playlist with cover art variants and a lazy track
// sequence:
//
//	mix, _ := catalog.ResolveMix(ctx, locator)
//	fmt.Println(mix.Name)
//	fmt.Println(mix.SquareCoverURL()) // cover to save as folder.jpg
//
// # Track
//
// Track is one playable item of a mix:
//
//	track := model.NewTrack(id, 1, "Song", "Artist", "Album", "2011", genres, streamURL)
//	fmt.Println(track.FileName) // "Artist - Song.mp3"
//
// # TrackSequence
//
// TrackSequence is the pull interface the pipeline consumes. It hides any
// remote pagination or play-session handling:
//
//	for !mix.Tracks.Exhausted() {
//	    track, err := mix.Tracks.Advance(ctx)
//	}
package model
