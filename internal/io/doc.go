// Package ioutils provides file system and image processing utilities.
//
// This package contains functions for:
//   - File copying, moving and writing
//   - Filename sanitization
//   - Directory creation
//   - Cover art resizing and format conversion
//
// # File Operations
//
//	// Move a finished download into the mix folder
//	err := ioutils.MoveFile(ctx, tmpPath, "/music/Mix/Artist - Song.mp3")
//
//	// Ensure directory exists
//	err := ioutils.EnsureDir("/music/Mix")
//
// # Filename Sanitization
//
// SanitizeFileName replaces every character outside a fixed allow-list with
// an underscore:
//
//	safe := ioutils.SanitizeFileName("Song: Part 1/2") // "Song_ Part 1_2"
//
// # Image Processing
//
//	svc := ioutils.NewImageService()
//	resized, _ := svc.ResizeImage(ctx, coverData, 500, 500)
//	jpeg, _ := svc.ConvertToJPEG(ctx, pngData)
package ioutils
