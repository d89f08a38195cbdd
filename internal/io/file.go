// Package ioutils provides file system utilities for mixdl.
//
// This package contains functions for:
//   - File copying, moving and writing
//   - Filename sanitization
//   - Directory creation
//
// All functions that accept a context.Context respect cancellation,
// though file operations themselves may not be interruptible.
package ioutils

import (
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
)

// disallowedChars matches every rune outside the file name allow-list:
// ASCII word characters, space and the punctuation ` # ~ @ ' $ % & ( ) _ - + = [ ] { } ; , .
var disallowedChars = regexp.MustCompile("(?i)[^\\w `#~@'$%&()_\\-+=\\[\\]{};,.]")

// Replaced in tests to simulate cross-device moves.
var (
	renameFile = os.Rename
	removeFile = os.Remove
)

// CopyFile copies a file from source to destination.
//
// The destination file is created with mode 0644 if it doesn't exist,
// or truncated if it does. If the copy fails the partially written
// destination is removed.
//
// Example:
//
//	err := CopyFile(ctx, "/tmp/track123.mp3", "/music/Mix/Artist - Song.mp3")
func CopyFile(ctx context.Context, src, dst string) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := destFile.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			os.Remove(dst)
		}
	}()

	_, err = io.Copy(destFile, sourceFile)
	return err
}

// MoveFile moves src to dst.
//
// A plain rename is tried first. When that fails (typically because the
// temporary directory lives on another device) the file is copied and the
// source removed. On failure nothing is left at dst. Once dst is complete
// the move counts as done, even if src cannot be removed.
func MoveFile(ctx context.Context, src, dst string) error {
	if err := renameFile(src, dst); err == nil {
		return nil
	}

	if err := CopyFile(ctx, src, dst); err != nil {
		return fmt.Errorf("move %s: %w", src, err)
	}

	// a leftover source is only a stray temp file
	_ = removeFile(src)
	return nil
}

// WriteFile writes data to a file, creating it if necessary.
//
// The file is created with mode 0644. If the file already exists,
// it is truncated before writing.
//
// Example:
//
//	err := WriteFile(ctx, "/music/Mix/folder.jpg", imageBytes)
func WriteFile(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// SanitizeFileName replaces every character outside the allow-list with an
// underscore.
//
// The allow-list is ASCII letters, digits, underscore, space and
// ` # ~ @ ' $ % & ( ) - + = [ ] { } ; , . and each disallowed rune becomes a
// single underscore, so the function is idempotent. It is applied to both
// file and directory names.
//
// Example:
//
//	SanitizeFileName("AC/DC - Back: In Black.mp3") // "AC_DC - Back_ In Black.mp3"
//	SanitizeFileName("Café del Mar")              // "Caf_ del Mar"
func SanitizeFileName(name string) string {
	return disallowedChars.ReplaceAllString(name, "_")
}

// EnsureDir creates a directory and all parent directories if they don't exist.
//
// Directories are created with mode 0755 (rwxr-xr-x).
// If the directory already exists, no error is returned.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}
