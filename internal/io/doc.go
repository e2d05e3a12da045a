// Package ioutils provides file system and image processing utilities.
//
// # File Operations
//
//	// Replace a file atomically (temp file + rename)
//	err := ioutils.WriteFileAtomic("download_progress.json", data, 0644)
//
//	// Append lines without ever truncating
//	err := ioutils.AppendLines("log.txt", "Failed to download: Ep 2 - http://x/b.mp3")
//
//	// Ensure directory exists
//	err := ioutils.EnsureDir("media/example.com")
//
// # Filename Sanitization
//
//	safe := ioutils.SanitizeFileName("Song: Part 1/2") // Returns "Song_ Part 1_2"
//
// # Image Processing
//
// The ImageService handles feed cover art:
//
//	svc := ioutils.NewImageService()
//	jpeg, _ := svc.PrepareCoverArt(ctx, imageData, 1000)
package ioutils
