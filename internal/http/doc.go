// Package http provides the HTTP client used to fetch feeds and media files.
//
// The Client in this package handles:
//   - User-Agent headers (some hosts refuse bare clients)
//   - Per-request timeouts so a stalled transfer cannot hold a worker forever
//   - Streaming file downloads that truncate the destination on every attempt
//   - Typed errors (StatusError, FileError) used for retry classification
//
// # Basic Usage
//
//	client := http.NewClient(http.Options{Timeout: time.Minute})
//
//	// Fetch a feed
//	doc, err := client.GetDocument(ctx, "https://example.com/podcast.xml")
//
//	// Download file with progress callback
//	n, err := client.DownloadFile(ctx, mp3URL, "/path/to/file.mp3", func(written, total int64) {
//	    fmt.Printf("%d/%d\n", written, total)
//	})
package http
