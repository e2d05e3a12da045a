package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// DefaultUserAgent mimics a desktop browser; several podcast hosts reject
// requests without one.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36"

// DefaultTimeout bounds a single request, body transfer included.
const DefaultTimeout = 60 * time.Second

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s (%s)", e.StatusCode, e.Status, e.URL)
}

// Options configures a Client.
type Options struct {
	// Timeout bounds each request including reading the body. Zero uses DefaultTimeout.
	Timeout time.Duration

	// UserAgent is sent with every request. Empty uses DefaultUserAgent.
	UserAgent string

	// Transport overrides the underlying round tripper (tests, proxies).
	Transport http.RoundTripper
}

// Client wraps HTTP operations with downloader-specific configuration.
//
// Client provides:
//   - Configured User-Agent header
//   - Per-request timeout handling
//   - Streaming file download with progress tracking
//
// Example usage:
//
//	client := NewClient(Options{Timeout: 30 * time.Second})
//
//	// Fetch a feed document
//	doc, err := client.GetDocument(ctx, "https://example.com/podcast.xml")
//
//	// Download file with progress
//	n, err := client.DownloadFile(ctx, mp3URL, "/path/to/file.mp3", nil)
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// NewClient creates a new HTTP client.
func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	return &Client{
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: opts.Transport,
		},
		userAgent: opts.UserAgent,
	}
}

// ProgressWriter wraps a writer to track download progress.
//
// Example:
//
//	pw := &ProgressWriter{
//	    Writer: file,
//	    Total:  contentLength,
//	    OnUpdate: func(written, total int64) {
//	        fmt.Printf("%d / %d bytes\n", written, total)
//	    },
//	}
//	io.Copy(pw, response.Body)
type ProgressWriter struct {
	// Writer is the underlying writer to write data to.
	Writer io.Writer

	// Total is the expected total bytes (from Content-Length header), -1 if unknown.
	Total int64

	// Written is the current number of bytes written.
	Written int64

	// OnUpdate is called after each Write with current progress.
	OnUpdate func(written, total int64)
}

// Write implements io.Writer, tracking progress and calling OnUpdate.
func (pw *ProgressWriter) Write(p []byte) (int, error) {
	n, err := pw.Writer.Write(p)
	pw.Written += int64(n)
	if pw.OnUpdate != nil {
		pw.OnUpdate(pw.Written, pw.Total)
	}
	return n, err
}

// Document is a fetched text resource together with its declared content type.
type Document struct {
	URL         string
	ContentType string
	Body        []byte
}

// Get performs a GET request and returns the response body as bytes.
//
// Returns a *StatusError if the response status is not 2xx.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	doc, err := c.GetDocument(ctx, url)
	if err != nil {
		return nil, err
	}
	return doc.Body, nil
}

// GetDocument performs a GET request and returns the body with its Content-Type.
//
// The final URL after redirects is recorded so relative links can be resolved.
func (c *Client) GetDocument(ctx context.Context, url string) (*Document, error) {
	resp, err := c.do(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &Document{
		URL:         resp.Request.URL.String(),
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// DownloadFile streams url into destPath and returns the number of bytes written.
//
// The destination is created or truncated on every call, so a retry never
// appends to bytes left over by an earlier failed attempt. The file is only
// opened once the server has answered with a 2xx status.
//
// Pass nil as onProgress to disable progress tracking.
func (c *Client) DownloadFile(ctx context.Context, url, destPath string, onProgress func(written, total int64)) (int64, error) {
	resp, err := c.do(ctx, url)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	file, err := os.OpenFile(destPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return 0, &FileError{Path: destPath, Err: err}
	}

	var writer io.Writer = file
	if onProgress != nil {
		writer = &ProgressWriter{
			Writer:   file,
			Total:    resp.ContentLength,
			OnUpdate: onProgress,
		}
	}

	n, err := io.Copy(writer, resp.Body)
	if closeErr := file.Close(); err == nil && closeErr != nil {
		return n, &FileError{Path: destPath, Err: closeErr}
	}
	if err != nil {
		return n, err
	}

	if resp.ContentLength >= 0 && n != resp.ContentLength {
		return n, fmt.Errorf("short body from %s: got %d of %d bytes: %w", url, n, resp.ContentLength, io.ErrUnexpectedEOF)
	}
	return n, nil
}

// DownloadBytes downloads a file and returns the bytes in memory.
//
// Use this for small files like cover art images. For media files,
// use DownloadFile to stream directly to disk.
func (c *Client) DownloadBytes(ctx context.Context, url string) ([]byte, error) {
	return c.Get(ctx, url)
}

// FileError reports a local file system failure during a download.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

func (c *Client) do(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status}
	}
	return resp, nil
}
