package download

import (
	"fmt"

	ioutils "github.com/handiism/feed-downloader/internal/io"
	"github.com/handiism/feed-downloader/internal/model"
)

// DefaultFailureLogPath is the failure log used when none is configured.
const DefaultFailureLogPath = "log.txt"

// FailureLog is an append-only text record of items that could not be downloaded.
// It is never truncated and never read back.
type FailureLog struct {
	path string
}

// NewFailureLog creates a log writing to path.
func NewFailureLog(path string) *FailureLog {
	if path == "" {
		path = DefaultFailureLogPath
	}
	return &FailureLog{path: path}
}

// Path returns the log file.
func (l *FailureLog) Path() string {
	return l.path
}

// Append writes one line per item. A nil FailureLog discards the items.
func (l *FailureLog) Append(items ...model.MediaItem) error {
	if l == nil || len(items) == 0 {
		return nil
	}

	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = FailureLine(item)
	}
	return ioutils.AppendLines(l.path, lines...)
}

// FailureLine formats the log line for item.
func FailureLine(item model.MediaItem) string {
	return fmt.Sprintf("Failed to download: %s - %s", item.Title, item.URL)
}
