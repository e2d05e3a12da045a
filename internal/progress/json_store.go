package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	ioutils "github.com/handiism/feed-downloader/internal/io"
	"github.com/handiism/feed-downloader/internal/model"
)

// DefaultPath is the progress file used when none is configured.
const DefaultPath = "download_progress.json"

// record is the on-disk layout: {"downloads": [{"url": ..., "title": ...}]}.
type record struct {
	Downloads []model.MediaItem `json:"downloads"`
}

// JSONStore keeps progress in a single JSON document.
//
// Example:
//
//	store := progress.NewJSONStore("download_progress.json")
//	done, err := store.Load(ctx)
//	var corrupt *progress.CorruptStateError
//	if errors.As(err, &corrupt) {
//	    // decide: abort, or start over with an empty set
//	}
type JSONStore struct {
	path string
}

// NewJSONStore creates a store backed by path.
func NewJSONStore(path string) *JSONStore {
	if path == "" {
		path = DefaultPath
	}
	return &JSONStore{path: path}
}

// Path returns the backing file.
func (s *JSONStore) Path() string {
	return s.path
}

// Load implements Store.
func (s *JSONStore) Load(ctx context.Context) (*Set, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewSet(), nil
		}
		return nil, fmt.Errorf("read progress: %w", err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, &CorruptStateError{Path: s.path, Err: err}
	}

	return NewSet(rec.Downloads...), nil
}

// Save implements Store.
func (s *JSONStore) Save(ctx context.Context, items *Set) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rec := record{Downloads: items.Items()}
	if rec.Downloads == nil {
		rec.Downloads = []model.MediaItem{}
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}
	data = append(data, '\n')

	if err := ioutils.WriteFileAtomic(s.path, data, 0644); err != nil {
		return fmt.Errorf("write progress: %w", err)
	}
	return nil
}
