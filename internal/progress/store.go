package progress

import (
	"context"
	"fmt"

	"github.com/handiism/feed-downloader/internal/model"
)

// Store persists the set of descriptors downloaded successfully across runs.
//
// Implementations are read once at run start and overwritten at run end by a
// single writer. Save must be atomic: a concurrent Load sees either the old or
// the new record, never a partial one.
type Store interface {
	// Load returns the persisted set, or an empty set if nothing was saved yet.
	// It returns a *CorruptStateError when the persisted data cannot be parsed.
	Load(ctx context.Context) (*Set, error)

	// Save atomically replaces the persisted record with items.
	Save(ctx context.Context, items *Set) error
}

// CorruptStateError is returned by Load when the persisted record is unreadable.
type CorruptStateError struct {
	Path string
	Err  error
}

func (e *CorruptStateError) Error() string {
	return fmt.Sprintf("progress record %s is corrupt: %v", e.Path, e.Err)
}

func (e *CorruptStateError) Unwrap() error {
	return e.Err
}

// Diff returns the items of all that are not in done, preserving the order of all.
// A descriptor listed more than once is returned only at its first position.
func Diff(all []model.MediaItem, done *Set) []model.MediaItem {
	remaining := make([]model.MediaItem, 0, len(all))
	seen := make(map[model.ItemKey]struct{}, len(all))
	for _, item := range all {
		if done.Contains(item) {
			continue
		}
		if _, dup := seen[item.Key()]; dup {
			continue
		}
		seen[item.Key()] = struct{}{}
		remaining = append(remaining, item)
	}
	return remaining
}
