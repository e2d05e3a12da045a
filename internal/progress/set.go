package progress

import "github.com/handiism/feed-downloader/internal/model"

// Set is an insertion-ordered set of MediaItems keyed on the exact (url, title) pair.
//
// The zero value is not usable; create one with NewSet. A nil *Set behaves as
// an empty set for reads.
type Set struct {
	index map[model.ItemKey]struct{}
	items []model.MediaItem
}

// NewSet creates a set holding items, dropping duplicates.
func NewSet(items ...model.MediaItem) *Set {
	s := &Set{index: make(map[model.ItemKey]struct{}, len(items))}
	s.Add(items...)
	return s
}

// Add inserts items that are not yet present.
func (s *Set) Add(items ...model.MediaItem) {
	for _, item := range items {
		key := item.Key()
		if _, ok := s.index[key]; ok {
			continue
		}
		s.index[key] = struct{}{}
		s.items = append(s.items, item)
	}
}

// Contains reports whether item is in the set.
func (s *Set) Contains(item model.MediaItem) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[item.Key()]
	return ok
}

// Len returns the number of items.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// Items returns a copy of the items in insertion order.
func (s *Set) Items() []model.MediaItem {
	if s == nil {
		return nil
	}
	out := make([]model.MediaItem, len(s.items))
	copy(out, s.items)
	return out
}

// Union returns a new set with the items of s followed by the new items of other.
func (s *Set) Union(other *Set) *Set {
	out := NewSet(s.Items()...)
	out.Add(other.Items()...)
	return out
}
