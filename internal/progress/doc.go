// Package progress records which media items were downloaded successfully,
// so later runs can skip them.
//
// # Stores
//
// Two Store implementations are provided:
//   - JSONStore: a single {"downloads": [...]} document replaced atomically (default)
//   - SQLiteStore: a one-table SQLite database, replaced inside a transaction
//
// # Resume
//
//	done, err := store.Load(ctx)
//	remaining := progress.Diff(feed.Items, done)
//	// ... download remaining ...
//	err = store.Save(ctx, done.Union(progress.NewSet(succeeded...)))
//
// Identity is the exact (url, title) pair. Lookups go through a map, so
// Diff is linear in the number of feed items.
package progress
