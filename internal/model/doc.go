// Package model defines the core data structures used throughout
// the feed-downloader application.
//
// # MediaItem
//
// MediaItem is the {url, title} descriptor produced by a feed source:
//
//	item := model.MediaItem{URL: "http://example.com/ep1.mp3", Title: "Episode 1"}
//	fmt.Println(item.FileName()) // "Episode 1.mp3"
//
// Identity is the exact (url, title) pair; use Key() as a map key.
//
// # Outcome
//
// Outcome records what happened to one dispatched item:
//
//	if o.Succeeded() {
//	    fmt.Println("saved to", o.Path)
//	} else {
//	    fmt.Println("failed after", o.Attempts, "attempts:", o.Reason())
//	}
//
// # Feed
//
// Feed is a parsed manifest with its metadata and computed output paths:
//
//	f := &model.Feed{URL: feedURL, Host: model.HostOf(feedURL)}
//	fmt.Println(f.Dir("./media")) // media/<host>
package model
