// Package app wires the feed source, the download manager and the
// post-processing steps into a single run.
//
// A run:
//
//  1. Fetches and parses the feed
//  2. Prepares the feed cover art (optional)
//  3. Downloads every item not yet recorded as done, tagging MP3 files
//  4. Writes a playlist of the downloaded files (optional)
//
// Both front ends (the feed-dl command and the terminal UI) drive a Runner.
package app
