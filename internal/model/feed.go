package model

import (
	"net/url"
	"path/filepath"

	ioutils "github.com/handiism/feed-downloader/internal/io"
)

// Feed is the manifest produced by a source document.
//
// Feed contains everything the downloader needs besides the items:
//   - Title and Author for tagging and playlists
//   - ImageURL for downloading cover art
//   - Host for namespacing the output directory
//
// Example:
//
//	f := &Feed{URL: "http://example.com/podcast.xml", Title: "Show"}
//	f.Host = HostOf(f.URL)
//	fmt.Println(f.Dir("./media")) // "media/example.com"
type Feed struct {
	// URL is the address the feed was fetched from.
	URL string

	// Host is the network host of URL, used as the output sub-directory.
	Host string

	// Title is the channel title. Empty for HTML listings without a <title>.
	Title string

	// Author is the channel author, if any.
	Author string

	// ImageURL is the channel artwork. Empty string means no artwork is available.
	ImageURL string

	// Items are the media descriptors in document order.
	Items []MediaItem
}

// HostOf returns the host part of a URL, or "unknown" when it has none.
func HostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return ioutils.SanitizeFileName(u.Host)
}

// HasArtwork returns true if the feed has cover art available for download.
func (f *Feed) HasArtwork() bool {
	return f.ImageURL != ""
}

// Dir returns the directory downloads of this feed are written to.
func (f *Feed) Dir(outputRoot string) string {
	host := f.Host
	if host == "" {
		host = HostOf(f.URL)
	}
	return filepath.Join(outputRoot, host)
}

// PlaylistPath returns where the playlist for this feed is saved.
func (f *Feed) PlaylistPath(outputRoot string, format PlaylistFormat) string {
	name := ioutils.SanitizeFileName(f.Title)
	if name == "" {
		name = "playlist"
	}
	return filepath.Join(f.Dir(outputRoot), name+format.Extension())
}

// ArtworkPath returns where the feed cover art is saved.
func (f *Feed) ArtworkPath(outputRoot string) string {
	if !f.HasArtwork() {
		return ""
	}
	return filepath.Join(f.Dir(outputRoot), "cover.jpg")
}

// PlaylistFormat represents supported playlist file formats.
type PlaylistFormat int

const (
	// PlaylistFormatM3U creates .m3u playlist files (most widely supported).
	PlaylistFormatM3U PlaylistFormat = iota

	// PlaylistFormatPLS creates .pls playlist files (used by Winamp).
	PlaylistFormatPLS

	// PlaylistFormatWPL creates .wpl playlist files (Windows Media Player).
	PlaylistFormatWPL

	// PlaylistFormatZPL creates .zpl playlist files (Zune Media Player).
	PlaylistFormatZPL
)

// ParsePlaylistFormat maps a config value to a PlaylistFormat, defaulting to M3U.
func ParsePlaylistFormat(s string) PlaylistFormat {
	switch s {
	case "pls":
		return PlaylistFormatPLS
	case "wpl":
		return PlaylistFormatWPL
	case "zpl":
		return PlaylistFormatZPL
	default:
		return PlaylistFormatM3U
	}
}

// Extension returns the file extension for the playlist format, including the dot.
func (pf PlaylistFormat) Extension() string {
	switch pf {
	case PlaylistFormatM3U:
		return ".m3u"
	case PlaylistFormatPLS:
		return ".pls"
	case PlaylistFormatWPL:
		return ".wpl"
	case PlaylistFormatZPL:
		return ".zpl"
	default:
		return ".m3u"
	}
}
