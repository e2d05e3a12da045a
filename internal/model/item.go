package model

import (
	"net/url"
	"path"
	"strings"
	"unicode/utf8"

	ioutils "github.com/handiism/feed-downloader/internal/io"
)

// MediaItem is a single downloadable entry of a feed.
//
// Two items are the same descriptor when both URL and Title match exactly.
// No normalization is applied to either field.
//
// Example:
//
//	item := MediaItem{URL: "http://example.com/ep1.mp3", Title: "Episode 1"}
//	fmt.Println(item.FileName()) // "Episode 1.mp3"
type MediaItem struct {
	// URL is the location of the remote media resource.
	URL string `json:"url"`

	// Title is the human readable title taken from the feed.
	Title string `json:"title"`
}

// ItemKey is the comparable identity of a MediaItem, usable as a map key.
type ItemKey struct {
	URL   string
	Title string
}

// Key returns the identity of the item.
func (i MediaItem) Key() ItemKey {
	return ItemKey{URL: i.URL, Title: i.Title}
}

// String implements fmt.Stringer.
func (i MediaItem) String() string {
	return i.Title + " - " + i.URL
}

// IsAudio reports whether the URL points at an MP3 container.
func (i MediaItem) IsAudio() bool {
	return strings.Contains(strings.ToLower(i.URL), ".mp3")
}

// FileName computes the local file name for the item.
//
// Audio URLs are saved under the sanitized title with an .mp3 extension.
// Anything else keeps the sanitized basename of the URL path. When neither
// yields a usable name, the sanitized title is used as is. Names are capped
// at 255 bytes without splitting a UTF-8 sequence, keeping the extension.
//
// Example:
//
//	MediaItem{URL: "http://x/a.mp3", Title: "Ep: 1"}.FileName()   // "Ep_ 1.mp3"
//	MediaItem{URL: "http://x/v/b.mp4?dl=1", Title: "B"}.FileName() // "b.mp4"
func (i MediaItem) FileName() string {
	title := ioutils.SanitizeFileName(i.Title)
	if i.IsAudio() && title != "" {
		return truncateName(title, ".mp3")
	}
	if base := ioutils.SanitizeFileName(urlBase(i.URL)); base != "" {
		ext := path.Ext(base)
		if len(ext) > maxExt {
			ext = ""
		}
		return truncateName(strings.TrimSuffix(base, ext), ext)
	}
	if title == "" {
		return "download"
	}
	return truncateName(title, "")
}

// urlBase returns the last path element of a URL, ignoring query and fragment.
func urlBase(raw string) string {
	u, err := url.Parse(raw)
	p := raw
	if err == nil {
		p = u.Path
	}
	base := path.Base(p)
	if base == "." || base == "/" {
		return ""
	}
	if unescaped, err := url.PathUnescape(base); err == nil {
		base = unescaped
	}
	return base
}

const (
	maxName = 255
	maxExt  = 16
)

// truncateName joins name and ext, shortening name so the result stays within
// maxName bytes. The cut backs off to the start of a UTF-8 sequence.
func truncateName(name, ext string) string {
	if len(name)+len(ext) <= maxName {
		return name + ext
	}
	cut := maxName - len(ext)
	for cut > 0 && !utf8.RuneStart(name[cut]) {
		cut--
	}
	return strings.TrimRight(name[:cut], " .") + ext
}
