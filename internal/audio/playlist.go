package audio

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/handiism/feed-downloader/internal/model"
)

// PlaylistEntry is one downloaded file listed in a playlist.
type PlaylistEntry struct {
	// Path is the file on disk. Playlists reference only its base name.
	Path string

	Title  string
	Artist string

	// Duration is zero when unknown.
	Duration time.Duration
}

// EntryFromOutcome builds an entry for a successful download.
func EntryFromOutcome(o model.Outcome, artist string) PlaylistEntry {
	return PlaylistEntry{Path: o.Path, Title: o.Item.Title, Artist: artist}
}

// PlaylistCreator generates playlist files in various formats.
//
// Example:
//
//	creator := NewPlaylistCreator(model.PlaylistFormatM3U, true)
//	content := creator.CreatePlaylist(feed.Title, entries)
//	os.WriteFile(feed.PlaylistPath("media", model.PlaylistFormatM3U), []byte(content), 0644)
//
//	// Result:
//	// #EXTM3U
//	// #EXTINF:-1,Host - Episode 1
//	// Episode 1.mp3
type PlaylistCreator struct {
	format   model.PlaylistFormat
	extended bool // For M3U: include EXTINF lines
}

// NewPlaylistCreator creates a new PlaylistCreator. extended only affects M3U.
func NewPlaylistCreator(format model.PlaylistFormat, extended bool) *PlaylistCreator {
	return &PlaylistCreator{
		format:   format,
		extended: extended,
	}
}

// Format returns the playlist format.
func (p *PlaylistCreator) Format() model.PlaylistFormat {
	return p.format
}

// CreatePlaylist generates playlist content titled title.
//
// Paths in the playlist are relative (just the filename), assuming the
// playlist file lives in the same directory as the media.
func (p *PlaylistCreator) CreatePlaylist(title string, entries []PlaylistEntry) string {
	switch p.format {
	case model.PlaylistFormatPLS:
		return p.createPLS(entries)
	case model.PlaylistFormatWPL:
		return p.createWPL(title, entries)
	case model.PlaylistFormatZPL:
		return p.createZPL(title, entries)
	default:
		return p.createM3U(entries)
	}
}

// createM3U generates an M3U playlist.
//
// Extended M3U format (when extended=true):
//
//	#EXTM3U
//	#EXTINF:-1,Artist - Title
//	filename1.mp3
func (p *PlaylistCreator) createM3U(entries []PlaylistEntry) string {
	var sb strings.Builder

	if p.extended {
		sb.WriteString("#EXTM3U\n")
	}

	for _, e := range entries {
		if p.extended {
			sb.WriteString(fmt.Sprintf("#EXTINF:%d,%s\n", seconds(e.Duration), displayName(e)))
		}
		sb.WriteString(filepath.Base(e.Path) + "\n")
	}

	return sb.String()
}

// createPLS generates an INI-style PLS playlist.
func (p *PlaylistCreator) createPLS(entries []PlaylistEntry) string {
	var sb strings.Builder

	sb.WriteString("[playlist]\n")

	for i, e := range entries {
		idx := i + 1
		sb.WriteString(fmt.Sprintf("File%d=%s\n", idx, filepath.Base(e.Path)))
		sb.WriteString(fmt.Sprintf("Title%d=%s\n", idx, displayName(e)))
		sb.WriteString(fmt.Sprintf("Length%d=%d\n", idx, seconds(e.Duration)))
	}

	sb.WriteString(fmt.Sprintf("NumberOfEntries=%d\n", len(entries)))
	sb.WriteString("Version=2\n")

	return sb.String()
}

// createWPL generates a Windows Media Player playlist.
func (p *PlaylistCreator) createWPL(title string, entries []PlaylistEntry) string {
	var sb strings.Builder

	sb.WriteString("<?wpl version=\"1.0\"?>\n")
	sb.WriteString("<smil>\n")
	sb.WriteString("  <head>\n")
	sb.WriteString(fmt.Sprintf("    <title>%s</title>\n", escapeXML(title)))
	sb.WriteString("  </head>\n")
	sb.WriteString("  <body>\n")
	sb.WriteString("    <seq>\n")

	for _, e := range entries {
		sb.WriteString(fmt.Sprintf("      <media src=\"%s\"/>\n", escapeXML(filepath.Base(e.Path))))
	}

	sb.WriteString("    </seq>\n")
	sb.WriteString("  </body>\n")
	sb.WriteString("</smil>\n")

	return sb.String()
}

// createZPL generates a Zune playlist. Unlike WPL it carries per-entry metadata.
func (p *PlaylistCreator) createZPL(title string, entries []PlaylistEntry) string {
	var sb strings.Builder

	sb.WriteString("<?zpl version=\"2.0\"?>\n")
	sb.WriteString("<smil>\n")
	sb.WriteString("  <head>\n")
	sb.WriteString(fmt.Sprintf("    <title>%s</title>\n", escapeXML(title)))
	sb.WriteString("    <meta name=\"Generator\" content=\"feed-downloader\"/>\n")
	sb.WriteString(fmt.Sprintf("    <meta name=\"ItemCount\" content=\"%d\"/>\n", len(entries)))
	sb.WriteString("  </head>\n")
	sb.WriteString("  <body>\n")
	sb.WriteString("    <seq>\n")

	for _, e := range entries {
		sb.WriteString(fmt.Sprintf("      <media src=\"%s\" albumTitle=\"%s\" trackTitle=\"%s\" trackArtist=\"%s\"",
			escapeXML(filepath.Base(e.Path)),
			escapeXML(title),
			escapeXML(e.Title),
			escapeXML(e.Artist)))
		if e.Duration > 0 {
			sb.WriteString(fmt.Sprintf(" duration=\"%d\"", e.Duration.Milliseconds()))
		}
		sb.WriteString("/>\n")
	}

	sb.WriteString("    </seq>\n")
	sb.WriteString("  </body>\n")
	sb.WriteString("</smil>\n")

	return sb.String()
}

// seconds returns whole seconds, or -1 (the M3U/PLS "unknown") for zero.
func seconds(d time.Duration) int {
	if d <= 0 {
		return -1
	}
	return int(d.Seconds())
}

func displayName(e PlaylistEntry) string {
	title := e.Title
	if title == "" {
		title = filepath.Base(e.Path)
	}
	if e.Artist == "" {
		return title
	}
	return e.Artist + " - " + title
}

// escapeXML escapes special XML characters in a string.
//
// Replaces: & < > " '
// With:     &amp; &lt; &gt; &quot; &apos;
func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	s = strings.ReplaceAll(s, "'", "&apos;")
	return s
}
