package audio

import (
	"strings"
	"testing"
	"time"

	"github.com/handiism/feed-downloader/internal/model"
)

func TestPlaylistCreator_M3U(t *testing.T) {
	creator := NewPlaylistCreator(model.PlaylistFormatM3U, false)

	content := creator.CreatePlaylist("Show", createTestEntries())

	want := "Episode 1.mp3\nepisode-2.mp3\n"
	if content != want {
		t.Errorf("M3U = %q, want %q", content, want)
	}
}

func TestPlaylistCreator_M3UExtended(t *testing.T) {
	creator := NewPlaylistCreator(model.PlaylistFormatM3U, true)

	content := creator.CreatePlaylist("Show", createTestEntries())

	if !strings.HasPrefix(content, "#EXTM3U\n") {
		t.Error("Extended M3U should start with #EXTM3U")
	}
	if !strings.Contains(content, "#EXTINF:-1,Host - Episode 1\n") {
		t.Errorf("unknown duration should be -1:\n%s", content)
	}
	if !strings.Contains(content, "#EXTINF:95,episode-2.mp3\n") {
		t.Errorf("entry without title or artist should use the file name:\n%s", content)
	}
}

func TestPlaylistCreator_PLS(t *testing.T) {
	creator := NewPlaylistCreator(model.PlaylistFormatPLS, false)

	content := creator.CreatePlaylist("Show", createTestEntries())

	for _, want := range []string{"[playlist]\n", "File1=Episode 1.mp3\n", "Length2=95\n", "NumberOfEntries=2\n", "Version=2\n"} {
		if !strings.Contains(content, want) {
			t.Errorf("PLS missing %q:\n%s", want, content)
		}
	}
}

func TestPlaylistCreator_WPL(t *testing.T) {
	creator := NewPlaylistCreator(model.PlaylistFormatWPL, false)

	content := creator.CreatePlaylist("Show", createTestEntries())

	if !strings.Contains(content, "<?wpl") {
		t.Error("WPL should contain XML declaration")
	}
	if !strings.Contains(content, "<title>Show</title>") {
		t.Error("WPL should carry the playlist title")
	}
	if !strings.Contains(content, `<media src="Episode 1.mp3"/>`) {
		t.Error("WPL should contain media elements")
	}
}

func TestPlaylistCreator_ZPL(t *testing.T) {
	creator := NewPlaylistCreator(model.PlaylistFormatZPL, false)

	content := creator.CreatePlaylist("Show", createTestEntries())

	if !strings.Contains(content, "<?zpl") {
		t.Error("ZPL should contain XML declaration")
	}
	if !strings.Contains(content, `albumTitle="Show"`) {
		t.Error("ZPL should contain albumTitle attribute")
	}
	if !strings.Contains(content, `duration="95000"`) {
		t.Error("ZPL should carry known durations in milliseconds")
	}
	if strings.Count(content, "duration=") != 1 {
		t.Error("ZPL should omit unknown durations")
	}
}

func TestPlaylistCreator_XMLEscape(t *testing.T) {
	entries := []PlaylistEntry{{Path: "/media/x/a.mp3", Title: "Track & \"Quote\""}}

	content := NewPlaylistCreator(model.PlaylistFormatZPL, false).CreatePlaylist("Album <Special>", entries)

	if strings.Contains(content, "<Special>") {
		t.Error("ZPL should escape < and >")
	}
	if !strings.Contains(content, "Track &amp; &quot;Quote&quot;") {
		t.Errorf("ZPL should escape & and quotes:\n%s", content)
	}
}

func TestEntryFromOutcome(t *testing.T) {
	o := model.Outcome{
		Item:   model.MediaItem{URL: "http://x/a.mp3", Title: "Episode 1"},
		Status: model.StatusSuccess,
		Path:   "/media/x/Episode 1.mp3",
	}

	e := EntryFromOutcome(o, "Host")
	if e.Path != o.Path || e.Title != "Episode 1" || e.Artist != "Host" {
		t.Errorf("EntryFromOutcome() = %+v", e)
	}
}

func createTestEntries() []PlaylistEntry {
	return []PlaylistEntry{
		{Path: "/media/example.com/Episode 1.mp3", Title: "Episode 1", Artist: "Host"},
		{Path: "/media/example.com/episode-2.mp3", Duration: 95 * time.Second},
	}
}
