package audio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bogem/id3v2"
)

func writeFakeMP3(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "episode.mp3")
	if err := os.WriteFile(path, []byte("not really mpeg audio"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTagger_SaveTags(t *testing.T) {
	path := writeFakeMP3(t)
	tagger := NewTagger(nil)

	info := TagInfo{Title: "Episode 1", Album: "Test Show", Artist: "Jane Host"}
	if err := tagger.SaveTags(path, info, []byte{0xff, 0xd8, 0xff}); err != nil {
		t.Fatalf("SaveTags: %v", err)
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatal(err)
	}
	defer tag.Close()

	tests := []struct {
		field string
		got   string
		want  string
	}{
		{"title", tag.Title(), "Episode 1"},
		{"album", tag.Album(), "Test Show"},
		{"artist", tag.Artist(), "Jane Host"},
		{"genre", tag.Genre(), DefaultGenre},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %q, want %q", tt.field, tt.got, tt.want)
		}
	}

	if pics := tag.GetFrames(tag.CommonID("Attached picture")); len(pics) != 1 {
		t.Errorf("attached pictures = %d, want 1", len(pics))
	}
}

func TestTagger_ModifyTagsOff(t *testing.T) {
	path := writeFakeMP3(t)
	tagger := NewTagger(&TagConfig{ModifyTags: false, Title: TagModify})

	if err := tagger.SaveTags(path, TagInfo{Title: "Ignored"}, nil); err != nil {
		t.Fatalf("SaveTags: %v", err)
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatal(err)
	}
	defer tag.Close()

	if tag.Title() != "" {
		t.Errorf("title = %q, want untouched", tag.Title())
	}
}

func TestTagger_MissingFile(t *testing.T) {
	err := NewTagger(nil).SaveTags(filepath.Join(t.TempDir(), "gone.mp3"), TagInfo{}, nil)
	if err == nil {
		t.Error("expected error for a missing file")
	}
}
