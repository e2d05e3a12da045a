package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	fhttp "github.com/handiism/feed-downloader/internal/http"
	"github.com/handiism/feed-downloader/internal/model"
)

const podcastRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:itunes="http://www.itunes.com/dtds/podcast-1.0.dtd">
  <channel>
    <title> Test Show </title>
    <itunes:author>Jane Host</itunes:author>
    <image><url>http://x/cover.png</url></image>
    <item>
      <title>  Episode 1 </title>
      <enclosure url="http://x/a.mp3" type="audio/mpeg" length="10"/>
      <enclosure url="http://x/a-alt.mp3" type="audio/mpeg" length="10"/>
    </item>
    <item>
      <title>Episode 2</title>
      <enclosure url="http://x/b.mp3" type="audio/mpeg" length="10"/>
    </item>
    <item>
      <title>Text only</title>
    </item>
    <item>
      <title>Empty enclosure</title>
      <enclosure url="" type="audio/mpeg"/>
    </item>
  </channel>
</rss>`

func TestDetect(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		contentType string
		body        string
		want        Kind
	}{
		{"xml suffix", "http://x/feed.xml", "", "", KindXML},
		{"rss suffix with query", "http://x/feed.RSS?page=2", "text/html", "", KindXML},
		{"rss content type", "http://x/feed", "application/rss+xml; charset=utf-8", "", KindXML},
		{"atom content type", "http://x/feed", "application/atom+xml", "", KindXML},
		{"xml declaration", "http://x/feed", "text/plain", "\n  <?xml version=\"1.0\"?><rss/>", KindXML},
		{"bare feed root", "http://x/feed", "", "<feed xmlns=\"http://www.w3.org/2005/Atom\"/>", KindXML},
		{"html page", "http://x/episodes", "text/html", "<!DOCTYPE html><html></html>", KindHTML},
		{"unknown", "http://x/", "", "hello", KindHTML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Detect(tt.url, tt.contentType, []byte(tt.body)); got != tt.want {
				t.Errorf("Detect() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseXML(t *testing.T) {
	f, err := ParseXML([]byte(podcastRSS))
	if err != nil {
		t.Fatalf("ParseXML: %v", err)
	}

	want := []model.MediaItem{
		{URL: "http://x/a.mp3", Title: "Episode 1"},
		{URL: "http://x/b.mp3", Title: "Episode 2"},
	}
	if len(f.Items) != len(want) {
		t.Fatalf("items = %v, want %v", f.Items, want)
	}
	for i := range want {
		if f.Items[i] != want[i] {
			t.Errorf("item %d = %+v, want %+v", i, f.Items[i], want[i])
		}
	}

	if f.Title != "Test Show" {
		t.Errorf("Title = %q", f.Title)
	}
	if f.Author != "Jane Host" {
		t.Errorf("Author = %q", f.Author)
	}
	if f.ImageURL != "http://x/cover.png" {
		t.Errorf("ImageURL = %q", f.ImageURL)
	}
}

func TestParseXML_Malformed(t *testing.T) {
	if _, err := ParseXML([]byte("plain text, not a feed")); err == nil {
		t.Error("expected error for a document that is not a feed")
	}
}

func TestParseHTML(t *testing.T) {
	page := `<html><head><title>Archive</title></head><body>
		<a href="/media/one.mp3">First   episode</a>
		<a href="/media/one.mp3">duplicate</a>
		<a href="two%20part.MP4"></a>
		<a href="http://cdn.example.com/three.ogg?token=1">Third</a>
		<a href="/about.html">About</a>
		<a>no href</a>
	</body></html>`

	f, err := ParseHTML("http://example.com/archive/", []byte(page))
	if err != nil {
		t.Fatalf("ParseHTML: %v", err)
	}

	want := []model.MediaItem{
		{URL: "http://example.com/media/one.mp3", Title: "First episode"},
		{URL: "http://example.com/archive/two%20part.MP4", Title: "two part.MP4"},
		{URL: "http://cdn.example.com/three.ogg?token=1", Title: "Third"},
	}
	if len(f.Items) != len(want) {
		t.Fatalf("items = %+v, want %+v", f.Items, want)
	}
	for i := range want {
		if f.Items[i] != want[i] {
			t.Errorf("item %d = %+v, want %+v", i, f.Items[i], want[i])
		}
	}
	if f.Title != "Archive" {
		t.Errorf("Title = %q", f.Title)
	}
}

func TestSource_Fetch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/feed", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(podcastRSS))
	})
	mux.HandleFunc("/empty", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body>nothing here</body></html>"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	src := NewSource(fhttp.NewClient(fhttp.Options{}), nil)

	f, err := src.Fetch(context.Background(), srv.URL+"/feed")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(f.Items) != 2 {
		t.Errorf("items = %d, want 2", len(f.Items))
	}
	if f.Host != model.HostOf(srv.URL) || f.URL != srv.URL+"/feed" {
		t.Errorf("Host = %q, URL = %q", f.Host, f.URL)
	}

	f, err = src.Fetch(context.Background(), srv.URL+"/empty")
	if !errors.Is(err, ErrNoMedia) {
		t.Errorf("err = %v, want ErrNoMedia", err)
	}
	if f == nil || len(f.Items) != 0 {
		t.Errorf("empty feed = %+v", f)
	}

	if _, err := src.Fetch(context.Background(), srv.URL+"/missing"); err == nil {
		t.Error("expected error for 404")
	}
}
