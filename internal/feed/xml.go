package feed

import (
	"bytes"
	"strings"

	"github.com/handiism/feed-downloader/internal/model"
	"github.com/mmcdole/gofeed"
)

// ParseXML extracts one item per RSS or Atom entry that carries an enclosure.
// Only the first enclosure of an entry is used; entries whose enclosure has
// no URL are skipped.
func ParseXML(body []byte) (*model.Feed, error) {
	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	f := &model.Feed{
		Title:    strings.TrimSpace(parsed.Title),
		Author:   feedAuthor(parsed),
		ImageURL: feedImage(parsed),
	}

	for _, entry := range parsed.Items {
		if len(entry.Enclosures) == 0 {
			continue
		}
		url := strings.TrimSpace(entry.Enclosures[0].URL)
		if url == "" {
			continue
		}
		f.Items = append(f.Items, model.MediaItem{
			URL:   url,
			Title: strings.TrimSpace(entry.Title),
		})
	}
	return f, nil
}

func feedAuthor(f *gofeed.Feed) string {
	for _, p := range f.Authors {
		if p != nil && strings.TrimSpace(p.Name) != "" {
			return strings.TrimSpace(p.Name)
		}
	}
	if f.ITunesExt != nil {
		return strings.TrimSpace(f.ITunesExt.Author)
	}
	return ""
}

func feedImage(f *gofeed.Feed) string {
	if f.Image != nil && f.Image.URL != "" {
		return f.Image.URL
	}
	if f.ITunesExt != nil {
		return f.ITunesExt.Image
	}
	return ""
}
