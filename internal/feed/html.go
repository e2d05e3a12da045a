package feed

import (
	"bytes"
	"net/url"
	"path"
	"strings"

	"github.com/handiism/feed-downloader/internal/model"
	"golang.org/x/net/html"
)

// MediaExtensions are the link suffixes recognized in HTML listings.
var MediaExtensions = []string{".mp3", ".mp4", ".avi", ".mkv", ".m4a", ".ogg"}

// ParseHTML extracts one item per anchor linking to a media file.
//
// Relative links are resolved against base. When several anchors share an
// href the first one wins. The title is the anchor text, or the link's file
// name when the anchor has no text.
func ParseHTML(base string, body []byte) (*model.Feed, error) {
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	baseURL, _ := url.Parse(base)
	f := &model.Feed{}
	seen := make(map[string]struct{})

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if f.Title == "" {
					f.Title = strings.TrimSpace(textOf(n))
				}
			case "a":
				href := strings.TrimSpace(attr(n, "href"))
				if isMediaLink(href) {
					if _, dup := seen[href]; !dup {
						seen[href] = struct{}{}
						f.Items = append(f.Items, model.MediaItem{
							URL:   resolve(baseURL, href),
							Title: anchorTitle(n, href),
						})
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return f, nil
}

func isMediaLink(href string) bool {
	if href == "" {
		return false
	}
	p := strings.ToLower(href)
	if u, err := url.Parse(href); err == nil {
		p = strings.ToLower(u.Path)
	}
	for _, ext := range MediaExtensions {
		if strings.HasSuffix(p, ext) {
			return true
		}
	}
	return false
}

func resolve(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil || base == nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

func anchorTitle(n *html.Node, href string) string {
	if text := strings.Join(strings.Fields(textOf(n)), " "); text != "" {
		return text
	}
	name := href
	if u, err := url.Parse(href); err == nil {
		name = u.Path
	}
	if unescaped, err := url.PathUnescape(path.Base(name)); err == nil {
		return unescaped
	}
	return path.Base(name)
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return b.String()
}
