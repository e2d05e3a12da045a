package feed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/handiism/feed-downloader/internal/http"
	"github.com/handiism/feed-downloader/internal/model"
	"github.com/sirupsen/logrus"
)

// ErrNoMedia is returned when a document parses but lists no media items.
var ErrNoMedia = errors.New("no media items found")

// Kind is the detected format of a source document.
type Kind int

const (
	KindHTML Kind = iota
	KindXML
)

func (k Kind) String() string {
	if k == KindXML {
		return "xml"
	}
	return "html"
}

// DocumentGetter fetches a document. *http.Client implements it.
type DocumentGetter interface {
	GetDocument(ctx context.Context, url string) (*http.Document, error)
}

// Source fetches a feed address and parses it into a Feed.
type Source struct {
	client DocumentGetter
	log    logrus.FieldLogger
}

// NewSource creates a Source. A nil logger uses the logrus standard logger.
func NewSource(client DocumentGetter, log logrus.FieldLogger) *Source {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Source{client: client, log: log}
}

// Fetch downloads feedURL and parses it.
//
// A fetch or parse failure is returned as an error. A document without media
// returns the (empty) Feed together with ErrNoMedia.
func (s *Source) Fetch(ctx context.Context, feedURL string) (*model.Feed, error) {
	doc, err := s.client.GetDocument(ctx, feedURL)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", feedURL, err)
	}

	base := doc.URL
	if base == "" {
		base = feedURL
	}

	kind := Detect(feedURL, doc.ContentType, doc.Body)
	s.log.WithFields(logrus.Fields{
		"url":          feedURL,
		"kind":         kind,
		"content_type": doc.ContentType,
		"bytes":        len(doc.Body),
	}).Debug("Fetched feed document")

	f, err := Parse(kind, base, doc.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feedURL, err)
	}
	f.URL = feedURL
	f.Host = model.HostOf(feedURL)

	s.log.WithFields(logrus.Fields{
		"title": f.Title,
		"items": len(f.Items),
	}).Info("Feed parsed")

	if len(f.Items) == 0 {
		return f, ErrNoMedia
	}
	return f, nil
}

// Parse parses body as the given kind. base resolves relative links.
func Parse(kind Kind, base string, body []byte) (*model.Feed, error) {
	if kind == KindXML {
		return ParseXML(body)
	}
	return ParseHTML(base, body)
}

// Detect decides whether a document is XML or HTML.
func Detect(rawURL, contentType string, body []byte) Kind {
	path := strings.ToLower(rawURL)
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if strings.HasSuffix(path, ".xml") || strings.HasSuffix(path, ".rss") {
		return KindXML
	}

	ct := strings.ToLower(contentType)
	for _, marker := range []string{"xml", "rss", "atom"} {
		if strings.Contains(ct, marker) {
			return KindXML
		}
	}

	head := bytes.TrimLeft(body, " \t\r\n\ufeff")
	for _, prefix := range []string{"<?xml", "<rss", "<feed"} {
		if bytes.HasPrefix(head, []byte(prefix)) {
			return KindXML
		}
	}
	return KindHTML
}
