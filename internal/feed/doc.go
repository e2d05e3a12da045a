// Package feed turns a feed address into a manifest of media items.
//
// Two document kinds are understood:
//
//  1. RSS and Atom feeds, one item per entry carrying an enclosure
//  2. HTML listings, one item per link to a media file
//
// # Usage
//
//	src := feed.NewSource(client, logger)
//	f, err := src.Fetch(ctx, "https://example.com/podcast.xml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, item := range f.Items {
//	    fmt.Println(item.Title, item.URL)
//	}
//
// # Detection
//
// A document is treated as XML when its URL ends in .xml or .rss, when the
// server declares an XML, RSS or Atom content type, or when the body starts
// with an XML declaration or an <rss>/<feed> root. Everything else is parsed
// as HTML.
package feed
