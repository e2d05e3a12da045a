package audio

import (
	"strconv"

	"github.com/bogem/id3v2"
)

// DefaultGenre is written to the TCON frame of downloaded episodes.
const DefaultGenre = "Podcast"

// TagEditAction defines how to handle individual ID3 tags.
type TagEditAction int

const (
	// TagEmpty clears the tag value.
	TagEmpty TagEditAction = iota

	// TagModify updates the tag with the value from the feed.
	TagModify

	// TagDoNotModify leaves the existing tag value unchanged.
	TagDoNotModify
)

// TagInfo is the metadata written to one file.
type TagInfo struct {
	Title  string
	Album  string // feed title
	Artist string // feed author
	Genre  string

	// Track is the 1-based position in the feed. Zero leaves TRCK alone.
	Track int
}

// TagConfig holds tagging configuration for each ID3 field.
//
// Example:
//
//	cfg := &TagConfig{
//	    ModifyTags: true,
//	    Title:      TagModify,
//	    Album:      TagModify,
//	    Artist:     TagDoNotModify, // keep the publisher's own artist frame
//	    Comments:   TagEmpty,
//	}
type TagConfig struct {
	// ModifyTags is a master switch. If false, no string tags are modified.
	ModifyTags bool

	// Title controls the TIT2 (Title) frame.
	Title TagEditAction

	// Album controls the TALB (Album title) frame.
	Album TagEditAction

	// Artist controls the TPE1 (Lead artist) and TPE2 (Album artist) frames.
	Artist TagEditAction

	// Genre controls the TCON (Content type) frame.
	Genre TagEditAction

	// TrackNumber controls the TRCK (Track number) frame.
	TrackNumber TagEditAction

	// Comments controls the COMM (Comments) frame.
	Comments TagEditAction
}

// DefaultTagConfig returns the default tag configuration.
//
// Title, album and genre are replaced; the publisher's artist and track
// number are kept unless the feed provides them.
func DefaultTagConfig() *TagConfig {
	return &TagConfig{
		ModifyTags:  true,
		Title:       TagModify,
		Album:       TagModify,
		Artist:      TagModify,
		Genre:       TagModify,
		TrackNumber: TagDoNotModify,
		Comments:    TagDoNotModify,
	}
}

// Tagger writes ID3 tags to MP3 files.
//
// Example:
//
//	tagger := NewTagger(DefaultTagConfig())
//	err := tagger.SaveTags(outcome.Path, TagInfo{Title: item.Title, Album: feed.Title}, jpegBytes)
//	if err != nil {
//	    log.Printf("Failed to tag %s: %v", outcome.Path, err)
//	}
type Tagger struct {
	config *TagConfig
}

// NewTagger creates a new Tagger. If config is nil, DefaultTagConfig() is used.
func NewTagger(config *TagConfig) *Tagger {
	if config == nil {
		config = DefaultTagConfig()
	}
	return &Tagger{config: config}
}

// SaveTags writes ID3 tags to the MP3 file at path.
//
// String tags follow the TagConfig; artwork (JPEG bytes) replaces any
// embedded front cover when non-nil.
func (t *Tagger) SaveTags(path string, info TagInfo, artwork []byte) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return err
	}
	defer tag.Close()

	if t.config.ModifyTags {
		t.updateStringTags(tag, info)
	}

	if artwork != nil {
		t.updateArtwork(tag, artwork)
	}

	return tag.Save()
}

// updateStringTags updates text-based ID3 frames based on configuration.
func (t *Tagger) updateStringTags(tag *id3v2.Tag, info TagInfo) {
	switch t.config.Title {
	case TagEmpty:
		tag.SetTitle("")
	case TagModify:
		if info.Title != "" {
			tag.SetTitle(info.Title)
		}
	}

	switch t.config.Album {
	case TagEmpty:
		tag.SetAlbum("")
	case TagModify:
		if info.Album != "" {
			tag.SetAlbum(info.Album)
		}
	}

	switch t.config.Artist {
	case TagEmpty:
		tag.SetArtist("")
		tag.DeleteFrames("TPE2")
	case TagModify:
		if info.Artist != "" {
			tag.SetArtist(info.Artist)
			tag.AddTextFrame("TPE2", id3v2.EncodingUTF8, info.Artist)
		}
	}

	switch t.config.Genre {
	case TagEmpty:
		tag.SetGenre("")
	case TagModify:
		genre := info.Genre
		if genre == "" {
			genre = DefaultGenre
		}
		tag.SetGenre(genre)
	}

	switch t.config.TrackNumber {
	case TagEmpty:
		tag.DeleteFrames("TRCK")
	case TagModify:
		if info.Track > 0 {
			tag.AddTextFrame("TRCK", id3v2.EncodingUTF8, strconv.Itoa(info.Track))
		}
	}

	if t.config.Comments == TagEmpty {
		tag.DeleteFrames(tag.CommonID("Comments"))
	}
}

// updateArtwork embeds cover art as the front cover picture.
func (t *Tagger) updateArtwork(tag *id3v2.Tag, artwork []byte) {
	tag.DeleteFrames(tag.CommonID("Attached picture"))

	pic := id3v2.PictureFrame{
		Encoding:    id3v2.EncodingUTF8,
		MimeType:    "image/jpeg",
		PictureType: id3v2.PTFrontCover,
		Description: "Cover",
		Picture:     artwork,
	}
	tag.AddAttachedPicture(pic)
}
