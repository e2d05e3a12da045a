// Package audio provides audio file manipulation services including
// ID3 tag writing and playlist generation.
//
// # ID3 Tagging
//
// Use the Tagger to write ID3 tags to downloaded MP3 episodes:
//
//	tagger := audio.NewTagger(audio.DefaultTagConfig())
//	err := tagger.SaveTags(path, audio.TagInfo{
//	    Title:  item.Title,
//	    Album:  feed.Title,
//	    Artist: feed.Author,
//	}, artworkBytes)
//
// The tagger supports:
//   - Title, Album, Artist and Album Artist
//   - Genre (defaults to "Podcast")
//   - Track Number
//   - Cover Art (embedded in MP3)
//
// # Playlist Generation
//
// Generate playlists in various formats:
//
//	creator := audio.NewPlaylistCreator(model.PlaylistFormatM3U, true) // extended M3U
//	content := creator.CreatePlaylist(feed.Title, entries)
//	os.WriteFile("show.m3u", []byte(content), 0644)
//
// Supported formats:
//   - M3U (with optional extended info)
//   - PLS
//   - WPL (Windows Media Player)
//   - ZPL (Zune Media Player)
package audio
