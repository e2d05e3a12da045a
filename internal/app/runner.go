package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/handiism/feed-downloader/internal/audio"
	"github.com/handiism/feed-downloader/internal/config"
	"github.com/handiism/feed-downloader/internal/download"
	"github.com/handiism/feed-downloader/internal/feed"
	"github.com/handiism/feed-downloader/internal/http"
	ioutils "github.com/handiism/feed-downloader/internal/io"
	"github.com/handiism/feed-downloader/internal/model"
	"github.com/handiism/feed-downloader/internal/progress"
	"github.com/sirupsen/logrus"
)

// Level indicates the severity/type of an Event.
type Level int

const (
	LevelInfo Level = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// Event is a human readable run update for front ends.
type Event struct {
	Message string
	Level   Level
}

// Result describes a finished run.
type Result struct {
	RunID string
	Feed  *model.Feed

	// Report is nil when the run failed before downloading.
	Report *download.Report

	// ArtworkPath is set when cover art was saved next to the media.
	ArtworkPath string

	// PlaylistPath is set when a playlist was written.
	PlaylistPath string
}

// Runner performs feed download runs.
//
// Example:
//
//	runner := app.NewRunner(settings, logger)
//	defer runner.Close()
//	runner.OnEvent(func(e app.Event) { fmt.Println(e.Message) })
//	result, err := runner.Run(ctx, "https://example.com/podcast.xml")
type Runner struct {
	settings *config.Settings
	client   *http.Client
	source   *feed.Source
	store    progress.Store
	tagger   *audio.Tagger
	images   *ioutils.ImageService
	log      logrus.FieldLogger

	onEvent    func(Event)
	onProgress download.ProgressFunc
	onBytes    func(item model.MediaItem, written, total int64)

	mu      sync.Mutex
	manager *download.Manager
	stopped bool
}

// NewRunner creates a Runner from settings.
func NewRunner(settings *config.Settings, log logrus.FieldLogger) *Runner {
	if log == nil {
		log = logrus.StandardLogger()
	}
	client := http.NewClient(settings.ClientOptions())

	tagCfg := audio.DefaultTagConfig()
	tagCfg.ModifyTags = settings.Tags.Modify

	return &Runner{
		settings: settings,
		client:   client,
		source:   feed.NewSource(client, log),
		store:    settings.NewStore(),
		tagger:   audio.NewTagger(tagCfg),
		images:   ioutils.NewImageService(),
		log:      log,
	}
}

// OnEvent registers a listener for run events. Call before Run.
func (r *Runner) OnEvent(fn func(Event)) {
	r.onEvent = fn
}

// OnProgress registers a listener for per-item progress. Call before Run.
func (r *Runner) OnProgress(fn download.ProgressFunc) {
	r.onProgress = fn
}

// OnBytes registers a listener for byte progress of in-flight downloads.
// It is called concurrently from the download workers.
func (r *Runner) OnBytes(fn func(item model.MediaItem, written, total int64)) {
	r.onBytes = fn
}

// Stop asks the current run to stop dispatching new downloads. In-flight
// downloads finish and progress is saved. Calling Stop before Run makes the
// next run download nothing.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stopped = true
	if r.manager != nil {
		r.manager.Stop()
	}
}

// Close releases the progress store.
func (r *Runner) Close() error {
	if c, ok := r.store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Run downloads feedURL.
//
// Item failures never fail the run; they are listed in the report and the
// failure log. Run returns an error when the feed cannot be fetched or parsed,
// when progress cannot be loaded or saved, or when ctx is cancelled.
func (r *Runner) Run(ctx context.Context, feedURL string) (*Result, error) {
	result := &Result{RunID: uuid.NewString()}
	log := r.log.WithField("run_id", result.RunID)

	log.WithField("url", feedURL).Info("Run started")
	r.emit(LevelInfo, "Fetching feed %s", feedURL)

	f, err := r.source.Fetch(ctx, feedURL)
	if errors.Is(err, feed.ErrNoMedia) {
		r.emit(LevelWarning, "No media items found in %s", feedURL)
	} else if err != nil {
		r.emit(LevelError, "Failed to read feed: %v", err)
		return result, err
	}
	result.Feed = f
	r.emit(LevelInfo, "Found %d items in %q", len(f.Items), f.Title)

	outputRoot := r.settings.Download.OutputRoot
	destDir := f.Dir(outputRoot)
	if err := ioutils.EnsureDir(destDir); err != nil {
		return result, fmt.Errorf("create output directory: %w", err)
	}

	artwork := r.prepareArtwork(ctx, log, f, result)

	worker := download.NewWorker(r.client, r.settings.WorkerConfig(), log)
	worker.AfterFetch = r.tagHook(log, f, artwork)
	worker.OnBytes = r.onBytes

	manager := download.NewManager(
		r.settings.ManagerConfig(),
		worker,
		r.store,
		download.NewFailureLog(r.settings.FailureLog.Path),
		log,
	)
	manager.OnProgress(r.progress)

	r.mu.Lock()
	r.manager = manager
	if r.stopped {
		manager.Stop()
	}
	r.mu.Unlock()

	report, runErr := manager.Run(ctx, f.Items, destDir)
	result.Report = report

	if report != nil {
		r.summarize(report)
		if r.settings.Playlist.Create {
			r.writePlaylist(log, f, destDir, result)
		}
	}

	if runErr != nil {
		r.emit(LevelError, "Run ended with error: %v", runErr)
		return result, runErr
	}
	log.Info("Run finished")
	return result, nil
}

// Plan fetches feedURL and returns the items a run would download, without
// downloading anything.
func (r *Runner) Plan(ctx context.Context, feedURL string) (*model.Feed, []model.MediaItem, error) {
	f, err := r.source.Fetch(ctx, feedURL)
	if err != nil && !errors.Is(err, feed.ErrNoMedia) {
		return nil, nil, err
	}

	done, err := download.LoadProgress(ctx, r.store, r.settings.ManagerConfig().OnCorrupt, r.log)
	if err != nil {
		return f, nil, err
	}
	return f, progress.Diff(f.Items, done), nil
}

func (r *Runner) progress(p download.Progress) {
	switch {
	case p.Outcome.Succeeded():
		r.emit(LevelSuccess, "Downloaded %q", p.Outcome.Item.Title)
	case p.Outcome.Aborted():
		r.emit(LevelWarning, "Interrupted %q", p.Outcome.Item.Title)
	default:
		r.emit(LevelError, "Failed to download %q after %d attempts: %s", p.Outcome.Item.Title, p.Outcome.Attempts, p.Outcome.Reason())
	}
	if r.onProgress != nil {
		r.onProgress(p)
	}
}

func (r *Runner) summarize(report *download.Report) {
	switch {
	case report.Aborted > 0:
		r.emit(LevelWarning, "Aborted: %d downloaded, %d failed, %d interrupted", report.Succeeded, report.Failed, report.Aborted)
	case report.Total == 0:
		r.emit(LevelSuccess, "Nothing to download, %d items already done", report.Prior)
	case report.Stopped:
		r.emit(LevelWarning, "Stopped: %d downloaded, %d failed, %d not started", report.Succeeded, report.Failed, report.Skipped)
	case report.Failed > 0:
		r.emit(LevelWarning, "Finished: %d downloaded, %d failed (see %s)", report.Succeeded, report.Failed, r.settings.FailureLog.Path)
	default:
		r.emit(LevelSuccess, "Finished: %d downloaded", report.Succeeded)
	}
}

// prepareArtwork downloads the feed cover once. The returned bytes are the
// JPEG to embed in tags, nil when tags should not carry artwork.
func (r *Runner) prepareArtwork(ctx context.Context, log logrus.FieldLogger, f *model.Feed, result *Result) []byte {
	cover := r.settings.CoverArt
	if !f.HasArtwork() || (!cover.SaveInFolder && !cover.SaveInTags) {
		return nil
	}

	raw, err := r.client.DownloadBytes(ctx, f.ImageURL)
	if err != nil {
		log.WithError(err).Warn("Failed to download cover art")
		r.emit(LevelWarning, "Could not download cover art: %v", err)
		return nil
	}

	jpeg, err := r.images.PrepareCoverArt(ctx, raw, cover.MaxSize)
	if err != nil {
		log.WithError(err).Warn("Failed to convert cover art")
		return nil
	}

	if cover.SaveInFolder {
		path := f.ArtworkPath(r.settings.Download.OutputRoot)
		if err := ioutils.WriteFile(ctx, path, jpeg); err != nil {
			log.WithError(err).Warn("Failed to save cover art")
		} else {
			result.ArtworkPath = path
			r.emit(LevelVerbose, "Saved cover art to %s", path)
		}
	}

	if !cover.SaveInTags {
		return nil
	}
	return jpeg
}

// tagHook returns the post-download step that tags MP3 files.
func (r *Runner) tagHook(log logrus.FieldLogger, f *model.Feed, artwork []byte) func(model.Outcome) {
	if !r.settings.Tags.Modify && artwork == nil {
		return nil
	}

	positions := make(map[model.ItemKey]int, len(f.Items))
	for i, item := range f.Items {
		if _, ok := positions[item.Key()]; !ok {
			positions[item.Key()] = i + 1
		}
	}

	return func(o model.Outcome) {
		if !o.Item.IsAudio() {
			return
		}
		info := audio.TagInfo{
			Title:  o.Item.Title,
			Album:  f.Title,
			Artist: f.Author,
			Track:  positions[o.Item.Key()],
		}
		if err := r.tagger.SaveTags(o.Path, info, artwork); err != nil {
			log.WithError(err).WithField("path", o.Path).Warn("Failed to tag file")
		}
	}
}

// writePlaylist lists, in feed order, every item whose file is on disk.
func (r *Runner) writePlaylist(log logrus.FieldLogger, f *model.Feed, destDir string, result *Result) {
	var entries []audio.PlaylistEntry
	for _, item := range f.Items {
		path := filepath.Join(destDir, item.FileName())
		if info, err := os.Stat(path); err != nil || !info.Mode().IsRegular() {
			continue
		}
		entries = append(entries, audio.EntryFromOutcome(model.Outcome{Item: item, Path: path}, f.Author))
	}
	if len(entries) == 0 {
		return
	}

	format := r.settings.PlaylistFormat()
	creator := audio.NewPlaylistCreator(format, r.settings.Playlist.M3UExtended)
	path := f.PlaylistPath(r.settings.Download.OutputRoot, format)

	if err := ioutils.WriteFileAtomic(path, []byte(creator.CreatePlaylist(f.Title, entries)), 0644); err != nil {
		log.WithError(err).Warn("Failed to write playlist")
		r.emit(LevelWarning, "Could not write playlist: %v", err)
		return
	}
	result.PlaylistPath = path
	r.emit(LevelVerbose, "Saved playlist to %s", path)
}

func (r *Runner) emit(level Level, format string, args ...any) {
	if r.onEvent != nil {
		r.onEvent(Event{Message: fmt.Sprintf(format, args...), Level: level})
	}
}
