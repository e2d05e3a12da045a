package download

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	ioutils "github.com/handiism/feed-downloader/internal/io"
	"github.com/handiism/feed-downloader/internal/model"
	"github.com/sirupsen/logrus"
)

// DefaultMaxRetries is the number of attempts made for one item.
const DefaultMaxRetries = 3

// DefaultBackoffUnit is multiplied by 2^attempt between attempts.
const DefaultBackoffUnit = time.Second

// FileDownloader streams a URL into a local file. *http.Client implements it.
type FileDownloader interface {
	DownloadFile(ctx context.Context, url, destPath string, onProgress func(written, total int64)) (int64, error)
}

// Fetcher downloads one item and always returns its outcome.
type Fetcher interface {
	Fetch(ctx context.Context, item model.MediaItem, destDir string) model.Outcome
}

// WorkerConfig holds the retry policy of a Worker.
type WorkerConfig struct {
	// MaxRetries is the total number of attempts per item. Values below 1 use DefaultMaxRetries.
	MaxRetries int

	// BackoffUnit scales the exponential wait: 2^attempt × BackoffUnit.
	// Zero uses DefaultBackoffUnit.
	BackoffUnit time.Duration
}

// Worker fetches single items with retry and exponential backoff.
//
// Example:
//
//	w := NewWorker(http.NewClient(http.Options{}), WorkerConfig{MaxRetries: 3}, logger)
//	outcome := w.Fetch(ctx, item, "media/example.com")
//	if !outcome.Succeeded() {
//	    fmt.Println(outcome.Attempts, outcome.Reason())
//	}
type Worker struct {
	client FileDownloader
	cfg    WorkerConfig
	log    logrus.FieldLogger

	// AfterFetch, when set, runs after every successful download. It cannot
	// change the outcome.
	AfterFetch func(model.Outcome)

	// OnBytes, when set, receives byte progress of the current attempt.
	OnBytes func(item model.MediaItem, written, total int64)

	wait func(ctx context.Context, d time.Duration) error
}

// NewWorker creates a Worker. A nil logger discards log output.
func NewWorker(client FileDownloader, cfg WorkerConfig, log logrus.FieldLogger) *Worker {
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.BackoffUnit <= 0 {
		cfg.BackoffUnit = DefaultBackoffUnit
	}
	if log == nil {
		log = discardLogger()
	}
	return &Worker{
		client: client,
		cfg:    cfg,
		log:    log,
		wait:   sleepContext,
	}
}

// Config returns the effective configuration.
func (w *Worker) Config() WorkerConfig {
	return w.cfg
}

// Fetch downloads item into destDir and reports the outcome.
//
// Transient failures are retried up to MaxRetries attempts in total, waiting
// 2^attempt × BackoffUnit after failed attempt number attempt. Permanent
// failures end the loop immediately with StatusFailed; context cancellation
// ends it with StatusAborted. Every attempt
// truncates the destination, so a partial file from an earlier attempt never
// leaks into a later success. A failed outcome may leave a partial file behind.
func (w *Worker) Fetch(ctx context.Context, item model.MediaItem, destDir string) model.Outcome {
	dest := filepath.Join(destDir, item.FileName())
	outcome := model.Outcome{Item: item, Path: dest, Status: model.StatusFailed}
	log := w.log.WithFields(logrus.Fields{"title": item.Title, "url": item.URL})

	log.WithField("path", dest).Debug("Downloading")

	for attempt := 1; attempt <= w.cfg.MaxRetries; attempt++ {
		outcome.Attempts = attempt

		n, err := w.attempt(ctx, item, dest)
		if err == nil {
			outcome.Status = model.StatusSuccess
			outcome.Bytes = n
			outcome.Err = nil
			log.WithField("bytes", n).Info("Download successful")
			w.afterFetch(log, outcome)
			return outcome
		}

		outcome.Err = err
		if ctx.Err() != nil {
			outcome.Status = model.StatusAborted
			log.WithError(err).Warn("Download aborted")
			return outcome
		}
		if IsPermanent(err) {
			log.WithError(err).Error("Download failed permanently")
			return outcome
		}

		log.WithError(err).Warnf("Attempt %d/%d failed", attempt, w.cfg.MaxRetries)

		if attempt < w.cfg.MaxRetries {
			if err := w.wait(ctx, w.Backoff(attempt)); err != nil {
				outcome.Status = model.StatusAborted
				log.WithError(err).Warn("Download aborted during backoff")
				return outcome
			}
		}
	}

	log.WithError(outcome.Err).Errorf("Giving up after %d attempts", outcome.Attempts)
	return outcome
}

// Backoff returns the wait after failed attempt number attempt (1-based).
func (w *Worker) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 30 {
		attempt = 30
	}
	return time.Duration(1<<uint(attempt)) * w.cfg.BackoffUnit
}

func (w *Worker) attempt(ctx context.Context, item model.MediaItem, dest string) (int64, error) {
	if err := validateURL(item.URL); err != nil {
		return 0, err
	}
	if err := ioutils.EnsureDir(filepath.Dir(dest)); err != nil {
		return 0, &PermanentError{Err: fmt.Errorf("create directory: %w", err)}
	}

	var onProgress func(written, total int64)
	if w.OnBytes != nil {
		onProgress = func(written, total int64) {
			w.OnBytes(item, written, total)
		}
	}

	n, err := w.client.DownloadFile(ctx, item.URL, dest, onProgress)
	return n, classify(err)
}

func (w *Worker) afterFetch(log logrus.FieldLogger, outcome model.Outcome) {
	if w.AfterFetch == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Post-download hook panicked: %v", r)
		}
	}()
	w.AfterFetch(outcome)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
