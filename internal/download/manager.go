package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/handiism/feed-downloader/internal/model"
	"github.com/handiism/feed-downloader/internal/progress"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxParallel is the default number of concurrent downloads.
const DefaultMaxParallel = 4

// State is the lifecycle position of a Manager run.
type State int

const (
	StateIdle State = iota
	StateDispatching
	StateDraining
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDispatching:
		return "dispatching"
	case StateDraining:
		return "draining"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// CorruptPolicy decides what a run does with an unreadable progress record.
type CorruptPolicy int

const (
	// CorruptAbort makes the run fail before any download.
	CorruptAbort CorruptPolicy = iota

	// CorruptReset treats prior progress as empty, re-downloading everything.
	CorruptReset
)

// ManagerConfig holds the scheduling options of a Manager.
type ManagerConfig struct {
	// MaxParallel bounds concurrent fetches. Values below 1 use DefaultMaxParallel.
	MaxParallel int

	// OnCorrupt selects the corrupt progress policy.
	OnCorrupt CorruptPolicy

	// Incremental saves progress after every success instead of once at the end.
	Incremental bool
}

// Progress is emitted to the observer after every completed item.
type Progress struct {
	// Completed counts outcomes received so far, successes and failures.
	Completed int

	// Succeeded counts successful outcomes so far.
	Succeeded int

	// Failed counts failed outcomes so far.
	Failed int

	// Aborted counts outcomes interrupted by cancellation so far.
	Aborted int

	// Total is the number of items in the run's work list. It never changes during a run.
	Total int

	// Fraction is Succeeded / Total, in [0, 1].
	Fraction float64

	// Outcome is the outcome that triggered this update.
	Outcome model.Outcome
}

// ProgressFunc observes run progress. It is called from a single goroutine.
type ProgressFunc func(Progress)

// Report summarizes a finished run.
type Report struct {
	// Prior is the number of items already recorded before the run.
	Prior int

	// Total is the number of items that still needed downloading.
	Total int

	// Dispatched is the number of items handed to workers.
	Dispatched int

	Succeeded int
	Failed    int

	// Aborted is the number of dispatched items interrupted by context
	// cancellation. They are not failures and are retried by the next run.
	Aborted int

	// Skipped is the number of items never dispatched because of a stop or abort.
	Skipped int

	// Stopped is true when Stop was called before every item was dispatched.
	Stopped bool

	// Outcomes holds one entry per dispatched item, in completion order.
	Outcomes []model.Outcome
}

// FailedItems returns the items of failed outcomes. Aborted items are not
// included.
func (r *Report) FailedItems() []model.MediaItem {
	var items []model.MediaItem
	for _, o := range r.Outcomes {
		if o.Status == model.StatusFailed {
			items = append(items, o.Item)
		}
	}
	return items
}

// Manager schedules downloads over a bounded pool of workers and keeps the
// progress record and failure log up to date.
//
// Example:
//
//	mgr := NewManager(ManagerConfig{MaxParallel: 4}, worker, store, NewFailureLog("log.txt"), logger)
//	mgr.OnProgress(func(p Progress) { fmt.Printf("%.0f%%\n", p.Fraction*100) })
//	report, err := mgr.Run(ctx, feed.Items, "media/example.com")
type Manager struct {
	cfg      ManagerConfig
	fetcher  Fetcher
	store    progress.Store
	failures *FailureLog
	log      logrus.FieldLogger

	onProgress ProgressFunc

	mu       sync.RWMutex
	state    State
	stop     chan struct{}
	stopOnce sync.Once
}

// NewManager creates a Manager. failures may be nil to skip failure logging;
// a nil logger discards log output.
func NewManager(cfg ManagerConfig, fetcher Fetcher, store progress.Store, failures *FailureLog, log logrus.FieldLogger) *Manager {
	if cfg.MaxParallel < 1 {
		cfg.MaxParallel = DefaultMaxParallel
	}
	if log == nil {
		log = discardLogger()
	}
	return &Manager{
		cfg:      cfg,
		fetcher:  fetcher,
		store:    store,
		failures: failures,
		log:      log,
		stop:     make(chan struct{}),
	}
}

// OnProgress registers the progress observer. Call before Run.
func (m *Manager) OnProgress(fn ProgressFunc) {
	m.onProgress = fn
}

// Config returns the effective configuration.
func (m *Manager) Config() ManagerConfig {
	return m.cfg
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Stop prevents any further items from being dispatched. In-flight downloads
// run to completion (including their retries) and the run still persists its
// progress and failures. Stop is idempotent and safe to call from any goroutine;
// a stopped Manager dispatches nothing on later runs.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
		m.log.Info("Stop requested, letting in-flight downloads finish")
	})
}

// Stopped reports whether Stop has been called.
func (m *Manager) Stopped() bool {
	select {
	case <-m.stop:
		return true
	default:
		return false
	}
}

// Run downloads every item of items not yet recorded in the progress store.
//
// The run loads the progress record, dispatches the remaining items in order
// to at most MaxParallel concurrent fetches, and when every dispatched item has
// an outcome saves prior ∪ succeeded and appends failures to the failure log.
// Individual download failures never make Run fail; they are reported in the
// Report and the failure log. Items interrupted by cancellation are counted as
// Aborted and kept out of the failure log. Run returns an error for an unreadable progress
// record (under CorruptAbort), a failed save, or context cancellation; the
// Report is returned alongside the latter two.
func (m *Manager) Run(ctx context.Context, items []model.MediaItem, destDir string) (*Report, error) {
	m.setState(StateIdle)

	prior, err := LoadProgress(ctx, m.store, m.cfg.OnCorrupt, m.log)
	if err != nil {
		return nil, err
	}

	work := progress.Diff(items, prior)
	report := &Report{Prior: prior.Len(), Total: len(work)}

	m.log.WithFields(logrus.Fields{
		"items":     len(items),
		"completed": prior.Len(),
		"remaining": len(work),
	}).Info("Resuming from progress record")

	if len(work) == 0 {
		m.setState(StateDone)
		return report, nil
	}

	m.setState(StateDispatching)

	jobs := make(chan model.MediaItem)
	results := make(chan model.Outcome, len(work))

	units := m.cfg.MaxParallel
	if units > len(work) {
		units = len(work)
	}

	var g errgroup.Group
	for i := 0; i < units; i++ {
		g.Go(func() error {
			for item := range jobs {
				results <- m.fetcher.Fetch(ctx, item, destDir)
			}
			return nil
		})
	}

	succeeded := progress.NewSet()
	consumed := make(chan struct{})
	go func() {
		defer close(consumed)
		m.drain(ctx, results, report, prior, succeeded)
	}()

	report.Dispatched, report.Stopped = m.dispatch(ctx, work, jobs)
	close(jobs)

	m.setState(StateDraining)
	_ = g.Wait()
	close(results)
	<-consumed

	report.Skipped = report.Total - report.Dispatched
	m.setState(StateDone)

	return report, m.finish(ctx, report, prior, succeeded)
}

// dispatch hands items to idle workers in order until the list is exhausted,
// Stop is called, or ctx is cancelled.
func (m *Manager) dispatch(ctx context.Context, work []model.MediaItem, jobs chan<- model.MediaItem) (int, bool) {
	dispatched := 0
	for _, item := range work {
		// Checked first so a pending stop wins over a free worker.
		select {
		case <-m.stop:
			return dispatched, true
		case <-ctx.Done():
			return dispatched, false
		default:
		}

		select {
		case jobs <- item:
			dispatched++
		case <-m.stop:
			return dispatched, true
		case <-ctx.Done():
			return dispatched, false
		}
	}
	return dispatched, false
}

// drain is the single consumer of outcomes. It owns the counters, the outcome
// list, the observer calls and incremental saves.
func (m *Manager) drain(ctx context.Context, results <-chan model.Outcome, report *Report, prior, succeeded *progress.Set) {
	for outcome := range results {
		if interrupted(ctx, outcome) {
			outcome.Status = model.StatusAborted
		}
		report.Outcomes = append(report.Outcomes, outcome)
		switch {
		case outcome.Succeeded():
			report.Succeeded++
			succeeded.Add(outcome.Item)
			if m.cfg.Incremental {
				if err := m.store.Save(context.WithoutCancel(ctx), prior.Union(succeeded)); err != nil {
					m.log.WithError(err).Warn("Incremental progress save failed")
				}
			}
		case outcome.Aborted():
			report.Aborted++
		default:
			report.Failed++
		}

		if m.onProgress != nil {
			m.onProgress(Progress{
				Completed: len(report.Outcomes),
				Succeeded: report.Succeeded,
				Failed:    report.Failed,
				Aborted:   report.Aborted,
				Total:     report.Total,
				Fraction:  float64(report.Succeeded) / float64(report.Total),
				Outcome:   outcome,
			})
		}
	}
}

// finish persists progress and failures. It runs even after cancellation so
// completed work is never lost.
func (m *Manager) finish(ctx context.Context, report *Report, prior, succeeded *progress.Set) error {
	var errs []error

	saveCtx := context.WithoutCancel(ctx)
	if err := m.store.Save(saveCtx, prior.Union(succeeded)); err != nil {
		errs = append(errs, fmt.Errorf("save progress: %w", err))
	}

	if failed := report.FailedItems(); len(failed) > 0 {
		if err := m.failures.Append(failed...); err != nil {
			errs = append(errs, fmt.Errorf("append failure log: %w", err))
		}
	}

	m.log.WithFields(logrus.Fields{
		"succeeded": report.Succeeded,
		"failed":    report.Failed,
		"aborted":   report.Aborted,
		"skipped":   report.Skipped,
	}).Info("Run finished")

	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// LoadProgress loads the progress record of store, applying policy to an
// unreadable record. A nil logger discards log output.
func LoadProgress(ctx context.Context, store progress.Store, policy CorruptPolicy, log logrus.FieldLogger) (*progress.Set, error) {
	prior, err := store.Load(ctx)
	if err == nil {
		return prior, nil
	}

	var corrupt *progress.CorruptStateError
	if errors.As(err, &corrupt) && policy == CorruptReset {
		if log == nil {
			log = discardLogger()
		}
		log.WithError(err).Warn("Progress record unreadable, starting from scratch")
		return progress.NewSet(), nil
	}
	return nil, fmt.Errorf("load progress: %w", err)
}

// interrupted reports whether a failed outcome was caused by the run's own
// cancellation rather than by the download.
func interrupted(ctx context.Context, o model.Outcome) bool {
	if o.Status != model.StatusFailed || o.Err == nil {
		return false
	}
	return ctx.Err() != nil && errors.Is(o.Err, ctx.Err())
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
