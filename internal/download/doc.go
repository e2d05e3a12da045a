// Package download provides the download orchestration logic for
// fetching the media items of a feed.
//
// # Worker
//
// A Worker fetches one item with a streaming GET. Transient failures
// (connection errors, timeouts, truncated bodies, non-2xx responses) are
// retried with exponential backoff, up to WorkerConfig.MaxRetries attempts
// in total. Permanent failures (malformed URLs, unwritable destinations)
// are never retried.
//
// # Manager
//
// The Manager coordinates a run:
//
//  1. Load the progress record
//  2. Compute the items still to download
//  3. Dispatch them in order to a bounded pool of workers
//  4. Collect every outcome on a single consumer, reporting progress
//  5. Save prior progress ∪ succeeded items
//  6. Append failed items to the failure log
//
// # Basic Usage
//
//	worker := download.NewWorker(client, download.WorkerConfig{}, logger)
//	manager := download.NewManager(download.ManagerConfig{MaxParallel: 4},
//	    worker, progress.NewJSONStore("download_progress.json"),
//	    download.NewFailureLog("log.txt"), logger)
//
//	manager.OnProgress(func(p download.Progress) {
//	    fmt.Printf("%d/%d\n", p.Succeeded, p.Total)
//	})
//
//	report, err := manager.Run(ctx, feed.Items, feed.Dir("media"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Stopping
//
// Manager.Stop stops dispatching new items; in-flight items finish and the
// run still saves. Cancelling the context aborts in-flight downloads too,
// and whatever succeeded before the abort is still saved.
package download
