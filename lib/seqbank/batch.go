package seqbank

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/ValentinKolb/seqbank/lib/filter"
	"github.com/ValentinKolb/seqbank/lib/seqio"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// BatchOptions configures AddURLs and AddFiles.
type BatchOptions struct {
	Max     int          // maximum number of new items processed in this call (0 = unlimited)
	Format  seqio.Format // empty: detect per item
	Force   bool         // AddURLs: ingest URLs that were processed before
	Workers int          // parallel items (<= 0: one per CPU)
	TmpDir  string       // AddURLs: parent of the per-URL download directories
	Filter  filter.Spec  // AddFiles: parsed once and shared by all files
}

func (o BatchOptions) workers() int {
	if o.Workers <= 0 {
		return runtime.NumCPU()
	}
	return o.Workers
}

// ItemFailure is one failed file or URL of a batch.
type ItemFailure struct {
	Item string `json:"item" yaml:"item"`
	Err  error  `json:"-" yaml:"-"`
}

// BatchReport summarizes a batch. Scheduled == Succeeded + Failed + Cancelled.
// Skipped counts URLs dropped before scheduling because they were seen before.
type BatchReport struct {
	RunID     string        `json:"run_id" yaml:"run_id"`
	Scheduled int           `json:"scheduled" yaml:"scheduled"`
	Succeeded int           `json:"succeeded" yaml:"succeeded"`
	Failed    int           `json:"failed" yaml:"failed"`
	Skipped   int           `json:"skipped" yaml:"skipped"`
	Cancelled int           `json:"cancelled" yaml:"cancelled"`
	Failures  []ItemFailure `json:"failures,omitempty" yaml:"failures,omitempty"`
}

// AddURLs ingests many URLs in parallel. URLs that were fully ingested before
// are dropped first (unless opts.Force), then at most opts.Max of the remaining
// URLs are processed, in list order of dispatch. A failing URL never stops the
// others. Cancelling ctx stops dispatching new URLs.
func (sb *SeqBank) AddURLs(ctx context.Context, urls []string, opts BatchOptions) BatchReport {
	var pending []string
	skipped := 0
	for _, u := range urls {
		if !opts.Force && sb.SeenURL(u) {
			skipped++
			continue
		}
		if opts.Max > 0 && len(pending) >= opts.Max {
			break
		}
		pending = append(pending, u)
	}

	urlOpts := URLOptions{Format: opts.Format, Force: opts.Force, TmpDir: opts.TmpDir}
	report := sb.runBatch(ctx, "urls", pending, opts.workers(), func(ctx context.Context, u string) error {
		res := sb.AddURL(ctx, u, urlOpts)
		if res.Status == URLFailed {
			return res.Err
		}
		return nil
	})
	report.Skipped = skipped
	return report
}

// AddFiles ingests many local files in parallel. At most opts.Max files are
// processed. A failing file never stops the others.
func (sb *SeqBank) AddFiles(ctx context.Context, files []string, opts BatchOptions) (BatchReport, error) {
	set, err := filter.Parse(opts.Filter)
	if err != nil {
		return BatchReport{}, err
	}
	if opts.Max > 0 && len(files) > opts.Max {
		files = files[:opts.Max]
	}

	report := sb.runBatch(ctx, "files", files, opts.workers(), func(ctx context.Context, path string) error {
		res, err := sb.addFile(ctx, path, opts.Format, set, false)
		if err != nil {
			ilog.Errorf("failed to add %s: %v", path, err)
			return err
		}
		ilog.Infof("added %d records from %s", res.Added, path)
		return nil
	})
	return report, nil
}

// runBatch fans items out to a bounded pool and waits for all of them.
// Item errors are collected, never returned to the group.
func (sb *SeqBank) runBatch(ctx context.Context, kind string, items []string, workers int, fn func(context.Context, string) error) BatchReport {
	report := BatchReport{
		RunID:     uuid.Must(uuid.NewV7()).String(),
		Scheduled: len(items),
	}
	if len(items) == 0 {
		return report
	}
	ilog.Infof("batch %s: processing %d %s with %d workers", report.RunID, len(items), kind, workers)

	var (
		succeeded, failed atomic.Int64
		cancelled         atomic.Int64
		mu                sync.Mutex
		failures          []ItemFailure
	)
	bar := newProgress(sb.progress, len(items), "adding "+kind)
	defer bar.finish()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	dispatched := 0
	for _, item := range items {
		if gctx.Err() != nil {
			break
		}
		dispatched++
		item := item
		// g.Go blocks while the pool is full, so the context may be done by
		// the time the item starts
		g.Go(func() error {
			defer bar.increment()
			if gctx.Err() != nil {
				cancelled.Add(1)
				return nil
			}
			if err := fn(gctx, item); err != nil {
				failed.Add(1)
				mu.Lock()
				failures = append(failures, ItemFailure{Item: item, Err: err})
				mu.Unlock()
				return nil
			}
			succeeded.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	report.Succeeded = int(succeeded.Load())
	report.Failed = int(failed.Load())
	report.Cancelled = int(cancelled.Load()) + len(items) - dispatched
	report.Failures = failures
	ilog.Infof("batch %s: %d succeeded, %d failed, %d cancelled",
		report.RunID, report.Succeeded, report.Failed, report.Cancelled)
	return report
}
