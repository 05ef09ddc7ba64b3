package seqbank

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/ValentinKolb/seqbank/lib/fetch"
	"github.com/ValentinKolb/seqbank/lib/seqio"
	"github.com/lni/dragonboat/v4/logger"
)

var ilog = logger.GetLogger("ingest")

// now is replaced in tests.
var now = time.Now

// URLStatus is the outcome of ingesting one URL.
type URLStatus int

const (
	URLAdded URLStatus = iota
	URLAlreadyProcessed
	URLFailed
)

func (s URLStatus) String() string {
	switch s {
	case URLAdded:
		return "added"
	case URLAlreadyProcessed:
		return "already processed"
	case URLFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// URLOptions configures AddURL.
type URLOptions struct {
	Format seqio.Format // empty: detect from the file name of the URL
	Force  bool         // ingest even if the URL was processed before
	TmpDir string       // parent of the per-URL download directory (system default if empty)
}

// URLResult reports what AddURL did. Err is set iff Status is URLFailed.
type URLResult struct {
	URL     string
	Status  URLStatus
	Err     error
	Records FileResult
}

// AddURL downloads url and ingests it as a file. A URL that was fully ingested
// before is skipped unless opts.Force is set. The download lives in a temporary
// directory that is removed on every exit path. Failures are logged and
// reported in the result, they are never returned as errors so that batches
// can carry on.
func (sb *SeqBank) AddURL(ctx context.Context, url string, opts URLOptions) URLResult {
	res := sb.addURL(ctx, url, opts)
	sb.metrics.observeURL(res.Status)
	switch res.Status {
	case URLFailed:
		ilog.Errorf("failed to add %s: %v", url, res.Err)
	case URLAlreadyProcessed:
		ilog.Debugf("skipping %s, already processed", url)
	default:
		ilog.Infof("added %d records from %s", res.Records.Added, url)
	}
	return res
}

func (sb *SeqBank) addURL(ctx context.Context, url string, opts URLOptions) URLResult {
	res := URLResult{URL: url}
	if !opts.Force && sb.SeenURL(url) {
		res.Status = URLAlreadyProcessed
		return res
	}

	err := fetch.WithTempDir(opts.TmpDir, "seqbank-", func(dir string) error {
		local := filepath.Join(dir, fetch.LocalName(url))
		if err := sb.downloader.Download(ctx, url, local); err != nil {
			return fmt.Errorf("download: %w", err)
		}

		fileRes, err := sb.AddFile(ctx, local, FileOptions{Format: opts.Format, Progress: sb.progress})
		res.Records = fileRes
		if err != nil {
			return err
		}
		return sb.SaveSeenURL(url)
	})
	if err != nil {
		res.Status = URLFailed
		res.Err = err
		return res
	}
	res.Status = URLAdded
	return res
}
