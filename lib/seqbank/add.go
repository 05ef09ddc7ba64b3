package seqbank

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ValentinKolb/seqbank/lib/filter"
	"github.com/ValentinKolb/seqbank/lib/seqio"
)

// ErrAmbiguousTarget is returned by AddSequenceFromFile when the file does not
// hold exactly one record.
var ErrAmbiguousTarget = errors.New("file must contain exactly one record")

// FileOptions configures AddFile.
type FileOptions struct {
	Format   seqio.Format // empty: detect from the file extension
	Filter   filter.Spec  // nil: accept every record
	Progress bool         // show a per-record progress bar
}

// FileResult counts the records of one file. Read == Added + Skipped.
type FileResult struct {
	Read    int `json:"read" yaml:"read"`
	Added   int `json:"added" yaml:"added"`
	Skipped int `json:"skipped" yaml:"skipped"`
}

// AddFile ingests every record of the file at path, in file order. Records
// whose id is not allowed by the filter are skipped. Cancelling ctx stops the
// ingestion between two records; records written until then stay.
func (sb *SeqBank) AddFile(ctx context.Context, path string, opts FileOptions) (FileResult, error) {
	set, err := filter.Parse(opts.Filter)
	if err != nil {
		return FileResult{}, err
	}
	return sb.addFile(ctx, path, opts.Format, set, opts.Progress)
}

func (sb *SeqBank) addFile(ctx context.Context, path string, format seqio.Format, set filter.Set, showProgress bool) (res FileResult, err error) {
	start := time.Now()
	defer func() { sb.metrics.observeFile(res, err, start) }()

	format, err = seqio.Resolve(format, path)
	if err != nil {
		return res, err
	}

	total := 0
	if showProgress {
		// first pass, only used for the progress bar
		if total, err = seqio.Count(path, format); err != nil {
			return res, err
		}
	}
	bar := newProgress(showProgress, total, "adding records")
	defer bar.finish()

	err = seqio.ReadFile(path, format, func(rec seqio.Record) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		res.Read++
		bar.increment()
		if !set.Allows(rec.ID) {
			res.Skipped++
			return nil
		}
		if err := sb.Add(rec.ID, Record(rec)); err != nil {
			return err
		}
		res.Added++
		return nil
	})
	if err != nil {
		return res, fmt.Errorf("add file %s: %w", path, err)
	}
	ilog.Debugf("read %d records from %s (%d added, %d skipped)", res.Read, path, res.Added, res.Skipped)
	return res, nil
}

// AddSequenceFromFile stores the single record of the file at path under
// accession. Files with zero or more than one record fail with
// ErrAmbiguousTarget and nothing is written.
func (sb *SeqBank) AddSequenceFromFile(ctx context.Context, accession, path string, format seqio.Format) error {
	format, err := seqio.Resolve(format, path)
	if err != nil {
		return err
	}

	var (
		found seqio.Record
		n     int
	)
	err = seqio.ReadFile(path, format, func(rec seqio.Record) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		n++
		if n == 1 {
			found = rec
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if n != 1 {
		return fmt.Errorf("%s has %d records: %w", path, n, ErrAmbiguousTarget)
	}
	return sb.Add(accession, Record(found))
}
