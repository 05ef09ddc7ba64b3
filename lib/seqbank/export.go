package seqbank

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/ValentinKolb/seqbank/lib/codec"
	"github.com/ValentinKolb/seqbank/lib/filter"
	"github.com/ValentinKolb/seqbank/lib/seqio"
)

// ExportOptions configures Export.
type ExportOptions struct {
	// Format of the output, detected from the output name if empty.
	Format seqio.Format
	// Accessions selects and orders the exported records. A filter.List is
	// exported in list order, a filter.File in line order and a filter.Set in
	// ascending order. nil or an empty list exports the whole bank in
	// ascending accession order.
	Accessions filter.Spec
	// Workers compresses .gz output in parallel (<= 0: GOMAXPROCS).
	Workers int
}

// Export writes the selected sequences to the file out and returns the number
// of records written. An output name ending in .gz is gzip compressed.
func (sb *SeqBank) Export(ctx context.Context, out string, opts ExportOptions) (n int, err error) {
	format, err := seqio.Resolve(opts.Format, out)
	if err != nil {
		return 0, err
	}
	if !format.Writable() {
		return 0, fmt.Errorf("export %s: %w: %s", out, seqio.ErrUnsupportedWrite, format)
	}

	w, err := seqio.Create(out, opts.Workers)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", out, cerr)
		}
	}()

	n, err = sb.ExportTo(ctx, w, format, opts.Accessions)
	if err != nil {
		return n, fmt.Errorf("export %s: %w", out, err)
	}
	plog.Infof("exported %d records to %s", n, out)
	return n, nil
}

// ExportTo writes the selected sequences to w in format f. See ExportOptions
// for how accessions selects records.
func (sb *SeqBank) ExportTo(ctx context.Context, w io.Writer, f seqio.Format, accessions filter.Spec) (int, error) {
	sw, err := seqio.NewWriter(w, f)
	if err != nil {
		return 0, err
	}

	list, err := resolveAccessions(accessions)
	if err != nil {
		return 0, err
	}

	n := 0
	if list == nil {
		err = sb.Items(func(accession string, encoded []byte) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := sw.Write(seqio.Record{ID: accession, Seq: codec.DecodeBytes(encoded)}); err != nil {
				return err
			}
			n++
			return nil
		})
	} else {
		for _, accession := range list {
			if err = ctx.Err(); err != nil {
				break
			}
			var rec seqio.Record
			if rec, err = sb.Record(accession); err != nil {
				break
			}
			if err = sw.Write(rec); err != nil {
				break
			}
			n++
		}
	}
	if err != nil {
		return n, err
	}
	return n, sw.Flush()
}

// resolveAccessions returns nil when the whole bank is selected.
func resolveAccessions(spec filter.Spec) ([]string, error) {
	switch v := spec.(type) {
	case nil:
		return nil, nil
	case filter.List:
		if len(v) == 0 {
			return nil, nil
		}
		return v, nil
	case filter.File:
		return filter.ReadLines(string(v))
	case filter.Set:
		if len(v) == 0 {
			return nil, nil
		}
		list := make([]string, 0, len(v))
		for acc := range v {
			list = append(list, acc)
		}
		sort.Strings(list)
		return list, nil
	default:
		return nil, fmt.Errorf("unsupported accession selection %T", spec)
	}
}
