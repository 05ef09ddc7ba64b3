package seqbank

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ValentinKolb/seqbank/lib/fetch"
	"github.com/ValentinKolb/seqbank/lib/remote"
	"github.com/klauspost/pgzip"
)

// ArchiveOptions configures AddArchive.
type ArchiveOptions struct {
	Force  bool   // add the archive even if it was added before
	TmpDir string // parent of the download directory (system default if empty)
}

// AddArchive downloads a family archive (such as a Dfam release), unpacks it
// if it is gzip compressed and adds the consensus sequence of every family
// under its accession. The URL is marked as seen afterwards, and skipped on
// later calls unless opts.Force is set.
func (sb *SeqBank) AddArchive(ctx context.Context, url string, open remote.ArchiveOpener, opts ArchiveOptions) URLResult {
	res := URLResult{URL: url}
	if !opts.Force && sb.SeenURL(url) {
		res.Status = URLAlreadyProcessed
		sb.metrics.observeURL(res.Status)
		ilog.Debugf("skipping %s, already processed", url)
		return res
	}

	err := fetch.WithTempDir(opts.TmpDir, "seqbank-archive-", func(dir string) error {
		local := filepath.Join(dir, fetch.LocalName(url))
		if err := sb.downloader.Download(ctx, url, local); err != nil {
			return fmt.Errorf("download: %w", err)
		}
		if strings.HasSuffix(local, ".gz") {
			unpacked := strings.TrimSuffix(local, ".gz")
			if err := gunzip(local, unpacked); err != nil {
				return err
			}
			local = unpacked
		}

		archive, err := open(local)
		if err != nil {
			return fmt.Errorf("open archive: %w", err)
		}
		defer archive.Close()

		err = archive.Visit(func(accession, consensus string) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res.Records.Read++
			if err := sb.Add(accession, RawString(consensus)); err != nil {
				return err
			}
			res.Records.Added++
			return nil
		})
		if err != nil {
			return err
		}
		return sb.SaveSeenURL(url)
	})
	if err != nil {
		res.Status = URLFailed
		res.Err = err
		ilog.Errorf("failed to add archive %s: %v", url, err)
	} else {
		res.Status = URLAdded
		ilog.Infof("added %d families from %s", res.Records.Added, url)
	}
	sb.metrics.observeURL(res.Status)
	return res
}

func gunzip(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	zr, err := pgzip.NewReader(in)
	if err != nil {
		return fmt.Errorf("gunzip %s: %w", src, err)
	}
	defer zr.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if _, err := io.Copy(out, zr); err != nil {
		return fmt.Errorf("gunzip %s: %w", src, err)
	}
	return nil
}
