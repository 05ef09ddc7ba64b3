package remote

import (
	"fmt"
	"io"
	"strings"

	"github.com/ValentinKolb/seqbank/lib/seqio"
)

// DfamURL returns the URL of the Dfam HDF5 family file. release is "current"
// if empty.
func DfamURL(curated bool, release string) string {
	return dfamURL(curated, release, "h5")
}

// DfamEMBLURL returns the URL of the Dfam family file in EMBL format, which
// can be read with DfamEMBLOpener.
func DfamEMBLURL(curated bool, release string) string {
	return dfamURL(curated, release, "embl")
}

func dfamURL(curated bool, release, ext string) string {
	if release == "" {
		release = "current"
	}
	curatedStr := ""
	if curated {
		curatedStr = "_curatedonly"
	}
	return fmt.Sprintf("https://www.dfam.org/releases/%s/families/Dfam%s.%s.gz", release, curatedStr, ext)
}

// --------------------------------------------------------------------------
// Archives
// --------------------------------------------------------------------------

// ArchiveVisitor walks the families of a downloaded archive.
type ArchiveVisitor interface {
	// Visit calls fn for every family with its accession and consensus sequence.
	// It stops at the first error returned by fn.
	Visit(fn func(accession, consensus string) error) error
	io.Closer
}

// ArchiveOpener opens a decompressed archive file.
// HDF5 archives need an opener provided by the caller.
type ArchiveOpener func(path string) (ArchiveVisitor, error)

// SeqFileOpener returns an opener that treats the archive as a sequence file in format f.
func SeqFileOpener(f seqio.Format) ArchiveOpener {
	return func(path string) (ArchiveVisitor, error) {
		return &seqFileArchive{path: path, format: f}, nil
	}
}

// DfamEMBLOpener returns an opener for the EMBL release of Dfam. Families are
// visited under their bare accession (DF000000001), the ".N" sequence version
// of the ID line is dropped.
func DfamEMBLOpener() ArchiveOpener {
	return func(path string) (ArchiveVisitor, error) {
		return &seqFileArchive{path: path, format: seqio.FormatEMBL, bare: true}, nil
	}
}

type seqFileArchive struct {
	path   string
	format seqio.Format
	bare   bool // strip the version suffix from accessions
}

func (a *seqFileArchive) Visit(fn func(accession, consensus string) error) error {
	return seqio.ReadFile(a.path, a.format, func(rec seqio.Record) error {
		accession := rec.ID
		if a.bare {
			accession, _, _ = strings.Cut(accession, ".")
		}
		return fn(accession, string(rec.Seq))
	})
}

func (a *seqFileArchive) Close() error { return nil }
